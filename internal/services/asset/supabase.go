package asset

import (
	"context"
	"fmt"
	"strings"

	"github.com/phambaophuc/image-publisher/internal/config"
	"github.com/phambaophuc/image-publisher/internal/models"
	"github.com/phambaophuc/image-publisher/pkg/utils"
	storage_go "github.com/supabase-community/storage-go"
)

type SupabaseStore struct {
	sbClient *storage_go.Client
	bucket   string
}

func NewSupabaseStore(cfg config.SupabaseConfig) *SupabaseStore {
	sbClient := storage_go.NewClient(cfg.URL+"/storage/v1", cfg.KEY, nil)
	return &SupabaseStore{
		sbClient: sbClient,
		bucket:   cfg.BUCKET,
	}
}

func (s *SupabaseStore) Name() string { return "supabase" }

// Fetch downloads key from the bucket. The storage client takes no context,
// so the call is abandoned (not cancelled) when ctx expires.
func (s *SupabaseStore) Fetch(ctx context.Context, key string) (*models.WatermarkAsset, error) {
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := s.sbClient.DownloadFile(s.bucket, key)
		done <- result{data: data, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, ctx.Err())
	case res = <-done:
	}

	if res.err != nil {
		return nil, classifySupabaseError(key, res.err.Error())
	}
	if len(res.data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, key)
	}
	// Error bodies can come back as data with a nil error.
	if !utils.IsValidImageType(utils.DetectContentType(res.data)) {
		return nil, classifySupabaseError(key, string(res.data))
	}

	publicURL := s.sbClient.GetPublicUrl(s.bucket, key)
	return newAsset(key, publicURL.SignedURL, res.data), nil
}

// HealthCheck lists the bucket root.
func (s *SupabaseStore) HealthCheck(ctx context.Context) error {
	_, err := s.sbClient.ListFiles(s.bucket, "", storage_go.FileSearchOptions{})
	return err
}

func classifySupabaseError(key, message string) error {
	lower := strings.ToLower(message)
	if strings.Contains(lower, "not found") || strings.Contains(lower, "404") {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, key)
	}
	return fmt.Errorf("%w: %s", ErrStoreUnavailable, message)
}
