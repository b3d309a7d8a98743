package asset

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/phambaophuc/image-publisher/internal/models"
	"github.com/phambaophuc/image-publisher/pkg/utils"
)

const maxAssetSize = 10 << 20

// HTTPStore reads assets from a public bucket URL such as an R2 or S3
// public endpoint.
type HTTPStore struct {
	baseURL string
	client  *http.Client
}

func NewHTTPStore(baseURL string, client *http.Client) *HTTPStore {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPStore{baseURL: baseURL, client: client}
}

func (s *HTTPStore) Name() string { return "http" }

func (s *HTTPStore) Fetch(ctx context.Context, key string) (*models.WatermarkAsset, error) {
	assetURL := utils.JoinKeyURL(s.baseURL, key)

	data, _, err := utils.DownloadImage(ctx, s.client, assetURL, maxAssetSize)
	if err != nil {
		var statusErr *utils.StatusError
		if errors.As(err, &statusErr) && (statusErr.Code == http.StatusNotFound || statusErr.Code == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, key)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return newAsset(key, assetURL, data), nil
}
