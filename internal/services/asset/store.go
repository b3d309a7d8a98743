package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	"github.com/phambaophuc/image-publisher/internal/config"
	"github.com/phambaophuc/image-publisher/internal/models"
)

var (
	ErrAssetNotFound    = errors.New("watermark asset not found")
	ErrStoreUnavailable = errors.New("watermark store unavailable")
)

// Store fetches watermark assets by key from a blob store.
type Store interface {
	Name() string
	Fetch(ctx context.Context, key string) (*models.WatermarkAsset, error)
}

// newAsset fills in the decoded dimensions when the format is known.
func newAsset(key, sourceURL string, data []byte) *models.WatermarkAsset {
	a := &models.WatermarkAsset{
		Key:       key,
		SourceURL: sourceURL,
		Data:      data,
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		a.Width = cfg.Width
		a.Height = cfg.Height
	}
	return a
}

// NewStore builds the blob store selected by WATERMARK_STORE. It returns a nil
// Store when no watermark is configured.
func NewStore(cfg *config.Config) (Store, error) {
	if !cfg.Watermark.Enabled() {
		return nil, nil
	}

	switch cfg.Watermark.Store {
	case config.StoreSupabase:
		return NewSupabaseStore(cfg.Supabase), nil
	case config.StoreHTTP:
		return NewHTTPStore(cfg.Watermark.BaseURL, &http.Client{Timeout: cfg.Watermark.FetchTimeout}), nil
	case config.StoreAzure:
		store, err := NewAzureStore(cfg.Azure)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown watermark store %q", cfg.Watermark.Store)
	}
}
