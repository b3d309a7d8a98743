package asset

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/phambaophuc/image-publisher/internal/config"
	"github.com/phambaophuc/image-publisher/internal/models"
)

type AzureStore struct {
	client    *azblob.Client
	container string
}

func NewAzureStore(cfg config.AzureConfig) (*AzureStore, error) {
	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure blob client: %w", err)
	}
	return &AzureStore{client: client, container: cfg.Container}, nil
}

func (s *AzureStore) Name() string { return "azure" }

func (s *AzureStore) Fetch(ctx context.Context, key string) (*models.WatermarkAsset, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, key)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read blob: %v", ErrStoreUnavailable, err)
	}
	if len(data) > maxAssetSize {
		return nil, fmt.Errorf("%w: blob %s exceeds %d bytes", ErrStoreUnavailable, key, maxAssetSize)
	}

	sourceURL := strings.TrimRight(s.client.URL(), "/") + "/" + s.container + "/" + strings.TrimLeft(key, "/")
	return newAsset(key, sourceURL, data), nil
}
