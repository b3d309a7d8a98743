package asset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phambaophuc/image-publisher/internal/config"
	"github.com/phambaophuc/image-publisher/internal/models"
	"go.uber.org/zap"
)

const defaultBackoff = 200 * time.Millisecond

// Resolver applies the deployment's fetch-failure policy on top of a Store.
type Resolver struct {
	store   Store
	policy  string
	timeout time.Duration
	retries int
	backoff time.Duration
	logger  *zap.Logger
}

func NewResolver(store Store, cfg config.WatermarkConfig, logger *zap.Logger) *Resolver {
	return &Resolver{
		store:   store,
		policy:  cfg.Policy,
		timeout: cfg.FetchTimeout,
		retries: cfg.FetchRetries,
		backoff: defaultBackoff,
		logger:  logger,
	}
}

// Resolve returns the asset for key. Under the degrade policy a failed fetch
// yields models.NoWatermark and a nil error.
func (r *Resolver) Resolve(ctx context.Context, key string) (*models.WatermarkAsset, error) {
	if key == "" || r.store == nil {
		return models.NoWatermark, nil
	}

	asset, err := r.fetchWithRetry(ctx, key)
	if err == nil {
		return asset, nil
	}

	if r.policy == config.PolicyDegrade {
		r.logger.Warn("Watermark unavailable, continuing without overlay",
			zap.String("key", key),
			zap.String("store", r.store.Name()),
			zap.Error(err))
		return models.NoWatermark, nil
	}

	detail := fmt.Sprintf("watermark asset %q is unavailable", key)
	if errors.Is(err, ErrAssetNotFound) {
		detail = fmt.Sprintf("watermark asset %q not found", key)
	}
	return nil, models.NewError(models.KindAssetUnavailable, detail, err)
}

func (r *Resolver) fetchWithRetry(ctx context.Context, key string) (*models.WatermarkAsset, error) {
	var lastErr error
	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, ctx.Err())
			case <-time.After(time.Duration(attempt) * r.backoff):
			}
		}

		asset, err := r.fetchOnce(ctx, key)
		if err == nil {
			return asset, nil
		}
		lastErr = err

		// A missing object will not appear on retry.
		if errors.Is(err, ErrAssetNotFound) {
			break
		}
		r.logger.Debug("Watermark fetch attempt failed",
			zap.String("key", key),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return nil, lastErr
}

func (r *Resolver) fetchOnce(ctx context.Context, key string) (*models.WatermarkAsset, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.store.Fetch(ctx, key)
}
