package ledger

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/phambaophuc/image-publisher/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/zeebo/blake3"
)

const CacheKeyPrefix = "img_upload:"

// Record is what is remembered about a completed upload.
type Record struct {
	ImageID    string    `json:"image_id"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Ledger remembers which artifacts were already uploaded so that a
// resubmitted request does not create a second hosted image.
type Ledger struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewLedger(cfg config.RedisConfig) *Ledger {
	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ttl := cfg.DedupeTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Ledger{
		redisClient: redisClient,
		ttl:         ttl,
	}
}

// Key hashes the artifact together with its upload metadata.
func Key(data, metadata []byte) string {
	h := blake3.New()
	h.Write(data)
	h.Write([]byte{0})
	h.Write(metadata)
	return CacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Lookup returns the image id recorded for key, if any.
func (l *Ledger) Lookup(ctx context.Context, key string) (string, bool, error) {
	data, err := l.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("ledger get error: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return "", false, fmt.Errorf("ledger record corrupt: %w", err)
	}
	if record.ImageID == "" {
		return "", false, nil
	}
	return record.ImageID, true, nil
}

func (l *Ledger) Record(ctx context.Context, key, imageID string) error {
	data, err := json.Marshal(Record{ImageID: imageID, UploadedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal ledger record: %w", err)
	}
	return l.redisClient.Set(ctx, key, data, l.ttl).Err()
}

func (l *Ledger) HealthCheck(ctx context.Context) error {
	return l.redisClient.Ping(ctx).Err()
}

func (l *Ledger) Close() error {
	return l.redisClient.Close()
}
