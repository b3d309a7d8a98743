package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	StrategyRemote = "remote"
	StrategyLocal  = "local"

	PolicyStrict  = "strict"
	PolicyDegrade = "degrade"

	AnchorCorner = "corner"
	AnchorCenter = "center"

	StoreSupabase = "supabase"
	StoreHTTP     = "http"
	StoreAzure    = "azure"
)

// Config is built once at startup and never mutated afterwards.
type Config struct {
	Server      ServerConfig
	Cloudflare  CloudflareConfig
	Supabase    SupabaseConfig
	Azure       AzureConfig
	Redis       RedisConfig
	RabbitMQ    RabbitMQConfig
	Storage     StorageConfig
	Compositing CompositingConfig
	Watermark   WatermarkConfig
	Catalog     Catalog
}

type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	UploadMethod   string `validate:"oneof=POST PUT"`
	AllowOrigins   []string
	RateLimitRPS   float64 `validate:"gte=0"`
	RateLimitBurst int     `validate:"gte=0"`
}

type CloudflareConfig struct {
	AccountID         string `validate:"required"`
	DeliveryAccountID string `validate:"required"`
	APIToken          string `validate:"required"`
	APIBase           string `validate:"required,url"`
	DeliveryHost      string `validate:"required"`
	RequireSignedURLs bool
	UploadTimeout     time.Duration `validate:"gt=0"`
}

type SupabaseConfig struct {
	URL    string
	KEY    string
	BUCKET string
}

type AzureConfig struct {
	ConnectionString string
	Container        string
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	DedupeTTL time.Duration
}

type RabbitMQConfig struct {
	URL   string
	Queue string
}

type StorageConfig struct {
	MaxFileSize int64 `validate:"gt=0"`
}

type CompositingConfig struct {
	Strategy string `validate:"omitempty,oneof=remote local"`
	Format   string `validate:"oneof=jpeg png"`
	Quality  int    `validate:"min=1,max=100"`
}

type WatermarkConfig struct {
	Key          string
	Store        string        `validate:"omitempty,oneof=supabase http azure"`
	BaseURL      string        `validate:"omitempty,url"`
	Policy       string        `validate:"omitempty,oneof=strict degrade"`
	Anchor       string        `validate:"omitempty,oneof=corner center"`
	OffsetX      int           `validate:"gte=0"`
	OffsetY      int           `validate:"gte=0"`
	Opacity      float64       `validate:"gte=0,lte=1"`
	Scale        float64       `validate:"gt=0,lte=1"`
	Width        int           `validate:"gte=0"`
	Height       int           `validate:"gte=0"`
	FetchTimeout time.Duration `validate:"gt=0"`
	FetchRetries int           `validate:"gte=0,lte=5"`
}

// Enabled reports whether a watermark asset is configured at all.
func (w WatermarkConfig) Enabled() bool {
	return w.Key != ""
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	catalog := DefaultCatalog()
	if path := getEnv("CATALOG_FILE", ""); path != "" {
		loaded, err := LoadCatalog(path)
		if err != nil {
			return nil, err
		}
		catalog = loaded
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			ReadTimeout:    getDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
			UploadMethod:   strings.ToUpper(getEnv("UPLOAD_METHOD", "POST")),
			AllowOrigins:   getEnvAsList("ALLOW_ORIGINS", []string{"*"}),
			RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 0),
			RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		Cloudflare: CloudflareConfig{
			AccountID:         getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
			DeliveryAccountID: getEnv("CLOUDFLARE_DELIVERY_ACCOUNT_ID", ""),
			APIToken:          getEnv("CLOUDFLARE_API_TOKEN", ""),
			APIBase:           getEnv("CLOUDFLARE_API_BASE", "https://api.cloudflare.com/client/v4"),
			DeliveryHost:      getEnv("DELIVERY_HOST", "imagedelivery.net"),
			RequireSignedURLs: getEnvAsBool("REQUIRE_SIGNED_URLS", false),
			UploadTimeout:     getDuration("UPLOAD_TIMEOUT", 10*time.Second),
		},
		Supabase: SupabaseConfig{
			URL:    getEnv("SUPABASE_URL", ""),
			KEY:    getEnv("SUPABASE_KEY", ""),
			BUCKET: getEnv("SUPABASE_BUCKET", ""),
		},
		Azure: AzureConfig{
			ConnectionString: getEnv("AZURE_STORAGE_CONNECTION_STRING", ""),
			Container:        getEnv("AZURE_CONTAINER", ""),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", ""),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			DedupeTTL: getDuration("DEDUPE_TTL", 24*time.Hour),
		},
		RabbitMQ: RabbitMQConfig{
			URL:   getEnv("RABBITMQ_URL", ""),
			Queue: getEnv("RABBITMQ_QUEUE", "image_uploaded"),
		},
		Storage: StorageConfig{
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10*1024*1024), // 10MB
		},
		Compositing: CompositingConfig{
			Strategy: strings.ToLower(getEnv("COMPOSITING_STRATEGY", "")),
			Format:   strings.ToLower(getEnv("OUTPUT_FORMAT", "jpeg")),
			Quality:  getEnvAsInt("OUTPUT_QUALITY", 80),
		},
		Watermark: WatermarkConfig{
			Key:          getEnv("WATERMARK_KEY", ""),
			Store:        strings.ToLower(getEnv("WATERMARK_STORE", StoreSupabase)),
			BaseURL:      getEnv("WATERMARK_BASE_URL", ""),
			Policy:       strings.ToLower(getEnv("WATERMARK_POLICY", "")),
			Anchor:       strings.ToLower(getEnv("WATERMARK_ANCHOR", "")),
			OffsetX:      getEnvAsInt("WATERMARK_OFFSET_X", 10),
			OffsetY:      getEnvAsInt("WATERMARK_OFFSET_Y", 10),
			Opacity:      getEnvAsFloat("WATERMARK_OPACITY", 0.5),
			Scale:        getEnvAsFloat("WATERMARK_SCALE", 0.3),
			Width:        getEnvAsInt("WATERMARK_WIDTH", 0),
			Height:       getEnvAsInt("WATERMARK_HEIGHT", 0),
			FetchTimeout: getDuration("FETCH_TIMEOUT", 5*time.Second),
			FetchRetries: getEnvAsInt("WATERMARK_FETCH_RETRIES", 0),
		},
		Catalog: catalog,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges and the choices that must be made explicitly
// per deployment instead of being defaulted.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Compositing.Strategy == "" {
		return fmt.Errorf("invalid configuration: COMPOSITING_STRATEGY must be set to %q or %q", StrategyRemote, StrategyLocal)
	}

	if c.Watermark.Enabled() {
		if c.Watermark.Policy == "" {
			return fmt.Errorf("invalid configuration: WATERMARK_POLICY must be set to %q or %q", PolicyStrict, PolicyDegrade)
		}
		if c.Watermark.Anchor == "" {
			return fmt.Errorf("invalid configuration: WATERMARK_ANCHOR must be set to %q or %q", AnchorCorner, AnchorCenter)
		}
		if err := c.validateStore(); err != nil {
			return err
		}
	}

	return c.Catalog.Validate(v)
}

func (c *Config) validateStore() error {
	switch c.Watermark.Store {
	case StoreSupabase:
		if c.Supabase.URL == "" || c.Supabase.BUCKET == "" {
			return fmt.Errorf("invalid configuration: supabase watermark store requires SUPABASE_URL and SUPABASE_BUCKET")
		}
	case StoreHTTP:
		if c.Watermark.BaseURL == "" {
			return fmt.Errorf("invalid configuration: http watermark store requires WATERMARK_BASE_URL")
		}
	case StoreAzure:
		if c.Azure.ConnectionString == "" || c.Azure.Container == "" {
			return fmt.Errorf("invalid configuration: azure watermark store requires AZURE_STORAGE_CONNECTION_STRING and AZURE_CONTAINER")
		}
	default:
		return fmt.Errorf("invalid configuration: unknown watermark store %q", c.Watermark.Store)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvAsList(key string, defaultVal []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
