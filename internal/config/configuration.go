package config

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	// WebServer Configuration
	WebServerPort int `mapstructure:"WEBSERVER_PORT"`

	// Database Configuration (optional; empty disables thumbnail history)
	DatabaseDSN     string `mapstructure:"DATABASE_DSN"`
	DatabaseRetries int    `mapstructure:"DATABASE_RETRIES"`

	// Embedder sidecar
	EmbedderURL            string `mapstructure:"EMBEDDER_URL"`
	EmbedderModel          string `mapstructure:"EMBEDDER_MODEL"`
	EmbedderTimeoutSeconds int    `mapstructure:"EMBEDDER_TIMEOUT_SECONDS" validate:"gt=0"`

	// Frame selection
	SampleCount int `mapstructure:"SAMPLE_COUNT" validate:"gte=1"`
	GrabWorkers int `mapstructure:"GRAB_WORKERS" validate:"gte=1"`

	// Thumbnail rendering
	FontFile    string `mapstructure:"FONT_FILE"`
	JPEGQuality int    `mapstructure:"JPEG_QUALITY" validate:"gte=1,lte=31"`

	// Upload backend ("bunny", "s3", "local" or empty for autodetect)
	UploadBackend string `mapstructure:"UPLOAD_BACKEND" validate:"omitempty,oneof=bunny s3 local"`
	CDNBaseURL    string `mapstructure:"CDN_BASE_URL"`

	// S3 / MinIO
	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
	S3Region    string `mapstructure:"S3_REGION"`
	S3Bucket    string `mapstructure:"S3_BUCKET"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`
	S3UseSSL    bool   `mapstructure:"S3_USE_SSL"`

	// Bunny Storage
	BunnyStorageZone string `mapstructure:"BUNNY_STORAGE_ZONE"`
	BunnyAccessKey   string `mapstructure:"BUNNY_ACCESS_KEY"`
	BunnyRegionHost  string `mapstructure:"BUNNY_STORAGE_REGION_HOST"`

	// Local backend
	LocalDir      string `mapstructure:"LOCAL_DIR"`
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(c Config) {
	val := reflect.ValueOf(c)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag != "" {
			viper.BindEnv(tag)
		}
	}
}

func LoadConfig(ctx context.Context) (*Config, error) {
	bindEnv(Config{})
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("WEBSERVER_PORT", 8080)
	viper.SetDefault("DATABASE_RETRIES", 10)
	viper.SetDefault("EMBEDDER_URL", "http://localhost:8195")
	viper.SetDefault("EMBEDDER_MODEL", "openai/clip-vit-base-patch32")
	viper.SetDefault("EMBEDDER_TIMEOUT_SECONDS", 120)
	viper.SetDefault("SAMPLE_COUNT", 12)
	viper.SetDefault("GRAB_WORKERS", 4)
	viper.SetDefault("JPEG_QUALITY", 3)
	viper.SetDefault("BUNNY_STORAGE_REGION_HOST", "storage.bunnycdn.com")
	viper.SetDefault("LOCAL_DIR", "thumbnails")

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	slog.Info("Loaded configuration",
		"port", cfg.WebServerPort,
		"backend", cfg.UploadBackend,
		"embedder", cfg.EmbedderURL,
		"model", cfg.EmbedderModel,
		"history", cfg.DatabaseDSN != "")

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
