// Package storage publishes rendered thumbnails to an object-storage
// backend and returns their public URL.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const contentType = "image/jpeg"

// Uploader stores a thumbnail under a key and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte) (string, error)
}

// Config selects and configures the upload backend.
type Config struct {
	// Backend forces a backend: "bunny", "s3" or "local". Empty picks
	// the first configured one in that order.
	Backend string

	// CDNBaseURL, when set, fronts any backend's public URLs.
	CDNBaseURL string

	S3    S3Config
	Bunny BunnyConfig
	Local LocalConfig
}

// New resolves the configured backend into an Uploader.
func New(cfg Config, logger *slog.Logger) (Uploader, error) {
	if logger == nil {
		logger = slog.Default()
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		switch {
		case cfg.Bunny.StorageZone != "" && cfg.Bunny.AccessKey != "":
			backend = "bunny"
		case cfg.S3.Bucket != "":
			backend = "s3"
		default:
			backend = "local"
		}
	}

	switch backend {
	case "bunny":
		return NewBunnyUploader(cfg.Bunny, cfg.CDNBaseURL, logger)
	case "s3":
		return NewS3Uploader(cfg.S3, cfg.CDNBaseURL, logger)
	case "local":
		return NewLocalUploader(cfg.Local, logger)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", backend)
	}
}

// publicURL joins a base URL and a key.
func publicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
