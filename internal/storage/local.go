package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/clipworks/thumbnailer/internal/metrics"
)

// LocalConfig configures the local-directory backend.
type LocalConfig struct {
	Dir string // destination directory (default "thumbnails")
	// PublicBaseURL is the URL prefix the web server serves Dir under,
	// e.g. "http://localhost:8080/thumbnails". Empty yields a relative
	// path as the URL.
	PublicBaseURL string
}

// LocalUploader copies thumbnails into a directory served by the web
// server. Mainly for development and single-node deployments.
type LocalUploader struct {
	dir           string
	publicBaseURL string
	logger        *slog.Logger
}

// NewLocalUploader ensures the destination directory exists.
func NewLocalUploader(cfg LocalConfig, logger *slog.Logger) (*LocalUploader, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "thumbnails"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create local dir %q: %w", dir, err)
	}
	return &LocalUploader{
		dir:           dir,
		publicBaseURL: cfg.PublicBaseURL,
		logger:        logger,
	}, nil
}

// Dir returns the destination directory, for static file serving.
func (u *LocalUploader) Dir() string {
	return u.dir
}

// Upload implements Uploader.
func (u *LocalUploader) Upload(ctx context.Context, key string, data []byte) (string, error) {
	key = strings.TrimLeft(key, "/")
	dest := filepath.Join(u.dir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("storage: local mkdir for %q: %w", key, err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: local write %q: %w", key, err)
	}

	metrics.UploadedBytesTotal.WithLabelValues("local").Add(float64(len(data)))
	u.logger.Info("thumbnail uploaded",
		"backend", "local",
		"path", dest,
		"size", humanize.Bytes(uint64(len(data))))

	if u.publicBaseURL != "" {
		return publicURL(u.publicBaseURL, key), nil
	}
	return filepath.ToSlash(dest), nil
}
