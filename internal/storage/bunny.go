package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/clipworks/thumbnailer/internal/metrics"
)

const defaultBunnyRegionHost = "storage.bunnycdn.com"

// BunnyConfig configures the Bunny Storage backend.
type BunnyConfig struct {
	StorageZone string
	AccessKey   string
	// RegionHost like "storage.bunnycdn.com" or "ny.storage.bunnycdn.com".
	RegionHost string
}

// BunnyUploader stores thumbnails in a Bunny Storage zone via its HTTP
// PUT API.
type BunnyUploader struct {
	zone       string
	accessKey  string
	regionHost string
	cdnBaseURL string
	http       *retryablehttp.Client
	logger     *slog.Logger
}

// NewBunnyUploader validates the Bunny configuration.
func NewBunnyUploader(cfg BunnyConfig, cdnBaseURL string, logger *slog.Logger) (*BunnyUploader, error) {
	if cfg.StorageZone == "" || cfg.AccessKey == "" {
		return nil, fmt.Errorf("storage: bunny not configured (storage zone and access key required)")
	}
	regionHost := cfg.RegionHost
	if regionHost == "" {
		regionHost = defaultBunnyRegionHost
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 500 * time.Millisecond
	client.HTTPClient.Timeout = 30 * time.Second
	client.Logger = nil

	return &BunnyUploader{
		zone:       cfg.StorageZone,
		accessKey:  cfg.AccessKey,
		regionHost: strings.TrimRight(regionHost, "/"),
		cdnBaseURL: cdnBaseURL,
		http:       client,
		logger:     logger,
	}, nil
}

func (u *BunnyUploader) endpoint() string {
	host := u.regionHost
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return host
}

// Upload implements Uploader.
func (u *BunnyUploader) Upload(ctx context.Context, key string, data []byte) (string, error) {
	url := fmt.Sprintf("%s/%s/%s", u.endpoint(), u.zone, strings.TrimLeft(key, "/"))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("AccessKey", u.accessKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := u.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage: bunny upload %q: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("storage: bunny upload %q: status %d: %s", key, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	metrics.UploadedBytesTotal.WithLabelValues("bunny").Add(float64(len(data)))
	u.logger.Info("thumbnail uploaded",
		"backend", "bunny",
		"zone", u.zone,
		"key", key,
		"size", humanize.Bytes(uint64(len(data))))

	if u.cdnBaseURL != "" {
		return publicURL(u.cdnBaseURL, key), nil
	}
	// Direct storage URL; fine for testing, front it with a pull zone in production.
	return fmt.Sprintf("%s/%s/%s", u.endpoint(), u.zone, strings.TrimLeft(key, "/")), nil
}
