package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/clipworks/thumbnailer/internal/metrics"
)

// S3Config configures the S3-compatible backend (AWS S3, MinIO, and
// friends).
type S3Config struct {
	Endpoint  string // host[:port], e.g. "s3.amazonaws.com" or "minio:9000"
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// S3Uploader stores thumbnails in an S3-compatible bucket.
type S3Uploader struct {
	client     *minio.Client
	bucket     string
	cdnBaseURL string
	baseURL    string
	logger     *slog.Logger
}

// NewS3Uploader connects to the configured S3-compatible endpoint.
func NewS3Uploader(cfg S3Config, cdnBaseURL string, logger *slog.Logger) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage: s3 bucket not configured")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: s3 client: %w", err)
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}

	return &S3Uploader{
		client:     client,
		bucket:     cfg.Bucket,
		cdnBaseURL: cdnBaseURL,
		baseURL:    fmt.Sprintf("%s://%s/%s", scheme, endpoint, cfg.Bucket),
		logger:     logger,
	}, nil
}

// Upload implements Uploader.
func (u *S3Uploader) Upload(ctx context.Context, key string, data []byte) (string, error) {
	_, err := u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("storage: s3 upload %q: %w", key, err)
	}

	metrics.UploadedBytesTotal.WithLabelValues("s3").Add(float64(len(data)))
	u.logger.Info("thumbnail uploaded",
		"backend", "s3",
		"bucket", u.bucket,
		"key", key,
		"size", humanize.Bytes(uint64(len(data))))

	if u.cdnBaseURL != "" {
		return publicURL(u.cdnBaseURL, key), nil
	}
	return publicURL(u.baseURL, key), nil
}
