// Package embedder talks to a CLIP inference sidecar that embeds
// images and text prompts into a shared similarity space.
package embedder

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const defaultBaseURL = "http://localhost:8195"

// DefaultModel is the CLIP checkpoint the sidecar loads when none is configured.
const DefaultModel = "openai/clip-vit-base-patch32"

// Client is an HTTP client for the embedding sidecar. The sidecar loads
// the model lazily; Client asks it to warm up once, on first use.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
	logger  *slog.Logger

	warmOnce sync.Once
}

// NewClient creates a client for the sidecar at baseURL. Empty baseURL
// and model fall back to defaults.
func NewClient(baseURL, model string, timeout time.Duration, logger *slog.Logger) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: baseURL,
		model:   model,
		http: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type embedRequest struct {
	Model  string   `json:"model"`
	Images []string `json:"images"` // base64-encoded
	Texts  []string `json:"texts"`
}

type embedResponse struct {
	ImageEmbeddings [][]float32 `json:"image_embeddings"`
	TextEmbeddings  [][]float32 `json:"text_embeddings"`
}

// Embed sends one batched request for all images and prompts and
// returns their embedding vectors. Both batches must be non-empty.
func (c *Client) Embed(ctx context.Context, images [][]byte, prompts []string) ([][]float32, [][]float32, error) {
	if len(images) == 0 || len(prompts) == 0 {
		return nil, nil, fmt.Errorf("embed: empty batch (%d images, %d prompts)", len(images), len(prompts))
	}

	c.warmOnce.Do(func() { c.warmup(ctx) })

	encoded := make([]string, len(images))
	for i, img := range images {
		encoded[i] = base64.StdEncoding.EncodeToString(img)
	}

	body, err := json.Marshal(embedRequest{
		Model:  c.model,
		Images: encoded,
		Texts:  prompts,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("embed: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/embed", bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, nil, fmt.Errorf("embed: sidecar returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, nil, fmt.Errorf("embed: decode response: %w", err)
	}

	if len(out.ImageEmbeddings) != len(images) || len(out.TextEmbeddings) != len(prompts) {
		return nil, nil, fmt.Errorf("embed: sidecar returned %d image / %d text vectors for %d / %d inputs",
			len(out.ImageEmbeddings), len(out.TextEmbeddings), len(images), len(prompts))
	}

	return out.ImageEmbeddings, out.TextEmbeddings, nil
}

// warmup asks the sidecar to load the model ahead of the first embed
// call. Best effort: a failed warmup only costs latency on the first
// real request.
func (c *Client) warmup(ctx context.Context) {
	body, _ := json.Marshal(map[string]string{"model": c.model})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/models/load", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("embedder warmup failed", "model", c.model, "error", err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("embedder warmup failed", "model", c.model, "status", resp.StatusCode)
		return
	}
	c.logger.Info("embedder model ready", "model", c.model)
}
