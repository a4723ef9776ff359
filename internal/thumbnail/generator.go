// Package thumbnail runs the full pipeline for one thumbnail: pick a
// frame, render it at the target size with an optional title, upload
// it, and record the result.
package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipworks/thumbnailer/internal/db"
	"github.com/clipworks/thumbnailer/internal/metrics"
	"github.com/clipworks/thumbnailer/internal/selection"
)

const (
	DefaultWidth     = 1280
	DefaultHeight    = 720
	DefaultKeyPrefix = "thumbnails/"

	// fallbackTimestamp is used when frame selection cannot produce a
	// winner. One second in skips most title cards and black lead-ins.
	fallbackTimestamp = 1.0
)

// Request describes one thumbnail to generate. Video is anything
// ffmpeg can open: an http(s) URL or a local path.
type Request struct {
	Video       string
	Source      string   // recorded in history; defaults to Video
	Time        *float64 // fixed frame timestamp; nil enables frame selection
	Title       string
	Width       int
	Height      int
	KeyPrefix   string
	Prompts     []string // selection prompts; empty uses the default set
	SampleCount int      // candidate frames; <= 0 uses the default count
}

// Output reports where the finished thumbnail went and which frame it used.
type Output struct {
	URL       string  `json:"url"`
	ObjectKey string  `json:"object_key"`
	FrameTime float64 `json:"frame_time"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Selected  bool    `json:"selected"` // frame chosen by scoring, not a fixed or fallback time
	Fallback  bool    `json:"fallback"` // selection failed and the fallback timestamp was used
}

// FrameSelector picks the best frame of a video for a prompt set.
type FrameSelector interface {
	SelectBestFrame(ctx context.Context, video string, prompts []string, sampleCount int) (*selection.Result, error)
}

type uploader interface {
	Upload(ctx context.Context, key string, data []byte) (string, error)
}

// History persists finished thumbnails. Optional.
type History interface {
	InsertThumbnail(ctx context.Context, t db.Thumbnail, embedding []float32) error
}

// Generator wires the pipeline stages together. Safe for concurrent use.
type Generator struct {
	selector FrameSelector
	renderer Renderer
	uploader uploader
	embedder selection.Embedder // optional, only for history embeddings
	history  History            // optional
	fontFile string
	logger   *slog.Logger
}

func NewGenerator(selector FrameSelector, renderer Renderer, up uploader, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		selector: selector,
		renderer: renderer,
		uploader: up,
		logger:   logger,
	}
}

// WithHistory enables persisting results. The embedder re-embeds the
// finished image so history rows can be searched by similarity; it may
// be nil, in which case rows are stored without an embedding.
func (g *Generator) WithHistory(h History, emb selection.Embedder) *Generator {
	g.history = h
	g.embedder = emb
	return g
}

// WithFontFile overrides the title overlay font.
func (g *Generator) WithFontFile(path string) *Generator {
	g.fontFile = path
	return g
}

// Generate runs the pipeline for one request and returns the public
// URL of the uploaded thumbnail.
func (g *Generator) Generate(ctx context.Context, req Request) (*Output, error) {
	applyDefaults(&req)

	out, err := g.generate(ctx, req)
	if err != nil {
		metrics.ThumbnailsGeneratedTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ThumbnailsGeneratedTotal.WithLabelValues("ok").Inc()
	return out, nil
}

func (g *Generator) generate(ctx context.Context, req Request) (*Output, error) {
	frameTime, selected, fallback, err := g.pickFrameTime(ctx, req)
	if err != nil {
		return nil, err
	}

	renderStart := time.Now()
	img, err := g.renderer.RenderAt(ctx, req.Video, frameTime, RenderSpec{
		Width:    req.Width,
		Height:   req.Height,
		Title:    req.Title,
		FontFile: g.fontFile,
	})
	metrics.GenerationDuration.WithLabelValues("render").Observe(time.Since(renderStart).Seconds())
	if err != nil {
		return nil, fmt.Errorf("render thumbnail: %w", err)
	}

	key := req.KeyPrefix + uuid.NewString() + ".jpg"

	uploadStart := time.Now()
	url, err := g.uploader.Upload(ctx, key, img)
	metrics.GenerationDuration.WithLabelValues("upload").Observe(time.Since(uploadStart).Seconds())
	if err != nil {
		return nil, fmt.Errorf("upload thumbnail: %w", err)
	}

	out := &Output{
		URL:       url,
		ObjectKey: key,
		FrameTime: frameTime,
		Width:     req.Width,
		Height:    req.Height,
		Selected:  selected,
		Fallback:  fallback,
	}
	g.record(ctx, req, out, img)

	g.logger.Info("thumbnail generated",
		"source", req.Source,
		"url", url,
		"frame_time", frameTime,
		"selected", selected,
		"fallback", fallback)
	return out, nil
}

// pickFrameTime resolves which second of the video becomes the
// thumbnail. A caller-fixed time wins; otherwise frame selection runs,
// and a failed selection degrades to the fallback timestamp rather
// than failing the request.
func (g *Generator) pickFrameTime(ctx context.Context, req Request) (frameTime float64, selected, fallback bool, err error) {
	if req.Time != nil {
		return *req.Time, false, false, nil
	}

	selectStart := time.Now()
	res, err := g.selector.SelectBestFrame(ctx, req.Video, req.Prompts, req.SampleCount)
	metrics.GenerationDuration.WithLabelValues("select").Observe(time.Since(selectStart).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return 0, false, false, ctx.Err()
		}
		// An unreadable video fails the probe; rendering the fallback
		// frame would fail the same way, so surface it instead.
		if errors.Is(err, selection.ErrDurationUnavailable) {
			return 0, false, false, err
		}
		g.logger.Warn("frame selection failed, using fallback timestamp",
			"source", req.Source,
			"fallback", fallbackTimestamp,
			"error", err)
		metrics.SelectionFallbacksTotal.Inc()
		return fallbackTimestamp, false, true, nil
	}
	return res.Timestamp, true, false, nil
}

// record persists the result when history is configured. Best effort:
// the thumbnail is already uploaded, so a failed insert only loses the
// history row.
func (g *Generator) record(ctx context.Context, req Request, out *Output, img []byte) {
	if g.history == nil {
		return
	}

	var embedding []float32
	if g.embedder != nil {
		imageVecs, _, err := g.embedder.Embed(ctx, [][]byte{img}, []string{"thumbnail"})
		if err != nil || len(imageVecs) != 1 {
			g.logger.Warn("history embedding failed", "source", req.Source, "error", err)
		} else {
			embedding = imageVecs[0]
		}
	}

	rec := db.Thumbnail{
		ID:        uuid.New(),
		ObjectKey: out.ObjectKey,
		URL:       out.URL,
		Source:    req.Source,
		FrameTime: out.FrameTime,
		Width:     out.Width,
		Height:    out.Height,
		Title:     req.Title,
	}
	if err := g.history.InsertThumbnail(ctx, rec, embedding); err != nil {
		g.logger.Warn("history insert failed", "source", req.Source, "error", err)
	}
}

func applyDefaults(req *Request) {
	if req.Width <= 0 {
		req.Width = DefaultWidth
	}
	if req.Height <= 0 {
		req.Height = DefaultHeight
	}
	if req.KeyPrefix == "" {
		req.KeyPrefix = DefaultKeyPrefix
	}
	if req.Source == "" {
		req.Source = req.Video
	}
	req.Title = strings.TrimSpace(req.Title)
}
