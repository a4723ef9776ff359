// Package selection picks the most representative frame of a video by
// scoring sampled candidate frames against text prompts in a shared
// embedding space.
package selection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// DefaultSampleCount is how many candidate timestamps are tried when
// the caller does not say otherwise.
const DefaultSampleCount = 12

// DefaultPrompts describe generally desirable thumbnail qualities.
// Used when the caller supplies no prompts of its own.
var DefaultPrompts = []string{
	"The most interesting and engaging frame from the video",
	"A frame showing the main subject clearly",
	"The frame with the most visual activity and highest image quality",
}

// Prober reports the total duration of a video in seconds.
type Prober interface {
	ProbeDuration(ctx context.Context, video string) (float64, error)
}

// Grabber decodes a single frame of a video at a second offset.
type Grabber interface {
	Grab(ctx context.Context, video string, seconds float64) ([]byte, error)
}

// Embedder embeds a batch of images and a batch of text prompts into a
// shared similarity space. All returned vectors share one dimension.
type Embedder interface {
	Embed(ctx context.Context, images [][]byte, prompts []string) (imageVecs, promptVecs [][]float32, err error)
}

// Candidate is a successfully grabbed frame, eligible for scoring.
type Candidate struct {
	Index     int     // ordinal of the sampled timestamp
	Timestamp float64 // seconds into the video
	Image     []byte
}

// Result is the winning frame of one selection request.
type Result struct {
	Image     []byte
	Timestamp float64
}

// Config carries selection tunables. Zero values fall back to defaults.
type Config struct {
	SampleCount int      // candidate timestamps per request (default 12)
	Prompts     []string // default prompt set (default DefaultPrompts)
	GrabWorkers int      // parallel frame grabs (default 4)
}

// Selector orchestrates one selection request: probe, sample, grab,
// embed, score. It holds no per-request state and is safe for
// concurrent use.
type Selector struct {
	prober   Prober
	grabber  Grabber
	embedder Embedder
	cfg      Config
	logger   *slog.Logger
}

// NewSelector wires a selector from its collaborators.
func NewSelector(prober Prober, grabber Grabber, embedder Embedder, cfg Config, logger *slog.Logger) *Selector {
	if cfg.SampleCount <= 0 {
		cfg.SampleCount = DefaultSampleCount
	}
	if len(cfg.Prompts) == 0 {
		cfg.Prompts = DefaultPrompts
	}
	if cfg.GrabWorkers <= 0 {
		cfg.GrabWorkers = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		prober:   prober,
		grabber:  grabber,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
	}
}

// SelectBestFrame returns the frame best matching the prompts on
// average, plus its timestamp. Empty prompts fall back to the
// configured default set; sampleCount <= 0 falls back to the
// configured default count.
//
// Individual grab failures shrink the candidate pool; duration-probe
// failure, an empty pool, and embedder failure abort the request.
func (s *Selector) SelectBestFrame(ctx context.Context, video string, prompts []string, sampleCount int) (*Result, error) {
	duration, err := s.prober.ProbeDuration(ctx, video)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDurationUnavailable, err)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: probe reported %.3fs", ErrDurationUnavailable, duration)
	}

	if sampleCount <= 0 {
		sampleCount = s.cfg.SampleCount
	}
	times := SampleTimestamps(duration, sampleCount)

	pool := s.grabAll(ctx, video, times)
	if len(pool) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNoFramesExtracted
	}

	if len(prompts) == 0 {
		prompts = s.cfg.Prompts
	}

	images := make([][]byte, len(pool))
	for i, c := range pool {
		images[i] = c.Image
	}

	// Embedding is assumed deterministic; a retry would not change the
	// outcome, so failures propagate as-is.
	imageVecs, promptVecs, err := s.embedder.Embed(ctx, images, prompts)
	if err != nil {
		return nil, err
	}
	if len(imageVecs) != len(pool) {
		return nil, fmt.Errorf("embedder returned %d image vectors for %d candidates", len(imageVecs), len(pool))
	}

	best, err := BestCandidate(imageVecs, promptVecs)
	if err != nil {
		return nil, err
	}

	winner := pool[best]
	s.logger.Debug("selected frame",
		"video", video,
		"timestamp", winner.Timestamp,
		"candidates", len(pool),
		"prompts", len(prompts))

	return &Result{Image: winner.Image, Timestamp: winner.Timestamp}, nil
}

// grabAll grabs a frame for every timestamp with a bounded worker pool,
// dropping failures. The returned pool keeps original timestamp order
// regardless of completion order.
func (s *Selector) grabAll(ctx context.Context, video string, times []float64) []Candidate {
	grabbed := make([]*Candidate, len(times))

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.cfg.GrabWorkers)
	for i, t := range times {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, t float64) {
			defer wg.Done()
			defer func() { <-sem }()

			img, err := s.grabber.Grab(ctx, video, t)
			if err != nil {
				s.logger.Warn("frame grab failed", "video", video, "timestamp", t, "error", err)
				return
			}
			grabbed[i] = &Candidate{Index: i, Timestamp: t, Image: img}
		}(i, t)
	}
	wg.Wait()

	pool := make([]Candidate, 0, len(times))
	for _, c := range grabbed {
		if c != nil {
			pool = append(pool, *c)
		}
	}
	return pool
}
