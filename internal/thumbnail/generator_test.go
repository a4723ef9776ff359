package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipworks/thumbnailer/internal/db"
	"github.com/clipworks/thumbnailer/internal/selection"
)

type fakeSelector struct {
	res   *selection.Result
	err   error
	calls int

	gotPrompts []string
	gotCount   int
}

func (f *fakeSelector) SelectBestFrame(_ context.Context, _ string, prompts []string, count int) (*selection.Result, error) {
	f.calls++
	f.gotPrompts = prompts
	f.gotCount = count
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

type fakeRenderer struct {
	img []byte
	err error

	gotSeconds float64
	gotSpec    RenderSpec
}

func (f *fakeRenderer) RenderAt(_ context.Context, _ string, seconds float64, spec RenderSpec) ([]byte, error) {
	f.gotSeconds = seconds
	f.gotSpec = spec
	if f.err != nil {
		return nil, f.err
	}
	if f.img == nil {
		return []byte(fmt.Sprintf("render@%.1f", seconds)), nil
	}
	return f.img, nil
}

type fakeUploader struct {
	err error

	gotKey  string
	gotData []byte
}

func (f *fakeUploader) Upload(_ context.Context, key string, data []byte) (string, error) {
	f.gotKey = key
	f.gotData = data
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example.com/" + key, nil
}

type fakeHistory struct {
	err error

	recs       []db.Thumbnail
	embeddings [][]float32
}

func (f *fakeHistory) InsertThumbnail(_ context.Context, t db.Thumbnail, embedding []float32) error {
	if f.err != nil {
		return f.err
	}
	f.recs = append(f.recs, t)
	f.embeddings = append(f.embeddings, embedding)
	return nil
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, images [][]byte, prompts []string) ([][]float32, [][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, nil, f.err
	}
	imageVecs := make([][]float32, len(images))
	for i := range imageVecs {
		imageVecs[i] = []float32{1, 0}
	}
	promptVecs := make([][]float32, len(prompts))
	for i := range promptVecs {
		promptVecs[i] = []float32{1, 0}
	}
	return imageVecs, promptVecs, nil
}

func floatPtr(f float64) *float64 { return &f }

func discardLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

func TestGenerate(t *testing.T) {
	t.Run("selection path picks the scored frame", func(t *testing.T) {
		sel := &fakeSelector{res: &selection.Result{Image: []byte("frame"), Timestamp: 42.5}}
		ren := &fakeRenderer{}
		up := &fakeUploader{}

		gen := NewGenerator(sel, ren, up, discardLogger())
		out, err := gen.Generate(context.Background(), Request{Video: "in.mp4"})
		require.NoError(t, err)

		assert.Equal(t, 1, sel.calls)
		assert.True(t, out.Selected)
		assert.False(t, out.Fallback)
		assert.Equal(t, 42.5, out.FrameTime)
		assert.Equal(t, 42.5, ren.gotSeconds)
		assert.Equal(t, 1280, out.Width)
		assert.Equal(t, 720, out.Height)
		assert.Equal(t, 1280, ren.gotSpec.Width)
		assert.Equal(t, 720, ren.gotSpec.Height)
		assert.True(t, strings.HasPrefix(out.ObjectKey, "thumbnails/"))
		assert.True(t, strings.HasSuffix(out.ObjectKey, ".jpg"))
		assert.Equal(t, "https://cdn.example.com/"+out.ObjectKey, out.URL)
		assert.Equal(t, []byte("render@42.5"), up.gotData)
	})

	t.Run("fixed time skips selection", func(t *testing.T) {
		sel := &fakeSelector{}
		ren := &fakeRenderer{}

		gen := NewGenerator(sel, ren, &fakeUploader{}, discardLogger())
		out, err := gen.Generate(context.Background(), Request{Video: "in.mp4", Time: floatPtr(7)})
		require.NoError(t, err)

		assert.Equal(t, 0, sel.calls)
		assert.False(t, out.Selected)
		assert.Equal(t, 7.0, out.FrameTime)
		assert.Equal(t, 7.0, ren.gotSeconds)
	})

	t.Run("selection failure falls back to one second in", func(t *testing.T) {
		sel := &fakeSelector{err: selection.ErrNoFramesExtracted}
		ren := &fakeRenderer{}

		gen := NewGenerator(sel, ren, &fakeUploader{}, discardLogger())
		out, err := gen.Generate(context.Background(), Request{Video: "in.mp4"})
		require.NoError(t, err)

		assert.True(t, out.Fallback)
		assert.False(t, out.Selected)
		assert.Equal(t, 1.0, out.FrameTime)
		assert.Equal(t, 1.0, ren.gotSeconds)
	})

	t.Run("unreadable video does not fall back", func(t *testing.T) {
		sel := &fakeSelector{err: fmt.Errorf("%w: probe failed", selection.ErrDurationUnavailable)}
		ren := &fakeRenderer{}

		gen := NewGenerator(sel, ren, &fakeUploader{}, discardLogger())
		_, err := gen.Generate(context.Background(), Request{Video: "in.mp4"})
		assert.ErrorIs(t, err, selection.ErrDurationUnavailable)
		assert.Zero(t, ren.gotSeconds)
	})

	t.Run("canceled context does not fall back", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		sel := &fakeSelector{err: context.Canceled}

		gen := NewGenerator(sel, &fakeRenderer{}, &fakeUploader{}, discardLogger())
		_, err := gen.Generate(ctx, Request{Video: "in.mp4"})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("request overrides reach the pipeline", func(t *testing.T) {
		sel := &fakeSelector{res: &selection.Result{Timestamp: 3}}
		ren := &fakeRenderer{}
		up := &fakeUploader{}

		gen := NewGenerator(sel, ren, up, discardLogger())
		out, err := gen.Generate(context.Background(), Request{
			Video:       "in.mp4",
			Title:       "  Big News  ",
			Width:       640,
			Height:      360,
			KeyPrefix:   "covers/",
			Prompts:     []string{"a dog"},
			SampleCount: 5,
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"a dog"}, sel.gotPrompts)
		assert.Equal(t, 5, sel.gotCount)
		assert.Equal(t, "Big News", ren.gotSpec.Title)
		assert.Equal(t, 640, ren.gotSpec.Width)
		assert.Equal(t, 360, out.Height)
		assert.True(t, strings.HasPrefix(up.gotKey, "covers/"))
	})

	t.Run("render failure fails the request", func(t *testing.T) {
		gen := NewGenerator(
			&fakeSelector{res: &selection.Result{Timestamp: 3}},
			&fakeRenderer{err: errors.New("boom")},
			&fakeUploader{},
			discardLogger())
		_, err := gen.Generate(context.Background(), Request{Video: "in.mp4"})
		assert.ErrorContains(t, err, "render thumbnail")
	})

	t.Run("upload failure fails the request", func(t *testing.T) {
		gen := NewGenerator(
			&fakeSelector{res: &selection.Result{Timestamp: 3}},
			&fakeRenderer{},
			&fakeUploader{err: errors.New("denied")},
			discardLogger())
		_, err := gen.Generate(context.Background(), Request{Video: "in.mp4"})
		assert.ErrorContains(t, err, "upload thumbnail")
	})
}

func TestGenerateHistory(t *testing.T) {
	t.Run("records the finished thumbnail with its embedding", func(t *testing.T) {
		hist := &fakeHistory{}
		emb := &fakeEmbedder{}
		gen := NewGenerator(
			&fakeSelector{res: &selection.Result{Timestamp: 12}},
			&fakeRenderer{},
			&fakeUploader{},
			discardLogger()).WithHistory(hist, emb)

		out, err := gen.Generate(context.Background(), Request{Video: "in.mp4", Title: "Launch"})
		require.NoError(t, err)

		require.Len(t, hist.recs, 1)
		rec := hist.recs[0]
		assert.Equal(t, out.ObjectKey, rec.ObjectKey)
		assert.Equal(t, out.URL, rec.URL)
		assert.Equal(t, "in.mp4", rec.Source)
		assert.Equal(t, 12.0, rec.FrameTime)
		assert.Equal(t, "Launch", rec.Title)
		assert.Equal(t, []float32{1, 0}, hist.embeddings[0])
		assert.Equal(t, 1, emb.calls)
	})

	t.Run("embedding failure stores the row without one", func(t *testing.T) {
		hist := &fakeHistory{}
		gen := NewGenerator(
			&fakeSelector{res: &selection.Result{Timestamp: 12}},
			&fakeRenderer{},
			&fakeUploader{},
			discardLogger()).WithHistory(hist, &fakeEmbedder{err: errors.New("sidecar down")})

		_, err := gen.Generate(context.Background(), Request{Video: "in.mp4"})
		require.NoError(t, err)
		require.Len(t, hist.recs, 1)
		assert.Nil(t, hist.embeddings[0])
	})

	t.Run("insert failure does not fail the request", func(t *testing.T) {
		gen := NewGenerator(
			&fakeSelector{res: &selection.Result{Timestamp: 12}},
			&fakeRenderer{},
			&fakeUploader{},
			discardLogger()).WithHistory(&fakeHistory{err: errors.New("db gone")}, nil)

		out, err := gen.Generate(context.Background(), Request{Video: "in.mp4"})
		require.NoError(t, err)
		assert.NotEmpty(t, out.URL)
	})
}
