package thumbnail

import (
	"context"
	"fmt"

	"github.com/clipworks/thumbnailer/internal/metrics"
	"github.com/clipworks/thumbnailer/internal/overlay"
	"github.com/clipworks/thumbnailer/pkg/ffmpeg"
)

// FFmpegProber reports video durations via ffprobe.
type FFmpegProber struct{}

func (FFmpegProber) ProbeDuration(ctx context.Context, video string) (float64, error) {
	return ffmpeg.ProbeDuration(ctx, video)
}

// FFmpegGrabber decodes single candidate frames for selection. Grabs
// are counted so the sampling overhead shows up in metrics.
type FFmpegGrabber struct {
	Quality int
}

func (g FFmpegGrabber) Grab(ctx context.Context, video string, seconds float64) ([]byte, error) {
	img, err := ffmpeg.GrabFrameJPEG(ctx, video, seconds, &ffmpeg.GrabOptions{Quality: g.Quality})
	if err != nil {
		metrics.FrameGrabFailuresTotal.Inc()
		return nil, err
	}
	metrics.FramesGrabbedTotal.Inc()
	return img, nil
}

// RenderSpec describes how the final thumbnail image is composed.
type RenderSpec struct {
	Width    int
	Height   int
	Title    string
	FontFile string
}

// Renderer produces the final thumbnail JPEG for a video at a
// timestamp: scaled and cropped to the target size, with the optional
// title band burned in.
type Renderer interface {
	RenderAt(ctx context.Context, video string, seconds float64, spec RenderSpec) ([]byte, error)
}

// FFmpegRenderer renders thumbnails with a single ffmpeg invocation.
type FFmpegRenderer struct {
	Quality int
}

func (r FFmpegRenderer) RenderAt(ctx context.Context, video string, seconds float64, spec RenderSpec) ([]byte, error) {
	quality := r.Quality
	if quality <= 0 {
		quality = 2
	}

	opts := []ffmpeg.Option{
		ffmpeg.SeekSeconds(seconds),
		ffmpeg.Frames(1),
		ffmpeg.Cover(spec.Width, spec.Height),
	}
	opts = append(opts, overlay.Filters(spec.Title, spec.Width, spec.Height, overlay.Options{FontFile: spec.FontFile})...)
	opts = append(opts, ffmpeg.Quality(quality), ffmpeg.MJPEGPipe)

	data, err := ffmpeg.NewCommand(video, "-", opts...).RunOutput(ctx)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("render: no image data at %.3fs", seconds)
	}
	return data, nil
}
