package ffmpeg

import (
	"context"
	"fmt"
)

// GrabOptions configures single-frame extraction.
type GrabOptions struct {
	Quality int // JPEG quantizer 1-31, lower is better (default: 2)
}

// GrabFrameJPEG extracts the frame at the given second offset and
// returns it as JPEG bytes without touching the filesystem.
func GrabFrameJPEG(ctx context.Context, input string, seconds float64, opts *GrabOptions) ([]byte, error) {
	if opts == nil {
		opts = &GrabOptions{}
	}
	if opts.Quality == 0 {
		opts.Quality = 2
	}
	if seconds < 0 {
		seconds = 0
	}

	data, err := NewCommand(input, "-",
		SeekSeconds(seconds),
		Frames(1),
		Quality(opts.Quality),
		MJPEGPipe,
	).RunOutput(ctx)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("ffmpeg: no frame data at %.3fs", seconds)
	}
	return data, nil
}
