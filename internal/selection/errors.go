package selection

import "errors"

var (
	// ErrDurationUnavailable means the duration probe failed or reported a
	// non-positive duration. Fatal to the whole selection.
	ErrDurationUnavailable = errors.New("video duration unavailable")

	// ErrNoFramesExtracted means every sampled timestamp failed to produce
	// a frame. Fatal to the whole selection.
	ErrNoFramesExtracted = errors.New("no frames extracted from video")

	// ErrDegenerateVector means an embedding vector had zero norm and
	// cannot be normalized. Indicates an embedder malfunction.
	ErrDegenerateVector = errors.New("degenerate zero-norm embedding vector")
)
