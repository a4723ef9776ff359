package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBestCandidate(t *testing.T) {
	tests := map[string]struct {
		imageVecs  [][]float32
		promptVecs [][]float32
		wantIdx    int
	}{
		"single prompt picks aligned image": {
			imageVecs: [][]float32{
				{0, 1},
				{1, 0},
				{0.7, 0.7},
			},
			promptVecs: [][]float32{{1, 0}},
			wantIdx:    1,
		},
		"mean across prompts decides": {
			// image 0 is perfect for prompt 0 but orthogonal to prompt 1;
			// image 1 is decent for both and wins on average.
			imageVecs: [][]float32{
				{1, 0},
				{0.8, 0.6},
			},
			promptVecs: [][]float32{
				{1, 0},
				{0, 1},
			},
			wantIdx: 1,
		},
		"tie resolves to lowest index": {
			imageVecs: [][]float32{
				{1, 0},
				{1, 0},
			},
			promptVecs: [][]float32{{1, 0}},
			wantIdx:    0,
		},
		"scaling an image vector does not change the outcome": {
			imageVecs: [][]float32{
				{0, 250},
				{0.001, 0},
			},
			promptVecs: [][]float32{{0, 0.004}},
			wantIdx:    0,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := BestCandidate(tt.imageVecs, tt.promptVecs)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIdx, got)
		})
	}
}

func TestBestCandidateScaleInvariance(t *testing.T) {
	base := [][]float32{
		{0.2, 0.5, 0.1},
		{0.9, 0.1, 0.3},
		{0.4, 0.4, 0.4},
	}
	prompts := [][]float32{
		{0.5, 0.5, 0.0},
		{0.1, 0.2, 0.9},
	}

	want, err := BestCandidate(clone(base), clone(prompts))
	require.NoError(t, err)

	scaled := clone(base)
	for i := range scaled {
		for j := range scaled[i] {
			scaled[i][j] *= float32(1 + i*17)
		}
	}
	got, err := BestCandidate(scaled, clone(prompts))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBestCandidateErrors(t *testing.T) {
	t.Run("zero vector is degenerate", func(t *testing.T) {
		_, err := BestCandidate([][]float32{{0, 0, 0}}, [][]float32{{1, 0, 0}})
		assert.ErrorIs(t, err, ErrDegenerateVector)
	})

	t.Run("zero prompt vector is degenerate", func(t *testing.T) {
		_, err := BestCandidate([][]float32{{1, 0}}, [][]float32{{0, 0}})
		assert.ErrorIs(t, err, ErrDegenerateVector)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := BestCandidate([][]float32{{1, 0}}, [][]float32{{1, 0, 0}})
		assert.ErrorContains(t, err, "dimension mismatch")
	})

	t.Run("empty batches", func(t *testing.T) {
		_, err := BestCandidate(nil, [][]float32{{1}})
		assert.Error(t, err)
		_, err = BestCandidate([][]float32{{1}}, nil)
		assert.Error(t, err)
	})
}

func clone(vs [][]float32) [][]float32 {
	out := make([][]float32, len(vs))
	for i, v := range vs {
		out[i] = append([]float32(nil), v...)
	}
	return out
}
