package selection

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMargin(t *testing.T) {
	tests := []struct {
		duration float64
		want     float64
	}{
		{duration: 10, want: 0.5},   // 2% would be 0.2, floor wins
		{duration: 25, want: 0.5},   // boundary: 2% == 0.5
		{duration: 100, want: 2.0},  // 2% wins
		{duration: 3600, want: 72.0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.0fs", tt.duration), func(t *testing.T) {
			assert.InDelta(t, tt.want, Margin(tt.duration), 1e-9)
		})
	}
}

func TestSampleTimestamps(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		count    int
		want     []float64
	}{
		{
			name:     "spec example 100s x4",
			duration: 100,
			count:    4,
			want:     []float64{2.0, 34.0, 66.0, 98.0},
		},
		{
			name:     "single sample returns margin",
			duration: 100,
			count:    1,
			want:     []float64{2.0},
		},
		{
			name:     "zero count treated as one",
			duration: 60,
			count:    0,
			want:     []float64{1.2},
		},
		{
			name:     "two samples hit both endpoints",
			duration: 50,
			count:    2,
			want:     []float64{1.0, 49.0},
		},
		{
			name:     "short video keeps min margin",
			duration: 2,
			count:    3,
			want:     []float64{0.5, 1.0, 1.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SampleTimestamps(tt.duration, tt.count)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-9)
			}
		})
	}
}

func TestSampleTimestampsProperties(t *testing.T) {
	durations := []float64{1, 7.3, 42, 100, 909.5, 7200}
	counts := []int{1, 2, 3, 12, 60}

	for _, d := range durations {
		for _, n := range counts {
			got := SampleTimestamps(d, n)
			assert.Len(t, got, n, "duration=%v count=%d", d, n)
			assert.True(t, sort.Float64sAreSorted(got), "duration=%v count=%d not sorted", d, n)

			margin := Margin(d)
			for _, ts := range got {
				assert.GreaterOrEqual(t, ts, margin-1e-9, "duration=%v count=%d", d, n)
				assert.LessOrEqual(t, ts, maxFloat(margin, d-margin)+1e-9, "duration=%v count=%d", d, n)
			}

			// Deterministic: same input, same output.
			assert.Equal(t, got, SampleTimestamps(d, n))
		}
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
