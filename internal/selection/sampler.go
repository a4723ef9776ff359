package selection

import "math"

// marginFraction is the share of the timeline trimmed at each end to
// avoid black frames and credits near the boundaries.
const marginFraction = 0.02

// minMargin is the smallest edge margin in seconds.
const minMargin = 0.5

// Margin returns the edge margin for a video of the given duration.
func Margin(duration float64) float64 {
	return math.Max(minMargin, duration*marginFraction)
}

// SampleTimestamps distributes count timestamps evenly across the
// margin-trimmed timeline, including both endpoints. For count <= 1 it
// returns the single start-of-range timestamp. The result is sorted
// ascending and deterministic for a given (duration, count).
func SampleTimestamps(duration float64, count int) []float64 {
	margin := Margin(duration)
	start := margin
	end := math.Max(margin, duration-margin)

	if count <= 1 {
		return []float64{start}
	}

	step := (end - start) / float64(count-1)
	times := make([]float64, count)
	for i := range times {
		times[i] = start + float64(i)*step
	}
	return times
}
