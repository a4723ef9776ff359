package selection

import (
	"fmt"
	"math"
)

// normalize scales v to unit length in place. Returns
// ErrDegenerateVector if the vector's norm is zero.
func normalize(v []float32) error {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return ErrDegenerateVector
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// BestCandidate picks the image whose average cosine similarity across
// all prompts is highest. Both batches are L2-normalized first, so the
// result is invariant to uniform positive scaling of any input vector.
// Ties resolve to the lowest candidate index.
func BestCandidate(imageVecs, promptVecs [][]float32) (int, error) {
	if len(imageVecs) == 0 || len(promptVecs) == 0 {
		return 0, fmt.Errorf("score: empty batch (%d images, %d prompts)", len(imageVecs), len(promptVecs))
	}

	dim := len(imageVecs[0])
	for _, batch := range [][][]float32{imageVecs, promptVecs} {
		for _, v := range batch {
			if len(v) != dim {
				return 0, fmt.Errorf("score: embedding dimension mismatch: %d != %d", len(v), dim)
			}
			if err := normalize(v); err != nil {
				return 0, err
			}
		}
	}

	bestIdx := 0
	bestAvg := math.Inf(-1)
	for i, img := range imageVecs {
		var total float64
		for _, prompt := range promptVecs {
			total += dot(prompt, img)
		}
		avg := total / float64(len(promptVecs))
		if avg > bestAvg {
			bestAvg = avg
			bestIdx = i
		}
	}
	return bestIdx, nil
}
