package nn

import (
	"math"
	"math/rand/v2"
)

// uniformInit fills values from U(-scale, scale), rounded to float32 so that a
// weight-stream round trip reproduces them exactly.
//
//nolint:gosec // weight initialization is not security sensitive
func uniformInit(values []float64, scale float64) {
	for i := range values {
		values[i] = float64(float32((rand.Float64()*2 - 1) * scale))
	}
}

// heScale returns the darknet-style init bound sqrt(2/fanIn).
func heScale(fanIn int) float64 {
	return math.Sqrt(2 / float64(fanIn))
}
