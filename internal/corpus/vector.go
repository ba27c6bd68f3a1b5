package corpus

import "math"

// Normalize returns an L2-normalized copy of v. A zero vector is returned
// unchanged; callers reject those upstream.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

// Dot returns the dot product of a and b. For L2-normalized inputs this is
// the cosine similarity in [-1,1]. Panics are avoided by truncating to the
// shorter length; dimension agreement is enforced by the index.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// ClipScore maps a cosine similarity to the engine's [0,1] score range.
// Negative similarity floors at 0; the value is clipped, not rescaled, so
// a 0.8 cosine match scores exactly 0.8.
func ClipScore(cos float64) float64 {
	if cos < 0 {
		return 0
	}
	if cos > 1 {
		return 1
	}
	return cos
}
