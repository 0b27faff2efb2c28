package analysis

import "math/rand"

func randomWalk(seed int64, n int, start float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	out[0] = start
	for i := 1; i < n; i++ {
		out[i] = out[i-1] + rng.NormFloat64()
	}
	return out
}

// ar1 returns mean + x where x[t] = phi*x[t-1] + e[t].
func ar1(seed int64, n int, phi, mean float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	x := 0.0
	for i := range out {
		x = phi*x + rng.NormFloat64()
		out[i] = mean + x
	}
	return out
}

// momentum returns a walk whose increments follow an AR(1) with phi.
func momentum(seed int64, n int, phi float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	out[0] = 1000
	inc := 0.0
	for i := 1; i < n; i++ {
		inc = phi*inc + rng.NormFloat64()
		out[i] = out[i-1] + inc
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
