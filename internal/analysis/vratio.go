package analysis

import (
	"fmt"
	"math"

	"QuantCache/internal/model"
)

// VarianceRatioResult is a Lo-MacKinlay variance ratio test against the
// random walk null. Ratio above 1 suggests trending, below 1 mean reversion.
type VarianceRatioResult struct {
	Lag       int
	Ratio     float64
	Statistic float64
	PValue    float64
}

// RejectsRandomWalk reports whether the two-sided test rejects at alpha.
func (r VarianceRatioResult) RejectsRandomWalk(alpha float64) bool {
	return r.PValue < alpha
}

// VarianceRatioTest compares the variance of lag-period differences with lag
// times the one-period variance. It uses overlapping differences, a drift
// term, bias-corrected variances and the heteroskedasticity-robust z
// statistic.
func VarianceRatioTest(series []float64, lag int) (VarianceRatioResult, error) {
	if lag < 2 {
		return VarianceRatioResult{}, fmt.Errorf("variance ratio: lag %d below 2: %w", lag, model.ErrValidation)
	}
	if err := finite(series); err != nil {
		return VarianceRatioResult{}, fmt.Errorf("variance ratio: %w", err)
	}
	if len(series) < lag+3 {
		return VarianceRatioResult{}, model.InsufficientData("variance ratio", len(series), lag+3)
	}

	dy := diff(series)
	nq := float64(len(dy))
	q := float64(lag)
	mu := (series[len(series)-1] - series[0]) / nq

	z2 := make([]float64, len(dy))
	var sigma1 float64
	for i, d := range dy {
		z2[i] = (d - mu) * (d - mu)
		sigma1 += z2[i]
	}
	sigma1 /= nq

	var sigmaQ float64
	for i := lag; i < len(series); i++ {
		e := series[i] - series[i-lag] - q*mu
		sigmaQ += e * e
	}
	sigmaQ /= nq * q

	sigma1 *= nq / (nq - 1)
	m := q * (nq - q + 1) * (1 - q/nq)
	sigmaQ *= nq * q / m
	if sigma1 == 0 {
		return VarianceRatioResult{}, fmt.Errorf("variance ratio: constant increments: %w", model.ErrDegenerateResult)
	}
	ratio := sigmaQ / sigma1

	var total float64
	for _, v := range z2 {
		total += v
	}
	scale := total * total
	var theta float64
	for k := 1; k < lag; k++ {
		var dot float64
		for i := k; i < len(z2); i++ {
			dot += z2[i] * z2[i-k]
		}
		w := 1 - float64(k)/q
		theta += 4 * w * w * nq * dot / scale
	}
	if theta <= 0 {
		return VarianceRatioResult{}, fmt.Errorf("variance ratio: zero asymptotic variance: %w", model.ErrDegenerateResult)
	}

	z := math.Sqrt(nq) * (ratio - 1) / math.Sqrt(theta)
	return VarianceRatioResult{
		Lag:       lag,
		Ratio:     ratio,
		Statistic: z,
		PValue:    2 - 2*standardNormal.CDF(math.Abs(z)),
	}, nil
}
