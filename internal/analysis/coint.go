package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"QuantCache/internal/model"
)

// CointegrationResult is a cointegrated ADF test of two series.
type CointegrationResult struct {
	HedgeRatio float64
	Intercept  float64
	ADF        ADFResult
}

// Cointegrated reports whether the spread is stationary at level.
func (r CointegrationResult) Cointegrated(level Level) bool {
	return r.ADF.Rejects(level)
}

// Spread returns a - hedge*b, the series whose stationarity is tested.
func Spread(a, b []float64, hedge float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - hedge*b[i]
	}
	return out
}

// CointegratedADF estimates the hedge ratio of a on b by OLS with an
// intercept and runs an AIC-lag ADF test on the spread a - hedge*b. The
// series must be aligned on the same dates.
func CointegratedADF(a, b []float64) (CointegrationResult, error) {
	if len(a) != len(b) {
		return CointegrationResult{}, fmt.Errorf("cadf: series lengths differ (%d vs %d): %w", len(a), len(b), model.ErrValidation)
	}
	if err := finite(a); err != nil {
		return CointegrationResult{}, fmt.Errorf("cadf: %w", err)
	}
	if err := finite(b); err != nil {
		return CointegrationResult{}, fmt.Errorf("cadf: %w", err)
	}
	if len(a) < 4 {
		return CointegrationResult{}, model.InsufficientData("cadf", len(a), 4)
	}

	intercept, hedge := stat.LinearRegression(b, a, nil, false)
	if math.IsNaN(hedge) {
		return CointegrationResult{}, fmt.Errorf("cadf: second series is constant: %w", model.ErrDegenerateResult)
	}
	adf, err := AugmentedDickeyFullerAIC(Spread(a, b, hedge), -1)
	if err != nil {
		return CointegrationResult{}, fmt.Errorf("cadf: %w", err)
	}
	return CointegrationResult{HedgeRatio: hedge, Intercept: intercept, ADF: adf}, nil
}
