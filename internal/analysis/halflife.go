package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"QuantCache/internal/model"
)

// MeanReversionHalfLife regresses y[t]-y[t-1] on y[t-1] with an intercept
// and returns -ln 2 / ln(1+beta), the number of periods for a deviation from
// the mean to halve. A slope outside (-1, 0) has no half-life and fails with
// model.ErrDegenerateResult.
func MeanReversionHalfLife(series []float64) (float64, error) {
	if err := finite(series); err != nil {
		return 0, fmt.Errorf("half-life: %w", err)
	}
	if len(series) < 3 {
		return 0, model.InsufficientData("half-life", len(series), 3)
	}
	lagged := series[:len(series)-1]
	delta := diff(series)

	_, beta := stat.LinearRegression(lagged, delta, nil, false)
	switch {
	case math.IsNaN(beta):
		return 0, fmt.Errorf("half-life: constant series: %w", model.ErrDegenerateResult)
	case beta >= 0:
		return 0, fmt.Errorf("half-life: slope %.4g is not mean-reverting: %w", beta, model.ErrDegenerateResult)
	case beta <= -1:
		return 0, fmt.Errorf("half-life: slope %.4g overshoots the mean: %w", beta, model.ErrDegenerateResult)
	}
	return -math.Ln2 / math.Log1p(beta), nil
}
