package calculator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"QuantCache/internal/model"
)

// DefaultRiskFree is the annual risk-free rate assumed by SharpeRatio.
const DefaultRiskFree = 0.04

// DailyReturns returns the simple period returns v[i]/v[i-1] - 1.
func DailyReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = values[i]/values[i-1] - 1
	}
	return out
}

// SharpeRatio annualizes the mean excess return over its population
// standard deviation, with riskFree spread evenly over periods per year.
func SharpeRatio(values []float64, riskFree float64, periods int) (float64, error) {
	if periods <= 0 {
		return 0, fmt.Errorf("sharpe: periods must be positive: %w", model.ErrValidation)
	}
	returns := DailyReturns(values)
	if len(returns) < 2 {
		return 0, model.InsufficientData("sharpe", len(values), 3)
	}
	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - riskFree/float64(periods)
	}
	mean, variance := stat.PopMeanVariance(excess, nil)
	if variance == 0 {
		return 0, fmt.Errorf("sharpe: constant returns: %w", model.ErrDegenerateResult)
	}
	return math.Sqrt(float64(periods)) * mean / math.Sqrt(variance), nil
}
