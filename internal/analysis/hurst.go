package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"QuantCache/internal/model"
)

// DefaultHurstLag is the usual largest lag, about 100 trading days.
const DefaultHurstLag = 100

// HurstExponent estimates H from the growth of the dispersion of lagged
// differences: std(y[t+L]-y[t]) ~ L^H for L in 2..min(maxLag, n)-2.
// H near 0.5 is a random walk, below it mean-reverting, above it trending.
func HurstExponent(series []float64, maxLag int) (float64, error) {
	if err := finite(series); err != nil {
		return 0, fmt.Errorf("hurst: %w", err)
	}
	upper := min(maxLag, len(series)) - 1
	if upper-2 < 2 {
		if maxLag < len(series) {
			return 0, fmt.Errorf("hurst: max lag %d leaves fewer than two lags: %w", maxLag, model.ErrValidation)
		}
		return 0, model.InsufficientData("hurst", len(series), 5)
	}

	logLag := make([]float64, 0, upper-2)
	logStd := make([]float64, 0, upper-2)
	d := make([]float64, len(series))
	for lag := 2; lag < upper; lag++ {
		d = d[:0]
		for i := lag; i < len(series); i++ {
			d = append(d, series[i]-series[i-lag])
		}
		_, variance := stat.PopMeanVariance(d, nil)
		if variance <= 0 {
			return 0, fmt.Errorf("hurst: no dispersion at lag %d: %w", lag, model.ErrDegenerateResult)
		}
		logLag = append(logLag, math.Log(float64(lag)))
		logStd = append(logStd, 0.5*math.Log(variance))
	}

	_, slope := stat.LinearRegression(logLag, logStd, nil, false)
	return slope, nil
}
