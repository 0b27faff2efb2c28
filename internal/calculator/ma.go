// Package calculator computes descriptive indicators over adjusted closes.
package calculator

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"QuantCache/internal/model"
)

func checkPeriod(name string, period, n int) error {
	if period <= 0 {
		return fmt.Errorf("%s: period must be positive: %w", name, model.ErrValidation)
	}
	if n < period {
		return model.InsufficientData(name, n, period)
	}
	return nil
}

// SMA computes the simple moving average of the last period values.
func SMA(values []float64, period int) (float64, error) {
	if err := checkPeriod("sma", period, len(values)); err != nil {
		return 0, err
	}
	return floats.Sum(values[len(values)-period:]) / float64(period), nil
}

// MovingAverage returns the rolling mean over window; element i covers
// values[i : i+window].
func MovingAverage(values []float64, window int) ([]float64, error) {
	if err := checkPeriod("moving average", window, len(values)); err != nil {
		return nil, err
	}
	out := make([]float64, len(values)-window+1)
	sum := floats.Sum(values[:window])
	out[0] = sum / float64(window)
	for i := 1; i < len(out); i++ {
		sum += values[i+window-1] - values[i-1]
		out[i] = sum / float64(window)
	}
	return out, nil
}

// MovingStd returns the rolling sample standard deviation over window,
// aligned like MovingAverage.
func MovingStd(values []float64, window int) ([]float64, error) {
	if err := checkPeriod("moving std", window, len(values)); err != nil {
		return nil, err
	}
	if window < 2 {
		return nil, fmt.Errorf("moving std: window must be at least 2: %w", model.ErrValidation)
	}
	out := make([]float64, len(values)-window+1)
	for i := range out {
		out[i] = stat.StdDev(values[i:i+window], nil)
	}
	return out, nil
}

// Bands are Bollinger bands aligned like MovingAverage.
type Bands struct {
	Middle []float64
	Upper  []float64
	Lower  []float64
}

// BollingerBands returns the window-period mean plus and minus k rolling
// standard deviations.
func BollingerBands(values []float64, window int, k float64) (Bands, error) {
	mid, err := MovingAverage(values, window)
	if err != nil {
		return Bands{}, err
	}
	std, err := MovingStd(values, window)
	if err != nil {
		return Bands{}, err
	}
	b := Bands{
		Middle: mid,
		Upper:  make([]float64, len(mid)),
		Lower:  make([]float64, len(mid)),
	}
	for i := range mid {
		b.Upper[i] = mid[i] + k*std[i]
		b.Lower[i] = mid[i] - k*std[i]
	}
	return b, nil
}
