package calculator

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"QuantCache/internal/model"
)

// TradingYear is the number of trading days used for 52-week figures.
const TradingYear = 252

// Range scans the most recent window values and returns the high and low.
// A window longer than the series covers the whole series.
func Range(values []float64, window int) (high, low float64, err error) {
	if len(values) == 0 {
		return 0, 0, model.InsufficientData("range", 0, 1)
	}
	if window <= 0 {
		return 0, 0, fmt.Errorf("range: window must be positive: %w", model.ErrValidation)
	}
	start := max(len(values)-window, 0)
	recent := values[start:]
	return floats.Max(recent), floats.Min(recent), nil
}

// Position returns where current sits within [low, high], clamped to 0.0~1.0.
func Position(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
