package model

// SeriesIndicators holds descriptive statistics of a stored series, shown
// next to the statistical tests in analysis reports.
type SeriesIndicators struct {
	LastAdjClose float64
	SMA20        float64
	SMA200       float64
	BollingerHi  float64 // 20-day, 2 sigma
	BollingerLo  float64
	RSI14        float64
	High52w      float64
	Low52w       float64
	Position52w  float64 // 0.0 ~ 1.0
	Sharpe       float64 // annualized, 4% risk free
}
