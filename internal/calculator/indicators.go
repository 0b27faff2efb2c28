package calculator

import "QuantCache/internal/model"

// Indicators computes the descriptive figures of series from its adjusted
// closes. Figures needing more history than available are left at zero.
func Indicators(series model.SymbolSeries) (model.SeriesIndicators, error) {
	closes := series.AdjCloses()
	if len(closes) == 0 {
		return model.SeriesIndicators{}, model.InsufficientData("indicators", 0, 1)
	}
	last := closes[len(closes)-1]
	ind := model.SeriesIndicators{LastAdjClose: last}

	ind.SMA20, _ = SMA(closes, 20)
	ind.SMA200, _ = SMA(closes, 200)
	if bands, err := BollingerBands(closes, 20, 2); err == nil {
		ind.BollingerHi = bands.Upper[len(bands.Upper)-1]
		ind.BollingerLo = bands.Lower[len(bands.Lower)-1]
	}

	var err error
	if ind.RSI14, err = RSI(closes, 14); err != nil {
		return model.SeriesIndicators{}, err
	}
	if ind.High52w, ind.Low52w, err = Range(closes, TradingYear); err != nil {
		return model.SeriesIndicators{}, err
	}
	if ind.Position52w, err = Position(last, ind.High52w, ind.Low52w); err != nil {
		return model.SeriesIndicators{}, err
	}
	ind.Sharpe, _ = SharpeRatio(closes, DefaultRiskFree, TradingYear)
	return ind, nil
}
