package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantCache/internal/model"
)

func TestSMA(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		period  int
		want    float64
		wantErr error
	}{
		{"last three", []float64{1, 2, 3, 4, 5}, 3, 4, nil},
		{"whole series", []float64{2, 4}, 2, 3, nil},
		{"too short", []float64{1, 2}, 3, 0, model.ErrInsufficientData},
		{"zero period", []float64{1, 2}, 0, 0, model.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SMA(tt.values, tt.period)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestMovingAverageAndStd(t *testing.T) {
	ma, err := MovingAverage([]float64{1, 2, 3, 4, 5}, 2)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.5, 2.5, 3.5, 4.5}, ma, 1e-12)

	std, err := MovingStd([]float64{1, 2, 3, 4}, 2)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{math.Sqrt2 / 2, math.Sqrt2 / 2, math.Sqrt2 / 2}, std, 1e-12)

	_, err = MovingStd([]float64{1, 2, 3}, 1)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestBollingerBands(t *testing.T) {
	b, err := BollingerBands([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 8, 2)
	require.NoError(t, err)
	require.Len(t, b.Middle, 1)
	sd := math.Sqrt(32.0 / 7)
	assert.InDelta(t, 5, b.Middle[0], 1e-12)
	assert.InDelta(t, 5+2*sd, b.Upper[0], 1e-12)
	assert.InDelta(t, 5-2*sd, b.Lower[0], 1e-12)

	_, err = BollingerBands([]float64{1, 2}, 20, 2)
	assert.ErrorIs(t, err, model.ErrInsufficientData)
}

func TestRSI(t *testing.T) {
	rising := []float64{1, 2, 3, 4, 5, 6}
	got, err := RSI(rising, 3)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got)

	got, err = RSI([]float64{1, 2}, 14)
	require.NoError(t, err)
	assert.Equal(t, 50.0, got)

	// changes +1 -1 | +1 -1 with period 2
	got, err = RSI([]float64{1, 2, 1, 2, 1}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 37.5, got, 1e-9)

	_, err = RSI(rising, 0)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestRangeAndPosition(t *testing.T) {
	values := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	high, low, err := Range(values, 3)
	require.NoError(t, err)
	assert.Equal(t, 9.0, high)
	assert.Equal(t, 2.0, low)

	high, low, err = Range(values, 100)
	require.NoError(t, err)
	assert.Equal(t, 9.0, high)
	assert.Equal(t, 1.0, low)

	_, _, err = Range(nil, 3)
	assert.ErrorIs(t, err, model.ErrInsufficientData)

	tests := []struct {
		current, high, low, want float64
	}{
		{5, 10, 0, 0.5},
		{12, 10, 0, 1},
		{-1, 10, 0, 0},
		{3, 3, 3, 0.5},
	}
	for _, tt := range tests {
		got, err := Position(tt.current, tt.high, tt.low)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12)
	}
	_, err = Position(1, 0, 10)
	assert.Error(t, err)
}

func TestDailyReturnsAndSharpe(t *testing.T) {
	assert.InDeltaSlice(t, []float64{0.1, -0.1}, DailyReturns([]float64{100, 110, 99}), 1e-12)
	assert.Nil(t, DailyReturns([]float64{1}))

	got, err := SharpeRatio([]float64{100, 101, 99.99}, DefaultRiskFree, TradingYear)
	require.NoError(t, err)
	want := math.Sqrt(252) * (-0.04 / 252) / 0.01
	assert.InDelta(t, want, got, 1e-6)

	_, err = SharpeRatio([]float64{100, 101}, DefaultRiskFree, TradingYear)
	assert.ErrorIs(t, err, model.ErrInsufficientData)

	_, err = SharpeRatio([]float64{100, 100, 100}, DefaultRiskFree, TradingYear)
	assert.ErrorIs(t, err, model.ErrDegenerateResult)
}

func TestIndicators(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	series := model.SymbolSeries{Symbol: "LIN"}
	for i := 1; i <= 300; i++ {
		p := float64(i)
		series.Records = append(series.Records, model.PriceRecord{
			Date: start.AddDate(0, 0, i), Open: p, High: p, Low: p, Close: p, AdjClose: p,
		})
	}

	ind, err := Indicators(series)
	require.NoError(t, err)
	assert.Equal(t, 300.0, ind.LastAdjClose)
	assert.InDelta(t, 290.5, ind.SMA20, 1e-9)
	assert.InDelta(t, 200.5, ind.SMA200, 1e-9)
	assert.Equal(t, 100.0, ind.RSI14)
	assert.Equal(t, 300.0, ind.High52w)
	assert.Equal(t, 49.0, ind.Low52w)
	assert.Equal(t, 1.0, ind.Position52w)
	assert.Greater(t, ind.BollingerHi, ind.SMA20)
	assert.Less(t, ind.BollingerLo, ind.SMA20)
	assert.Greater(t, ind.Sharpe, 0.0)

	_, err = Indicators(model.SymbolSeries{Symbol: "NONE"})
	assert.ErrorIs(t, err, model.ErrInsufficientData)
}

func TestIndicators_ShortHistory(t *testing.T) {
	series := model.SymbolSeries{Symbol: "NEW", Records: []model.PriceRecord{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 10, High: 10, Low: 10, Close: 10, AdjClose: 10},
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Open: 11, High: 11, Low: 11, Close: 11, AdjClose: 11},
	}}
	ind, err := Indicators(series)
	require.NoError(t, err)
	assert.Zero(t, ind.SMA20)
	assert.Zero(t, ind.SMA200)
	assert.Zero(t, ind.BollingerHi)
	assert.Equal(t, 50.0, ind.RSI14)
	assert.Equal(t, 1.0, ind.Position52w)
}
