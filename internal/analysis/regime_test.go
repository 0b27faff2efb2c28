package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantCache/internal/model"
)

func TestMapRegime(t *testing.T) {
	tests := []struct {
		score float64
		want  model.Regime
	}{
		{2.0, model.RegimeTrending},
		{0.5, model.RegimeTrending},
		{0.49, model.RegimeRandomWalk},
		{0, model.RegimeRandomWalk},
		{-0.5, model.RegimeRandomWalk},
		{-0.51, model.RegimeMeanReverting},
		{-2.0, model.RegimeMeanReverting},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mapRegime(tt.score), "score %.2f", tt.score)
	}
}

func TestClassify_MeanReverting(t *testing.T) {
	rep, err := Classify(ar1(20, 1000, 0.5, 100), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, model.RegimeMeanReverting, rep.Signal.Regime)
	assert.Len(t, rep.Signal.Factors, 4)
	assert.NoError(t, rep.HalfLifeErr)
	assert.Greater(t, rep.HalfLife, 0.0)
	assert.Empty(t, rep.Signal.WarningMsg)
}

func TestClassify_Trending(t *testing.T) {
	rep, err := Classify(momentum(21, 1000, 0.9), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, model.RegimeTrending, rep.Signal.Regime, "score %.3f", rep.Signal.TotalScore)
	assert.Greater(t, rep.Hurst, 0.55)
}

func TestClassify_WeightedSum(t *testing.T) {
	rep, err := Classify(randomWalk(22, 80, 50), DefaultOptions())
	require.NoError(t, err)

	var total, weights float64
	for _, f := range rep.Signal.Factors {
		assert.InDelta(t, f.RawScore*f.Weight, f.Weighted, 1e-12, f.Name)
		total += f.Weighted
		weights += f.Weight
	}
	assert.InDelta(t, total, rep.Signal.TotalScore, 1e-12)
	assert.InDelta(t, 1.0, weights, 1e-12)
	assert.NotEmpty(t, rep.Signal.WarningMsg)
}

func TestClassify_NeutralWhenEstimatorFails(t *testing.T) {
	opts := DefaultOptions()
	opts.VRLag = 500
	rep, err := Classify(ar1(23, 300, 0.5, 10), opts)
	require.NoError(t, err)
	assert.ErrorIs(t, rep.VRErr, model.ErrInsufficientData)
	vr := rep.Signal.Factors[2]
	assert.Equal(t, "VarianceRatio", vr.Name)
	assert.Zero(t, vr.RawScore)
	assert.Equal(t, "unavailable: insufficient_data", vr.Commentary)
}

func TestClassify_ShortSeries(t *testing.T) {
	_, err := Classify([]float64{1, 2, 3}, DefaultOptions())
	assert.ErrorIs(t, err, model.ErrInsufficientData)
}
