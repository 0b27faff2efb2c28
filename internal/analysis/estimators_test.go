package analysis

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantCache/internal/model"
)

func TestMeanReversionHalfLife_Exact(t *testing.T) {
	// y[t] - y[t-1] = -0.1 y[t-1] exactly
	series := make([]float64, 60)
	series[0] = 100
	for i := 1; i < len(series); i++ {
		series[i] = 0.9 * series[i-1]
	}
	hl, err := MeanReversionHalfLife(series)
	require.NoError(t, err)
	assert.InDelta(t, -math.Ln2/math.Log(0.9), hl, 1e-6)
}

func TestMeanReversionHalfLife_SignContract(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	reverting := make([]float64, 1000)
	for i := 1; i < len(reverting); i++ {
		reverting[i] = 0.9*reverting[i-1] + rng.NormFloat64()
	}
	hl, err := MeanReversionHalfLife(reverting)
	require.NoError(t, err)
	assert.Greater(t, hl, 0.0)
	assert.InDelta(t, 6.58, hl, 2.5)

	explosive := make([]float64, 200)
	explosive[0] = 1
	for i := 1; i < len(explosive); i++ {
		explosive[i] = 1.05*explosive[i-1] + 0.01*rng.NormFloat64()
	}
	_, err = MeanReversionHalfLife(explosive)
	assert.ErrorIs(t, err, model.ErrDegenerateResult)
}

func TestMeanReversionHalfLife_Errors(t *testing.T) {
	_, err := MeanReversionHalfLife([]float64{1, 2})
	assert.ErrorIs(t, err, model.ErrInsufficientData)

	_, err = MeanReversionHalfLife(constant(20, 3))
	assert.ErrorIs(t, err, model.ErrDegenerateResult)

	_, err = MeanReversionHalfLife([]float64{1, math.NaN(), 3, 4})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestHurstExponent(t *testing.T) {
	h, err := HurstExponent(randomWalk(6, 2000, 100), 100)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, h, 0.4)
	assert.LessOrEqual(t, h, 0.6)

	h, err = HurstExponent(ar1(7, 2000, 0.5, 100), 100)
	require.NoError(t, err)
	assert.Less(t, h, 0.4)

	h, err = HurstExponent(momentum(8, 2000, 0.9), 100)
	require.NoError(t, err)
	assert.Greater(t, h, 0.6)
}

func TestHurstExponent_Errors(t *testing.T) {
	_, err := HurstExponent([]float64{1, 2, 3, 4}, 100)
	assert.ErrorIs(t, err, model.ErrInsufficientData)

	_, err = HurstExponent(randomWalk(9, 100, 10), 4)
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = HurstExponent(constant(100, 1), 100)
	assert.ErrorIs(t, err, model.ErrDegenerateResult)
}

func TestVarianceRatioTest(t *testing.T) {
	rw, err := VarianceRatioTest(randomWalk(10, 2000, 100), 2)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rw.Ratio, 0.1)
	assert.Equal(t, 2, rw.Lag)

	// iid levels: increments have autocorrelation -0.5, so VR(2) ~ 0.5
	noise, err := VarianceRatioTest(ar1(11, 2000, 0, 100), 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, noise.Ratio, 0.1)
	assert.Less(t, noise.Statistic, 0.0)
	assert.True(t, noise.RejectsRandomWalk(0.01))

	trend, err := VarianceRatioTest(momentum(12, 2000, 0.5), 4)
	require.NoError(t, err)
	assert.Greater(t, trend.Ratio, 1.5)
	assert.True(t, trend.RejectsRandomWalk(0.01))
	assert.GreaterOrEqual(t, trend.PValue, 0.0)
}

func TestVarianceRatioTest_Errors(t *testing.T) {
	_, err := VarianceRatioTest(randomWalk(13, 100, 10), 1)
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = VarianceRatioTest([]float64{1, 2, 3, 4}, 2)
	assert.ErrorIs(t, err, model.ErrInsufficientData)

	_, err = VarianceRatioTest([]float64{1, 2, 3, 4, 5, 6}, 2)
	assert.ErrorIs(t, err, model.ErrDegenerateResult)
}

func TestCointegratedADF(t *testing.T) {
	rng := rand.New(rand.NewSource(14))
	b := randomWalk(15, 1000, 50)
	a := make([]float64, len(b))
	for i := range b {
		a[i] = 2*b[i] + rng.NormFloat64()
	}

	res, err := CointegratedADF(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, res.HedgeRatio, 0.05)
	assert.True(t, res.Cointegrated(Level5), "stat %.3f", res.ADF.Statistic)
	assert.Less(t, res.ADF.PValue, 0.05)
}

func TestCointegratedADF_Independent(t *testing.T) {
	a := randomWalk(16, 1000, 50)
	b := randomWalk(17, 1000, 80)
	res, err := CointegratedADF(a, b)
	require.NoError(t, err)
	assert.False(t, res.Cointegrated(Level1), "stat %.3f", res.ADF.Statistic)
}

func TestCointegratedADF_Errors(t *testing.T) {
	_, err := CointegratedADF(make([]float64, 10), make([]float64, 9))
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = CointegratedADF([]float64{1, 2}, []float64{3, 4})
	assert.ErrorIs(t, err, model.ErrInsufficientData)

	_, err = CointegratedADF(randomWalk(18, 50, 5), constant(50, 2))
	assert.ErrorIs(t, err, model.ErrDegenerateResult)
}

func TestSpread(t *testing.T) {
	assert.Equal(t, []float64{0, 1, 2}, Spread([]float64{2, 5, 8}, []float64{1, 2, 3}, 2))
}
