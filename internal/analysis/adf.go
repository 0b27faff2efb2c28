package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"QuantCache/internal/model"
)

// Level is a significance level of the unit root tests.
type Level string

const (
	Level1  Level = "1%"
	Level5  Level = "5%"
	Level10 Level = "10%"
)

// Levels lists the reported significance levels, strictest first.
var Levels = []Level{Level1, Level5, Level10}

// ADFResult is the outcome of an augmented Dickey-Fuller test with a
// constant. A more negative Statistic is stronger evidence of stationarity.
type ADFResult struct {
	Statistic      float64
	PValue         float64
	UsedLag        int
	NObs           int
	CriticalValues map[Level]float64
}

// Rejects reports whether the unit root hypothesis is rejected at level.
func (r ADFResult) Rejects(level Level) bool {
	cv, ok := r.CriticalValues[level]
	return ok && r.Statistic < cv
}

// MacKinnon (2010) response surface, constant only, one variable.
var adfCritSurface = map[Level][4]float64{
	Level1:  {-3.43035, -6.5393, -16.786, -79.433},
	Level5:  {-2.86154, -2.8903, -4.234, -40.040},
	Level10: {-2.56677, -1.5384, -2.809, 0},
}

// CriticalValues returns the ADF critical values for a regression on nobs
// observations.
func CriticalValues(nobs int) map[Level]float64 {
	t := float64(nobs)
	out := make(map[Level]float64, len(adfCritSurface))
	for level, b := range adfCritSurface {
		out[level] = b[0] + b[1]/t + b[2]/(t*t) + b[3]/(t*t*t)
	}
	return out
}

// MacKinnon (1994) approximate p-value coefficients, constant only.
var (
	adfTauMax      = 2.74
	adfTauMin      = -18.83
	adfTauStar     = -1.61
	adfTauSmallP   = []float64{2.1659, 1.4412, 0.038269}
	adfTauLargeP   = []float64{1.7339, 0.93202, -0.12745, -0.010368}
	standardNormal = distuv.UnitNormal
)

// PValue returns the approximate p-value of an ADF statistic.
func PValue(stat float64) float64 {
	switch {
	case math.IsNaN(stat):
		return math.NaN()
	case stat > adfTauMax:
		return 1
	case stat < adfTauMin:
		return 0
	}
	coef := adfTauLargeP
	if stat <= adfTauStar {
		coef = adfTauSmallP
	}
	var poly, pow float64 = 0, 1
	for _, c := range coef {
		poly += c * pow
		pow *= stat
	}
	return standardNormal.CDF(poly)
}

// adfDesign builds the regression of dy[t] on a constant, y[t] and lags
// dy[t-1..t-lag] over the last nobs differences.
func adfDesign(series []float64, lag, nobs int) (*mat.Dense, []float64) {
	dy := diff(series)
	first := len(dy) - nobs
	x := mat.NewDense(nobs, lag+2, nil)
	target := make([]float64, nobs)
	for r := 0; r < nobs; r++ {
		t := first + r
		x.Set(r, 0, 1)
		x.Set(r, 1, series[t])
		for i := 1; i <= lag; i++ {
			x.Set(r, 1+i, dy[t-i])
		}
		target[r] = dy[t]
	}
	return x, target
}

func adfResult(fit olsFit, lag int) (ADFResult, error) {
	if fit.se[1] == 0 || math.IsNaN(fit.se[1]) {
		return ADFResult{}, fmt.Errorf("adf: zero residual variance: %w", model.ErrDegenerateResult)
	}
	stat := fit.tstat(1)
	return ADFResult{
		Statistic:      stat,
		PValue:         PValue(stat),
		UsedLag:        lag,
		NObs:           fit.nobs,
		CriticalValues: CriticalValues(fit.nobs),
	}, nil
}

// AugmentedDickeyFuller tests series for a unit root with a fixed number of
// lagged differences.
func AugmentedDickeyFuller(series []float64, lag int) (ADFResult, error) {
	if lag < 0 {
		return ADFResult{}, fmt.Errorf("adf: negative lag %d: %w", lag, model.ErrValidation)
	}
	if err := finite(series); err != nil {
		return ADFResult{}, fmt.Errorf("adf: %w", err)
	}
	// nobs must exceed the lag+2 regressors
	need := 2*lag + 4
	if len(series) < need {
		return ADFResult{}, model.InsufficientData("adf", len(series), need)
	}
	if flat(series) {
		return ADFResult{}, fmt.Errorf("adf: constant series: %w", model.ErrDegenerateResult)
	}
	nobs := len(series) - 1 - lag
	fit, err := ols(adfDesign(series, lag, nobs))
	if err != nil {
		return ADFResult{}, fmt.Errorf("adf: %w", err)
	}
	return adfResult(fit, lag)
}

// DefaultMaxLag is the Schwert rule ceil(12 (n/100)^(1/4)) bounded so the
// largest regression still has degrees of freedom left.
func DefaultMaxLag(n int) int {
	maxLag := int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	if bound := n/2 - 2; bound < maxLag {
		maxLag = bound
	}
	return maxLag
}

// AugmentedDickeyFullerAIC picks the number of lagged differences in
// 0..maxLag minimizing AIC on a common sample, then refits with that lag on
// all available observations. maxLag < 0 selects DefaultMaxLag.
func AugmentedDickeyFullerAIC(series []float64, maxLag int) (ADFResult, error) {
	if err := finite(series); err != nil {
		return ADFResult{}, fmt.Errorf("adf: %w", err)
	}
	if maxLag < 0 {
		maxLag = DefaultMaxLag(len(series))
	} else if bound := len(series)/2 - 2; bound < maxLag {
		maxLag = bound
	}
	if maxLag < 0 || len(series) < 4 {
		return ADFResult{}, model.InsufficientData("adf", len(series), 4)
	}

	nobs := len(series) - 1 - maxLag
	full, target := adfDesign(series, maxLag, nobs)
	bestLag, bestAIC := -1, math.Inf(1)
	for lag := 0; lag <= maxLag; lag++ {
		sub := full.Slice(0, nobs, 0, lag+2).(*mat.Dense)
		fit, err := ols(sub, target)
		if err != nil {
			continue
		}
		if aic := fit.aic(); aic < bestAIC {
			bestLag, bestAIC = lag, aic
		}
	}
	if bestLag < 0 {
		return ADFResult{}, fmt.Errorf("adf: no lag could be fitted: %w", model.ErrDegenerateResult)
	}
	return AugmentedDickeyFuller(series, bestLag)
}
