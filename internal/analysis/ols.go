// Package analysis implements the time-series statistics used to tell
// trending, mean-reverting and random-walk price series apart.
//
// Every function takes adjusted closes in ascending date order. Inputs too
// short for an estimator fail with model.ErrInsufficientData.
package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"QuantCache/internal/model"
)

// olsFit is an ordinary least squares fit of y on the columns of X.
type olsFit struct {
	beta []float64
	se   []float64
	ssr  float64
	nobs int
	k    int
}

// aic is the Akaike criterion of a Gaussian linear model.
func (f olsFit) aic() float64 {
	n := float64(f.nobs)
	llf := -n / 2 * (math.Log(2*math.Pi) + math.Log(f.ssr/n) + 1)
	return -2*llf + 2*float64(f.k)
}

// tstat returns the t statistic of coefficient j.
func (f olsFit) tstat(j int) float64 {
	return f.beta[j] / f.se[j]
}

// ols solves min |y - X b| by QR and derives standard errors from
// sigma^2 (X'X)^-1 with sigma^2 = ssr / (n - k).
func ols(x *mat.Dense, y []float64) (olsFit, error) {
	n, k := x.Dims()
	if n <= k {
		return olsFit{}, model.InsufficientData("regression", n, k+1)
	}

	var qr mat.QR
	qr.Factorize(x)
	var b mat.VecDense
	if err := qr.SolveVecTo(&b, false, mat.NewVecDense(n, y)); err != nil {
		return olsFit{}, fmt.Errorf("regressors are collinear: %w", model.ErrDegenerateResult)
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &b)
	var ssr float64
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		ssr += r * r
	}

	var xtx, inv mat.Dense
	xtx.Mul(x.T(), x)
	if err := inv.Inverse(&xtx); err != nil {
		return olsFit{}, fmt.Errorf("singular design matrix: %w", model.ErrDegenerateResult)
	}

	sigma2 := ssr / float64(n-k)
	fit := olsFit{
		beta: make([]float64, k),
		se:   make([]float64, k),
		ssr:  ssr,
		nobs: n,
		k:    k,
	}
	for j := 0; j < k; j++ {
		fit.beta[j] = b.AtVec(j)
		fit.se[j] = math.Sqrt(sigma2 * inv.At(j, j))
	}
	return fit, nil
}

func diff(y []float64) []float64 {
	if len(y) < 2 {
		return nil
	}
	d := make([]float64, len(y)-1)
	for i := 1; i < len(y); i++ {
		d[i-1] = y[i] - y[i-1]
	}
	return d
}

func flat(series []float64) bool {
	for _, v := range series[1:] {
		if v != series[0] {
			return false
		}
	}
	return true
}

func finite(series []float64) error {
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("value %d is not finite: %w", i, model.ErrValidation)
		}
	}
	return nil
}
