package analysis

import (
	"errors"
	"fmt"

	"QuantCache/internal/model"
)

// Options tunes Classify.
type Options struct {
	ADFLag      int // fixed ADF lag; negative selects the lag by AIC
	HurstMaxLag int
	VRLag       int
}

// DefaultOptions returns AIC-selected ADF lags, Hurst lags up to 100 and a
// two-period variance ratio.
func DefaultOptions() Options {
	return Options{ADFLag: -1, HurstMaxLag: DefaultHurstLag, VRLag: 2}
}

// Report collects every statistic computed for one series and the regime
// they add up to. Errors of the optional estimators are kept next to the
// values they replace.
type Report struct {
	NObs        int
	ADF         ADFResult
	Hurst       float64
	HurstErr    error
	VR          VarianceRatioResult
	VRErr       error
	HalfLife    float64
	HalfLifeErr error
	Signal      model.RegimeSignal
}

// Regimes maps a total score to a regime, highest threshold first.
var Regimes = []struct {
	MinScore float64
	Regime   model.Regime
}{
	{0.5, model.RegimeTrending},
	{-0.5, model.RegimeRandomWalk},
}

// DefaultRegime is the regime for scores below every threshold.
var DefaultRegime = model.RegimeMeanReverting

func mapRegime(totalScore float64) model.Regime {
	for _, r := range Regimes {
		if totalScore >= r.MinScore {
			return r.Regime
		}
	}
	return DefaultRegime
}

// shortSample is the length below which the verdict carries a warning.
const shortSample = 100

// Classify runs the ADF, Hurst, variance ratio and half-life estimators on
// series and scores them into a regime. Only an ADF failure is fatal; the
// other estimators contribute a neutral factor when they fail.
func Classify(series []float64, opts Options) (Report, error) {
	var (
		rep Report
		err error
	)
	rep.NObs = len(series)
	if opts.ADFLag < 0 {
		rep.ADF, err = AugmentedDickeyFullerAIC(series, -1)
	} else {
		rep.ADF, err = AugmentedDickeyFuller(series, opts.ADFLag)
	}
	if err != nil {
		return Report{}, err
	}
	rep.Hurst, rep.HurstErr = HurstExponent(series, opts.HurstMaxLag)
	rep.VR, rep.VRErr = VarianceRatioTest(series, opts.VRLag)
	rep.HalfLife, rep.HalfLifeErr = MeanReversionHalfLife(series)
	rep.Signal = Evaluate(rep)
	return rep, nil
}

// Evaluate scores the statistics of rep. Positive factor scores lean
// trending, negative lean mean-reverting.
func Evaluate(rep Report) model.RegimeSignal {
	factors := []model.FactorScore{
		scoreADF(rep.ADF),
		scoreHurst(rep.Hurst, rep.HurstErr),
		scoreVarianceRatio(rep.VR, rep.VRErr),
		scoreHalfLife(rep.HalfLife, rep.HalfLifeErr),
	}
	var total float64
	for _, f := range factors {
		total += f.Weighted
	}

	sig := model.RegimeSignal{
		Factors:    factors,
		TotalScore: total,
		Regime:     mapRegime(total),
	}
	if rep.NObs < shortSample {
		sig.WarningMsg = fmt.Sprintf("only %d observations, estimates are unreliable", rep.NObs)
	}
	return sig
}

func factor(name string, score, weight float64, commentary string) model.FactorScore {
	return model.FactorScore{
		Name:       name,
		RawScore:   score,
		Weight:     weight,
		Weighted:   score * weight,
		Commentary: commentary,
	}
}

func unavailable(name string, weight float64, err error) model.FactorScore {
	return factor(name, 0, weight, "unavailable: "+model.ErrorKind(err))
}

// scoreADF: weight 0.30. A unit root that cannot be rejected says nothing
// about trend, so the score is never positive.
func scoreADF(r ADFResult) model.FactorScore {
	var score float64
	switch {
	case r.Rejects(Level1):
		score = -2.0
	case r.Rejects(Level5):
		score = -1.5
	case r.Rejects(Level10):
		score = -1.0
	case r.PValue < 0.2:
		score = -0.5
	}
	return factor("ADF", score, 0.30, fmt.Sprintf("stat=%.3f p=%.3f", r.Statistic, r.PValue))
}

// scoreHurst: weight 0.35.
func scoreHurst(h float64, err error) model.FactorScore {
	if err != nil {
		return unavailable("Hurst", 0.35, err)
	}
	var score float64
	switch {
	case h < 0.30:
		score = -2.0
	case h < 0.40:
		score = -1.5
	case h < 0.45:
		score = -0.5
	case h <= 0.55:
		score = 0
	case h <= 0.60:
		score = 0.5
	case h <= 0.70:
		score = 1.5
	default:
		score = 2.0
	}
	return factor("Hurst", score, 0.35, fmt.Sprintf("H=%.3f", h))
}

// scoreVarianceRatio: weight 0.25. Only significant ratios count.
func scoreVarianceRatio(r VarianceRatioResult, err error) model.FactorScore {
	if err != nil {
		return unavailable("VarianceRatio", 0.25, err)
	}
	var score float64
	switch {
	case r.PValue >= 0.05:
		score = 0
	case r.PValue < 0.01:
		score = 2.0
	default:
		score = 1.5
	}
	if r.Ratio < 1 {
		score = -score
	}
	return factor("VarianceRatio", score, 0.25, fmt.Sprintf("VR(%d)=%.3f p=%.3f", r.Lag, r.Ratio, r.PValue))
}

// scoreHalfLife: weight 0.10. No half-life leans away from mean reversion.
func scoreHalfLife(hl float64, err error) model.FactorScore {
	if err != nil {
		if errors.Is(err, model.ErrDegenerateResult) {
			return factor("HalfLife", 0.5, 0.10, "no mean reversion")
		}
		return unavailable("HalfLife", 0.10, err)
	}
	var score float64
	switch {
	case hl <= 5:
		score = -2.0
	case hl <= 20:
		score = -1.0
	case hl <= 60:
		score = -0.5
	}
	return factor("HalfLife", score, 0.10, fmt.Sprintf("%.1f periods", hl))
}
