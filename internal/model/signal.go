package model

// Regime is the behavioral class assigned to a price series.
type Regime string

const (
	RegimeTrending      Regime = "trending"
	RegimeMeanReverting Regime = "mean_reverting"
	RegimeRandomWalk    Regime = "random_walk"
)

// FactorScore is one statistic's contribution to a regime decision.
// Positive scores lean trending, negative lean mean-reverting.
type FactorScore struct {
	Name       string
	RawScore   float64
	Weight     float64
	Weighted   float64
	Commentary string
}

// RegimeSignal is the weighted verdict over all factors.
type RegimeSignal struct {
	Factors    []FactorScore
	TotalScore float64
	Regime     Regime
	WarningMsg string
}
