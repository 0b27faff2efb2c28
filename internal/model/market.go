package model

import "time"

// PriceRecord is one trading day of one symbol.
type PriceRecord struct {
	Date     time.Time // UTC midnight, see Day
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
	AdjClose float64
}

// SymbolSeries holds the stored history of a symbol, ascending by date.
type SymbolSeries struct {
	Symbol  string
	Records []PriceRecord
}

// AdjCloses returns the adjusted close column in series order.
func (s SymbolSeries) AdjCloses() []float64 {
	return AdjCloses(s.Records)
}

// Closes returns the raw close column in series order.
func (s SymbolSeries) Closes() []float64 {
	out := make([]float64, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.Close
	}
	return out
}

// Len reports the number of trading days in the series.
func (s SymbolSeries) Len() int { return len(s.Records) }

// First and Last return the boundary dates; zero time for an empty series.
func (s SymbolSeries) First() time.Time {
	if len(s.Records) == 0 {
		return time.Time{}
	}
	return s.Records[0].Date
}

func (s SymbolSeries) Last() time.Time {
	if len(s.Records) == 0 {
		return time.Time{}
	}
	return s.Records[len(s.Records)-1].Date
}

// AdjCloses extracts the adjusted close of each record.
func AdjCloses(records []PriceRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.AdjClose
	}
	return out
}

// Valid reports whether the record satisfies the price/volume domain:
// positive prices, non-negative volume and a set date.
func (r PriceRecord) Valid() bool {
	if r.Date.IsZero() || r.Volume < 0 {
		return false
	}
	return r.Open > 0 && r.High > 0 && r.Low > 0 && r.Close > 0 && r.AdjClose > 0
}

// AlignAdjCloses pairs the adjusted closes of a and b on the dates present
// in both. Inputs must be ascending by date.
func AlignAdjCloses(a, b []PriceRecord) (xa, xb []float64) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Date.Before(b[j].Date):
			i++
		case b[j].Date.Before(a[i].Date):
			j++
		default:
			xa = append(xa, a[i].AdjClose)
			xb = append(xb, b[j].AdjClose)
			i++
			j++
		}
	}
	return xa, xb
}
