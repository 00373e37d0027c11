// Package similarity scores how closely two insiders' trades co-occur in time.
package similarity

import (
	"insider-graph/internal/models"
)

// DecayWindow is the day distance at which a co-occurrence stops counting.
const DecayWindow = 7

// DateDistance returns |Δyears*365 + Δmonths*30 + Δdays| on the raw date
// components. Months count as 30 days and there are no leap years.
func DateDistance(a, b models.Date) int {
	d := (a.Year-b.Year)*365 + (a.Month-b.Month)*30 + (a.Day - b.Day)
	if d < 0 {
		return -d
	}
	return d
}

// DecayWeight maps a day distance to a contribution in [0, 1], decaying
// linearly from 1 at d=0 to 0 at d=DecayWindow.
func DecayWeight(d int) float64 {
	if d <= DecayWindow {
		return 1.0 - float64(d)/DecayWindow
	}
	return 0.0
}

// PairScore is the breakdown of a pair similarity computation.
type PairScore struct {
	BB          float64 `json:"buy_buy"`
	SS          float64 `json:"sell_sell"`
	Numerator   float64 `json:"numerator"`
	Denominator float64 `json:"denominator"`
	Similarity  float64 `json:"similarity"`
}

// ScorePair computes the similarity of insiders A and B from their buy and
// sell dates within one company. Only same-direction pairs contribute.
func ScorePair(buyA, buyB, sellA, sellB []models.Date) PairScore {
	var s PairScore
	s.BB = crossWeight(buyA, buyB)
	s.SS = crossWeight(sellA, sellB)
	s.Numerator = s.BB*s.BB + s.SS*s.SS
	s.Denominator = float64(len(buyA)*len(buyB) + len(sellA)*len(sellB))
	if s.Denominator > 0 {
		s.Similarity = s.Numerator / s.Denominator
	}
	return s
}

// PairSimilarity returns (bb² + ss²) / (|buyA||buyB| + |sellA||sellB|), or 0
// when neither insider pair has same-direction trades to compare.
func PairSimilarity(buyA, buyB, sellA, sellB []models.Date) float64 {
	return ScorePair(buyA, buyB, sellA, sellB).Similarity
}

// crossWeight sums the decay weight over the full cross product of a and b.
func crossWeight(a, b []models.Date) float64 {
	var sum float64
	for _, d1 := range a {
		for _, d2 := range b {
			sum += DecayWeight(DateDistance(d1, d2))
		}
	}
	return sum
}
