package models

// Edge links two insiders of the same company whose trading is correlated.
type Edge struct {
	Source     string  `csv:"source" json:"source"`
	Target     string  `csv:"target" json:"target"`
	Company    string  `csv:"company" json:"company"`
	Similarity float64 `csv:"similarity" json:"similarity"`
}

// Summary reports the thresholds used and the size of the resulting graph.
type Summary struct {
	MinTrades int     `json:"min_trades"`
	Threshold float64 `json:"similarity_threshold"`
	NodeCount int     `json:"nodes"`
	EdgeCount int     `json:"edges"`
}

// BuildStats counts how candidate pairs were resolved during a build.
type BuildStats struct {
	Companies                int `json:"companies"`
	SellOnlyCompaniesSkipped int `json:"sell_only_companies_skipped"`
	PairsEvaluated           int `json:"pairs_evaluated"`
	PairsBelowActivity       int `json:"pairs_below_activity"`
	PairsBelowThreshold      int `json:"pairs_below_threshold"`
}

// Add accumulates other into s.
func (s *BuildStats) Add(other BuildStats) {
	s.Companies += other.Companies
	s.SellOnlyCompaniesSkipped += other.SellOnlyCompaniesSkipped
	s.PairsEvaluated += other.PairsEvaluated
	s.PairsBelowActivity += other.PairsBelowActivity
	s.PairsBelowThreshold += other.PairsBelowThreshold
}
