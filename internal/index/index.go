// Package index groups trade events by company and insider.
package index

import (
	"sort"

	"insider-graph/internal/models"
)

// insiderDates maps insider name to trade dates in input order.
type insiderDates map[string][]models.Date

// TradeIndex holds acquisition and disposal dates per company and insider.
// It is read-only once built.
type TradeIndex struct {
	buys  map[string]insiderDates
	sells map[string]insiderDates
	stats Stats
}

// Stats counts the events seen while building the index.
type Stats struct {
	Events       int `json:"events"`
	Acquisitions int `json:"acquisitions"`
	Disposals    int `json:"disposals"`
	Ignored      int `json:"ignored"`
}

// Build indexes events in a single pass. Events with an unknown direction
// are counted but not indexed.
func Build(events []models.TradeEvent) *TradeIndex {
	idx := &TradeIndex{
		buys:  make(map[string]insiderDates),
		sells: make(map[string]insiderDates),
	}
	for _, ev := range events {
		idx.stats.Events++
		switch ev.Direction {
		case models.DirectionAcquire:
			appendDate(idx.buys, ev)
			idx.stats.Acquisitions++
		case models.DirectionDispose:
			appendDate(idx.sells, ev)
			idx.stats.Disposals++
		default:
			idx.stats.Ignored++
		}
	}
	return idx
}

func appendDate(m map[string]insiderDates, ev models.TradeEvent) {
	byInsider, ok := m[ev.Symbol]
	if !ok {
		byInsider = make(insiderDates)
		m[ev.Symbol] = byInsider
	}
	byInsider[ev.Insider] = append(byInsider[ev.Insider], ev.Date)
}

// Buys returns the insider's acquisition dates in company, or nil.
func (idx *TradeIndex) Buys(company, insider string) []models.Date {
	return lookup(idx.buys, company, insider)
}

// Sells returns the insider's disposal dates in company, or nil.
func (idx *TradeIndex) Sells(company, insider string) []models.Date {
	return lookup(idx.sells, company, insider)
}

// lookup never inserts missing keys.
func lookup(m map[string]insiderDates, company, insider string) []models.Date {
	byInsider, ok := m[company]
	if !ok {
		return nil
	}
	return byInsider[insider]
}

// TradeCount returns the insider's combined buy and sell count in company.
func (idx *TradeIndex) TradeCount(company, insider string) int {
	return len(idx.Buys(company, insider)) + len(idx.Sells(company, insider))
}

// BuyCompanies returns the sorted symbols with at least one acquisition.
func (idx *TradeIndex) BuyCompanies() []string {
	return sortedKeys(idx.buys)
}

// SellCompanies returns the sorted symbols with at least one disposal.
func (idx *TradeIndex) SellCompanies() []string {
	return sortedKeys(idx.sells)
}

// Companies returns the sorted union of buy and sell symbols.
func (idx *TradeIndex) Companies() []string {
	seen := make(map[string]struct{}, len(idx.buys)+len(idx.sells))
	for sym := range idx.buys {
		seen[sym] = struct{}{}
	}
	for sym := range idx.sells {
		seen[sym] = struct{}{}
	}
	return sortedSet(seen)
}

// Insiders returns the sorted insiders with any trade in company.
func (idx *TradeIndex) Insiders(company string) []string {
	seen := make(map[string]struct{})
	for name := range idx.buys[company] {
		seen[name] = struct{}{}
	}
	for name := range idx.sells[company] {
		seen[name] = struct{}{}
	}
	return sortedSet(seen)
}

// HasBuys reports whether company has any acquisition.
func (idx *TradeIndex) HasBuys(company string) bool {
	_, ok := idx.buys[company]
	return ok
}

// Stats returns the event counts observed by Build.
func (idx *TradeIndex) Stats() Stats {
	return idx.stats
}

func sortedKeys(m map[string]insiderDates) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedSet(s map[string]struct{}) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
