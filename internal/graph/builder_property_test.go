package graph

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"insider-graph/internal/index"
	"insider-graph/internal/models"
)

// rawTrade is a compact generator target that maps onto a TradeEvent
// drawn from a small universe, so pairs collide often.
type rawTrade struct {
	Company int
	Insider int
	Code    int
	Day     int
}

func rawTradeGen() gopter.Gen {
	return gen.Struct(reflect.TypeOf(rawTrade{}), map[string]gopter.Gen{
		"Company": gen.IntRange(0, 3),
		"Insider": gen.IntRange(0, 5),
		"Code":    gen.IntRange(0, 2),
		"Day":     gen.IntRange(1, 20),
	})
}

func eventsGen() gopter.Gen {
	return gen.SliceOfN(80, rawTradeGen())
}

func toEvents(raw []rawTrade) []models.TradeEvent {
	codes := []string{"A", "D", "G"}
	out := make([]models.TradeEvent, len(raw))
	for i, r := range raw {
		out[i] = models.TradeEvent{
			Symbol:    fmt.Sprintf("C%d", r.Company),
			Insider:   fmt.Sprintf("i%d", r.Insider),
			Direction: models.ParseDirection(codes[r.Code]),
			Date:      models.Date{Year: 2024, Month: 1, Day: r.Day},
		}
	}
	return out
}

func newProperties() *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())
	return gopter.NewProperties(parameters)
}

func mustBuild(cfg Config, idx *index.TradeIndex) *Result {
	res, err := NewBuilder(cfg, zerolog.Nop()).Build(context.Background(), idx)
	if err != nil {
		panic(err)
	}
	return res
}

func lowFloor() Config {
	return Config{MinTrades: 2, Threshold: 1.5, CompanyScope: ScopeBuy}
}

func TestProperty_EdgesRespectFloorAndThreshold(t *testing.T) {
	properties := newProperties()

	properties.Property("every edge clears both gates", prop.ForAll(
		func(raw []rawTrade) bool {
			cfg := lowFloor()
			idx := index.Build(toEvents(raw))
			res := mustBuild(cfg, idx)
			for _, e := range res.Edges {
				if e.Similarity < cfg.Threshold {
					t.Logf("edge below threshold: %+v", e)
					return false
				}
				if idx.TradeCount(e.Company, e.Source) < cfg.MinTrades ||
					idx.TradeCount(e.Company, e.Target) < cfg.MinTrades {
					t.Logf("edge below activity floor: %+v", e)
					return false
				}
			}
			return true
		},
		eventsGen(),
	))

	properties.Property("each unordered pair appears at most once per company", prop.ForAll(
		func(raw []rawTrade) bool {
			res := mustBuild(lowFloor(), index.Build(toEvents(raw)))
			seen := make(map[string]bool)
			for _, e := range res.Edges {
				if e.Source >= e.Target {
					return false
				}
				key := e.Company + "|" + e.Source + "|" + e.Target
				if seen[key] {
					return false
				}
				seen[key] = true
			}
			return true
		},
		eventsGen(),
	))

	properties.TestingRun(t)
}

func TestProperty_SummaryCounts(t *testing.T) {
	properties := newProperties()

	properties.Property("node count is the number of distinct edge endpoints", prop.ForAll(
		func(raw []rawTrade) bool {
			res := mustBuild(lowFloor(), index.Build(toEvents(raw)))
			names := make(map[string]struct{})
			for _, e := range res.Edges {
				names[e.Source] = struct{}{}
				names[e.Target] = struct{}{}
			}
			return res.Summary.NodeCount == len(names) &&
				res.Summary.EdgeCount == len(res.Edges) &&
				len(res.Nodes) == len(names)
		},
		eventsGen(),
	))

	properties.Property("pair outcomes add up", prop.ForAll(
		func(raw []rawTrade) bool {
			res := mustBuild(lowFloor(), index.Build(toEvents(raw)))
			s := res.Stats
			return s.PairsEvaluated == s.PairsBelowActivity+s.PairsBelowThreshold+len(res.Edges)
		},
		eventsGen(),
	))

	properties.TestingRun(t)
}

func TestProperty_WorkerCountDoesNotChangeOutput(t *testing.T) {
	properties := newProperties()

	properties.Property("serial and parallel builds agree", prop.ForAll(
		func(raw []rawTrade, workers int) bool {
			idx := index.Build(toEvents(raw))

			serial := lowFloor()
			serial.Workers = 1
			parallel := lowFloor()
			parallel.Workers = workers

			a := mustBuild(serial, idx)
			b := mustBuild(parallel, idx)
			return reflect.DeepEqual(a.Edges, b.Edges) && a.Summary == b.Summary
		},
		eventsGen(),
		gen.IntRange(2, 8),
	))

	properties.TestingRun(t)
}

func TestProperty_ScopeAllExtendsScopeBuy(t *testing.T) {
	properties := newProperties()

	properties.Property("scope all keeps every buy-scope edge", prop.ForAll(
		func(raw []rawTrade) bool {
			idx := index.Build(toEvents(raw))

			all := lowFloor()
			all.CompanyScope = ScopeAll
			buyEdges := mustBuild(lowFloor(), idx).Edges
			allEdges := mustBuild(all, idx).Edges

			have := make(map[models.Edge]bool, len(allEdges))
			for _, e := range allEdges {
				have[e] = true
			}
			for _, e := range buyEdges {
				if !have[e] {
					return false
				}
			}
			return len(allEdges) >= len(buyEdges)
		},
		eventsGen(),
	))

	properties.TestingRun(t)
}
