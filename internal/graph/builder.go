// Package graph builds the insider similarity graph from a trade index.
package graph

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"insider-graph/internal/index"
	"insider-graph/internal/logging"
	"insider-graph/internal/models"
	"insider-graph/internal/similarity"
	"insider-graph/internal/trace"
)

// Scope selects which companies are visited.
type Scope string

const (
	// ScopeBuy visits only companies with at least one acquisition.
	// Companies with disposals only are skipped.
	ScopeBuy Scope = "buy"
	// ScopeAll visits every company with any indexed trade.
	ScopeAll Scope = "all"
)

// Defaults for the activity floor and similarity threshold.
const (
	DefaultMinTrades = 5
	DefaultThreshold = 2.0
)

// maxLoggedSkipped caps the company list attached to the skip warning.
const maxLoggedSkipped = 20

// Config holds the graph construction parameters.
type Config struct {
	// MinTrades is the combined buy+sell count an insider needs in a
	// company before any of its pairs is scored.
	MinTrades int
	// Threshold is the minimum similarity for an edge.
	Threshold    float64
	CompanyScope Scope
	// Workers bounds how many companies are scored concurrently.
	// Zero means runtime.NumCPU().
	Workers int
}

// DefaultConfig returns the reference parameters.
func DefaultConfig() Config {
	return Config{
		MinTrades:    DefaultMinTrades,
		Threshold:    DefaultThreshold,
		CompanyScope: ScopeBuy,
	}
}

// Result is the output of a build.
type Result struct {
	Edges   []models.Edge
	Nodes   []string
	Summary models.Summary
	Stats   models.BuildStats
}

// Builder scores insider pairs and emits edges.
type Builder struct {
	cfg    Config
	logger zerolog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(cfg Config, logger zerolog.Logger) *Builder {
	if cfg.CompanyScope == "" {
		cfg.CompanyScope = ScopeBuy
	}
	return &Builder{cfg: cfg, logger: logger}
}

// Config returns the builder's parameters.
func (b *Builder) Config() Config {
	return b.cfg
}

type companyResult struct {
	edges []models.Edge
	nodes map[string]struct{}
	stats models.BuildStats
}

// Build scores every candidate pair of every visited company. Edges are
// ordered by company symbol and then by pair enumeration order, regardless
// of the number of workers.
func (b *Builder) Build(ctx context.Context, idx *index.TradeIndex) (*Result, error) {
	companies, skipped := b.companies(idx)

	ctx, span := trace.StartSpan(ctx, "graph.build",
		attribute.Int("companies", len(companies)),
		attribute.Int("min_trades", b.cfg.MinTrades),
		attribute.Float64("threshold", b.cfg.Threshold),
	)
	defer span.End()

	if len(skipped) > 0 {
		shown := skipped
		if len(shown) > maxLoggedSkipped {
			shown = shown[:maxLoggedSkipped]
		}
		b.logger.Warn().
			Int("count", len(skipped)).
			Strs("companies", shown).
			Msg("Companies with disposals only were skipped; use scope 'all' to include them")
	}

	workers := b.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]companyResult, len(companies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, sym := range companies {
		g.Go(func() error {
			res, err := b.buildCompany(gctx, idx, sym)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("building graph: %w", err)
	}

	out := &Result{}
	nodes := make(map[string]struct{})
	for _, res := range results {
		out.Edges = append(out.Edges, res.edges...)
		out.Stats.Add(res.stats)
		for n := range res.nodes {
			nodes[n] = struct{}{}
		}
	}
	out.Stats.SellOnlyCompaniesSkipped = len(skipped)

	out.Nodes = make([]string, 0, len(nodes))
	for n := range nodes {
		out.Nodes = append(out.Nodes, n)
	}
	sort.Strings(out.Nodes)

	out.Summary = models.Summary{
		MinTrades: b.cfg.MinTrades,
		Threshold: b.cfg.Threshold,
		NodeCount: len(out.Nodes),
		EdgeCount: len(out.Edges),
	}

	span.SetAttributes(
		attribute.Int("edges", out.Summary.EdgeCount),
		attribute.Int("nodes", out.Summary.NodeCount),
	)
	b.logger.Info().
		Int("companies", out.Stats.Companies).
		Int("pairs", out.Stats.PairsEvaluated).
		Int("edges", out.Summary.EdgeCount).
		Int("nodes", out.Summary.NodeCount).
		Msg("Graph built")

	return out, nil
}

// companies returns the symbols to visit and the sell-only symbols that the
// buy scope leaves out.
func (b *Builder) companies(idx *index.TradeIndex) (visit, skipped []string) {
	if b.cfg.CompanyScope == ScopeAll {
		return idx.Companies(), nil
	}
	for _, sym := range idx.SellCompanies() {
		if !idx.HasBuys(sym) {
			skipped = append(skipped, sym)
		}
	}
	return idx.BuyCompanies(), skipped
}

func (b *Builder) buildCompany(ctx context.Context, idx *index.TradeIndex, sym string) (companyResult, error) {
	res := companyResult{nodes: make(map[string]struct{})}
	res.stats.Companies = 1

	insiders := idx.Insiders(sym)
	for i := 0; i < len(insiders); i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		for j := i + 1; j < len(insiders); j++ {
			a, c := insiders[i], insiders[j]
			res.stats.PairsEvaluated++

			pair := b.scorePair(idx, sym, a, c)
			if !pair.Eligible {
				res.stats.PairsBelowActivity++
				continue
			}
			if !pair.Edge {
				res.stats.PairsBelowThreshold++
				continue
			}

			res.edges = append(res.edges, models.Edge{
				Source:     a,
				Target:     c,
				Company:    sym,
				Similarity: pair.Score.Similarity,
			})
			res.nodes[a] = struct{}{}
			res.nodes[c] = struct{}{}
		}
	}

	clog := logging.WithCompany(b.logger, sym)
	clog.Debug().
		Int("insiders", len(insiders)).
		Int("edges", len(res.edges)).
		Msg("Company scored")

	return res, nil
}

// PairResult describes how a single insider pair was resolved.
type PairResult struct {
	Company  string               `json:"company"`
	InsiderA string               `json:"insider_a"`
	InsiderB string               `json:"insider_b"`
	TradesA  int                  `json:"trades_a"`
	TradesB  int                  `json:"trades_b"`
	Eligible bool                 `json:"eligible"`
	Score    similarity.PairScore `json:"score"`
	Edge     bool                 `json:"edge"`
}

// Pair resolves one insider pair of company with the builder's parameters.
// The score is computed even when the pair fails the activity floor, so it
// can be inspected; Edge is only set for eligible pairs.
func (b *Builder) Pair(idx *index.TradeIndex, company, insiderA, insiderB string) PairResult {
	res := b.scorePair(idx, company, insiderA, insiderB)
	if !res.Eligible {
		res.Score = similarity.ScorePair(
			idx.Buys(company, insiderA), idx.Buys(company, insiderB),
			idx.Sells(company, insiderA), idx.Sells(company, insiderB),
		)
	}
	return res
}

func (b *Builder) scorePair(idx *index.TradeIndex, company, insiderA, insiderB string) PairResult {
	buyA, sellA := idx.Buys(company, insiderA), idx.Sells(company, insiderA)
	buyB, sellB := idx.Buys(company, insiderB), idx.Sells(company, insiderB)

	res := PairResult{
		Company:  company,
		InsiderA: insiderA,
		InsiderB: insiderB,
		TradesA:  len(buyA) + len(sellA),
		TradesB:  len(buyB) + len(sellB),
	}
	if res.TradesA < b.cfg.MinTrades || res.TradesB < b.cfg.MinTrades {
		return res
	}
	res.Eligible = true
	res.Score = similarity.ScorePair(buyA, buyB, sellA, sellB)
	res.Edge = res.Score.Similarity >= b.cfg.Threshold
	return res
}
