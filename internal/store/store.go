// Package store provides persistence of imported trade records.
package store

import (
	"context"
	"time"

	"insider-graph/internal/models"
)

// TradeStore persists raw trade events so a large input can be imported once
// and scored repeatedly.
type TradeStore interface {
	ImportTrades(ctx context.Context, source string, events []models.TradeEvent) (int, error)
	LoadTrades(ctx context.Context, filter TradeFilter) ([]models.TradeEvent, error)
	CountTrades(ctx context.Context) (int, error)
	Sources(ctx context.Context) ([]SourceInfo, error)
	DeleteSource(ctx context.Context, source string) (int, error)
	ReplaceTrades(ctx context.Context, source string, events []models.TradeEvent) (deleted, imported int, err error)

	// Lifecycle
	Close() error
}

// TradeFilter represents filters for loading trades.
type TradeFilter struct {
	Symbol string
	Source string
	Limit  int
}

// SourceInfo describes one imported input.
type SourceInfo struct {
	Source     string    `json:"source"`
	Trades     int       `json:"trades"`
	ImportedAt time.Time `json:"imported_at"`
}
