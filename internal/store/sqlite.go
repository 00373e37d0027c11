package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "insider-graph/internal/errors"
	"insider-graph/internal/models"
	"insider-graph/internal/performance"
)

// DefaultBatchSize is the number of rows inserted per transaction.
const DefaultBatchSize = 1000

// SQLiteStore implements TradeStore using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	path      string
	batchSize int
}

var _ TradeStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the trade database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, dbError(dbPath, "failed to open database", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:        db,
		path:      dbPath,
		batchSize: DefaultBatchSize,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, dbError(dbPath, "failed to initialize schema", err)
	}

	return store, nil
}

// SetBatchSize changes the number of rows per insert transaction.
func (s *SQLiteStore) SetBatchSize(n int) {
	if n > 0 {
		s.batchSize = n
	}
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		insider TEXT NOT NULL,
		direction TEXT NOT NULL,
		trade_date TEXT NOT NULL,
		source TEXT NOT NULL,
		imported_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
	CREATE INDEX IF NOT EXISTS idx_trades_source ON trades(source);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ImportTrades inserts events tagged with source. Rows are written in
// transactions of batchSize rows; a failed batch is rolled back and stops
// the import, leaving earlier batches committed.
func (s *SQLiteStore) ImportTrades(ctx context.Context, source string, events []models.TradeEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	importedAt := time.Now().Unix()

	bp := performance.NewBatchProcessor(s.batchSize, func(batch []models.TradeEvent) error {
		return s.insertBatch(ctx, source, importedAt, batch)
	})
	for _, ev := range events {
		if err := bp.Add(ev); err != nil {
			return bp.Processed(), err
		}
	}
	if err := bp.Flush(); err != nil {
		return bp.Processed(), err
	}
	return bp.Processed(), nil
}

// ReplaceTrades deletes every event previously imported from source and
// inserts events in its place within one transaction. On error the store
// is left as it was.
func (s *SQLiteStore) ReplaceTrades(ctx context.Context, source string, events []models.TradeEvent) (int, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, dbError(s.path, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM trades WHERE source = ?", source)
	if err != nil {
		return 0, 0, dbError(s.path, "failed to delete source", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, 0, dbError(s.path, "failed to count deleted rows", err)
	}

	importedAt := time.Now().Unix()
	bp := performance.NewBatchProcessor(s.batchSize, func(batch []models.TradeEvent) error {
		return s.insertRows(ctx, tx, source, importedAt, batch)
	})
	for _, ev := range events {
		if err := bp.Add(ev); err != nil {
			return 0, 0, err
		}
	}
	if err := bp.Flush(); err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, dbError(s.path, "failed to commit transaction", err)
	}
	return int(deleted), bp.Processed(), nil
}

func (s *SQLiteStore) insertBatch(ctx context.Context, source string, importedAt int64, batch []models.TradeEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError(s.path, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := s.insertRows(ctx, tx, source, importedAt, batch); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return dbError(s.path, "failed to commit transaction", err)
	}
	return nil
}

func (s *SQLiteStore) insertRows(ctx context.Context, tx *sql.Tx, source string, importedAt int64, batch []models.TradeEvent) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades (symbol, insider, direction, trade_date, source, imported_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return dbError(s.path, "failed to prepare statement", err)
	}
	defer stmt.Close()

	for _, ev := range batch {
		_, err := stmt.ExecContext(ctx, ev.Symbol, ev.Insider, ev.Direction.String(), ev.Date.String(), source, importedAt)
		if err != nil {
			return dbError(s.path, "failed to insert trade", err)
		}
	}
	return nil
}

// LoadTrades returns stored events in import order.
func (s *SQLiteStore) LoadTrades(ctx context.Context, filter TradeFilter) ([]models.TradeEvent, error) {
	query := "SELECT symbol, insider, direction, trade_date FROM trades WHERE 1=1"
	args := []interface{}{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.Source != "" {
		query += " AND source = ?"
		args = append(args, filter.Source)
	}

	query += " ORDER BY id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(s.path, "failed to query trades", err)
	}
	defer rows.Close()

	var events []models.TradeEvent
	for rows.Next() {
		var ev models.TradeEvent
		var code, date string
		if err := rows.Scan(&ev.Symbol, &ev.Insider, &code, &date); err != nil {
			return nil, dbError(s.path, "failed to scan trade", err)
		}
		ev.Direction = models.ParseDirection(code)
		ev.Date, err = models.ParseDate(date)
		if err != nil {
			return nil, dbError(s.path, fmt.Sprintf("stored date %q", date), err)
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, dbError(s.path, "error iterating trades", err)
	}
	return events, nil
}

// CountTrades returns the number of stored events.
func (s *SQLiteStore) CountTrades(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trades").Scan(&n); err != nil {
		return 0, dbError(s.path, "failed to count trades", err)
	}
	return n, nil
}

// Sources lists the imported inputs.
func (s *SQLiteStore) Sources(ctx context.Context) ([]SourceInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, COUNT(*), MAX(imported_at)
		FROM trades
		GROUP BY source
		ORDER BY source ASC
	`)
	if err != nil {
		return nil, dbError(s.path, "failed to query sources", err)
	}
	defer rows.Close()

	var out []SourceInfo
	for rows.Next() {
		var info SourceInfo
		var importedAt int64
		if err := rows.Scan(&info.Source, &info.Trades, &importedAt); err != nil {
			return nil, dbError(s.path, "failed to scan source", err)
		}
		info.ImportedAt = time.Unix(importedAt, 0)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(s.path, "error iterating sources", err)
	}
	return out, nil
}

// DeleteSource removes every event imported from source.
func (s *SQLiteStore) DeleteSource(ctx context.Context, source string) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM trades WHERE source = ?", source)
	if err != nil {
		return 0, dbError(s.path, "failed to delete source", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dbError(s.path, "failed to count deleted rows", err)
	}
	return int(n), nil
}

func dbError(path, message string, err error) error {
	return apperrors.NewDataError("sqlite", path, message, fmt.Errorf("%w: %v", apperrors.ErrDatabaseError, err))
}
