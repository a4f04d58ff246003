package storage

// sqlite.go — persistencia de runs de backtesting.
//
// Tablas:
//   runs        — una fila por run (resumen + configuración efectiva)
//   run_trades  — fills ejecutados durante el run
//   run_equity  — curva de equity, un punto por tick

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/backbot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    run_id          TEXT PRIMARY KEY,
    start_time      DATETIME NOT NULL,
    end_time        DATETIME NOT NULL,
    step_seconds    INTEGER  NOT NULL,
    initial_cash    REAL     NOT NULL,
    final_value     REAL     NOT NULL,
    total_fees      REAL     NOT NULL DEFAULT 0,
    total_interest  REAL     NOT NULL DEFAULT 0,
    completed       INTEGER  NOT NULL DEFAULT 0,
    created_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS run_trades (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id     TEXT NOT NULL REFERENCES runs(run_id),
    order_id   TEXT NOT NULL,
    token_id   TEXT NOT NULL,
    venue      TEXT NOT NULL,
    segment    TEXT NOT NULL DEFAULT '',
    outcome    TEXT NOT NULL DEFAULT '',
    side       TEXT NOT NULL,
    price      REAL NOT NULL,
    size       REAL NOT NULL,
    fee        REAL NOT NULL DEFAULT 0,
    liquidity  TEXT NOT NULL,
    timestamp  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS run_equity (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id     TEXT NOT NULL REFERENCES runs(run_id),
    timestamp  DATETIME NOT NULL,
    value      REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created    ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_trades_run     ON run_trades(run_id);
CREATE INDEX IF NOT EXISTS idx_equity_run     ON run_equity(run_id);
`

// SQLiteStorage implementa ports.RunStorage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y
// aplica el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// SaveRun persiste el resultado completo en una transacción: fila de
// resumen, trades y curva de equity.
func (s *SQLiteStorage) SaveRun(ctx context.Context, result domain.BacktestResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: begin tx: %w", err)
	}
	defer tx.Rollback()

	completed := 0
	if result.Completed {
		completed = 1
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs
			(run_id, start_time, end_time, step_seconds, initial_cash,
			 final_value, total_fees, total_interest, completed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID,
		result.StartTime.UTC(),
		result.EndTime.UTC(),
		int64(result.Step/time.Second),
		result.InitialCash,
		result.FinalValue,
		result.TotalFeesPaid,
		result.TotalInterestEarned,
		completed,
		time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert run %s: %w", result.RunID, err)
	}

	tradeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_trades
			(run_id, order_id, token_id, venue, segment, outcome, side,
			 price, size, fee, liquidity, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: prepare trades: %w", err)
	}
	defer tradeStmt.Close()

	for _, f := range result.Trades {
		if _, err := tradeStmt.ExecContext(ctx,
			result.RunID, f.OrderID, f.TokenID, string(f.Venue), string(f.Segment),
			f.Outcome, string(f.Side), f.Price, f.Size, f.Fee, string(f.Liquidity),
			f.Timestamp.UTC(),
		); err != nil {
			return fmt.Errorf("storage.SaveRun: insert trade %s: %w", f.OrderID, err)
		}
	}

	equityStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_equity (run_id, timestamp, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: prepare equity: %w", err)
	}
	defer equityStmt.Close()

	for _, p := range result.EquityCurve {
		if _, err := equityStmt.ExecContext(ctx,
			result.RunID, p.Timestamp.UTC(), p.Value,
		); err != nil {
			return fmt.Errorf("storage.SaveRun: insert equity point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRun: commit: %w", err)
	}
	return nil
}

// ListRuns devuelve los resúmenes de todos los runs, más recientes primero.
func (s *SQLiteStorage) ListRuns(ctx context.Context) ([]domain.RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, r.start_time, r.end_time, r.initial_cash, r.final_value,
		       r.completed, r.created_at,
		       (SELECT COUNT(*) FROM run_trades t WHERE t.run_id = r.run_id)
		FROM runs r
		ORDER BY r.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.ListRuns: query: %w", err)
	}
	defer rows.Close()

	var summaries []domain.RunSummary
	for rows.Next() {
		var sum domain.RunSummary
		var completed int
		var start, end, created string
		if err := rows.Scan(
			&sum.RunID, &start, &end, &sum.InitialCash,
			&sum.FinalValue, &completed, &created, &sum.TradeCount,
		); err != nil {
			return nil, fmt.Errorf("storage.ListRuns: scan row: %w", err)
		}
		sum.StartTime = parseStored(start)
		sum.EndTime = parseStored(end)
		sum.CreatedAt = parseStored(created)
		sum.Completed = completed == 1
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// GetRun recarga un resultado completo por su ID, incluyendo trades y
// curva de equity en orden cronológico.
func (s *SQLiteStorage) GetRun(ctx context.Context, runID string) (domain.BacktestResult, error) {
	var result domain.BacktestResult
	var stepSeconds int64
	var completed int
	var start, end string

	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, start_time, end_time, step_seconds, initial_cash,
		       final_value, total_fees, total_interest, completed
		FROM runs WHERE run_id = ?`, runID,
	).Scan(
		&result.RunID, &start, &end, &stepSeconds,
		&result.InitialCash, &result.FinalValue, &result.TotalFeesPaid,
		&result.TotalInterestEarned, &completed,
	)
	if err == sql.ErrNoRows {
		return domain.BacktestResult{}, fmt.Errorf("storage.GetRun: run %q not found", runID)
	}
	if err != nil {
		return domain.BacktestResult{}, fmt.Errorf("storage.GetRun: query run: %w", err)
	}
	result.StartTime = parseStored(start)
	result.EndTime = parseStored(end)
	result.Step = time.Duration(stepSeconds) * time.Second
	result.Completed = completed == 1

	trades, err := s.loadTrades(ctx, runID)
	if err != nil {
		return domain.BacktestResult{}, err
	}
	result.Trades = trades

	curve, err := s.loadEquity(ctx, runID)
	if err != nil {
		return domain.BacktestResult{}, err
	}
	result.EquityCurve = curve

	return result, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) loadTrades(ctx context.Context, runID string) ([]domain.Fill, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, token_id, venue, segment, outcome, side,
		       price, size, fee, liquidity, timestamp
		FROM run_trades WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetRun: query trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.Fill
	for rows.Next() {
		var f domain.Fill
		var venue, segment, side, liquidity, ts string
		if err := rows.Scan(
			&f.OrderID, &f.TokenID, &venue, &segment, &f.Outcome, &side,
			&f.Price, &f.Size, &f.Fee, &liquidity, &ts,
		); err != nil {
			return nil, fmt.Errorf("storage.GetRun: scan trade: %w", err)
		}
		f.Venue = domain.Venue(venue)
		f.Segment = domain.Segment(segment)
		f.Side = domain.Side(side)
		f.Liquidity = domain.Liquidity(liquidity)
		f.Timestamp = parseStored(ts)
		trades = append(trades, f)
	}
	return trades, rows.Err()
}

func (s *SQLiteStorage) loadEquity(ctx context.Context, runID string) ([]domain.EquityPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, value FROM run_equity WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetRun: query equity: %w", err)
	}
	defer rows.Close()

	var curve []domain.EquityPoint
	for rows.Next() {
		var p domain.EquityPoint
		var ts string
		if err := rows.Scan(&ts, &p.Value); err != nil {
			return nil, fmt.Errorf("storage.GetRun: scan equity point: %w", err)
		}
		p.Timestamp = parseStored(ts)
		curve = append(curve, p)
	}
	return curve, rows.Err()
}

// parseStored interpreta un DATETIME guardado por el driver. SQLite lo
// devuelve como texto; los time.Time se serializan en formato RFC3339.
func parseStored(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
