// Package store persists the desk's outbound records (trades, closures,
// fills, daily metrics, and incidents) in DuckDB. All tables are
// append-only: a closed trade is recorded as a compensating closure row,
// never by updating the trade.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/shumlab/papertrade/internal/ledger"
	"github.com/shumlab/papertrade/internal/logger"
	"github.com/shumlab/papertrade/internal/types"
	"go.uber.org/zap"
)

type Store struct {
	db  *sql.DB
	log *logger.Logger
	sq  squirrel.StatementBuilderType
}

// NewStore opens a DuckDB database at path; an empty path opens an
// in-memory database.
func NewStore(path string, log *logger.Logger) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Store{
		db:  db,
		log: log,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the record tables.
func (s *Store) Initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			symbol TEXT,
			side TEXT,
			quantity DOUBLE,
			entry_price DOUBLE,
			stop_price DOUBLE,
			target_price DOUBLE,
			strategy_tag TEXT,
			opened_at TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create trades table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS trade_closures (
			trade_id TEXT,
			state TEXT,
			exit_price DOUBLE,
			realized_pnl DOUBLE,
			closed_at TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create trade_closures table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS fills (
			order_id TEXT,
			leg TEXT,
			price DOUBLE,
			quantity DOUBLE,
			fill_time TIMESTAMP,
			realized_pnl DOUBLE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create fills table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_metrics (
			metric_date DATE,
			pnl DOUBLE,
			trade_count INTEGER,
			r_multiple DOUBLE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create daily_metrics table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS incidents (
			created_at TIMESTAMP,
			severity TEXT,
			description TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create incidents table: %w", err)
	}

	return nil
}

// InsertTrade records one opened position.
func (s *Store) InsertTrade(trade types.Trade) error {
	_, err := s.sq.
		Insert("trades").
		Columns("id", "symbol", "side", "quantity", "entry_price", "stop_price", "target_price", "strategy_tag", "opened_at").
		Values(trade.ID, trade.Symbol, trade.Side, trade.Quantity, trade.EntryPrice, trade.StopPrice, trade.TargetPrice, trade.StrategyTag, trade.OpenedAt).
		RunWith(s.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}

	return nil
}

// InsertClosure records the compensating row that closes a trade.
func (s *Store) InsertClosure(closure types.TradeClosure) error {
	_, err := s.sq.
		Insert("trade_closures").
		Columns("trade_id", "state", "exit_price", "realized_pnl", "closed_at").
		Values(closure.TradeID, closure.State, closure.ExitPrice, closure.RealizedPnL, closure.ClosedAt).
		RunWith(s.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert trade closure: %w", err)
	}

	return nil
}

// InsertFill records one simulated fill.
func (s *Store) InsertFill(fill types.Fill) error {
	_, err := s.sq.
		Insert("fills").
		Columns("order_id", "leg", "price", "quantity", "fill_time", "realized_pnl").
		Values(fill.OrderID, fill.Leg, fill.Price, fill.Quantity, fill.Timestamp, fill.RealizedPnL).
		RunWith(s.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert fill: %w", err)
	}

	return nil
}

// AppendDailyMetrics appends the day's summary row.
func (s *Store) AppendDailyMetrics(metrics types.DailyMetrics) error {
	_, err := s.sq.
		Insert("daily_metrics").
		Columns("metric_date", "pnl", "trade_count", "r_multiple").
		Values(metrics.Date, metrics.PnL, metrics.TradeCount, metrics.RMultiple).
		RunWith(s.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert daily metrics: %w", err)
	}

	return nil
}

// RecordIncident appends an audit record. Implements risk.IncidentRecorder.
func (s *Store) RecordIncident(incident types.Incident) error {
	_, err := s.sq.
		Insert("incidents").
		Columns("created_at", "severity", "description").
		Values(incident.Timestamp, incident.Severity, incident.Description).
		RunWith(s.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert incident: %w", err)
	}

	s.log.Warn("Incident recorded",
		zap.String("severity", string(incident.Severity)),
		zap.String("description", incident.Description),
	)

	return nil
}

// RealizedPnLBetween sums closure P&L for closures dated in [from, to).
func (s *Store) RealizedPnLBetween(from, to time.Time) (float64, error) {
	query := s.sq.
		Select("COALESCE(SUM(realized_pnl), 0)").
		From("trade_closures").
		Where(squirrel.GtOrEq{"closed_at": from}).
		Where(squirrel.Lt{"closed_at": to}).
		RunWith(s.db)

	var pnl float64
	if err := query.QueryRow().Scan(&pnl); err != nil {
		return 0, fmt.Errorf("failed to sum realized pnl: %w", err)
	}

	return pnl, nil
}

// DayRealizedPnL sums closure P&L for the calendar day of date.
func (s *Store) DayRealizedPnL(date time.Time) (float64, error) {
	day := ledger.Day(date)

	return s.RealizedPnLBetween(day, day.AddDate(0, 0, 1))
}

// WeekRealizedPnL sums closure P&L from the Monday of date's week through
// the end of date's day.
func (s *Store) WeekRealizedPnL(date time.Time) (float64, error) {
	day := ledger.Day(date)

	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}

	weekStart := day.AddDate(0, 0, -offset)

	return s.RealizedPnLBetween(weekStart, day.AddDate(0, 0, 1))
}

// TradeCountForDay counts trades opened on date's calendar day. Opened is
// the right basis: a position left open by an exhausted path still consumed
// one of the day's trades.
func (s *Store) TradeCountForDay(date time.Time) (int, error) {
	day := ledger.Day(date)

	query := s.sq.
		Select("COUNT(*)").
		From("trades").
		Where(squirrel.GtOrEq{"opened_at": day}).
		Where(squirrel.Lt{"opened_at": day.AddDate(0, 0, 1)}).
		RunWith(s.db)

	var count int
	if err := query.QueryRow().Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}

	return count, nil
}

// ConsecutiveLosses counts losing closures since the most recent winner,
// looking at the latest closures in reverse chronological order.
func (s *Store) ConsecutiveLosses() (int, error) {
	query := s.sq.
		Select("realized_pnl").
		From("trade_closures").
		OrderBy("closed_at DESC").
		Limit(5).
		RunWith(s.db)

	rows, err := query.Query()
	if err != nil {
		return 0, fmt.Errorf("failed to query closures: %w", err)
	}
	defer rows.Close()

	losses := 0

	for rows.Next() {
		var pnl float64
		if err := rows.Scan(&pnl); err != nil {
			return 0, fmt.Errorf("failed to scan closure pnl: %w", err)
		}

		if pnl >= 0 {
			break
		}

		losses++
	}

	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating closures: %w", err)
	}

	return losses, nil
}

// GetAllTrades returns all trades in open order.
func (s *Store) GetAllTrades() ([]types.Trade, error) {
	query := s.sq.
		Select("id", "symbol", "side", "quantity", "entry_price", "stop_price", "target_price", "strategy_tag", "opened_at").
		From("trades").
		OrderBy("opened_at ASC").
		RunWith(s.db)

	rows, err := query.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []types.Trade

	for rows.Next() {
		var trade types.Trade
		if err := rows.Scan(
			&trade.ID,
			&trade.Symbol,
			&trade.Side,
			&trade.Quantity,
			&trade.EntryPrice,
			&trade.StopPrice,
			&trade.TargetPrice,
			&trade.StrategyTag,
			&trade.OpenedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}

		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}

// GetIncidents returns the audit log in chronological order.
func (s *Store) GetIncidents() ([]types.Incident, error) {
	query := s.sq.
		Select("created_at", "severity", "description").
		From("incidents").
		OrderBy("created_at ASC").
		RunWith(s.db)

	rows, err := query.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query incidents: %w", err)
	}
	defer rows.Close()

	var incidents []types.Incident

	for rows.Next() {
		var incident types.Incident
		if err := rows.Scan(&incident.Timestamp, &incident.Severity, &incident.Description); err != nil {
			return nil, fmt.Errorf("failed to scan incident: %w", err)
		}

		incidents = append(incidents, incident)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating incidents: %w", err)
	}

	return incidents, nil
}

// Write exports trades, closures, and fills to Parquet files in the given
// directory.
func (s *Store) Write(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	exports := map[string]string{
		"trades":         filepath.Join(path, "trades.parquet"),
		"trade_closures": filepath.Join(path, "trade_closures.parquet"),
		"fills":          filepath.Join(path, "fills.parquet"),
	}

	for table, target := range exports {
		if _, err := s.db.Exec(fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, table, target)); err != nil {
			return fmt.Errorf("failed to export %s to Parquet: %w", table, err)
		}
	}

	s.log.Info("Exported desk records to Parquet",
		zap.String("path", path),
	)

	return nil
}

// Cleanup drops and recreates all tables.
func (s *Store) Cleanup() error {
	_, err := s.db.Exec(`
		DROP TABLE IF EXISTS trades;
		DROP TABLE IF EXISTS trade_closures;
		DROP TABLE IF EXISTS fills;
		DROP TABLE IF EXISTS daily_metrics;
		DROP TABLE IF EXISTS incidents;
	`)
	if err != nil {
		return fmt.Errorf("failed to cleanup tables: %w", err)
	}

	return s.Initialize()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
