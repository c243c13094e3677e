// Package sqlite persists the session's durable units: the append-only
// trade log and the watchlist. Positions and P&L are derived state and
// are rebuilt by replaying trades at startup, never stored.
package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"twscreener/internal/ledger"
	"twscreener/internal/watchlist"
)

// Journal is a single-writer SQLite store.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the journal database with WAL mode.
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single-writer discipline at the pool level
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[journal] opened database at %s", dbPath)
	return &Journal{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol   TEXT    NOT NULL,
			side     TEXT    NOT NULL,
			quantity INTEGER NOT NULL,
			price    TEXT    NOT NULL,
			ts       INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS watchlist (
			symbol   TEXT PRIMARY KEY,
			name     TEXT NOT NULL,
			added_at INTEGER NOT NULL
		);
	`)
	return err
}

// DB returns the underlying sql.DB for health checks.
func (j *Journal) DB() *sql.DB { return j.db }

// AppendTrade journals one applied trade. Prices are stored as decimal
// strings to keep sub-dollar ticks exact across the round trip.
func (j *Journal) AppendTrade(t ledger.Trade) error {
	_, err := j.db.Exec(
		`INSERT INTO trades (symbol, side, quantity, price, ts) VALUES (?, ?, ?, ?, ?)`,
		t.Symbol, string(t.Side), t.Quantity, t.Price.String(), t.Timestamp.Unix(),
	)
	if err != nil {
		return fmt.Errorf("sqlite insert trade: %w", err)
	}
	return nil
}

// LoadTrades returns all journaled trades in application order, for
// replay into a fresh ledger at startup.
func (j *Journal) LoadTrades() ([]ledger.Trade, error) {
	rows, err := j.db.Query(`SELECT symbol, side, quantity, price, ts FROM trades ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query trades: %w", err)
	}
	defer rows.Close()

	var trades []ledger.Trade
	for rows.Next() {
		var (
			t      ledger.Trade
			side   string
			price  string
			tsUnix int64
		)
		if err := rows.Scan(&t.Symbol, &side, &t.Quantity, &price, &tsUnix); err != nil {
			return nil, fmt.Errorf("sqlite scan trade: %w", err)
		}
		t.Side = ledger.Side(side)
		t.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("sqlite trade price %q: %w", price, err)
		}
		t.Timestamp = time.Unix(tsUnix, 0).UTC()
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// PutWatch upserts a watchlist entry, keeping the earliest added_at.
func (j *Journal) PutWatch(e watchlist.Entry) error {
	_, err := j.db.Exec(
		`INSERT INTO watchlist (symbol, name, added_at) VALUES (?, ?, ?)
		 ON CONFLICT(symbol) DO NOTHING`,
		e.Symbol, e.Name, e.AddedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("sqlite upsert watch: %w", err)
	}
	return nil
}

// DeleteWatch removes a watchlist entry. Absent symbols are a no-op.
func (j *Journal) DeleteWatch(symbol string) error {
	_, err := j.db.Exec(`DELETE FROM watchlist WHERE symbol = ?`, symbol)
	if err != nil {
		return fmt.Errorf("sqlite delete watch: %w", err)
	}
	return nil
}

// LoadWatchlist returns watchlist entries ordered by added_at ascending.
func (j *Journal) LoadWatchlist() ([]watchlist.Entry, error) {
	rows, err := j.db.Query(`SELECT symbol, name, added_at FROM watchlist ORDER BY added_at ASC, symbol ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query watchlist: %w", err)
	}
	defer rows.Close()

	var entries []watchlist.Entry
	for rows.Next() {
		var (
			e      watchlist.Entry
			tsUnix int64
		)
		if err := rows.Scan(&e.Symbol, &e.Name, &tsUnix); err != nil {
			return nil, fmt.Errorf("sqlite scan watch: %w", err)
		}
		e.AddedAt = time.Unix(tsUnix, 0).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
