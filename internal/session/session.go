// Package session owns the per-user mutable portfolio state.
//
// A Session is created at startup and discarded at shutdown; the ledger
// and watchlist it holds are never package-level globals. Scans never
// touch a session: only direct user actions (trade entry, watch,
// unwatch) mutate it.
package session

import (
	"fmt"
	"log/slog"
	"time"

	"twscreener/internal/chips"
	"twscreener/internal/ledger"
	"twscreener/internal/model"
	"twscreener/internal/watchlist"
)

// Journal persists the durable units of a session. Optional: a nil
// journal keeps state session-only.
type Journal interface {
	AppendTrade(ledger.Trade) error
	PutWatch(watchlist.Entry) error
	DeleteWatch(symbol string) error
	LoadTrades() ([]ledger.Trade, error)
	LoadWatchlist() ([]watchlist.Entry, error)
}

// Options configure a new session. All fields are optional.
type Options struct {
	Journal    Journal
	FlowSource model.FlowSource
	Logger     *slog.Logger
}

// Session is the single owner of one user's ledger, watchlist, and flow
// service.
type Session struct {
	ID        string
	CreatedAt time.Time

	Ledger    *ledger.Ledger
	Watchlist *watchlist.Watchlist
	Flow      *chips.Service

	journal Journal
	log     *slog.Logger
}

// New creates a session, replaying journaled trades and restoring the
// watchlist when a journal is configured.
func New(opts Options) (*Session, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Session{
		ID:        fmt.Sprintf("s-%d", time.Now().UnixNano()),
		CreatedAt: time.Now(),
		Ledger:    ledger.New(),
		Watchlist: watchlist.New(),
		Flow:      chips.NewService(opts.FlowSource, log),
		journal:   opts.Journal,
		log:       log,
	}

	if opts.Journal != nil {
		trades, err := opts.Journal.LoadTrades()
		if err != nil {
			return nil, fmt.Errorf("session: load trades: %w", err)
		}
		for _, t := range trades {
			if _, _, err := s.Ledger.Apply(t); err != nil {
				return nil, fmt.Errorf("session: replay trade %s %d %s: %w", t.Side, t.Quantity, t.Symbol, err)
			}
		}
		entries, err := opts.Journal.LoadWatchlist()
		if err != nil {
			return nil, fmt.Errorf("session: load watchlist: %w", err)
		}
		for _, e := range entries {
			s.Watchlist.Restore(e)
		}
		log.Info("session restored",
			slog.String("session_id", s.ID),
			slog.Int("trades", len(trades)),
			slog.Int("watchlist", len(entries)),
		)
	}
	return s, nil
}

// ApplyTrade applies the trade to the ledger and journals it.
// A rejected trade never reaches the journal.
func (s *Session) ApplyTrade(t ledger.Trade) (ledger.Position, *ledger.RealizedPnL, error) {
	pos, pnl, err := s.Ledger.Apply(t)
	if err != nil {
		return ledger.Position{}, nil, err
	}
	if s.journal != nil {
		t.Symbol = pos.Symbol
		if jerr := s.journal.AppendTrade(t); jerr != nil {
			// Applied state stays authoritative; durability is best-effort.
			s.log.Error("trade journal write failed", slog.String("symbol", t.Symbol), slog.Any("error", jerr))
		}
	}
	return pos, pnl, nil
}

// Watch adds the symbol to the watchlist and journals it.
func (s *Session) Watch(symbol string) (watchlist.Entry, error) {
	e, err := s.Watchlist.Add(symbol)
	if err != nil {
		return watchlist.Entry{}, err
	}
	if s.journal != nil {
		if jerr := s.journal.PutWatch(e); jerr != nil {
			s.log.Error("watchlist journal write failed", slog.String("symbol", e.Symbol), slog.Any("error", jerr))
		}
	}
	return e, nil
}

// Unwatch removes the symbol from the watchlist and journals the removal.
func (s *Session) Unwatch(symbol string) bool {
	removed := s.Watchlist.Remove(symbol)
	if removed && s.journal != nil {
		if jerr := s.journal.DeleteWatch(model.NormalizeSymbol(symbol)); jerr != nil {
			s.log.Error("watchlist journal delete failed", slog.String("symbol", symbol), slog.Any("error", jerr))
		}
	}
	return removed
}

// Close releases session resources.
func (s *Session) Close() error {
	return s.Flow.Close()
}
