// Package ledger tracks positions and profit-and-loss from applied trades.
//
// A trade is an append-only event; positions are derived state, mutated
// only by Apply under a single-writer lock. Money math uses decimals so
// weighted average cost is exact for sub-dollar tick prices.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"twscreener/internal/model"
)

// ErrInsufficientPosition rejects a sell larger than the held quantity,
// or any sell with no open position. The ledger is left unchanged.
var ErrInsufficientPosition = errors.New("ledger: insufficient position")

// Side is the trade direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Valid reports whether s is a known side.
func (s Side) Valid() bool { return s == SideBuy || s == SideSell }

// Trade is a single fill entered by the user. Never mutated once applied.
type Trade struct {
	Symbol    string          `json:"symbol"`
	Side      Side            `json:"side"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// Validate rejects a malformed trade before it touches any state.
func (t Trade) Validate() error {
	if err := model.ValidateSymbol(t.Symbol); err != nil {
		return err
	}
	if !t.Side.Valid() {
		return fmt.Errorf("ledger: unknown side %q", string(t.Side))
	}
	if t.Quantity <= 0 {
		return fmt.Errorf("ledger: quantity must be positive, got %d", t.Quantity)
	}
	if t.Price.IsNegative() {
		return fmt.Errorf("ledger: price must be non-negative, got %s", t.Price)
	}
	return nil
}

// Position is the open holding for one symbol.
type Position struct {
	Symbol   string          `json:"symbol"`
	Quantity int64           `json:"quantity"`
	AvgCost  decimal.Decimal `json:"avg_cost"`
}

// UnrealizedPnL marks the position to the given price. Derived on read,
// never stored.
func (p Position) UnrealizedPnL(currentPrice decimal.Decimal) decimal.Decimal {
	return currentPrice.Sub(p.AvgCost).Mul(decimal.NewFromInt(p.Quantity))
}

// RealizedPnL is emitted once per sell that reduces a position.
type RealizedPnL struct {
	Symbol    string          `json:"symbol"`
	Quantity  int64           `json:"quantity"`
	EntryCost decimal.Decimal `json:"entry_cost"`
	ExitPrice decimal.Decimal `json:"exit_price"`
	PnL       decimal.Decimal `json:"pnl"`
	Timestamp time.Time       `json:"timestamp"`
}

// ClosedPosition archives a position whose quantity reached zero,
// carrying the realized P&L accumulated over its lifetime.
type ClosedPosition struct {
	Symbol   string          `json:"symbol"`
	Realized decimal.Decimal `json:"realized"`
	ClosedAt time.Time       `json:"closed_at"`
}

// Ledger holds all portfolio state for one session. All mutation goes
// through Apply; reads return copies.
type Ledger struct {
	mu        sync.RWMutex
	positions map[string]*Position
	lifetime  map[string]decimal.Decimal // realized P&L per open position
	trades    []Trade
	realized  []RealizedPnL
	closed    []ClosedPosition
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		positions: make(map[string]*Position),
		lifetime:  make(map[string]decimal.Decimal),
	}
}

// Apply records the trade and updates the symbol's position. Each symbol
// cycles NoPosition -> Open -> NoPosition:
//
//   - buy with no position opens one at the trade price
//   - buy on an open position re-weights the average cost
//   - sell below held quantity reduces it and emits a RealizedPnL
//   - sell of exactly the held quantity closes and archives the position
//   - any larger sell fails with ErrInsufficientPosition, state untouched
//
// The returned position is the post-trade state (zero quantity after a
// full close); pnl is non-nil only for sells.
func (l *Ledger) Apply(trade Trade) (Position, *RealizedPnL, error) {
	trade.Symbol = model.NormalizeSymbol(trade.Symbol)
	if err := trade.Validate(); err != nil {
		return Position{}, nil, err
	}
	if trade.Timestamp.IsZero() {
		trade.Timestamp = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	pos := l.positions[trade.Symbol]

	if trade.Side == SideBuy {
		if pos == nil {
			pos = &Position{
				Symbol:   trade.Symbol,
				Quantity: trade.Quantity,
				AvgCost:  trade.Price,
			}
			l.positions[trade.Symbol] = pos
		} else {
			held := decimal.NewFromInt(pos.Quantity)
			added := decimal.NewFromInt(trade.Quantity)
			totalCost := pos.AvgCost.Mul(held).Add(trade.Price.Mul(added))
			pos.Quantity += trade.Quantity
			pos.AvgCost = totalCost.Div(decimal.NewFromInt(pos.Quantity))
		}
		l.trades = append(l.trades, trade)
		return *pos, nil, nil
	}

	// Sell. Validate fully before mutating anything.
	if pos == nil || trade.Quantity > pos.Quantity {
		return Position{}, nil, fmt.Errorf("%w: sell %d %s, held %d",
			ErrInsufficientPosition, trade.Quantity, trade.Symbol, heldQty(pos))
	}

	pnl := RealizedPnL{
		Symbol:    trade.Symbol,
		Quantity:  trade.Quantity,
		EntryCost: pos.AvgCost,
		ExitPrice: trade.Price,
		PnL:       trade.Price.Sub(pos.AvgCost).Mul(decimal.NewFromInt(trade.Quantity)),
		Timestamp: trade.Timestamp,
	}

	l.trades = append(l.trades, trade)
	l.realized = append(l.realized, pnl)
	l.lifetime[trade.Symbol] = l.lifetime[trade.Symbol].Add(pnl.PnL)

	pos.Quantity -= trade.Quantity
	if pos.Quantity == 0 {
		l.closed = append(l.closed, ClosedPosition{
			Symbol:   trade.Symbol,
			Realized: l.lifetime[trade.Symbol],
			ClosedAt: trade.Timestamp,
		})
		delete(l.positions, trade.Symbol)
		delete(l.lifetime, trade.Symbol)
		return Position{Symbol: trade.Symbol, AvgCost: decimal.Zero}, &pnl, nil
	}
	return *pos, &pnl, nil
}

func heldQty(pos *Position) int64 {
	if pos == nil {
		return 0
	}
	return pos.Quantity
}

// Position returns the open position for symbol, if any.
func (l *Ledger) Position(symbol string) (Position, bool) {
	symbol = model.NormalizeSymbol(symbol)
	l.mu.RLock()
	defer l.mu.RUnlock()
	pos, ok := l.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// Positions returns all open positions ordered by symbol.
func (l *Ledger) Positions() []Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Trades returns the append-only trade history in application order.
func (l *Ledger) Trades() []Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cp := make([]Trade, len(l.trades))
	copy(cp, l.trades)
	return cp
}

// Realized returns the realized P&L history in emission order.
func (l *Ledger) Realized() []RealizedPnL {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cp := make([]RealizedPnL, len(l.realized))
	copy(cp, l.realized)
	return cp
}

// Closed returns archived positions in close order.
func (l *Ledger) Closed() []ClosedPosition {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cp := make([]ClosedPosition, len(l.closed))
	copy(cp, l.closed)
	return cp
}

// TotalRealizedPnL sums all realized P&L records.
func (l *Ledger) TotalRealizedPnL() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	total := decimal.Zero
	for _, r := range l.realized {
		total = total.Add(r.PnL)
	}
	return total
}

// Summary is the mark-to-market view of the whole ledger.
type Summary struct {
	Realized      decimal.Decimal `json:"realized"`
	Unrealized    decimal.Decimal `json:"unrealized"`
	Total         decimal.Decimal `json:"total"`
	TotalTrades   int             `json:"total_trades"`
	OpenPositions int             `json:"open_positions"`
}

// Summarize marks open positions to currentPrices (symbol -> price).
// Positions without a price contribute nothing to unrealized P&L.
func (l *Ledger) Summarize(currentPrices map[string]decimal.Decimal) Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	realized := decimal.Zero
	for _, r := range l.realized {
		realized = realized.Add(r.PnL)
	}
	unrealized := decimal.Zero
	for sym, pos := range l.positions {
		if price, ok := currentPrices[sym]; ok {
			unrealized = unrealized.Add(pos.UnrealizedPnL(price))
		}
	}
	return Summary{
		Realized:      realized,
		Unrealized:    unrealized,
		Total:         realized.Add(unrealized),
		TotalTrades:   len(l.trades),
		OpenPositions: len(l.positions),
	}
}
