// Package chips analyzes institutional buy/sell flow for a symbol.
//
// The underlying FlowSource is an optional capability: a session built
// without one keeps every other feature working, and flow queries fail
// with model.ErrFlowDisabled instead of fabricating data.
package chips

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"twscreener/internal/model"
)

// historyCap bounds the in-session switch event history.
const historyCap = 50

// Service wraps an optional FlowSource with switch detection and a
// bounded per-session event history.
type Service struct {
	src model.FlowSource
	log *slog.Logger

	mu      sync.Mutex
	history []model.FlowSwitchEvent
	last    map[string]model.FlowSwitchEvent
}

// NewService creates a flow service. src may be nil; the service then
// reports the capability as disabled.
func NewService(src model.FlowSource, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		src:  src,
		log:  log,
		last: make(map[string]model.FlowSwitchEvent),
	}
}

// Enabled reports whether a flow source is wired.
func (s *Service) Enabled() bool { return s.src != nil }

// Flow fetches institutional flow for [from, to].
func (s *Service) Flow(ctx context.Context, symbol string, from, to time.Time) ([]model.FlowEntry, error) {
	if s.src == nil {
		return nil, model.ErrFlowDisabled
	}
	symbol = model.NormalizeSymbol(symbol)
	if err := model.ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	return s.src.FetchFlow(ctx, symbol, from, to)
}

// DetectSwitch reports a foreign-investor direction change between the
// last two flow entries: net selling turning to net buying or the
// reverse. A zero previous day counts as the prior direction's tail.
// Returns nil when there is no switch or fewer than two entries.
func DetectSwitch(symbol string, entries []model.FlowEntry) *model.FlowSwitchEvent {
	if len(entries) < 2 {
		return nil
	}
	prev := entries[len(entries)-2]
	last := entries[len(entries)-1]

	var kind model.FlowSwitchKind
	switch {
	case prev.ForeignNet <= 0 && last.ForeignNet > 0:
		kind = model.FlowSwitchSellToBuy
	case prev.ForeignNet >= 0 && last.ForeignNet < 0:
		kind = model.FlowSwitchBuyToSell
	default:
		return nil
	}
	return &model.FlowSwitchEvent{
		Symbol: symbol,
		Kind:   kind,
		Prev:   prev.ForeignNet,
		Last:   last.ForeignNet,
		Date:   last.Date,
	}
}

// FiveDayNet sums foreign net flow over the trailing five entries.
func FiveDayNet(entries []model.FlowEntry) int64 {
	n := len(entries)
	if n > 5 {
		entries = entries[n-5:]
	}
	var sum int64
	for _, e := range entries {
		sum += e.ForeignNet
	}
	return sum
}

// CheckSwitch fetches recent flow for the symbol and records any
// detected direction change. Returns the event, or nil when flow is
// steady. Fails with model.ErrFlowDisabled when no source is wired.
func (s *Service) CheckSwitch(ctx context.Context, symbol string, lookbackDays int) (*model.FlowSwitchEvent, error) {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	to := time.Now()
	from := to.AddDate(0, 0, -lookbackDays)

	entries, err := s.Flow(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	evt := DetectSwitch(model.NormalizeSymbol(symbol), entries)
	if evt == nil {
		return nil, nil
	}
	s.Record(*evt)
	return evt, nil
}

// Record appends the event to the session history, deduplicating an
// identical consecutive event and capping the history length.
func (s *Service) Record(evt model.FlowSwitchEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.history); n > 0 {
		tail := s.history[n-1]
		if tail.Symbol == evt.Symbol && tail.Kind == evt.Kind && tail.Date.Equal(evt.Date) {
			return
		}
	}
	s.history = append(s.history, evt)
	if len(s.history) > historyCap {
		s.history = append([]model.FlowSwitchEvent(nil), s.history[len(s.history)-historyCap:]...)
	}
	s.last[evt.Symbol] = evt
	s.log.Info("flow switch detected",
		slog.String("symbol", evt.Symbol),
		slog.String("kind", string(evt.Kind)),
		slog.Int64("prev", evt.Prev),
		slog.Int64("last", evt.Last),
	)
}

// History returns the session switch events in detection order.
func (s *Service) History() []model.FlowSwitchEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]model.FlowSwitchEvent, len(s.history))
	copy(cp, s.history)
	return cp
}

// Last returns the most recent switch event for the symbol, if any.
func (s *Service) Last(symbol string) (model.FlowSwitchEvent, bool) {
	symbol = model.NormalizeSymbol(symbol)
	s.mu.Lock()
	defer s.mu.Unlock()
	evt, ok := s.last[symbol]
	return evt, ok
}

// Close releases the underlying source, if any.
func (s *Service) Close() error {
	if s.src == nil {
		return nil
	}
	return s.src.Close()
}
