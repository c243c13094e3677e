// Package watchlist keeps a small set of symbols the user is tracking.
package watchlist

import (
	"sort"
	"sync"
	"time"

	"twscreener/internal/model"
)

// Entry is one tracked symbol.
type Entry struct {
	Symbol  string    `json:"symbol"`
	Name    string    `json:"name"`
	AddedAt time.Time `json:"added_at"`
}

// Watchlist is a set keyed by symbol. Add and Remove are idempotent.
type Watchlist struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// New creates an empty watchlist.
func New() *Watchlist {
	return &Watchlist{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// Add tracks the symbol. Re-adding an existing symbol keeps the original
// entry, including its AddedAt. Returns the stored entry.
func (w *Watchlist) Add(symbol string) (Entry, error) {
	symbol = model.NormalizeSymbol(symbol)
	if err := model.ValidateSymbol(symbol); err != nil {
		return Entry{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if e, ok := w.entries[symbol]; ok {
		return e, nil
	}
	e := Entry{Symbol: symbol, Name: model.StockName(symbol), AddedAt: w.now()}
	w.entries[symbol] = e
	return e, nil
}

// Restore inserts an entry with its original timestamp, for loading
// persisted state at startup.
func (w *Watchlist) Restore(e Entry) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.entries[e.Symbol]; !ok {
		w.entries[e.Symbol] = e
	}
}

// Remove stops tracking the symbol. Removing an absent symbol is a no-op.
// Reports whether an entry was actually removed.
func (w *Watchlist) Remove(symbol string) bool {
	symbol = model.NormalizeSymbol(symbol)
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.entries[symbol]
	delete(w.entries, symbol)
	return ok
}

// Contains reports whether the symbol is tracked.
func (w *Watchlist) Contains(symbol string) bool {
	symbol = model.NormalizeSymbol(symbol)
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.entries[symbol]
	return ok
}

// List returns entries ordered by AddedAt ascending; ties by symbol.
func (w *Watchlist) List() []Entry {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Entry, 0, len(w.entries))
	for _, e := range w.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.Before(out[j].AddedAt)
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// Len returns the number of tracked symbols.
func (w *Watchlist) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.entries)
}
