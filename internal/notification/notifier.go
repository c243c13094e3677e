// Package notification delivers screening alerts to external channels
// (Telegram, webhooks) and to the log.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"twscreener/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
	Symbol  string     `json:"symbol,omitempty"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// FlowSwitchAlert builds an alert for a foreign-investor direction change.
func FlowSwitchAlert(evt model.FlowSwitchEvent) Alert {
	level := AlertInfo
	title := "外資轉向：由賣轉買"
	if evt.Kind == model.FlowSwitchBuyToSell {
		level = AlertWarning
		title = "外資轉向：由買轉賣"
	}
	return Alert{
		Level:  level,
		Title:  title,
		Symbol: evt.Symbol,
		Message: fmt.Sprintf("%s %s: %d -> %d (%s)",
			evt.Symbol, model.StockName(evt.Symbol), evt.Prev, evt.Last,
			evt.Date.Format("2006-01-02")),
	}
}

// SignalAlert builds an alert for a top-ranked scan hit.
func SignalAlert(mode string, s model.ScoredSymbol) Alert {
	return Alert{
		Level:  AlertInfo,
		Title:  fmt.Sprintf("Scan signal (%s)", mode),
		Symbol: s.Symbol,
		Message: fmt.Sprintf("%s %s score %.4f close %.2f",
			s.Symbol, s.Name, s.Score, s.Snapshot.Close),
	}
}

// LogNotifier writes alerts to the structured log (useful in development
// and as a fallback when no external channel is configured).
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	n.log.Info("alert",
		slog.String("level", string(alert.Level)),
		slog.String("title", alert.Title),
		slog.String("symbol", alert.Symbol),
		slog.String("message", alert.Message),
	)
	return nil
}

// Multi fans one alert out to several backends. Delivery failures are
// collected; one failing channel does not stop the others.
type Multi struct {
	backends []Notifier
}

// NewMulti creates a fan-out notifier.
func NewMulti(backends ...Notifier) *Multi {
	return &Multi{backends: backends}
}

func (m *Multi) Send(ctx context.Context, alert Alert) error {
	var firstErr error
	for _, b := range m.backends {
		if err := b.Send(ctx, alert); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
