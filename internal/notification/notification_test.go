package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"twscreener/internal/model"
)

func TestFlowSwitchAlert(t *testing.T) {
	evt := model.FlowSwitchEvent{
		Symbol: "2330.TW",
		Kind:   model.FlowSwitchBuyToSell,
		Prev:   4000,
		Last:   -2000,
		Date:   time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
	}
	a := FlowSwitchAlert(evt)
	if a.Level != AlertWarning {
		t.Errorf("buy-to-sell level = %s, want WARNING", a.Level)
	}
	if a.Symbol != "2330.TW" || !strings.Contains(a.Message, "台積電") {
		t.Errorf("alert = %+v", a)
	}

	evt.Kind = model.FlowSwitchSellToBuy
	if got := FlowSwitchAlert(evt); got.Level != AlertInfo {
		t.Errorf("sell-to-buy level = %s, want INFO", got.Level)
	}
}

func TestWebhookNotifier(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	err := n.Send(context.Background(), Alert{
		Level: AlertInfo, Title: "test", Message: "msg", Symbol: "2330.TW",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got["symbol"] != "2330.TW" || got["title"] != "test" {
		t.Errorf("payload = %v", got)
	}
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	if err := n.Send(context.Background(), Alert{Title: "test"}); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

type failingNotifier struct{ err error }

func (f *failingNotifier) Send(ctx context.Context, a Alert) error { return f.err }

type recordingNotifier struct{ sent []Alert }

func (r *recordingNotifier) Send(ctx context.Context, a Alert) error {
	r.sent = append(r.sent, a)
	return nil
}

func TestMulti_ContinuesPastFailure(t *testing.T) {
	boom := errors.New("boom")
	rec := &recordingNotifier{}
	m := NewMulti(&failingNotifier{err: boom}, rec)

	err := m.Send(context.Background(), Alert{Title: "test"})
	if !errors.Is(err, boom) {
		t.Errorf("expected first failure surfaced, got %v", err)
	}
	if len(rec.sent) != 1 {
		t.Error("later backends must still receive the alert")
	}
}
