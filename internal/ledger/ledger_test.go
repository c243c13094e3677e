package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func buy(symbol string, qty int64, price float64) Trade {
	return Trade{Symbol: symbol, Side: SideBuy, Quantity: qty, Price: decimal.NewFromFloat(price), Timestamp: time.Now()}
}

func sell(symbol string, qty int64, price float64) Trade {
	return Trade{Symbol: symbol, Side: SideSell, Quantity: qty, Price: decimal.NewFromFloat(price), Timestamp: time.Now()}
}

func mustApply(t *testing.T, l *Ledger, tr Trade) (Position, *RealizedPnL) {
	t.Helper()
	pos, pnl, err := l.Apply(tr)
	if err != nil {
		t.Fatalf("apply %s %d %s: %v", tr.Side, tr.Quantity, tr.Symbol, err)
	}
	return pos, pnl
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want float64) {
	t.Helper()
	if !got.Equal(decimal.NewFromFloat(want)) {
		t.Errorf("%s = %s, want %v", name, got, want)
	}
}

func TestApply_WeightedAverageCost(t *testing.T) {
	l := New()

	mustApply(t, l, buy("2330.TW", 1000, 600))
	pos, pnl := mustApply(t, l, buy("2330.TW", 1000, 620))

	if pnl != nil {
		t.Error("buy must not emit realized P&L")
	}
	if pos.Quantity != 2000 {
		t.Errorf("quantity = %d, want 2000", pos.Quantity)
	}
	assertDecimal(t, "avg cost", pos.AvgCost, 610)
}

func TestApply_PartialSellRealizesPnL(t *testing.T) {
	l := New()
	mustApply(t, l, buy("2330.TW", 1000, 600))
	mustApply(t, l, buy("2330.TW", 1000, 620))

	pos, pnl := mustApply(t, l, sell("2330.TW", 500, 650))

	if pnl == nil {
		t.Fatal("sell must emit a realized P&L record")
	}
	assertDecimal(t, "pnl", pnl.PnL, 20000)
	assertDecimal(t, "entry cost", pnl.EntryCost, 610)
	assertDecimal(t, "exit price", pnl.ExitPrice, 650)
	if pos.Quantity != 1500 {
		t.Errorf("remaining quantity = %d, want 1500", pos.Quantity)
	}
	// Average cost never moves on a sell
	assertDecimal(t, "avg cost after sell", pos.AvgCost, 610)
}

func TestApply_OversellRejectedAtomically(t *testing.T) {
	l := New()
	mustApply(t, l, buy("2330.TW", 1000, 600))

	_, _, err := l.Apply(sell("2330.TW", 1500, 650))
	if !errors.Is(err, ErrInsufficientPosition) {
		t.Fatalf("expected ErrInsufficientPosition, got %v", err)
	}

	pos, ok := l.Position("2330.TW")
	if !ok || pos.Quantity != 1000 {
		t.Errorf("rejected sell must leave the position unchanged, got %+v", pos)
	}
	assertDecimal(t, "avg cost", pos.AvgCost, 600)
	if len(l.Trades()) != 1 {
		t.Error("rejected trade must not be journaled")
	}
	if len(l.Realized()) != 0 {
		t.Error("rejected trade must not emit realized P&L")
	}
}

func TestApply_SellWithNoPosition(t *testing.T) {
	l := New()
	_, _, err := l.Apply(sell("2330.TW", 100, 650))
	if !errors.Is(err, ErrInsufficientPosition) {
		t.Fatalf("expected ErrInsufficientPosition, got %v", err)
	}
}

func TestApply_FullCloseArchivesPosition(t *testing.T) {
	l := New()
	mustApply(t, l, buy("2603.TW", 2000, 150))
	mustApply(t, l, sell("2603.TW", 500, 160))
	pos, pnl := mustApply(t, l, sell("2603.TW", 1500, 170))

	if pos.Quantity != 0 {
		t.Errorf("closed position quantity = %d, want 0", pos.Quantity)
	}
	assertDecimal(t, "final pnl", pnl.PnL, 30000)

	if _, ok := l.Position("2603.TW"); ok {
		t.Error("closed position must leave the active set")
	}
	closed := l.Closed()
	if len(closed) != 1 || closed[0].Symbol != "2603.TW" {
		t.Fatalf("expected one archived position, got %+v", closed)
	}
	// Lifetime realized: 500*10 + 1500*20
	assertDecimal(t, "archived realized", closed[0].Realized, 35000)
}

func TestApply_ReopenAfterClose(t *testing.T) {
	l := New()
	mustApply(t, l, buy("2330.TW", 100, 600))
	mustApply(t, l, sell("2330.TW", 100, 650))

	pos, _ := mustApply(t, l, buy("2330.TW", 200, 700))
	if pos.Quantity != 200 {
		t.Errorf("reopened quantity = %d, want 200", pos.Quantity)
	}
	// Fresh cost basis, no carryover from the closed cycle
	assertDecimal(t, "reopened avg cost", pos.AvgCost, 700)
}

func TestApply_RejectsMalformedTrades(t *testing.T) {
	l := New()
	cases := []Trade{
		{Symbol: "2330.TW", Side: SideBuy, Quantity: 0, Price: decimal.NewFromInt(600)},
		{Symbol: "2330.TW", Side: SideBuy, Quantity: -5, Price: decimal.NewFromInt(600)},
		{Symbol: "2330.TW", Side: SideBuy, Quantity: 100, Price: decimal.NewFromInt(-1)},
		{Symbol: "2330.TW", Side: Side("HOLD"), Quantity: 100, Price: decimal.NewFromInt(600)},
		{Symbol: "TSMC", Side: SideBuy, Quantity: 100, Price: decimal.NewFromInt(600)},
	}
	for _, tr := range cases {
		if _, _, err := l.Apply(tr); err == nil {
			t.Errorf("trade %+v should be rejected", tr)
		}
	}
	if len(l.Trades()) != 0 {
		t.Error("rejected trades must not be journaled")
	}
}

func TestApply_NormalizesSymbol(t *testing.T) {
	l := New()
	mustApply(t, l, buy("2330", 100, 600))
	if _, ok := l.Position("2330.TW"); !ok {
		t.Error("bare code should be normalized before applying")
	}
}

func TestUnrealizedPnL(t *testing.T) {
	l := New()
	mustApply(t, l, buy("2330.TW", 1000, 600))
	mustApply(t, l, buy("2330.TW", 1000, 620))

	pos, _ := l.Position("2330.TW")
	assertDecimal(t, "unrealized", pos.UnrealizedPnL(decimal.NewFromInt(650)), 80000)
	assertDecimal(t, "unrealized loss", pos.UnrealizedPnL(decimal.NewFromInt(600)), -20000)
}

func TestSummarize(t *testing.T) {
	l := New()
	mustApply(t, l, buy("2330.TW", 1000, 600))
	mustApply(t, l, buy("2603.TW", 2000, 150))
	mustApply(t, l, sell("2330.TW", 500, 650))

	sum := l.Summarize(map[string]decimal.Decimal{
		"2330.TW": decimal.NewFromInt(660),
		"2603.TW": decimal.NewFromInt(155),
	})
	assertDecimal(t, "realized", sum.Realized, 25000)
	// 500*(660-600) + 2000*(155-150)
	assertDecimal(t, "unrealized", sum.Unrealized, 40000)
	assertDecimal(t, "total", sum.Total, 65000)
	if sum.TotalTrades != 3 || sum.OpenPositions != 2 {
		t.Errorf("summary counts = %d trades / %d open, want 3 / 2", sum.TotalTrades, sum.OpenPositions)
	}
}

func TestSummarize_MissingPriceContributesNothing(t *testing.T) {
	l := New()
	mustApply(t, l, buy("2330.TW", 1000, 600))
	sum := l.Summarize(nil)
	assertDecimal(t, "unrealized", sum.Unrealized, 0)
}
