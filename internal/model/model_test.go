package model

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeSymbol(t *testing.T) {
	cases := map[string]string{
		"2330":      "2330.TW",
		"2330.tw":   "2330.TW",
		"2330.TW":   "2330.TW",
		" 2603.Tw ": "2603.TW",
		"":          "",
	}
	for in, want := range cases {
		if got := NormalizeSymbol(in); got != want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateSymbol(t *testing.T) {
	if err := ValidateSymbol("2330.TW"); err != nil {
		t.Errorf("2330.TW should be valid: %v", err)
	}
	for _, bad := range []string{"2330", "TSMC", "23300.TW", "2330.TWO", "233.TW"} {
		err := ValidateSymbol(bad)
		if !errors.Is(err, ErrInvalidSymbol) {
			t.Errorf("ValidateSymbol(%q) = %v, want ErrInvalidSymbol", bad, err)
		}
	}
}

func day(n int) time.Time {
	return time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestBarSeriesValidate(t *testing.T) {
	ok := &BarSeries{Symbol: "2330.TW", Bars: []Bar{
		{Symbol: "2330.TW", Date: day(0), Open: 100, High: 102, Low: 99, Close: 101, Volume: 1000},
		{Symbol: "2330.TW", Date: day(1), Open: 101, High: 103, Low: 100, Close: 102, Volume: 1200},
	}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid series rejected: %v", err)
	}

	dup := &BarSeries{Bars: []Bar{
		{Date: day(0), Open: 100, High: 102, Low: 99, Close: 101},
		{Date: day(0), Open: 101, High: 103, Low: 100, Close: 102},
	}}
	if err := dup.Validate(); !errors.Is(err, ErrMalformedBars) {
		t.Errorf("duplicate dates: got %v, want ErrMalformedBars", err)
	}

	negVol := &BarSeries{Bars: []Bar{
		{Date: day(0), Open: 100, High: 102, Low: 99, Close: 101, Volume: -5},
	}}
	if err := negVol.Validate(); !errors.Is(err, ErrMalformedBars) {
		t.Errorf("negative volume: got %v, want ErrMalformedBars", err)
	}

	badHigh := &BarSeries{Bars: []Bar{
		{Date: day(0), Open: 100, High: 99, Low: 98, Close: 100.5, Volume: 1},
	}}
	if err := badHigh.Validate(); !errors.Is(err, ErrMalformedBars) {
		t.Errorf("high below close: got %v, want ErrMalformedBars", err)
	}
}

func TestSectorUniverse(t *testing.T) {
	sectors := Sectors()
	if len(sectors) != 7 {
		t.Fatalf("expected 7 sectors, got %d", len(sectors))
	}
	semis := SymbolsBySector(SectorSemi)
	found := false
	for _, s := range semis {
		if s == "2330.TW" {
			found = true
		}
		if err := ValidateSymbol(s); err != nil {
			t.Errorf("universe contains invalid symbol %q", s)
		}
	}
	if !found {
		t.Error("2330.TW missing from semiconductor sector")
	}
	if StockName("2330.TW") != "台積電" {
		t.Errorf("StockName(2330.TW) = %q", StockName("2330.TW"))
	}
	if StockName("9999.TW") != "9999.TW" {
		t.Error("unknown symbol should fall back to the code")
	}
}
