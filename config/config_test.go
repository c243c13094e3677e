package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.MinAvgVolume != 1_000_000 {
		t.Errorf("MinAvgVolume default = %g, want 1000000 shares", cfg.MinAvgVolume)
	}
	if cfg.BenchmarkSymbol != "0050.TW" {
		t.Errorf("BenchmarkSymbol default = %q, want 0050.TW", cfg.BenchmarkSymbol)
	}
	if cfg.ScanMaxSymbols != 50 {
		t.Errorf("ScanMaxSymbols default = %d, want 50", cfg.ScanMaxSymbols)
	}
	if cfg.RSIOversold != 30 || cfg.BreakoutVolumeRatio != 1.5 {
		t.Errorf("strategy defaults = %g/%g, want 30/1.5", cfg.RSIOversold, cfg.BreakoutVolumeRatio)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MIN_AVG_VOLUME", "0")
	t.Setenv("SCAN_WORKERS", "8")

	cfg := Load()
	if cfg.MinAvgVolume != 0 {
		t.Errorf("MIN_AVG_VOLUME=0 should disable the floor, got %g", cfg.MinAvgVolume)
	}
	if cfg.ScanWorkers != 8 {
		t.Errorf("ScanWorkers = %d, want 8", cfg.ScanWorkers)
	}
}

func TestLoad_InvalidNumberFallsBack(t *testing.T) {
	t.Setenv("SCAN_MAX_SYMBOLS", "plenty")
	cfg := Load()
	if cfg.ScanMaxSymbols != 50 {
		t.Errorf("invalid int should fall back to 50, got %d", cfg.ScanMaxSymbols)
	}
}
