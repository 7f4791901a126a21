package config

import (
	"os"
	"path/filepath"
	"testing"

	"prosperity-go/internal/strategy"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "prosperity-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.App.MetricsAddr != ":9101" || cfg.App.LogLevel != "debug" {
		t.Fatalf("unexpected app settings: %+v", cfg.App)
	}
	if cfg.Data.Round != 2 || len(cfg.Data.Days) != 1 || cfg.Data.Days[0] != 0 {
		t.Fatalf("unexpected data settings: %+v", cfg.Data)
	}
	if got := cfg.Data.PricesPath(0); got != filepath.Join("..", "..", "testdata", "prices_round_2_day_0.csv") {
		t.Fatalf("unexpected prices path: %s", got)
	}
	if got := cfg.Data.TradesPath(-1); filepath.Base(got) != "trades_round_2_day_-1.csv" {
		t.Fatalf("unexpected trades path: %s", got)
	}
	if cfg.Backtest.FairMarks[strategy.RainforestResin] != 10000 {
		t.Fatalf("unexpected fair marks: %+v", cfg.Backtest.FairMarks)
	}
	if cfg.Strategy.Mode != strategy.ModeSquidTrend {
		t.Fatalf("unexpected strategy mode: %s", cfg.Strategy.Mode)
	}
	if cfg.Analysis.Window != 100 || cfg.Analysis.StreamPath != "/stream" {
		t.Fatalf("unexpected analysis settings: %+v", cfg.Analysis)
	}
}

func TestToParams(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	p := cfg.Strategy.Params.ToParams()
	if p.SquidWindow != 12 || p.TrendStrongQty != 6 || p.BasketThreshold != 1.5 {
		t.Fatalf("unexpected params: %+v", p)
	}
	filled := p.WithDefaults()
	if filled.ResinFairValue != 10000 || filled.SquidWindow != 12 {
		t.Fatalf("expected defaults to fill only unset knobs: %+v", filled)
	}
}

func TestRiskLimitsAndListings(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	limits := cfg.RiskLimits()
	if l, ok := limits.Limit(strategy.Kelp); !ok || l != 50 {
		t.Fatalf("unexpected kelp limit %d", l)
	}
	if _, ok := limits.Limit(strategy.Jams); ok {
		t.Fatalf("expected jams to be unlimited")
	}
	listings := cfg.ListingMap()
	if listings[strategy.SquidInk].Product != strategy.SquidInk {
		t.Fatalf("expected product to default to symbol, got %+v", listings[strategy.SquidInk])
	}
	if got := cfg.Products(); len(got) != 3 || got[0] != strategy.Kelp {
		t.Fatalf("unexpected products %v", got)
	}
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("PROSPERITY_DATA_DIR=/from/file\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvMetricsAddr, "")
	t.Setenv(EnvDataDir, "")
	os.Unsetenv(EnvDataDir)

	cfg := Default()
	cfg.App.MetricsAddr = ":9100"
	if err := cfg.ApplyEnv(envFile, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("ApplyEnv returned error: %v", err)
	}
	if cfg.App.LogLevel != "warn" {
		t.Fatalf("expected log level override, got %s", cfg.App.LogLevel)
	}
	if cfg.App.MetricsAddr != "" {
		t.Fatalf("expected metrics to be disabled by an empty override, got %q", cfg.App.MetricsAddr)
	}
	if cfg.Data.Dir != "/from/file" {
		t.Fatalf("expected data dir from env file, got %s", cfg.Data.Dir)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Strategy.Mode = strategy.ModeFull
	cfg.Strategy.Params.BasketVolume = 7
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Strategy.Mode != strategy.ModeFull || loaded.Strategy.Params.BasketVolume != 7 {
		t.Fatalf("unexpected round trip: %+v", loaded.Strategy)
	}
	if loaded.Limits[strategy.Jams] != 350 || len(loaded.Listings) != 8 {
		t.Fatalf("unexpected limits or listings after round trip")
	}
	if err := Save(path, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestShippedConfigLoads(t *testing.T) {
	cfg, err := Load("config.yaml")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Strategy.Params.ToParams() != cfg.Strategy.Params.ToParams().WithDefaults() {
		t.Fatalf("shipped config should spell out every default")
	}
}
