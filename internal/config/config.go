// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"prosperity-go/internal/datamodel"
	"prosperity-go/internal/risk"
	"prosperity-go/internal/strategy"
)

// Environment variables that override the YAML file.
const (
	EnvLogLevel    = "PROSPERITY_LOG_LEVEL"
	EnvMetricsAddr = "PROSPERITY_METRICS_ADDR"
	EnvDataDir     = "PROSPERITY_DATA_DIR"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string
	Env         string
	MetricsAddr string
	LogLevel    string
}

// Data locates the price and trade exports. Patterns take the round and the day.
type Data struct {
	Dir           string `yaml:"dir"`
	Round         int    `yaml:"round"`
	Days          []int  `yaml:"days"`
	PricesPattern string `yaml:"prices_pattern"`
	TradesPattern string `yaml:"trades_pattern"`
}

// PricesPath returns the price export for day.
func (d Data) PricesPath(day int) string {
	return filepath.Join(d.Dir, fmt.Sprintf(d.PricesPattern, d.Round, day))
}

// TradesPath returns the trade export for day.
func (d Data) TradesPath(day int) string {
	return filepath.Join(d.Dir, fmt.Sprintf(d.TradesPattern, d.Round, day))
}

// Backtest configures run outputs and fair value overrides.
type Backtest struct {
	OutputLog string             `yaml:"output_log"`
	FillsPath string             `yaml:"fills_path"`
	FairMarks map[string]float64 `yaml:"fair_marks"`
}

// Listing maps a tradable symbol to its product and denomination.
type Listing struct {
	Symbol       string `yaml:"symbol"`
	Product      string `yaml:"product"`
	Denomination string `yaml:"denomination"`
}

// StrategyParams groups tunable knobs for the strategies. Zero values take the built-in defaults.
type StrategyParams struct {
	ResinFairValue      float64 `yaml:"resin_fair_value"`
	ResinSizeMultiplier int     `yaml:"resin_size_multiplier"`
	ResinLayers         int     `yaml:"resin_layers"`
	MinEdge             float64 `yaml:"min_edge"`

	SquidWindow         int     `yaml:"squid_window"`
	SquidSkewDivisor    float64 `yaml:"squid_skew_divisor"`
	SquidSizeMultiplier int     `yaml:"squid_size_multiplier"`

	TrendPeriodTicks     int     `yaml:"trend_period_ticks"`
	TrendEvalLength      int     `yaml:"trend_eval_length"`
	TrendRollingPeriod   int     `yaml:"trend_rolling_period"`
	TrendTickSize        int     `yaml:"trend_tick_size"`
	TrendMaxMove         float64 `yaml:"trend_max_move"`
	TrendWeakThreshold   float64 `yaml:"trend_weak_threshold"`
	TrendStrongThreshold float64 `yaml:"trend_strong_threshold"`
	TrendWeakQty         int     `yaml:"trend_weak_qty"`
	TrendStrongQty       int     `yaml:"trend_strong_qty"`
	TrendWeakPosition    int     `yaml:"trend_weak_position"`
	TrendStrongPosition  int     `yaml:"trend_strong_position"`

	BasketWindow          int     `yaml:"basket_window"`
	BasketThreshold       float64 `yaml:"basket_threshold"`
	BasketDjembeThreshold float64 `yaml:"basket_djembe_threshold"`
	BasketVolume          int     `yaml:"basket_volume"`

	OBILevels      int     `yaml:"obi_levels"`
	OBIThreshold   float64 `yaml:"obi_threshold"`
	OBIWindowTicks int     `yaml:"obi_window_ticks"`
	OBIQty         int     `yaml:"obi_qty"`
}

// ToParams converts the YAML knobs into strategy parameters.
func (p StrategyParams) ToParams() strategy.Params {
	return strategy.Params{
		ResinFairValue:        p.ResinFairValue,
		ResinSizeMultiplier:   p.ResinSizeMultiplier,
		ResinLayers:           p.ResinLayers,
		MinEdge:               p.MinEdge,
		SquidWindow:           p.SquidWindow,
		SquidSkewDivisor:      p.SquidSkewDivisor,
		SquidSizeMultiplier:   p.SquidSizeMultiplier,
		TrendPeriodTicks:      p.TrendPeriodTicks,
		TrendEvalLength:       p.TrendEvalLength,
		TrendRollingPeriod:    p.TrendRollingPeriod,
		TrendTickSize:         p.TrendTickSize,
		TrendMaxMove:          p.TrendMaxMove,
		TrendWeakThreshold:    p.TrendWeakThreshold,
		TrendStrongThreshold:  p.TrendStrongThreshold,
		TrendWeakQty:          p.TrendWeakQty,
		TrendStrongQty:        p.TrendStrongQty,
		TrendWeakPosition:     p.TrendWeakPosition,
		TrendStrongPosition:   p.TrendStrongPosition,
		BasketWindow:          p.BasketWindow,
		BasketThreshold:       p.BasketThreshold,
		BasketDjembeThreshold: p.BasketDjembeThreshold,
		BasketVolume:          p.BasketVolume,
		OBILevels:             p.OBILevels,
		OBIThreshold:          p.OBIThreshold,
		OBIWindowTicks:        p.OBIWindowTicks,
		OBIQty:                p.OBIQty,
	}
}

// Strategy specifies which strategy is active along with the parameter bundle.
type Strategy struct {
	Mode   string
	Params StrategyParams
}

// Analysis configures the basket spread study and its chart stream.
type Analysis struct {
	Window       int    `yaml:"window"`
	CSVPath      string `yaml:"csv_path"`
	StreamAddr   string `yaml:"stream_addr"`
	StreamPath   string `yaml:"stream_path"`
	StreamPaceMs int    `yaml:"stream_pace_ms"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App            `yaml:"app"`
	Data     Data           `yaml:"data"`
	Backtest Backtest       `yaml:"backtest"`
	Listings []Listing      `yaml:"listings"`
	Limits   map[string]int `yaml:"limits"`
	Strategy Strategy       `yaml:"strategy"`
	Analysis Analysis       `yaml:"analysis"`
}

// Default returns the round 2 setup: every product in SEASHELLS with the exchange position limits.
func Default() *Config {
	cfg := &Config{
		App:  App{Name: "prosperity", Env: "dev", LogLevel: "info"},
		Data: Data{Dir: "data", Round: 2, Days: []int{-1, 0, 1}},
		Backtest: Backtest{
			OutputLog: "backtest.log",
			FairMarks: map[string]float64{},
		},
		Limits: map[string]int{
			strategy.RainforestResin: 50,
			strategy.Kelp:            50,
			strategy.SquidInk:        50,
			strategy.Djembes:         60,
			strategy.Jams:            350,
			strategy.Croissants:      250,
			strategy.PicnicBasket1:   60,
			strategy.PicnicBasket2:   100,
		},
		Strategy: Strategy{Mode: strategy.ModeRound2},
		Analysis: Analysis{CSVPath: "spreads.csv", StreamPath: "/stream"},
	}
	for _, product := range cfg.Products() {
		cfg.Listings = append(cfg.Listings, Listing{Symbol: product, Product: product, Denomination: "SEASHELLS"})
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Data.PricesPattern == "" {
		c.Data.PricesPattern = "prices_round_%d_day_%d.csv"
	}
	if c.Data.TradesPattern == "" {
		c.Data.TradesPattern = "trades_round_%d_day_%d.csv"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Analysis.StreamPath == "" {
		c.Analysis.StreamPath = "/stream"
	}
}

// Products lists the products with a configured limit in sorted order.
func (c *Config) Products() []string {
	out := make([]string, 0, len(c.Limits))
	for p := range c.Limits {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// RiskLimits converts the configured limits for the risk layer.
func (c *Config) RiskLimits() risk.Limits {
	limits := risk.Limits{Position: make(map[datamodel.Product]int, len(c.Limits))}
	for p, l := range c.Limits {
		limits.Position[p] = l
	}
	return limits
}

// ListingMap indexes the listings by symbol; nil when none are configured.
func (c *Config) ListingMap() map[datamodel.Symbol]datamodel.Listing {
	if len(c.Listings) == 0 {
		return nil
	}
	out := make(map[datamodel.Symbol]datamodel.Listing, len(c.Listings))
	for _, l := range c.Listings {
		product := l.Product
		if product == "" {
			product = l.Symbol
		}
		out[l.Symbol] = datamodel.Listing{Symbol: l.Symbol, Product: product, Denomination: l.Denomination}
	}
	return out
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.applyDefaults()
	return &config, nil
}

// ApplyEnv loads the given .env files (missing ones are skipped) and applies the PROSPERITY_*
// overrides. Variables already set in the process environment win over the files.
func (c *Config) ApplyEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env %s: %w", f, err)
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.App.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvMetricsAddr); ok {
		c.App.MetricsAddr = strings.TrimSpace(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		c.Data.Dir = v
	}
	return nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
