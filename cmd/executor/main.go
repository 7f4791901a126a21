// Binary executor runs the configured trader for a single tick: it reads a TradingState as JSON on
// stdin and writes the orders, conversions and traderData it returns as JSON on stdout.
package main

import (
	"encoding/json"
	"flag"
	"os"

	"prosperity-go/internal/config"
	"prosperity-go/internal/datamodel"
	"prosperity-go/internal/execution"
	"prosperity-go/internal/strategy"
	"prosperity-go/internal/util"
)

type output struct {
	Orders      map[datamodel.Symbol][]datamodel.Order `json:"orders"`
	Conversions int                                    `json:"conversions"`
	TraderData  string                                 `json:"traderData"`
}

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to the YAML config")
	mode := flag.String("mode", "", "strategy mode override")
	flag.Parse()

	// logs go to stderr so stdout stays a single JSON document
	log := util.NewLoggerTo(os.Stderr, "info", true)
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.ApplyEnv(".env"); err != nil {
		log.Fatal().Err(err).Msg("load env")
	}
	log = util.NewLoggerTo(os.Stderr, cfg.App.LogLevel, true)
	if *mode != "" {
		cfg.Strategy.Mode = *mode
	}

	var state datamodel.TradingState
	if err := json.NewDecoder(os.Stdin).Decode(&state); err != nil {
		log.Fatal().Err(err).Msg("decode trading state")
	}
	trader := strategy.Build(cfg.Strategy.Mode, cfg.Strategy.Params.ToParams(), cfg.RiskLimits(), log)
	res, err := trader.Run(&state)
	if err != nil {
		log.Fatal().Err(err).Str("trader", trader.Name()).Msg("run trader")
	}

	exec := execution.NewExecutor(log)
	for _, orders := range res.Orders {
		for _, o := range orders {
			_ = exec.Submit(state.Timestamp, o)
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output{Orders: res.Orders, Conversions: res.Conversions, TraderData: res.TraderData}); err != nil {
		log.Fatal().Err(err).Msg("encode result")
	}
}
