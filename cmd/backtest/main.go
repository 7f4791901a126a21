// Binary backtest replays the configured days of Prosperity market data through a strategy.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"prosperity-go/internal/backtest"
	"prosperity-go/internal/config"
	"prosperity-go/internal/datamodel"
	"prosperity-go/internal/execution"
	"prosperity-go/internal/marketdata"
	"prosperity-go/internal/metrics"
	"prosperity-go/internal/paper"
	"prosperity-go/internal/strategy"
	"prosperity-go/internal/util"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to the YAML config")
	envPath := flag.String("env", ".env", "optional dotenv file")
	mode := flag.String("mode", "", "strategy mode override (resin, round2, squid_trend, full)")
	days := flag.String("days", "", "comma separated days override, e.g. -1,0,1")
	output := flag.String("out", "", "submission log path override")
	console := flag.Bool("console", false, "human readable log output")
	flag.Parse()

	log := util.NewLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.ApplyEnv(*envPath); err != nil {
		log.Fatal().Err(err).Msg("load env")
	}
	log = util.NewLoggerTo(os.Stdout, cfg.App.LogLevel, *console)

	if *mode != "" {
		cfg.Strategy.Mode = *mode
	}
	if *days != "" {
		parsed, err := parseDays(*days)
		if err != nil {
			log.Fatal().Err(err).Msg("parse days")
		}
		cfg.Data.Days = parsed
	}
	if *output != "" {
		cfg.Backtest.OutputLog = *output
	}

	if srv := metrics.Serve(cfg.App.MetricsAddr); srv != nil {
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ledger := paper.NewLedger(1024)
	recorders := paper.MultiRecorder{ledger}
	var jsonl *paper.JSONLRecorder
	if cfg.Backtest.FillsPath != "" {
		jsonl, err = paper.NewJSONLRecorder(cfg.Backtest.FillsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open fills recorder")
		}
		defer jsonl.Close()
		recorders = append(recorders, jsonl)
	}

	limits := cfg.RiskLimits()
	trader := strategy.Build(cfg.Strategy.Mode, cfg.Strategy.Params.ToParams(), limits, log)
	fair := make(map[datamodel.Product]backtest.FairFunc, len(cfg.Backtest.FairMarks))
	for product, v := range cfg.Backtest.FairMarks {
		fair[product] = backtest.Fixed(v)
	}
	log.Info().Str("trader", trader.Name()).Ints("days", cfg.Data.Days).Msg("backtest starting")

	var results []*backtest.Result
	for _, day := range cfg.Data.Days {
		book, tape, err := marketdata.LoadDay(cfg.Data.PricesPath(day), cfg.Data.TradesPath(day))
		if err != nil {
			log.Fatal().Err(err).Int("day", day).Msg("load market data")
		}
		if tape == nil {
			log.Warn().Int("day", day).Msg("no trade file; matching against the book only")
		}
		bt := &backtest.Backtester{
			Trader:    trader,
			Listings:  cfg.ListingMap(),
			Limits:    limits,
			FairMarks: fair,
			Book:      book,
			Trades:    tape,
			Recorder:  recorders,
			Log:       log,
		}
		res, err := bt.Run(ctx)
		if err != nil {
			log.Fatal().Err(err).Int("day", day).Msg("backtest failed")
		}
		printDay(res)
		results = append(results, res)
	}

	combined := backtest.Combine(results...)
	printVolume(ledger.Volume())
	fmt.Printf("Total profit: %s\n", combined.Total.StringFixed(1))

	if cfg.Backtest.OutputLog != "" {
		if err := writeLog(cfg.Backtest.OutputLog, combined); err != nil {
			log.Fatal().Err(err).Msg("write submission log")
		}
		log.Info().Str("path", cfg.Backtest.OutputLog).Msg("submission log written")
	}
	if jsonl != nil {
		log.Info().Str("path", cfg.Backtest.FillsPath).Int("fills", jsonl.Count()).Msg("fills recorded")
	}
}

func parseDays(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		day, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid day %q: %w", part, err)
		}
		out = append(out, day)
	}
	return out, nil
}

func printDay(res *backtest.Result) {
	fmt.Printf("\nDay %d (run %s)\n", res.Day, res.RunID)
	for _, product := range res.Products() {
		fmt.Printf("  %-16s %12s  pos %d\n", product, res.PnL[product].StringFixed(1), res.Positions[product])
	}
	fmt.Printf("  %-16s %12s  rejected %d\n", "TOTAL", res.Total.StringFixed(1), res.Rejected)
}

func printVolume(volume map[string]map[execution.Side]int) {
	symbols := make([]string, 0, len(volume))
	for sym := range volume {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	fmt.Println("\nTraded volume")
	for _, sym := range symbols {
		fmt.Printf("  %-16s bought %6d  sold %6d\n", sym, volume[sym][execution.Buy], volume[sym][execution.Sell])
	}
}

func writeLog(path string, res *backtest.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create log: %w", err)
	}
	if err := res.WriteLog(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
