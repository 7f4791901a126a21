// Binary analyze computes the picnic basket spread study and optionally streams it to chart clients.
package main

import (
	"context"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"prosperity-go/internal/analysis"
	"prosperity-go/internal/config"
	"prosperity-go/internal/marketdata"
	"prosperity-go/internal/stream"
	"prosperity-go/internal/util"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to the YAML config")
	envPath := flag.String("env", ".env", "optional dotenv file")
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

	var rows []marketdata.PriceRow
	for _, day := range cfg.Data.Days {
		dayRows, err := marketdata.LoadPricesFile(cfg.Data.PricesPath(day))
		if err != nil {
			log.Fatal().Err(err).Int("day", day).Msg("load prices")
		}
		rows = append(rows, dayRows...)
	}
	pivot := analysis.NewPivot(rows)
	points := analysis.BasketSpreads(pivot, cfg.Analysis.Window)
	log.Info().Int("points", len(points)).Strs("products", pivot.Products()).Msg("spreads computed")

	if cfg.Analysis.CSVPath != "" {
		f, err := os.Create(cfg.Analysis.CSVPath)
		if err != nil {
			log.Fatal().Err(err).Msg("create csv")
		}
		if err := analysis.WriteCSV(f, points); err != nil {
			log.Fatal().Err(err).Msg("write csv")
		}
		if err := f.Close(); err != nil {
			log.Fatal().Err(err).Msg("close csv")
		}
		log.Info().Str("path", cfg.Analysis.CSVPath).Msg("spreads written")
	}

	if cfg.Analysis.StreamAddr == "" {
		return
	}
	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	hub := stream.NewHub(log)
	srv := stream.Serve(cfg.Analysis.StreamAddr, cfg.Analysis.StreamPath, hub)
	log.Info().Str("addr", cfg.Analysis.StreamAddr).Str("path", cfg.Analysis.StreamPath).Msg("stream up; waiting for clients")
	defer func() {
		hub.Close()
		shutdown, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		_ = srv.Shutdown(shutdown)
	}()

	pace := time.Duration(cfg.Analysis.StreamPaceMs) * time.Millisecond
	if pace <= 0 {
		pace = 10 * time.Millisecond
	}
	ticker := time.NewTicker(pace)
	defer ticker.Stop()
	for hub.Clients() == 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
	for _, pt := range points {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := hub.Broadcast(pt); err != nil {
			log.Warn().Err(err).Int("time", pt.Time).Msg("broadcast failed")
		}
	}
	log.Info().Msg("stream finished; Ctrl+C to exit")
	<-ctx.Done()
}
