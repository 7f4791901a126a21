package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"prosperity-go/internal/config"
	"prosperity-go/internal/strategy"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== Prosperity Backtest Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit position limits")
		fmt.Println("3) Edit strategy mode and knobs")
		fmt.Println("4) Edit days")
		fmt.Println("5) Save config")
		fmt.Println("6) Launch backtest")
		fmt.Println("7) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(cfg)
		case "2":
			editLimits(reader, cfg)
		case "3":
			editStrategy(reader, cfg)
		case "4":
			editDays(reader, cfg)
		case "5":
			if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "6":
			launchBacktest(reader)
		case "7":
			reloaded, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(cfg *config.Config) {
	p := cfg.Strategy.Params.ToParams().WithDefaults()
	fmt.Println("\n--- Configuration Summary ---")
	fmt.Printf("Data: %s round %d days %v\n", cfg.Data.Dir, cfg.Data.Round, cfg.Data.Days)
	fmt.Printf("Strategy mode: %s\n", cfg.Strategy.Mode)
	fmt.Println("Position limits:")
	for _, product := range cfg.Products() {
		fmt.Printf("  %-16s %d\n", product, cfg.Limits[product])
	}
	fmt.Printf("Resin: fair %.0f, %d layers x%d, min edge %.1f\n", p.ResinFairValue, p.ResinLayers, p.ResinSizeMultiplier, p.MinEdge)
	fmt.Printf("Squid ink: window %d, skew divisor %.1f\n", p.SquidWindow, p.SquidSkewDivisor)
	fmt.Printf("Trend: period %d ticks, eval %d, thresholds %.2f/%.2f\n", p.TrendPeriodTicks, p.TrendEvalLength, p.TrendWeakThreshold, p.TrendStrongThreshold)
	fmt.Printf("Baskets: window %d, z %.2f (djembe %.2f), volume %d\n", p.BasketWindow, p.BasketThreshold, p.BasketDjembeThreshold, p.BasketVolume)
	fmt.Printf("Output log: %s | fills: %s\n", cfg.Backtest.OutputLog, cfg.Backtest.FillsPath)
}

func editLimits(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Position Limits ---")
	if cfg.Limits == nil {
		cfg.Limits = make(map[string]int)
	}
	for _, product := range cfg.Products() {
		cfg.Limits[product] = int(promptFloat(reader, product, float64(cfg.Limits[product])))
	}
	fmt.Print("Add product (blank to skip): ")
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) != "" {
		product := strings.ToUpper(strings.TrimSpace(line))
		cfg.Limits[product] = int(promptFloat(reader, product, 50))
	}
}

func editStrategy(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Strategy ---")
	modes := []string{strategy.ModeResin, strategy.ModeRound2, strategy.ModeSquidTrend, strategy.ModeFull}
	fmt.Printf("Mode (%s) [%s]: ", strings.Join(modes, ", "), cfg.Strategy.Mode)
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) != "" {
		cfg.Strategy.Mode = strings.TrimSpace(line)
	}
	p := &cfg.Strategy.Params
	p.ResinFairValue = promptFloat(reader, "Resin fair value (0 = default)", p.ResinFairValue)
	p.MinEdge = promptFloat(reader, "Minimum edge (0 = default)", p.MinEdge)
	p.SquidWindow = int(promptFloat(reader, "Squid ink window", float64(p.SquidWindow)))
	p.TrendStrongThreshold = promptFloat(reader, "Trend strong threshold", p.TrendStrongThreshold)
	p.TrendWeakThreshold = promptFloat(reader, "Trend weak threshold", p.TrendWeakThreshold)
	p.BasketWindow = int(promptFloat(reader, "Basket z-score window", float64(p.BasketWindow)))
	p.BasketThreshold = promptFloat(reader, "Basket z-score threshold", p.BasketThreshold)
	p.BasketVolume = int(promptFloat(reader, "Basket volume", float64(p.BasketVolume)))
}

func editDays(reader *bufio.Reader, cfg *config.Config) {
	fmt.Printf("Days comma-separated %v (blank to keep): ", cfg.Data.Days)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	var days []int
	for _, part := range strings.Split(line, ",") {
		day, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			fmt.Printf("invalid day %q, keeping %v\n", part, cfg.Data.Days)
			return
		}
		days = append(days, day)
	}
	cfg.Data.Days = days
}

func launchBacktest(reader *bufio.Reader) {
	fmt.Println("Launching backtest (ENTER to abort)...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/backtest", "-config", locateConfig(), "-console")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start backtest: %v\n", err)
		return
	}

	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()
	aborted := make(chan struct{})
	go func() {
		_, _ = reader.ReadString('\n')
		close(aborted)
	}()

	select {
	case <-done:
		fmt.Println("\nbacktest finished; press ENTER to return to menu")
		<-aborted
	case <-aborted:
		cancel()
		<-done
		time.Sleep(100 * time.Millisecond)
	}
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.2f]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.2f\n", current)
		return current
	}
	return val
}

func loadConfig() (*config.Config, error) {
	return config.Load(locateConfig())
}

func saveConfig(cfg *config.Config) error {
	return config.Save(locateConfig(), cfg)
}

func locateConfig() string {
	if filepath.IsAbs(defaultConfigPath) {
		return defaultConfigPath
	}
	return filepath.Clean(defaultConfigPath)
}
