package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/quantive/dca-backtest/internal/monitoring"
	"github.com/quantive/dca-backtest/internal/strategy"
	"github.com/quantive/dca-backtest/pkg/data"
	"github.com/quantive/dca-backtest/pkg/orchestrator"
)

func main() {
	// Optional .env for local defaults like DATA_DIR
	if err := godotenv.Load(); err == nil {
		log.Println("📁 Loaded environment from .env")
	}

	flags := parseFlags()

	cfg, err := flags.buildConfig()
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	dataDir := flags.dataDir
	if env := os.Getenv("DATA_DIR"); env != "" && dataDir == "data" {
		dataDir = env
	}

	if flags.metricsAddr != "" {
		go serveMetrics(flags.metricsAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := orchestrator.New(strategy.DefaultRegistry(), data.NewCSVProvider(dataDir))
	opts := orchestrator.RunOptions{
		StrategyName:     flags.strategyName,
		OutputDir:        flags.outputDir,
		LogDir:           flags.logDir,
		ShowProgress:     flags.showProgress,
		ShowTransactions: flags.showTrades,
		WriteJSON:        flags.writeJSON,
		WriteCSV:         flags.writeCSV,
		WriteExcel:       flags.writeExcel,
	}

	if flags.compare {
		if _, err := orch.RunComparison(ctx, cfg, opts); err != nil {
			log.Fatalf("❌ Comparison failed: %v", err)
		}
		return
	}
	if _, err := orch.RunBacktest(ctx, cfg, opts); err != nil {
		log.Fatalf("❌ Backtest failed: %v", err)
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.NewMetricsHandler())
	log.Printf("📊 Serving metrics on %s/metrics", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("⚠️ Metrics server stopped: %v", err)
	}
}
