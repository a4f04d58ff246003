package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/backbot/config"
	"github.com/alejandrodnm/backbot/internal/adapters/gateway"
	"github.com/alejandrodnm/backbot/internal/adapters/notify"
	"github.com/alejandrodnm/backbot/internal/adapters/storage"
	"github.com/alejandrodnm/backbot/internal/backtest"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print the full trade table (default: compact summary)")
	listRuns := flag.Bool("list", false, "list stored runs and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *listRuns {
		printRuns(ctx, store)
		return
	}

	start, end, err := cfg.Window()
	if err != nil {
		slog.Error("invalid backtest window", "err", err)
		os.Exit(1)
	}

	slog.Info("backbot starting",
		"config", *configPath,
		"start", start,
		"end", end,
		"step", cfg.Step(),
		"fees", cfg.FeesEnabled(),
		"interest", cfg.Backtest.EnableInterest,
	)

	limiter, err := gateway.NewRateLimiter(gateway.Tier(cfg.API.Tier), cfg.API.QPS, cfg.API.Per10s)
	if err != nil {
		slog.Error("invalid rate limit config", "err", err)
		os.Exit(1)
	}
	client := gateway.NewClient(cfg.API.BaseURL, cfg.API.APIKey, limiter)

	runner, err := backtest.NewRunner(backtest.Config{
		StartTime:       start,
		EndTime:         end,
		Step:            cfg.Step(),
		InitialCash:     cfg.Backtest.InitialCash,
		DisableFees:     !cfg.FeesEnabled(),
		EnableInterest:  cfg.Backtest.EnableInterest,
		InterestAPY:     cfg.Backtest.InterestAPY,
		KalshiMakerPays: cfg.Backtest.KalshiMakerFee,
	}, client, newMidpointStrategy())
	if err != nil {
		slog.Error("failed to build runner", "err", err)
		os.Exit(1)
	}

	result, runErr := runner.Run(ctx)
	if runErr != nil {
		// El run abortó en un tick; el resultado parcial sigue siendo válido.
		slog.Error("backtest aborted", "err", runErr, "ticks", len(result.EquityCurve))
	}

	if err := store.SaveRun(ctx, result); err != nil {
		slog.Error("failed to persist run", "err", err, "run_id", result.RunID)
	}

	reporter := notify.NewConsole(*table)
	if err := reporter.Report(ctx, result); err != nil {
		slog.Warn("reporter error", "err", err)
	}

	if runErr != nil {
		os.Exit(1)
	}
	slog.Info("backtest complete", "run_id", result.RunID, "final_value", result.FinalValue)
}

func printRuns(ctx context.Context, store *storage.SQLiteStorage) {
	runs, err := store.ListRuns(ctx)
	if err != nil {
		slog.Error("failed to list runs", "err", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		slog.Info("no stored runs")
		return
	}
	for _, r := range runs {
		slog.Info("run",
			"run_id", r.RunID,
			"window", r.StartTime.Format("2006-01-02")+" → "+r.EndTime.Format("2006-01-02"),
			"initial", r.InitialCash,
			"final", r.FinalValue,
			"trades", r.TradeCount,
			"completed", r.Completed,
		)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
