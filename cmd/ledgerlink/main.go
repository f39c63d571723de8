package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/liuming-dev/ledgerlink/internal/cli"
	"github.com/liuming-dev/ledgerlink/internal/infrastructure/config"
	"github.com/liuming-dev/ledgerlink/internal/infrastructure/logging"
	"github.com/liuming-dev/ledgerlink/internal/infrastructure/storage"
	"github.com/liuming-dev/ledgerlink/internal/ledger"
)

func main() {
	// Parse flags
	var (
		configFile = flag.String("config", "", "Configuration file path")
		out        = flag.String("out", "", "Ledger output path (overrides config)")
		dbPath     = flag.String("db", "", "SQLite run-history path (overrides config; empty disables)")
		dryRun     = flag.Bool("dry-run", false, "Match and report without writing the ledger")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		initDir    = flag.String("init", "", "Initialize a ledger directory and exit")
	)
	flag.Parse()

	// Optional .env for local development
	_ = godotenv.Load()

	cfg := loadConfig(*configFile)
	if *out != "" {
		cfg.Ledger.OutputPath = *out
	}
	if *dbPath != "" {
		cfg.Storage.DatabasePath = *dbPath
	}

	logCfg := cfg.Observability.Logging
	if *verbose {
		logCfg.Level = "debug"
	}
	logger := logging.NewLogger(logCfg)

	if *initDir != "" {
		if err := ledger.InitLedger(*initDir, cfg.Ledger.DefaultCurrency); err != nil {
			logger.Error("Failed to initialize ledger", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Ledger initialized", slog.String("dir", *initDir))
		return
	}

	inputs := flag.Args()
	if len(inputs) == 0 {
		logger.Error("No input files or directories given")
		flag.Usage()
		os.Exit(2)
	}

	var store *storage.Store
	if cfg.Storage.DatabasePath != "" {
		var err error
		store, err = storage.NewStore(cfg.Storage.DatabasePath)
		if err != nil {
			logger.Error("Failed to open run history database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() { _ = store.Close() }()
	}

	cli.PrintHeader(*dryRun)

	pipeline := &cli.Pipeline{
		Config: cfg,
		Logger: logger,
		Store:  store,
		DryRun: *dryRun,
	}

	summary, err := pipeline.Run(context.Background(), inputs)
	if err != nil {
		logger.Error("Run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cli.PrintSummary(summary)
}

func loadConfig(configFile string) *config.Config {
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			slog.Error("Failed to load config file",
				slog.String("file", configFile),
				slog.String("error", err.Error()))
			os.Exit(1)
		}
		return cfg
	}
	return config.LoadOrEnv()
}
