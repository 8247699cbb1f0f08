package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/GregMSThompson/bizledger/internal/bootstrap"
	"github.com/GregMSThompson/bizledger/internal/config"
	"github.com/GregMSThompson/bizledger/internal/seed"
	"github.com/GregMSThompson/bizledger/pkg/logger"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	_ = godotenv.Load()
	cfg := config.New()

	token := flag.String("business", cfg.DemoBusinessToken, "business token to seed")
	reset := flag.Bool("reset", false, "replace existing data where the backend supports it")
	flag.Parse()

	exitOnError("invalid configuration", cfg.Validate(), slog.Default())

	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	log, ctx := logger.With(logger.ToContext(context.Background(), bs.Log), "business_token", *token)
	ds := seed.Generate(*token, time.Now(), cfg.Location())
	log.Info("seeding demo data", "transactions", len(ds.Transactions), "invoices", len(ds.Invoices), "reset", *reset)

	if _, err := seed.Load(ctx, bs.Transactions, bs.Invoices, ds, *reset); err != nil {
		bs.Close()
		exitOnError("seed failed", err, log)
	}
}
