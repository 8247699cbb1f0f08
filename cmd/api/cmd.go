package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/GregMSThompson/bizledger/internal/bootstrap"
	"github.com/GregMSThompson/bizledger/internal/config"
	"github.com/GregMSThompson/bizledger/internal/handlers"
	"github.com/GregMSThompson/bizledger/internal/response"
	"github.com/GregMSThompson/bizledger/internal/router"
	"github.com/GregMSThompson/bizledger/internal/services"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	_ = godotenv.Load()

	// config
	cfg := config.New()
	exitOnError("invalid configuration", cfg.Validate(), slog.Default())
	loc := cfg.Location()

	// bootstrap
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	// services
	anserv := services.NewAnalyticsService(bs.Transactions, bs.Invoices, cfg.DemoBusinessToken, loc)
	txserv := services.NewTransactionService(bs.Transactions, bs.Events, cfg.DemoBusinessToken, loc)
	invserv := services.NewInvoiceService(bs.Invoices, bs.Transactions, bs.Events, cfg.DemoBusinessToken, loc)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = response.New(bs.Log)
	deps.AnalyticsSvc = anserv
	deps.TransactionSvc = txserv
	deps.InvoiceSvc = invserv
	if bs.VertexAdapter != nil {
		deps.AISvc = services.NewAIService(bs.VertexAdapter, anserv, txserv, invserv, bs.AIMessages, cfg.AITTL, cfg.DemoBusinessToken, loc)
	}

	// router
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router.NewRouter(deps, cfg.DemoBusinessToken),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		bs.Log.Info("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			bs.Log.Error("server start failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	bs.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		bs.Log.Error("graceful shutdown failed", "error", err)
	}
}
