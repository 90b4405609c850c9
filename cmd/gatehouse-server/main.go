package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gatehouse-project/gatehouse/internal/config"
	"github.com/gatehouse-project/gatehouse/internal/db"
	"github.com/gatehouse-project/gatehouse/internal/export"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/service"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store/sqlite"
	"github.com/gatehouse-project/gatehouse/internal/httpapi"
	"github.com/gatehouse-project/gatehouse/internal/metrics"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "gatehouse-server ", log.LstdFlags|log.LUTC)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer sqlDB.Close()

	if cfg.Env == "dev" {
		if err := db.SeedDev(ctx, sqlDB, db.SeedDevOptions{}); err != nil {
			logger.Fatalf("seed dev roster: %v", err)
		}
	}

	writer := db.NewWorker(sqlDB)
	defer writer.Close()

	// Stores
	tab := sqlite.NewTabularStore(sqlDB, writer)
	personnel := sqlite.NewPersonnelStore(sqlDB)
	ledger := store.NewLedger(tab, cfg.LedgerTable, cfg.ArchiveTable, store.DefaultColumns())
	if err := ledger.EnsureTables(ctx); err != nil {
		logger.Fatalf("ensure ledger tables: %v", err)
	}

	// Engine
	directory := service.NewDirectoryIndex(personnel)
	if err := directory.Rebuild(ctx); err != nil {
		logger.Fatalf("build directory index: %v", err)
	}
	engine := service.NewEngine(ledger, tab, directory, export.NewCSVSink(cfg.ExportDir), logger, service.Options{
		WindowSize: cfg.WindowSize,
		LockWait:   time.Duration(cfg.LockWaitMS) * time.Millisecond,
	})

	// HTTP
	m := metrics.New(prometheus.DefaultRegisterer)
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:  logger,
		Addr:    cfg.HTTPAddr,
		Engine:  engine,
		Metrics: m,
	})

	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
