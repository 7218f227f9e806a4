package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetx/internal/amqp"
	"budgetx/internal/cli"
	"budgetx/internal/config"
	applog "budgetx/internal/log"
	"budgetx/internal/services"
	gsheet "budgetx/internal/sheets/google"
	"budgetx/internal/storage"
	"budgetx/internal/store"
	"budgetx/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	logger.Info("Starting budgetx-worker")

	ctx, cancel := cli.GracefulShutdown(logger)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	dbPath, err := cfg.SQLitePath()
	if err != nil {
		return err
	}
	sqliteRepo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return err
	}
	defer sqliteRepo.Close()

	exporter, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		EntriesSheet:    cfg.GoogleEntriesSheet,
		HistorySheet:    cfg.GoogleHistorySheet,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		Logger:          logger.WithComponent(applog.ComponentSheets),
	})
	if err != nil {
		return err
	}
	logger.Info("Google Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(applog.ComponentAMQP))
	if err != nil {
		return err
	}
	defer amqpClient.Close()

	st := store.New(sqliteRepo, logger.WithComponent(applog.ComponentStore))
	exportWorker := worker.NewExportWorker(st, sqliteRepo, exporter, logger)

	// The periodic run covers changes whose notification was lost.
	processor := services.NewExportProcessor(exportWorker, services.ExportProcessorConfig{
		Interval: cfg.ExportInterval,
		Timeout:  time.Minute,
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := amqpClient.ConsumeStateChanged(gctx, exportWorker.HandleStateChanged)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		if err := processor.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		stopCtx, stopCancel := cli.ShutdownContext(30 * time.Second)
		defer stopCancel()
		err := processor.Stop(stopCtx)
		logger.Info("Export loop finished", "export_runs", processor.Runs())
		return err
	})

	return g.Wait()
}
