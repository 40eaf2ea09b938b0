package main

import (
	"context"
	"errors"
	"os"
	"time"

	"expensedash/internal/amqp"
	"expensedash/internal/backend"
	"expensedash/internal/cli"
	applog "expensedash/internal/log"
	"expensedash/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	logger.Info("Starting expensedash sync worker")

	cfg := cli.LoadAndValidateConfig(logger)

	// Local log the server's sqlite backend writes into
	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer sqliteRepo.Close()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	remote, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateRemote(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize sync remote", applog.FieldError, err, "remote", cfg.SyncRemote)
		os.Exit(1)
	}
	logger.Info("Sync remote initialized", "remote", cfg.SyncRemote)

	syncWorker := worker.NewSyncWorker(sqliteRepo, remote, cfg.SyncBatchSize, cfg.SyncInterval, logger.Logger)

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
	} else {
		logger.Info("No AMQP_URL set, relying on the periodic pending sweep")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", applog.FieldError, err)
			}
		}
	})

	// Process anything missed while the worker was down
	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", applog.FieldError, err)
	}

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeRecordSync(ctx, syncWorker.HandleSyncMessage)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", applog.FieldError, err)
			}
		}()
	}

	go syncWorker.Run(ctx)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
