package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"betmetrics/internal/amqp"
	"betmetrics/internal/cli"
	apphttp "betmetrics/internal/http"
	"betmetrics/internal/ingest/excel"
	applog "betmetrics/internal/log"
	"betmetrics/internal/services"
	"betmetrics/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	cfg := cli.LoadAndValidateConfig(logger)

	// Audit store keeps upload and export metadata only; bet records
	// stay in memory for the life of a session.
	auditRepo := cli.InitAuditRepository(logger, cfg.SQLiteDBPath)
	defer auditRepo.Close()

	// AMQP is optional: without it the service runs fine, report
	// exports are just unavailable.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Report exports disabled - no AMQP_URL provided")
	}

	sessions := session.NewStore(cfg.MaxSessions, cfg.SessionTTL)
	sessions.StartCleanup(cfg.CleanupInterval)
	defer sessions.Stop()

	svc := services.NewAnalysisService(excel.New(), sessions, auditRepo, amqpClient)

	httpLogger := applog.New(applog.Config{Component: applog.ComponentHTTP})
	srv := apphttp.NewServer(":"+cfg.Port, svc, sessions, apphttp.Config{
		MaxUploadBytes:           cfg.MaxUploadBytes,
		RateLimitPerMin:          cfg.RateLimitPerMin,
		RateLimitCleanupInterval: cfg.RateLimitCleanupInterval,
		RateLimitClientTTL:       cfg.RateLimitClientTTL,
	}, httpLogger)

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting betmetrics server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
