package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/triage-ai/querygate/internal/apirisk"
	"github.com/triage-ai/querygate/internal/auth"
	"github.com/triage-ai/querygate/internal/config"
	"github.com/triage-ai/querygate/internal/database"
	"github.com/triage-ai/querygate/internal/engine"
	"github.com/triage-ai/querygate/internal/mgmtapi"
	"github.com/triage-ai/querygate/internal/migration"
	"github.com/triage-ai/querygate/internal/safety"
	"github.com/triage-ai/querygate/internal/server"
	"github.com/triage-ai/querygate/internal/storage"
	"github.com/triage-ai/querygate/internal/validator"
)

func main() {
	configFile := flag.String("config", "", "optional config file path")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := mustBuildLogger(cfg.LogLevel)
	defer logger.Sync() //nolint:errcheck // best-effort flush

	logger.Info("starting querygate server",
		zap.String("addr", cfg.ListenAddr),
		zap.Bool("database_surface", cfg.PostgresDSN != ""),
		zap.Bool("api_surface", cfg.ManagementAPIToken != ""),
	)

	// Audit sink, ClickHouse or log fallback
	var writer storage.EventWriter
	if cfg.ClickHouseDSN != "" {
		chWriter, err := storage.NewClickHouseWriter(cfg.ClickHouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse connection failed, falling back to log writer",
				zap.Error(err),
			)
			writer = storage.NewLogWriter(logger)
		} else {
			writer = chWriter
			logger.Info("clickhouse writer connected")
		}
	} else {
		writer = storage.NewLogWriter(logger)
		logger.Info("no clickhouse DSN set, using log writer")
	}
	defer writer.Close()

	safetyMgr := safety.NewManager(logger)
	defer safetyMgr.Close()

	// Database surface
	var queries *engine.QueryManager
	if cfg.PostgresDSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := database.NewPoolClient(ctx, cfg.PostgresDSN, logger)
		cancel()
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer client.Close()

		var migrationOpts []migration.Option
		if cfg.LedgerTable != "" {
			migrationOpts = append(migrationOpts, migration.WithLedgerTable(cfg.LedgerTable))
		}
		queries = engine.NewQueryManager(
			client,
			safetyMgr,
			validator.NewClassifier(),
			migration.NewManager(migrationOpts...),
			writer,
			logger,
		)
		logger.Info("database surface enabled")
	} else {
		logger.Info("no postgres DSN set, database surface disabled")
	}

	// Management API surface
	var api *engine.APIManager
	if cfg.ManagementAPIToken != "" {
		api = engine.NewAPIManager(
			mgmtapi.NewClient(cfg.ManagementAPIURL, cfg.ManagementAPIToken, logger),
			safetyMgr,
			apirisk.NewClassifier(),
			writer,
			logger,
		)
		logger.Info("api surface enabled", zap.String("base_url", cfg.ManagementAPIURL))
	} else {
		logger.Info("no management API token set, api surface disabled")
	}

	// Caller auth, bcrypt hash or static fallback
	var authenticator auth.Authenticator
	if cfg.APIKeyHash != "" {
		authenticator = auth.NewKeyAuthenticator(cfg.APIKeyHash)
	} else {
		authenticator = auth.NewStaticAuthenticator()
		logger.Warn("no API key hash configured, accepting all callers")
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.New(queries, api, safetyMgr, writer, authenticator, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}()

	logger.Info("querygate server listening", zap.String("addr", cfg.ListenAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("http server failed", zap.Error(err))
	}
}

func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}
