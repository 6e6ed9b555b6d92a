package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"rwdledger/config"
	"rwdledger/core"
	"rwdledger/core/events"
	"rwdledger/core/genesis"
	"rwdledger/observability"
	"rwdledger/observability/logging"
	telemetry "rwdledger/observability/otel"
	"rwdledger/services/rewardsd/journal"
	"rwdledger/services/rewardsd/server"
	"rwdledger/storage"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "rewardsd.toml", "path to rewardsd configuration file")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("rewardsd: load config: %v", err)
	}
	env := cfg.Environment
	if override := strings.TrimSpace(os.Getenv("RWD_ENV")); override != "" {
		env = override
	}

	var fileOpts *logging.FileOptions
	if strings.TrimSpace(cfg.Logging.File) != "" {
		fileOpts = &logging.FileOptions{
			Path:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
			Compress:   cfg.Logging.Compress,
		}
	}
	logger, logCloser := logging.Setup("rewardsd", env, logging.Options{Level: cfg.Logging.Level, File: fileOpts})
	defer logCloser.Close()

	endpoint := cfg.Telemetry.Endpoint
	if value := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")); value != "" {
		endpoint = value
	}
	headers := cfg.Telemetry.Headers
	if value := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")); value != "" {
		headers = value
	}
	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "rewardsd",
		Environment: env,
		Endpoint:    endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(headers),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		fatal(logger, "init telemetry", err)
	}
	defer func() { _ = shutdownTelemetry(context.Background()) }()

	var spec *genesis.GenesisSpec
	var collateral [20]byte
	if path := strings.TrimSpace(cfg.GenesisFile); path != "" {
		spec, err = genesis.LoadGenesisSpec(path)
		if err != nil {
			fatal(logger, "load genesis", err)
		}
		collateral = spec.CollateralMint()
	}
	params, err := cfg.RewardsParams(collateral)
	if err != nil {
		fatal(logger, "resolve program parameters", err)
	}

	db, err := storage.NewLevelDB(cfg.LevelDBPath())
	if err != nil {
		fatal(logger, "open ledger database", err)
	}
	defer db.Close()

	store, err := journal.Open(cfg.Journal.DSN)
	if err != nil {
		fatal(logger, "open journal", err)
	}
	defer store.Close()

	metrics := observability.Rewards()
	feed := events.NewFeed()
	emitter := events.Multi{
		journal.NewEmitter(store, logger),
		feed,
		observability.NewEventMetrics(metrics),
	}
	runtime, err := core.NewRuntime(db, params,
		core.WithEmitter(emitter),
		core.WithLogger(logger),
		core.WithTracer(telemetry.Tracer()),
		core.WithMetrics(metrics))
	if err != nil {
		fatal(logger, "build runtime", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if spec != nil {
		if err := runtime.ApplyGenesis(ctx, spec); err != nil {
			fatal(logger, "apply genesis", err)
		}
	}

	srv, err := server.New(server.Config{
		ListenAddress:     cfg.ListenAddress,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout.Duration,
		ReadTimeout:       cfg.Server.ReadTimeout.Duration,
		WriteTimeout:      cfg.Server.WriteTimeout.Duration,
		IdleTimeout:       cfg.Server.IdleTimeout.Duration,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout.Duration,
		MaxBodyBytes:      cfg.Server.MaxBodyBytes,
		Auth: server.AuthConfig{
			Enabled:    cfg.Auth.RequireReadAuth,
			HMACSecret: os.Getenv(cfg.Auth.JWTSecretEnv),
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
			ClockSkew:  cfg.Auth.ClockSkew.Duration,
		},
		RateLimit: server.RateLimit{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			TrustProxyHeaders: cfg.RateLimit.TrustProxyHeaders,
		},
	}, server.Deps{
		Runtime:  runtime,
		Journal:  store,
		Feed:     feed,
		Metrics:  metrics,
		Gatherer: prometheus.DefaultGatherer,
		Logger:   logger,
	})
	if err != nil {
		fatal(logger, "build server", err)
	}

	if err := srv.Run(ctx); err != nil {
		fatal(logger, "server stopped", err)
	}
	logger.Info("rewardsd stopped")
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error("rewardsd: "+msg, slog.Any("error", err))
	os.Exit(1)
}
