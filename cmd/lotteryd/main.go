package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"potlottery/config"
	"potlottery/core"
	"potlottery/core/events"
	"potlottery/core/state"
	"potlottery/crypto"
	"potlottery/observability/logging"
	telemetry "potlottery/observability/otel"
	"potlottery/rpc"
	"potlottery/services/history"
	"potlottery/services/scheduler"
	"potlottery/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file (TOML or YAML)")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(config.EnvEnvironment))
	cfg, err := config.Load(*configFile)
	if err != nil {
		logging.Setup("lotteryd", env).Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger, logCloser := logging.SetupWithOptions("lotteryd", env, logging.Options{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, env, logger); err != nil {
		logger.Error("lotteryd exited with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("lotteryd stopped")
}

func run(ctx context.Context, cfg *config.Config, env string, logger *slog.Logger) error {
	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "lotteryd",
		Environment: env,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	db, err := storage.Open(cfg.Storage.Backend, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	bus := events.NewBus()
	exec := core.NewExecutor(state.NewManager(db), bus)

	ledger, err := newLedger(cfg, exec, bus)
	if err != nil {
		return err
	}
	engine, err := newLottery(cfg, exec, ledger, bus)
	if err != nil {
		return err
	}
	logger.Info("lottery ready",
		"owner", crypto.AddressFromArray(engine.Owner()).String(),
		"account", crypto.AddressFromArray(engine.Account()).String(),
		"feeBps", engine.FeeBps(),
		"cooldown", engine.Cooldown().String(),
		"randomness", cfg.Lottery.Randomness,
		"storage", cfg.Storage.Backend)
	if strings.EqualFold(cfg.Lottery.Randomness, config.RandomnessBeacon) {
		logger.Warn("deterministic beacon randomness enabled; draws are reproducible from the seed",
			logging.MaskField("beacon_seed", cfg.Lottery.BeaconSeed))
	}

	store, err := history.Open(cfg.History.Driver, cfg.History.DSN, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("history close failed", slog.Any("error", err))
		}
	}()
	logger.Info("history store ready",
		"driver", cfg.History.Driver,
		"dsn", logging.RedactDSN(cfg.History.DSN))
	go store.Run(ctx, bus)
	go recordEventMetrics(ctx, bus)

	if cfg.Scheduler.Enabled {
		manager, err := cfg.SchedulerIdentity()
		if err != nil {
			return err
		}
		sched, err := scheduler.New(exec, engine, exec.State(), manager, cfg.Scheduler.Interval.Duration, logger)
		if err != nil {
			return err
		}
		go sched.Run(ctx)
	}

	server, err := rpc.NewServer(rpc.Deps{
		Executor: exec,
		Lottery:  engine,
		Token:    ledger,
		Bus:      bus,
		History:  store,
		Logger:   logger,
	}, rpc.ServerConfig{
		Auth: rpc.AuthConfig{
			HMACSecret: cfg.Auth.HMACSecret,
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
			ClockSkew:  cfg.Auth.AllowedSkew.Duration,
		},
		RateLimit: rpc.RateLimitConfig{
			RequestsPerMinute: float64(cfg.RateLimit.RequestsPerMinute),
			Burst:             cfg.RateLimit.Burst,
		},
	})
	if err != nil {
		return err
	}
	if err := server.Start(ctx, cfg.ListenAddress); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
