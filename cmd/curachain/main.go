package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"curachain/api/server"
	"curachain/core/audit"
	"curachain/core/auth"
	"curachain/core/config"
	"curachain/core/crowdfund"
	"curachain/core/genesis"
	"curachain/core/ledger"
	"curachain/core/notify"
	"curachain/core/storage"
	"curachain/core/validation"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "curachain: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := config.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	logger.Info("starting curachain node", "version", server.NodeVersion(), "driver", cfg.StorageDriver, "data_dir", cfg.DataDir)

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	store, err := storage.Open(cfg.StorageDriver, cfg.StoragePath())
	if err != nil {
		return err
	}
	defer store.Close()
	if cfg.DataKey != "" {
		dek, err := storage.DecodeDataKey(cfg.DataKey)
		if err != nil {
			return err
		}
		if store, err = storage.NewSealedStore(store, dek); err != nil {
			return err
		}
		logger.Info("ledger values sealed at rest")
	}

	l, err := ledger.New(store, ledger.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := l.VerifyChain(); err != nil {
		return fmt.Errorf("ledger integrity: %w", err)
	}

	gcfg, err := genesis.LoadConfig(cfg.GenesisPath)
	if err != nil {
		return err
	}
	auditLogger := audit.NewSlogAuditLogger(logger)
	engine, err := crowdfund.NewEngine(l,
		crowdfund.WithThresholds(gcfg.VotingThresholds()),
		crowdfund.WithAuditLogger(auditLogger),
		crowdfund.WithNotifier(notify.NewLogNotifier(logger)),
		crowdfund.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := genesis.Bootstrap(ctx, engine, gcfg, &genesis.Journal{Path: cfg.JournalPath()}, logger)
	if err != nil {
		return err
	}
	logger.Info("genesis applied",
		"admin_initialized", res.AdminInitialized,
		"registry_initialized", res.RegistryInitialized,
		"verifiers_added", len(res.VerifiersAdded),
		"head", l.Head().Seq)

	validator, err := validation.NewValidator(logger)
	if err != nil {
		return err
	}
	authorizer := &auth.Authorizer{
		Verifier:    auth.NewTokenVerifier([]byte(cfg.JWTSecret), cfg.JWTIssuer),
		AuditLogger: auditLogger,
	}
	srv := server.NewServer(engine, authorizer, validator, server.Options{
		ListenAddr:  cfg.APIListenAddr,
		DataDir:     cfg.DataDir,
		EnableHTTPS: cfg.EnableHTTPS,
		TLSCertPath: cfg.TLSCertPath,
		TLSKeyPath:  cfg.TLSKeyPath,
		Logger:      logger,
	})
	return srv.Start(ctx)
}
