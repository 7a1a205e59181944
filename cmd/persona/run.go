package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/persona/internal/config"
	"github.com/GriffinCanCode/persona/internal/logging"
	"github.com/GriffinCanCode/persona/internal/memory"
	"github.com/GriffinCanCode/persona/internal/monitoring"
	"github.com/GriffinCanCode/persona/internal/persona"
	"github.com/GriffinCanCode/persona/internal/ptyproc"
	"github.com/GriffinCanCode/persona/internal/server"
	"github.com/GriffinCanCode/persona/internal/session"
	"github.com/GriffinCanCode/persona/internal/tui"
)

func runUI(ctx context.Context, opts rootOptions) error {
	var loadErr error
	cfg, cfgPath, err := loadConfig(opts.configPath, func(err error) { loadErr = err })
	if err != nil {
		return err
	}
	applyFlags(cfg, opts)

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{cfg.LogFile()},
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if loadErr != nil {
		logger.Warn("Failed to load config, using defaults", zap.String("path", cfgPath), zap.Error(loadErr))
	} else {
		logger.Info("Config loaded", zap.String("path", cfgPath))
	}

	if _, err := config.EnsureDataDir(logger); err != nil {
		logger.Warn("Data directory unavailable", zap.Error(err))
	}
	workDir := config.WorkingDir(opts.dev)
	personas := persona.LoadDir(cfg.Personas.Directory, logger.Named("persona"))
	logger.Info("Personas loaded",
		zap.String("dir", cfg.Personas.Directory),
		zap.Int("count", len(personas)),
		zap.String("working_dir", workDir))

	metrics := monitoring.NewMetrics()
	registry := session.NewRegistry(
		session.PtySpawner(ptyproc.Options{
			Agent:      cfg.Agent.Command,
			WorkingDir: workDir,
			Env:        cfg.Agent.Env,
		}),
		session.WithLogger(logger.Named("session")),
		session.WithMetrics(metrics),
	)
	registry.SetInitialSize(cfg.Terminal.InitialCols, cfg.Terminal.InitialRows)
	defer registry.DestroyAll()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Control.Enabled {
		srv := server.New(server.Config{
			Address:      cfg.Control.Address,
			Development:  opts.dev,
			AllowOrigins: cfg.Control.AllowOrigins,
			RateLimit:    cfg.Control.RateLimit,
			Burst:        int(cfg.Control.RateLimit) * 2,
		}, registry, personas, metrics, logger)
		go func() {
			if err := srv.Run(ctx); err != nil {
				logger.Error("Control server stopped", zap.Error(err))
			}
		}()
	}

	model := tui.New(tui.Options{
		Config:     cfg,
		ConfigPath: cfgPath,
		Personas:   personas,
		Registry:   registry,
		Memory:     newMemoryClient(cfg, logger, metrics),
		Logger:     logger,
	})

	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		logger.Info("Interrupted, shutting down")
		return nil
	}
	return err
}

func applyFlags(cfg *config.Config, opts rootOptions) {
	if opts.agent != "" {
		cfg.Agent.Command = opts.agent
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = strings.ToLower(opts.logLevel)
	}
}

// newMemoryClient returns nil when no server is configured, which disables
// search in the UI.
func newMemoryClient(cfg *config.Config, logger *logging.Logger, metrics *monitoring.Metrics) tui.MemoryService {
	if cfg.Berry.ServerURL == "" {
		return nil
	}
	return memory.New(memory.Config{
		BaseURL:   cfg.Berry.ServerURL,
		Timeout:   time.Duration(cfg.Berry.TimeoutSeconds) * time.Second,
		Retries:   cfg.Berry.Retries,
		RateLimit: cfg.Berry.RateLimit,
	}, memory.WithLogger(logger), memory.WithMetrics(metrics))
}
