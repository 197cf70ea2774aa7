package app

import (
	"log/slog"

	"gsr_go/internal/infra"
	"gsr_go/internal/infra/storage"
	"gsr_go/internal/service"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	Storage *storage.Storage
	States  *service.StateService
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, DB, state)
func (b *Bootstrap) Initialize() error {
	slog.Info("🚀 Bootstrapping GSR Watch...")

	// 1. Load Config
	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage(cfg.Storage.Path)
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("✅ Database initialized")

	// 4. Load persisted state (defaults on first run or corruption)
	states, err := service.NewStateService(store)
	if err != nil {
		return err
	}
	b.States = states
	slog.Info("✅ Application state loaded",
		slog.Int("snapshots", len(states.State().Snapshots)),
		slog.Int("refresh_minutes", states.State().RefreshMinutes))

	return nil
}
