package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ibeckermayer/threadfeed/internal/config"
	"github.com/ibeckermayer/threadfeed/internal/messenger"
	"github.com/ibeckermayer/threadfeed/internal/types"
)

// Deps are the collaborators every run shares.
type Deps struct {
	Launcher  Launcher
	Logger    *zap.Logger
	History   Recorder
	Artifacts ArtifactSaver
	Notifier  ReportSender
	Sleep     messenger.Sleeper
	Now       func() time.Time
}

// App holds the application state across scheduled runs.
type App struct {
	mu   sync.RWMutex
	deps Deps // immutable after creation

	// Mutable fields - use getSnapshot() for concurrent access.
	config *config.Config

	// load rereads the configuration for ReloadConfig.
	load func() (*config.Config, error)
}

// snapshot holds fields that may be replaced by ReloadConfig.
type snapshot struct {
	config *config.Config
}

// getSnapshot returns a snapshot of mutable fields under read lock.
func (a *App) getSnapshot() snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return snapshot{config: a.config}
}

// New creates a new App instance. load is used by ReloadConfig and may be nil.
func New(cfg *config.Config, load func() (*config.Config, error), deps Deps) *App {
	return &App{
		config: cfg,
		load:   load,
		deps:   deps,
	}
}

// Config returns the configuration the next run will use.
func (a *App) Config() *config.Config {
	return a.getSnapshot().config
}

// Send performs one run with the current configuration.
func (a *App) Send(ctx context.Context) (*types.Report, error) {
	s := a.getSnapshot()
	r := &Runner{
		Config:    s.config,
		Launcher:  a.deps.Launcher,
		Logger:    a.deps.Logger,
		History:   a.deps.History,
		Artifacts: a.deps.Artifacts,
		Notifier:  a.deps.Notifier,
		Sleep:     a.deps.Sleep,
		Now:       a.deps.Now,
	}
	return r.Run(ctx)
}

// ReloadConfig reloads the configuration. An invalid file leaves the
// current configuration in place.
func (a *App) ReloadConfig() error {
	if a.load == nil {
		return nil
	}
	cfg, err := a.load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	a.config = cfg
	a.mu.Unlock()

	if a.deps.Logger != nil {
		a.deps.Logger.Info("Configuration reloaded", zap.String("thread", cfg.Thread.ID))
	}
	return nil
}
