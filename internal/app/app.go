package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/joho/godotenv"

	"branchdb/internal/retention"
	"branchdb/pkg/api/handlers"
	"branchdb/pkg/branch"
	"branchdb/pkg/config"
	"branchdb/pkg/state"
	"branchdb/pkg/store"
	"branchdb/pkg/validation"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	srv           *http.Server
	stopRetention context.CancelFunc
}

// New initializes resources that do not require a running context: the
// store, runtime keys, validation limits and account defaults. Call Run to
// start the HTTP server and retention scheduler and block until shutdown.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	_ = godotenv.Load(".env")

	// validate effective config early and fail fast
	if err := validateConfig(eff); err != nil {
		return nil, err
	}

	// runtime keys
	runtimeCfg := &config.RuntimeConfig{BackendKeys: map[string]struct{}{}, SigningKeys: map[string]struct{}{}}
	for _, k := range eff.Config.Security.APIKeys.Backend {
		runtimeCfg.BackendKeys[k] = struct{}{}
		runtimeCfg.SigningKeys[k] = struct{}{}
	}
	config.SetRuntime(runtimeCfg)

	initLimits(eff)

	handlers.AccountDefaults = branch.Defaults{
		Model:      eff.Config.Defaults.Model,
		TitleModel: eff.Config.Defaults.TitleModel,
	}

	if err := state.EnsureStateDirs(eff.DBPath); err != nil {
		return nil, fmt.Errorf("failed to prepare state dirs under %s: %w", eff.DBPath, err)
	}
	if err := store.Open(state.PathsVar.Store); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", eff.DBPath, err)
	}

	return &App{eff: eff, version: version, commit: commit, buildDate: buildDate}, nil
}

// Run starts the retention scheduler and the HTTP server, and blocks until
// ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	retention.SetEffectiveConfig(a.eff)
	stop, err := retention.Start(ctx, a.eff)
	if err != nil {
		return err
	}
	a.stopRetention = stop

	a.printBanner()

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Close shuts down the HTTP server and store.
func (a *App) Close(ctx context.Context) error {
	if a.stopRetention != nil {
		a.stopRetention()
	}
	if a.srv != nil {
		_ = a.srv.Shutdown(ctx)
	}
	return store.Close()
}

// initLimits installs input bounds from the effective config.
func initLimits(eff config.EffectiveConfigResult) {
	lim := eff.Config.Limits
	l := validation.Limits{
		MaxNameLen:    512,
		MaxPartLen:    1 << 20,
		MaxParts:      64,
		MaxNoteLen:    1 << 16,
		MaxMemoryLen:  4096,
		RequireModel:  true,
		AllowedModels: lim.AllowedModels,
	}
	if lim.MaxNameLen > 0 {
		l.MaxNameLen = lim.MaxNameLen
	}
	if lim.MaxPartBytes > 0 {
		l.MaxPartLen = int(lim.MaxPartBytes.Int64())
	}
	if lim.MaxParts > 0 {
		l.MaxParts = lim.MaxParts
	}
	if lim.MaxNoteBytes > 0 {
		l.MaxNoteLen = int(lim.MaxNoteBytes.Int64())
	}
	validation.SetLimits(l)
}
