package retention

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/adhocore/gronx"
	"go.uber.org/zap"

	"branchdb/pkg/config"
	"branchdb/pkg/logger"
	"branchdb/pkg/state"
)

var storedEff *config.EffectiveConfigResult

// SetEffectiveConfig stores the effective config so tests (or admin triggers)
// can invoke retention runs on-demand.
func SetEffectiveConfig(eff config.EffectiveConfigResult) {
	storedEff = &eff
}

// RunImmediate triggers a single retention run using the stored effective
// config. Returns an error if no effective config was registered.
func RunImmediate() error {
	if storedEff == nil {
		return fmt.Errorf("no effective config registered for retention run")
	}
	path := retentionArtifactPath()
	if path == "" {
		return fmt.Errorf("state paths not initialized")
	}
	_, err := runOnce(context.Background(), *storedEff, path)
	return err
}

// retentionArtifactPath prefers the artifact-root override (set via
// BRANCHDB_ARTIFACT_ROOT or TEST_ARTIFACTS_ROOT) over the state dir under
// the database path.
func retentionArtifactPath() string {
	if p := state.ArtifactPath("retention"); p != "" {
		return p
	}
	return state.PathsVar.Retention
}

// Start starts the retention scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, eff config.EffectiveConfigResult) (context.CancelFunc, error) {
	ret := eff.Config.Retention

	if !ret.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}

	// Lock and artifact files live under <DBPath>/state/retention unless an
	// artifact root overrides the location.
	retentionPath := retentionArtifactPath()
	if err := os.MkdirAll(retentionPath, 0o700); err != nil {
		logger.Error("retention_path_create_failed", zap.String("path", retentionPath), zap.Error(err))
		return nil, err
	}

	// map empty cron to default daily @02:00
	cronExpr := ret.Cron
	if cronExpr == "" {
		cronExpr = "0 2 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("retention_invalid_cron", zap.String("cron", ret.Cron))
		return nil, fmt.Errorf("invalid retention cron expression: %s", ret.Cron)
	}

	logger.Info("retention_enabled",
		zap.String("cron", cronExpr),
		zap.Duration("period", ret.Period.Duration()),
		zap.String("path", retentionPath))
	ctx2, cancel := context.WithCancel(ctx)

	go runScheduler(ctx2, eff, retentionPath, cronExpr)

	logger.Info("retention_scheduler_started", zap.String("path", retentionPath))
	return cancel, nil
}

// runScheduler uses gronx to compute the next tick for the configured cron
// expression and sleeps until that time.
func runScheduler(ctx context.Context, eff config.EffectiveConfigResult, artifactPath string, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", zap.String("cron", cronExpr), zap.Error(err))
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				logger.Info("retention_scheduler_stopping")
				return
			}
			continue
		}

		wait := time.Until(next)
		if wait <= 0 {
			if _, err := runOnce(ctx, eff, artifactPath); err != nil {
				logger.Error("retention_run_error", zap.Error(err))
			}
			// avoid a tight loop when the tick is already due
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				logger.Info("retention_scheduler_stopping")
				return
			}
			continue
		}

		select {
		case <-time.After(wait):
			if _, err := runOnce(ctx, eff, artifactPath); err != nil {
				logger.Error("retention_run_error", zap.Error(err))
			}
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		}
	}
}
