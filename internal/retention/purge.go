package retention

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"branchdb/pkg/config"
	"branchdb/pkg/logger"
	"branchdb/pkg/models"
	"branchdb/pkg/store"
)

// RunStats summarizes one retention pass.
type RunStats struct {
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	DryRun         bool      `json:"dry_run"`
	ThreadsPurged  int       `json:"threads_purged"`
	MessagesPurged int       `json:"messages_purged"`
	BundlesPurged  int       `json:"bundles_purged"`
	SpinesPurged   int       `json:"spines_purged"`
	NotesPurged    int       `json:"notes_purged"`
	DraftsPurged   int       `json:"drafts_purged"`
	DraftsExpired  int       `json:"drafts_expired"`
}

// runOnce purges the document families of threads that were soft-deleted
// longer ago than the retention period, plus drafts idle past the draft
// period. Live threads are never touched.
func runOnce(ctx context.Context, eff config.EffectiveConfigResult, artifactPath string) (*RunStats, error) {
	ret := eff.Config.Retention
	if ret.Paused {
		logger.Info("retention_paused")
		return &RunStats{}, nil
	}

	period := ret.Period.Duration()
	if period <= 0 {
		period = 30 * 24 * time.Hour
	}
	if min := ret.MinPeriod.Duration(); min > 0 && period < min {
		period = min
	}

	stats := &RunStats{StartedAt: time.Now().UTC(), DryRun: ret.DryRun}
	cutoff := time.Now().Add(-period).UnixMilli()

	threadKeys, err := store.ScanKeys(store.ThreadPrefix)
	if err != nil {
		return nil, err
	}
	for _, k := range threadKeys {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}
		var th models.Thread
		if err := store.GetJSON(k, &th); err != nil {
			continue
		}
		if !th.Deleted || th.DeletedTS > cutoff {
			continue
		}
		if err := purgeThread(&th, ret, stats); err != nil {
			logger.Error("retention_purge_failed", zap.String("thread", th.ID), zap.Error(err))
			continue
		}
		stats.ThreadsPurged++
		if ret.BatchSleepMs > 0 {
			time.Sleep(time.Duration(ret.BatchSleepMs) * time.Millisecond)
		}
	}

	if dp := ret.DraftPeriod.Duration(); dp > 0 {
		expireDrafts(dp, ret.DryRun, stats)
	}

	stats.FinishedAt = time.Now().UTC()
	writeArtifact(artifactPath, stats)
	logger.Info("retention_run_complete",
		zap.Int("threads", stats.ThreadsPurged),
		zap.Int("messages", stats.MessagesPurged),
		zap.Int("drafts_expired", stats.DraftsExpired),
		zap.Bool("dry_run", stats.DryRun))
	return stats, nil
}

// purgeThread deletes every document owned by a thread: messages, bundles,
// transcript spines, notes and their index entries, drafts, and finally the
// thread itself. Everything goes in one batch so a crash mid-purge leaves
// either the whole family or none of it.
func purgeThread(th *models.Thread, ret config.RetentionConfig, stats *RunStats) error {
	msgs := keysOwnedBy(store.MessagePrefix, th.ID, func(raw []byte) string {
		var m models.Message
		if json.Unmarshal(raw, &m) == nil {
			return m.Thread
		}
		return ""
	})
	bundles := keysOwnedBy(store.BundlePrefix, th.ID, func(raw []byte) string {
		var b models.EditBundle
		if json.Unmarshal(raw, &b) == nil {
			return b.Thread
		}
		return ""
	})
	spines := keysOwnedBy(store.EmbeddedThreadPrefix, th.ID, func(raw []byte) string {
		var et models.EmbeddedThread
		if json.Unmarshal(raw, &et) == nil {
			return et.Thread
		}
		return ""
	})
	noteIdx, _ := store.ScanKeys(store.NoteThreadIdxPrefix + th.ID + ":")
	drafts, _ := store.ScanKeys(store.DraftPrefix + th.ID + ":")

	stats.MessagesPurged += len(msgs)
	stats.BundlesPurged += len(bundles)
	stats.SpinesPurged += len(spines)
	stats.NotesPurged += len(noteIdx)
	stats.DraftsPurged += len(drafts)

	if ret.DryRun {
		return nil
	}

	return store.Update(th.ID, func(tx *store.Txn) error {
		for _, k := range msgs {
			if err := tx.Delete(k); err != nil {
				return err
			}
		}
		for _, k := range bundles {
			if err := tx.Delete(k); err != nil {
				return err
			}
		}
		for _, k := range spines {
			if err := tx.Delete(k); err != nil {
				return err
			}
		}
		for _, k := range noteIdx {
			id := strings.TrimPrefix(k, store.NoteThreadIdxPrefix+th.ID+":")
			if err := tx.Delete(store.NoteKey(id)); err != nil {
				return err
			}
			if err := tx.Delete(k); err != nil {
				return err
			}
		}
		for _, k := range drafts {
			if err := tx.Delete(k); err != nil {
				return err
			}
		}
		return tx.Delete(store.ThreadKey(th.ID))
	})
}

// keysOwnedBy scans a prefix and keeps the keys whose document's thread
// field matches the given id.
func keysOwnedBy(prefix, threadID string, threadOf func([]byte) string) []string {
	keys, err := store.ScanKeys(prefix)
	if err != nil {
		return nil
	}
	out := []string{}
	for _, k := range keys {
		raw, err := store.Get(k)
		if err != nil {
			continue
		}
		if threadOf(raw) == threadID {
			out = append(out, k)
		}
	}
	return out
}

func expireDrafts(period time.Duration, dryRun bool, stats *RunStats) {
	cutoff := time.Now().Add(-period).UnixMilli()
	keys, err := store.ScanKeys(store.DraftPrefix)
	if err != nil {
		return
	}
	for _, k := range keys {
		var d models.Draft
		if err := store.GetJSON(k, &d); err != nil {
			continue
		}
		if d.UpdatedTS == 0 || d.UpdatedTS > cutoff {
			continue
		}
		stats.DraftsExpired++
		if dryRun {
			continue
		}
		if err := store.Delete(k); err != nil {
			logger.Error("retention_draft_delete_failed", zap.String("key", k), zap.Error(err))
		}
	}
}

func writeArtifact(dir string, stats *RunStats) {
	if dir == "" {
		return
	}
	b, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return
	}
	path := filepath.Join(dir, "last_run.json")
	if err := os.WriteFile(path, b, 0o600); err != nil {
		logger.Warn("retention_artifact_write_failed", zap.String("path", path), zap.Error(err))
	}
}
