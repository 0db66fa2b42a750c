// Package reconcile aligns the ledger, the archive, and the artifacts on
// disk into one consistent view. Physical evidence always wins: an
// artifact or archive entry promotes a ledger row, while demotion is an
// explicit operator action, never an automatic one.
package reconcile

import (
	"fmt"

	"yt-batch-archiver/internal/archive"
	"yt-batch-archiver/internal/ledger"
	"yt-batch-archiver/internal/logger"
	"yt-batch-archiver/internal/model"
	"yt-batch-archiver/internal/verify"
)

// Reconciler is the only component that writes across the ledger and the
// archive in a single logical operation.
type Reconciler struct {
	ledger    *ledger.Ledger
	archive   *archive.Store
	verifier  *verify.Verifier
	outputDir string
	extraDirs []string
	log       *logger.Logger
}

func New(l *ledger.Ledger, a *archive.Store, v *verify.Verifier, outputDir string, extraDirs []string, log *logger.Logger) *Reconciler {
	if log == nil {
		log = logger.Default()
	}
	return &Reconciler{
		ledger:    l,
		archive:   a,
		verifier:  v,
		outputDir: outputDir,
		extraDirs: extraDirs,
		log:       log.WithComponent("reconcile"),
	}
}

// Rebuild regenerates the archive from the artifacts on disk (preserving
// existing entries) and promotes every archived id's ledger row to done.
// Idempotent; safe to run on every invocation.
func (r *Reconciler) Rebuild() (promoted int, discovered int, err error) {
	dirs := append([]string{r.outputDir}, r.extraDirs...)
	discovered, err = r.archive.RebuildFromArtifacts(dirs, true)
	if err != nil {
		return 0, 0, fmt.Errorf("rebuild archive: %w", err)
	}
	promoted, err = r.FoldArchiveIntoLedger()
	if err != nil {
		return 0, discovered, err
	}
	return promoted, discovered, nil
}

// FoldArchiveIntoLedger promotes every ledger row whose id is in the archive
// but not yet marked done. Run after all batches finish to capture archive
// writes that raced ahead of slower ledger writes.
func (r *Reconciler) FoldArchiveIntoLedger() (int, error) {
	ids, err := r.archive.LoadIDs()
	if err != nil {
		return 0, fmt.Errorf("load archive ids: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	promoted, err := r.ledger.ModifyAll(func(item model.WorkItem) model.WorkItem {
		if _, ok := ids[item.VideoID]; ok && item.Status != model.StatusDone {
			item.Status = model.StatusDone
		}
		return item
	})
	if err != nil {
		return 0, fmt.Errorf("fold archive into ledger: %w", err)
	}
	if promoted > 0 {
		r.log.Info("promoted ledger rows from archive", "count", promoted)
	}
	return promoted, nil
}

// DemoteFalseDone resets ledger rows marked done with no verifiable artifact
// back to pending, and drops their archive entries. Operator-triggered only:
// running this mid-batch could re-queue downloads that are merely slow.
func (r *Reconciler) DemoteFalseDone() (int, error) {
	items, err := r.ledger.ReadAll()
	if err != nil {
		return 0, err
	}

	stale := make(map[string]struct{})
	for _, item := range items {
		if item.Status != model.StatusDone {
			continue
		}
		if !r.verifier.Exists(item.VideoID, r.extraDirs...) {
			stale[item.VideoID] = struct{}{}
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	demoted, err := r.ledger.ModifyAll(func(item model.WorkItem) model.WorkItem {
		if _, ok := stale[item.VideoID]; ok {
			item.Status = model.StatusPending
		}
		return item
	})
	if err != nil {
		return 0, fmt.Errorf("demote false done rows: %w", err)
	}
	for id := range stale {
		if err := r.archive.Remove(id); err != nil {
			r.log.Warn("failed to drop stale archive entry", "video_id", id, "error", err)
		}
	}
	r.log.Info("demoted done rows with no artifact", "count", demoted)
	return demoted, nil
}

// ResetStaleInProgress requeues rows stuck in in_progress. Only meaningful
// when no run is active; a crashed run leaves these behind.
func (r *Reconciler) ResetStaleInProgress() (int, error) {
	reset, err := r.ledger.ModifyAll(func(item model.WorkItem) model.WorkItem {
		if item.Status == model.StatusInProgress {
			item.Status = model.StatusPending
		}
		return item
	})
	if err != nil {
		return 0, fmt.Errorf("reset stale in_progress rows: %w", err)
	}
	if reset > 0 {
		r.log.Info("requeued stale in_progress rows", "count", reset)
	}
	return reset, nil
}

// PruneMalformed deletes ledger rows whose id fails validation. This is the
// explicit corruption-cleanup pass.
func (r *Reconciler) PruneMalformed() (int, error) {
	removed, err := r.ledger.RemoveIf(func(item model.WorkItem) bool {
		return !model.ValidVideoID(item.VideoID)
	})
	if err != nil {
		return 0, fmt.Errorf("prune malformed rows: %w", err)
	}
	if removed > 0 {
		r.log.Info("pruned malformed ledger rows", "count", removed)
	}
	return removed, nil
}
