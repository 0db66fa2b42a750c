package cli

import (
	"flag"
	"fmt"

	"yt-batch-archiver/internal/archive"
	"yt-batch-archiver/internal/ledger"
	"yt-batch-archiver/internal/reconcile"
	"yt-batch-archiver/internal/runlock"
	"yt-batch-archiver/internal/verify"
)

// runCleanup repairs stale ledger state: requeues in_progress leftovers from
// crashed runs, demotes done rows with no artifact, and optionally deletes
// malformed rows. It takes the run lock so it never races an active run.
func runCleanup(args []string) error {
	fs := flag.NewFlagSet("cleanup", flag.ContinueOnError)
	pruneMalformed := fs.Bool("prune-malformed", false, "also delete rows with malformed video ids")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	var extraDirs stringList
	fs.Var(&extraDirs, "extra-dir", "additional directory searched for existing artifacts (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	if !*yes {
		ok, err := promptConfirm("cleanup rewrites ledger statuses and archive entries; continue? [y/N] ")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("aborted")
			return nil
		}
	}

	lock, err := runlock.Acquire(cfg.OutputDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.Release()
	}()

	led := ledger.New(cfg.LedgerPath, log)
	arc := archive.New(cfg.ArchivePath, log)
	rec := reconcile.New(led, arc, verify.New(cfg.OutputDir), cfg.OutputDir, extraDirs, log)

	reset, err := rec.ResetStaleInProgress()
	if err != nil {
		return err
	}
	demoted, err := rec.DemoteFalseDone()
	if err != nil {
		return err
	}
	pruned := 0
	if *pruneMalformed {
		pruned, err = rec.PruneMalformed()
		if err != nil {
			return err
		}
	}

	fmt.Printf("cleanup complete: %d stale rows requeued, %d false-done rows demoted", reset, demoted)
	if *pruneMalformed {
		fmt.Printf(", %d malformed rows pruned", pruned)
	}
	fmt.Println()
	return nil
}
