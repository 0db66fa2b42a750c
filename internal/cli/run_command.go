package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"yt-batch-archiver/internal/archive"
	"yt-batch-archiver/internal/download"
	"yt-batch-archiver/internal/fetch"
	"yt-batch-archiver/internal/ledger"
	"yt-batch-archiver/internal/pacing"
	"yt-batch-archiver/internal/reconcile"
	"yt-batch-archiver/internal/runlock"
	"yt-batch-archiver/internal/scheduler"
	"yt-batch-archiver/internal/verify"
)

func runDownload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	group := fs.String("group", "", "restrict the run to one channel id")
	noProxy := fs.Bool("no-proxy", false, "ignore PROXY_URL for this run")
	maxBatches := fs.Int("max-batches", 0, "stop after this many batches (0 = no limit)")
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

	if err := fetch.CheckDependencies(); err != nil {
		return err
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
	ver := verify.New(cfg.OutputDir)
	rec := reconcile.New(led, arc, ver, cfg.OutputDir, extraDirs, log)

	// Pre-run reconciliation keeps the run from re-downloading anything that
	// already exists on disk under a stale status.
	promoted, discovered, err := rec.Rebuild()
	if err != nil {
		return fmt.Errorf("pre-run reconciliation: %w", err)
	}
	log.Info("pre-run reconciliation complete", "promoted", promoted, "discovered", discovered)

	items, err := led.ReadAll()
	if err != nil {
		return err
	}

	proxy := cfg.ProxyURL
	if *noProxy {
		proxy = ""
	}
	pacer := pacing.New(pacing.Options{
		BatchMean:  cfg.BatchPauseMean,
		BatchStd:   cfg.BatchPauseStd,
		BatchFloor: cfg.BatchPauseFloor,
		ItemMean:   cfg.ItemPauseMean,
		ItemStd:    cfg.ItemPauseStd,
		ItemFloor:  cfg.ItemPauseFloor,
	}, log)
	runner := download.New(led, arc, ver, fetch.NewYTDLP(), download.Config{
		RetryCooldown: cfg.RetryCooldown,
		ExtraDirs:     extraDirs,
		Sleep:         pacer.RetryCooldown,
	}, log)
	sched := scheduler.New(runner, pacer, scheduler.Config{
		MinBatch:   cfg.MinBatch,
		MaxBatch:   cfg.MaxBatch,
		Workers:    cfg.Workers,
		MaxBatches: *maxBatches,
		Group:      *group,
		BaseOptions: fetch.Options{
			OutputDir:   cfg.OutputDir,
			Fragments:   cfg.ConcurrentFragments,
			CookiesPath: cfg.CookiesPath,
			ProxyURL:    proxy,
		},
	}, log)

	res := sched.Run(ctx, items)

	// Post-run fold picks up any status write dropped mid-run.
	if folded, err := rec.FoldArchiveIntoLedger(); err != nil {
		log.Warn("post-run reconciliation failed", "error", err.Error())
	} else if folded > 0 {
		log.Info("post-run reconciliation repaired rows", "folded", folded)
	}

	fmt.Printf("run complete: %d succeeded, %d failed across %d batches in %s\n",
		res.Succeeded, res.Failed, res.Batches, res.Duration.Round(time.Second))
	if res.Canceled {
		fmt.Println("run was interrupted; remaining items stay schedulable")
	}
	return nil
}
