package cli

import (
	"flag"
	"fmt"

	"yt-batch-archiver/internal/archive"
	"yt-batch-archiver/internal/ledger"
	"yt-batch-archiver/internal/reconcile"
	"yt-batch-archiver/internal/verify"
)

func runRebuild(args []string) error {
	fs := flag.NewFlagSet("rebuild", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print the rebuild summary as JSON")
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

	led := ledger.New(cfg.LedgerPath, log)
	arc := archive.New(cfg.ArchivePath, log)
	rec := reconcile.New(led, arc, verify.New(cfg.OutputDir), cfg.OutputDir, extraDirs, log)

	promoted, discovered, err := rec.Rebuild()
	if err != nil {
		return err
	}

	if *asJSON {
		return printJSON(map[string]int{
			"discovered_artifacts": discovered,
			"promoted_rows":        promoted,
		})
	}
	fmt.Printf("rebuild complete: %d artifacts discovered, %d ledger rows promoted to done\n",
		discovered, promoted)
	return nil
}
