// Package cli wires the commands: flag parsing, component assembly, and
// human/machine output. Each command builds its own dependency graph from the
// environment configuration.
package cli

import (
	"context"
	"fmt"
)

func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "run":
		return runDownload(ctx, args[1:])
	case "rebuild":
		return runRebuild(args[1:])
	case "cleanup":
		return runCleanup(args[1:])
	case "status":
		return runStatus(ctx, args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("yt-batch-archiver: batched yt-dlp download orchestrator")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  yt-batch-archiver rebuild")
	fmt.Println("  yt-batch-archiver run")
	fmt.Println("  yt-batch-archiver status --watch")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run       download pending ledger rows in randomized, paced batches")
	fmt.Println("  rebuild   reconcile ledger and archive against artifacts on disk")
	fmt.Println("  cleanup   repair stale statuses and optionally prune malformed rows")
	fmt.Println("  status    status rollup for the ledger (--watch for a live view)")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Configuration comes from the environment and an optional .env file")
	fmt.Println("  - Use --json on status for machine-readable output")
}
