package cli

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"

	"yt-batch-archiver/internal/ledger"
	"yt-batch-archiver/internal/model"
)

type statusSummary struct {
	Total    int            `json:"total"`
	Done     int            `json:"done"`
	Eligible int            `json:"eligible"`
	Counts   map[string]int `json:"counts"`
	Group    string         `json:"group,omitempty"`
}

// summarize rolls the ledger rows up into per-status counts. Unknown
// statuses are reported verbatim so nothing is hidden.
func summarize(items []model.WorkItem, group string) statusSummary {
	s := statusSummary{Counts: make(map[string]int), Group: group}
	for _, item := range items {
		if group != "" && item.ChannelID != group {
			continue
		}
		s.Total++
		s.Counts[string(item.Status)]++
		if item.Status == model.StatusDone {
			s.Done++
		}
		if model.ValidVideoID(item.VideoID) && item.Status.Schedulable() {
			s.Eligible++
		}
	}
	return s
}

func runStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	group := fs.String("group", "", "restrict the rollup to one channel id")
	jsonOut := fs.Bool("json", false, "print JSON output")
	watch := fs.Bool("watch", false, "live full-screen view, refreshed until quit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if *watch {
		return runStatusWatch(ctx, cfg, *group)
	}

	led := ledger.New(cfg.LedgerPath, nil)
	items, err := led.ReadAll()
	if err != nil {
		return err
	}
	s := summarize(items, *group)

	if *jsonOut {
		return printJSON(s)
	}

	if s.Group != "" {
		fmt.Printf("ledger rollup for channel %s (%s)\n", s.Group, cfg.LedgerPath)
	} else {
		fmt.Printf("ledger rollup (%s)\n", cfg.LedgerPath)
	}
	fmt.Printf("  total: %d\n", s.Total)
	fmt.Printf("  eligible: %d\n", s.Eligible)
	for _, line := range statusLines(s.Counts) {
		fmt.Println("  " + line)
	}
	return nil
}

// statusLines renders known statuses in lifecycle order, then any unknown
// ones alphabetically.
func statusLines(counts map[string]int) []string {
	order := []model.Status{
		model.StatusPending,
		model.StatusInProgress,
		model.StatusDone,
		model.StatusFailed,
		model.StatusTransientRetry,
		model.StatusCaptchaChallenge,
		model.StatusUnavailable,
	}

	var lines []string
	seen := make(map[string]bool)
	for _, st := range order {
		seen[string(st)] = true
		if n := counts[string(st)]; n > 0 {
			lines = append(lines, fmt.Sprintf("%s: %d", st, n))
		}
	}

	var unknown []string
	for raw := range counts {
		if !seen[raw] {
			unknown = append(unknown, raw)
		}
	}
	sort.Strings(unknown)
	for _, raw := range unknown {
		label := raw
		if strings.TrimSpace(label) == "" {
			label = "(blank)"
		}
		lines = append(lines, fmt.Sprintf("%s (unknown): %d", label, counts[raw]))
	}
	return lines
}
