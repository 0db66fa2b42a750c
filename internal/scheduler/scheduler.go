// Package scheduler turns the ledger's eligible rows into randomized batches
// and drives them through a bounded worker pool with human-like pacing
// between items and batches.
package scheduler

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"yt-batch-archiver/internal/download"
	"yt-batch-archiver/internal/fetch"
	"yt-batch-archiver/internal/logger"
	"yt-batch-archiver/internal/model"
)

// Processor handles a single work item end to end.
type Processor interface {
	Process(ctx context.Context, videoID string, opts fetch.Options) download.Outcome
}

// Pauser injects the pacing pauses. *pacing.Pacer is the production value.
type Pauser interface {
	BatchPause() time.Duration
	ItemPause() time.Duration
}

// Config carries the scheduling policy.
type Config struct {
	MinBatch   int
	MaxBatch   int
	Workers    int
	MaxBatches int    // 0 means no limit
	Group      string // restrict to one channel, empty means all

	// BaseOptions is re-randomized per batch so every batch presents a
	// fresh client identity.
	BaseOptions fetch.Options
}

// Result aggregates a full run.
type Result struct {
	Eligible  int
	Succeeded int
	Failed    int
	Batches   int
	Duration  time.Duration
	Canceled  bool
}

type Scheduler struct {
	proc  Processor
	pause Pauser
	cfg   Config
	rnd   *rand.Rand
	log   *logger.Logger
}

func New(proc Processor, pause Pauser, cfg Config, log *logger.Logger) *Scheduler {
	if cfg.MinBatch < 1 {
		cfg.MinBatch = 1
	}
	if cfg.MaxBatch < cfg.MinBatch {
		cfg.MaxBatch = cfg.MinBatch
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if log == nil {
		log = logger.Default()
	}
	return &Scheduler{
		proc:  proc,
		pause: pause,
		cfg:   cfg,
		rnd:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		log:   log.WithComponent("scheduler"),
	}
}

// Eligible filters ledger rows down to schedulable work: well-formed video
// ids, matching the group restriction, and in a status that wants a download.
func Eligible(items []model.WorkItem, group string) []model.WorkItem {
	var out []model.WorkItem
	for _, item := range items {
		if !model.ValidVideoID(item.VideoID) {
			continue
		}
		if group != "" && item.ChannelID != group {
			continue
		}
		if !item.Status.Schedulable() {
			continue
		}
		out = append(out, item)
	}
	return out
}

type batchResult struct {
	succeeded int
	failed    int
}

// Run processes every eligible item once. Batches run concurrently across
// the worker pool while the items inside one batch stay strictly sequential:
// the extraction tool itself is the contended resource. Cancellation stops
// submission of new batches; everything in flight drains so its ledger
// writes land. Per-item failures are tallied, never propagated.
func (s *Scheduler) Run(ctx context.Context, items []model.WorkItem) Result {
	start := time.Now()

	work := Eligible(items, s.cfg.Group)
	res := Result{Eligible: len(work)}
	if len(work) == 0 {
		s.log.Info("nothing to download")
		res.Duration = time.Since(start)
		return res
	}

	s.rnd.Shuffle(len(work), func(i, j int) {
		work[i], work[j] = work[j], work[i]
	})

	var batches [][]model.WorkItem
	for offset, size := 0, 0; offset < len(work); offset += size {
		size = s.batchSize(len(work) - offset)
		batches = append(batches, work[offset:offset+size])
	}
	s.log.Info("run planned", "eligible", len(work), "batches", len(batches))

	jobCh := make(chan []model.WorkItem)
	resCh := make(chan batchResult, len(batches))
	var wg sync.WaitGroup
	for w := 0; w < s.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range jobCh {
				resCh <- s.runBatch(ctx, batch)
			}
		}()
	}

	for bi, batch := range batches {
		if ctx.Err() != nil {
			s.log.Warn("run canceled, stopping batch submission", "submitted", res.Batches)
			res.Canceled = true
			break
		}
		if bi > 0 {
			s.pause.BatchPause()
		}
		s.log.Info("submitting batch", "batch", bi+1, "size", len(batch))
		jobCh <- batch
		res.Batches++

		if s.cfg.MaxBatches > 0 && res.Batches >= s.cfg.MaxBatches {
			s.log.Info("batch limit reached", "limit", s.cfg.MaxBatches)
			break
		}
	}
	close(jobCh)
	wg.Wait()
	close(resCh)

	for br := range resCh {
		res.Succeeded += br.succeeded
		res.Failed += br.failed
	}

	res.Duration = time.Since(start)
	return res
}

// runBatch walks one batch sequentially under a fresh per-batch identity.
func (s *Scheduler) runBatch(ctx context.Context, batch []model.WorkItem) batchResult {
	opts := fetch.Randomize(s.cfg.BaseOptions)

	var br batchResult
	for i, item := range batch {
		if i > 0 {
			s.pause.ItemPause()
		}
		if s.proc.Process(ctx, item.VideoID, opts).Success() {
			br.succeeded++
		} else {
			br.failed++
		}
	}
	return br
}

// batchSize draws the next batch size uniformly from the configured bounds,
// clamped to the remaining item count. Only the final batch may fall below
// the minimum.
func (s *Scheduler) batchSize(remaining int) int {
	size := s.cfg.MinBatch
	if s.cfg.MaxBatch > s.cfg.MinBatch {
		size += s.rnd.IntN(s.cfg.MaxBatch - s.cfg.MinBatch + 1)
	}
	if size > remaining {
		size = remaining
	}
	return size
}
