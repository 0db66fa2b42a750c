// Package download runs the per-item lifecycle: mark in_progress, invoke
// the extraction capability, classify the outcome, verify the artifact, and
// commit the terminal status. Errors never escape an item; they are fully
// converted into status writes that the reconciler can repair later.
package download

import (
	"context"
	"time"

	"yt-batch-archiver/internal/archive"
	"yt-batch-archiver/internal/fetch"
	"yt-batch-archiver/internal/ledger"
	"yt-batch-archiver/internal/logger"
	"yt-batch-archiver/internal/model"
	"yt-batch-archiver/internal/verify"
)

// Outcome summarizes one item's run.
type Outcome struct {
	VideoID string
	Status  model.Status
	Retried bool
}

// Success reports whether the item ended the run downloaded and verified.
func (o Outcome) Success() bool {
	return o.Status == model.StatusDone
}

// Config carries the runner's policy knobs.
type Config struct {
	RetryCooldown time.Duration
	ExtraDirs     []string
	Sleep         func(time.Duration) // nil means time.Sleep
}

type Runner struct {
	ledger   *ledger.Ledger
	archive  *archive.Store
	verifier *verify.Verifier
	fetcher  fetch.Fetcher
	cfg      Config
	log      *logger.Logger
}

func New(l *ledger.Ledger, a *archive.Store, v *verify.Verifier, f fetch.Fetcher, cfg Config, log *logger.Logger) *Runner {
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	if log == nil {
		log = logger.Default()
	}
	return &Runner{
		ledger:   l,
		archive:  a,
		verifier: v,
		fetcher:  f,
		cfg:      cfg,
		log:      log.WithComponent("download"),
	}
}

// Process drives one work item through the state machine and returns its
// outcome. opts is the batch's capability configuration; the single retry
// after a transient failure gets a freshly randomized one.
func (r *Runner) Process(ctx context.Context, videoID string, opts fetch.Options) Outcome {
	log := r.log.WithItem(videoID)

	// Crash visibility: the in_progress write lands before the capability
	// call so an interrupted run is observable in the ledger.
	r.setStatus(videoID, model.StatusInProgress, log)

	// Idempotent short-circuit: reruns over a partially complete batch are
	// cheap and never re-download.
	if r.verifier.Exists(videoID, r.cfg.ExtraDirs...) {
		log.Info("artifact already present, skipping download")
		r.setStatus(videoID, model.StatusDone, log)
		return Outcome{VideoID: videoID, Status: model.StatusDone}
	}

	err := r.fetcher.Fetch(ctx, videoID, opts)
	if err == nil {
		return r.commitClaimedSuccess(videoID, false, log)
	}

	switch kind := fetch.Classify(err.Error()); kind {
	case fetch.KindCaptcha:
		log.Warn("captcha challenge detected", "error", err.Error())
		return r.commitFailure(videoID, model.StatusCaptchaChallenge, false, log)
	case fetch.KindUnavailable:
		log.Warn("video unavailable", "error", err.Error())
		return r.commitFailure(videoID, model.StatusUnavailable, false, log)
	case fetch.KindTransient:
		log.Warn("transient network error, retrying once",
			"cooldown", r.cfg.RetryCooldown.String(), "error", err.Error())
		r.cfg.Sleep(r.cfg.RetryCooldown)
		retryErr := r.fetcher.Fetch(ctx, videoID, fetch.Randomize(opts))
		if retryErr == nil {
			out := r.commitClaimedSuccess(videoID, true, log)
			if out.Success() {
				return out
			}
			// Claimed success on retry without an artifact still defers.
			return r.commitFailure(videoID, model.StatusTransientRetry, true, log)
		}
		log.Warn("retry also failed, deferring to a later run", "error", retryErr.Error())
		return r.commitFailure(videoID, model.StatusTransientRetry, true, log)
	default:
		log.Error("download failed", "error", err.Error())
		return r.commitFailure(videoID, model.StatusFailed, false, log)
	}
}

// commitClaimedSuccess trusts the capability only as far as the verifier
// does: a claimed success without an artifact is recorded as failed.
func (r *Runner) commitClaimedSuccess(videoID string, retried bool, log *logger.Logger) Outcome {
	if !r.verifier.Exists(videoID, r.cfg.ExtraDirs...) {
		log.Warn("download reported success but artifact not found")
		return r.commitFailure(videoID, model.StatusFailed, retried, log)
	}
	r.setStatus(videoID, model.StatusDone, log)
	if err := r.archive.Add(videoID); err != nil {
		log.Warn("failed to append archive entry", "error", err.Error())
	}
	if retried {
		log.Info("downloaded and verified on retry")
	} else {
		log.Info("downloaded and verified")
	}
	return Outcome{VideoID: videoID, Status: model.StatusDone, Retried: retried}
}

// commitFailure writes a non-done terminal status and pairs it with a
// compensating archive delete, so an earlier optimistic add never outlives
// the failure.
func (r *Runner) commitFailure(videoID string, status model.Status, retried bool, log *logger.Logger) Outcome {
	r.setStatus(videoID, status, log)
	if err := r.archive.Remove(videoID); err != nil {
		log.Warn("failed to remove archive entry", "error", err.Error())
	}
	return Outcome{VideoID: videoID, Status: status, Retried: retried}
}

// setStatus persists a transition. A dropped write after the ledger's own
// retries is logged and tolerated; the reconciler repairs it from archive or
// artifact evidence.
func (r *Runner) setStatus(videoID string, status model.Status, log *logger.Logger) {
	if _, err := r.ledger.UpdateStatus(videoID, status); err != nil {
		log.Error("dropping ledger status update", "status", string(status), "error", err.Error())
		return
	}
	log.Info("status transition", "status", string(status))
}
