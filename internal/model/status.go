package model

import "fmt"

// Status is the closed set of work item lifecycle states recorded in the
// ledger. An empty cell in the backing file is read as StatusPending.
type Status string

const (
	StatusPending          Status = "pending"
	StatusInProgress       Status = "in_progress"
	StatusDone             Status = "done"
	StatusFailed           Status = "failed"
	StatusUnavailable      Status = "unavailable"
	StatusCaptchaChallenge Status = "captcha_challenge"
	StatusTransientRetry   Status = "transient_retry"
)

var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusPending:    true,
		StatusInProgress: true,
		StatusDone:       true, // reconciler promotion from archive/artifact evidence
	},
	StatusInProgress: {
		StatusInProgress:       true,
		StatusDone:             true,
		StatusFailed:           true,
		StatusUnavailable:      true,
		StatusCaptchaChallenge: true,
		StatusTransientRetry:   true,
	},
	StatusDone: {
		StatusDone:    true,
		StatusPending: true, // operator cleanup when the artifact is missing
	},
	StatusFailed: {
		StatusFailed:     true,
		StatusInProgress: true,
		StatusDone:       true,
	},
	StatusUnavailable: {
		StatusUnavailable: true,
		StatusDone:        true,
	},
	StatusCaptchaChallenge: {
		StatusCaptchaChallenge: true,
		StatusInProgress:       true,
		StatusDone:             true,
	},
	StatusTransientRetry: {
		StatusTransientRetry: true,
		StatusInProgress:     true,
		StatusDone:           true,
	},
}

// ParseStatus maps a raw ledger cell to a Status. Empty cells default to
// pending; anything outside the closed set is an error.
func ParseStatus(raw string) (Status, error) {
	if raw == "" {
		return StatusPending, nil
	}
	s := Status(raw)
	if !IsKnownStatus(s) {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

func IsKnownStatus(status Status) bool {
	_, ok := allowedTransitions[status]
	return ok
}

func CanTransition(from, to Status) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// Schedulable reports whether an item with this status qualifies for a
// download attempt.
func (s Status) Schedulable() bool {
	switch s {
	case StatusDone, StatusUnavailable:
		return false
	case StatusPending, StatusInProgress, StatusFailed, StatusCaptchaChallenge, StatusTransientRetry:
		return true
	default:
		return false
	}
}
