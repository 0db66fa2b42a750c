// Package ledger implements the durable CSV status ledger. Every known work
// item is one row; the file is shared with outside tooling, so unknown
// columns are preserved verbatim on rewrite.
package ledger

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"yt-batch-archiver/internal/logger"
	"yt-batch-archiver/internal/model"
)

const (
	colVideoID   = "videoId"
	colChannelID = "channelId"
	colStatus    = "status"

	maxAttempts = 5
	baseBackoff = 100 * time.Millisecond
)

// ErrLedgerMissing marks the one setup error that aborts a whole run.
var ErrLedgerMissing = errors.New("ledger file missing")

// Ledger is safe for concurrent use from multiple goroutines and multiple
// processes: a process-local mutex guards the read-modify-write, and an
// advisory lock on a sidecar file serializes independent processes.
type Ledger struct {
	path string
	mu   sync.Mutex
	fl   *flock.Flock
	log  *logger.Logger
}

func New(path string, log *logger.Logger) *Ledger {
	if log == nil {
		log = logger.Default()
	}
	return &Ledger{
		path: path,
		fl:   flock.New(path + ".lock"),
		log:  log.WithComponent("ledger"),
	}
}

// Path returns the backing file path.
func (l *Ledger) Path() string {
	return l.path
}

// ReadAll returns every row as a WorkItem, in file order. Rows with an
// unrecognized status keep the raw value; they are preserved on rewrite and
// never scheduled.
func (l *Ledger) ReadAll() ([]model.WorkItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.fl.RLock(); err != nil {
		return nil, fmt.Errorf("lock ledger %s: %w", l.path, err)
	}
	defer func() {
		_ = l.fl.Unlock()
	}()

	t, err := l.load()
	if err != nil {
		return nil, err
	}

	items := make([]model.WorkItem, 0, len(t.rows))
	for _, row := range t.rows {
		items = append(items, t.item(row))
	}
	return items, nil
}

// UpdateStatus sets the status of the row with the given id and persists the
// whole file atomically. A missing row is a warning, not an error. Lock or
// I/O failures are retried with exponential backoff; after the attempts are
// exhausted the error is returned so the caller can log and drop the update.
func (l *Ledger) UpdateStatus(id string, status model.Status) (bool, error) {
	found := false
	err := l.withRetry("update status", func() error {
		return l.withExclusiveLock(func() error {
			t, err := l.load()
			if err != nil {
				return err
			}
			found = false
			for _, row := range t.rows {
				if t.cell(row, t.idIdx) == id {
					row[t.statusIdx] = string(status)
					found = true
				}
			}
			if !found {
				return nil
			}
			return l.write(t)
		})
	})
	if err != nil {
		return false, err
	}
	if !found {
		l.log.Warn("video id not found in ledger", "video_id", id, "status", string(status))
	}
	return found, nil
}

// ModifyAll applies a pure transform to every row and writes the result back
// atomically. It returns the number of rows whose status changed.
func (l *Ledger) ModifyAll(transform func(model.WorkItem) model.WorkItem) (int, error) {
	changed := 0
	err := l.withRetry("modify all", func() error {
		return l.withExclusiveLock(func() error {
			t, err := l.load()
			if err != nil {
				return err
			}
			changed = 0
			for _, row := range t.rows {
				before := t.item(row)
				after := transform(before)
				if after.Status != before.Status && model.IsKnownStatus(after.Status) {
					row[t.statusIdx] = string(after.Status)
					changed++
				}
			}
			if changed == 0 {
				return nil
			}
			return l.write(t)
		})
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// RemoveIf drops every row the match function selects. This is the explicit
// corruption-cleanup path; nothing else deletes ledger rows.
func (l *Ledger) RemoveIf(match func(model.WorkItem) bool) (int, error) {
	removed := 0
	err := l.withRetry("remove rows", func() error {
		return l.withExclusiveLock(func() error {
			t, err := l.load()
			if err != nil {
				return err
			}
			kept := make([][]string, 0, len(t.rows))
			removed = 0
			for _, row := range t.rows {
				if match(t.item(row)) {
					removed++
					continue
				}
				kept = append(kept, row)
			}
			if removed == 0 {
				return nil
			}
			t.rows = kept
			return l.write(t)
		})
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (l *Ledger) withExclusiveLock(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.fl.Lock(); err != nil {
		return fmt.Errorf("lock ledger %s: %w", l.path, err)
	}
	defer func() {
		_ = l.fl.Unlock()
	}()
	return fn()
}

func (l *Ledger) withRetry(op string, fn func() error) error {
	delay := baseBackoff
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrLedgerMissing) {
			return err
		}
		if attempt < maxAttempts {
			l.log.Warn("ledger operation failed, retrying",
				"op", op, "attempt", attempt, "backoff", delay.String(), "error", err)
			time.Sleep(delay)
			delay *= 2
		}
	}
	return fmt.Errorf("%s after %d attempts: %w", op, maxAttempts, err)
}

type table struct {
	header    []string
	rows      [][]string
	idIdx     int
	groupIdx  int
	statusIdx int
}

func (t *table) cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (t *table) item(row []string) model.WorkItem {
	raw := t.cell(row, t.statusIdx)
	status, err := model.ParseStatus(raw)
	if err != nil {
		// Preserve the raw value; unknown statuses are never schedulable.
		status = model.Status(raw)
	}
	return model.WorkItem{
		VideoID:   t.cell(row, t.idIdx),
		ChannelID: t.cell(row, t.groupIdx),
		Status:    status,
	}
}

func (l *Ledger) load() (*table, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLedgerMissing, l.path)
		}
		return nil, fmt.Errorf("open ledger %s: %w", l.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", l.path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("ledger %s has no header row", l.path)
	}

	t := &table{header: records[0], rows: records[1:]}
	t.idIdx = columnIndex(t.header, colVideoID)
	t.groupIdx = columnIndex(t.header, colChannelID)
	t.statusIdx = columnIndex(t.header, colStatus)
	if t.idIdx < 0 {
		return nil, fmt.Errorf("ledger %s is missing the %s column", l.path, colVideoID)
	}
	if t.statusIdx < 0 {
		t.header = append(t.header, colStatus)
		t.statusIdx = len(t.header) - 1
	}
	// Pad short rows so the status cell is always addressable.
	for i, row := range t.rows {
		for len(row) < len(t.header) {
			row = append(row, "")
		}
		t.rows[i] = row
	}
	return t, nil
}

func (l *Ledger) write(t *table) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.header); err != nil {
		return fmt.Errorf("encode ledger header: %w", err)
	}
	for _, row := range t.rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("encode ledger row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	// Collision-resistant scratch name so concurrent writers never clobber
	// each other before the rename.
	tmpPath := fmt.Sprintf("%s.%d.%s.tmp", l.path, os.Getpid(), uuid.NewString()[:8])
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write ledger temp file: %w", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("atomic rename for %s: %w", l.path, err)
	}
	return nil
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}
