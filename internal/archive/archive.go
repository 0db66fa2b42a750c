// Package archive maintains the append-style log of video ids confirmed
// fully downloaded, in yt-dlp download-archive format ("youtube <id>" per
// line). The file is cheap to check and survives ledger corruption; after a
// crash it is rebuilt from the artifacts on disk, which are ground truth.
package archive

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"yt-batch-archiver/internal/logger"
	"yt-batch-archiver/internal/verify"
)

// Namespace is the literal tag prefixing every archive entry.
const Namespace = "youtube"

// Store is protected by the same coarse lock pattern as the ledger: a
// process mutex plus an advisory lock on a sidecar file.
type Store struct {
	path string
	mu   sync.Mutex
	fl   *flock.Flock
	log  *logger.Logger
}

func New(path string, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Default()
	}
	return &Store{
		path: path,
		fl:   flock.New(path + ".lock"),
		log:  log.WithComponent("archive"),
	}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Add appends an entry for id. Duplicates are tolerated; they collapse on
// the next rebuild.
func (s *Store) Add(id string) error {
	return s.withLock(func() error {
		f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open archive %s: %w", s.path, err)
		}
		defer f.Close()
		if _, err := fmt.Fprintf(f, "%s %s\n", Namespace, id); err != nil {
			return fmt.Errorf("append to archive %s: %w", s.path, err)
		}
		return nil
	})
}

// Remove rewrites the archive without any entry for id. Compensating action
// for a "done" determination that was later invalidated.
func (s *Store) Remove(id string) error {
	return s.withLock(func() error {
		data, err := os.ReadFile(s.path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("read archive %s: %w", s.path, err)
		}

		lines := strings.Split(string(data), "\n")
		kept := make([]string, 0, len(lines))
		removed := 0
		for _, line := range lines {
			t := strings.TrimSpace(line)
			if t == "" {
				continue
			}
			if entryID(t) == id {
				removed++
				continue
			}
			kept = append(kept, t)
		}
		if removed == 0 {
			return nil
		}
		return writeLines(s.path, kept)
	})
}

// LoadIDs parses the archive into a set of ids. Lines without the recognized
// namespace prefix are silently skipped.
func (s *Store) LoadIDs() (map[string]struct{}, error) {
	var ids map[string]struct{}
	err := s.withLock(func() error {
		data, err := os.ReadFile(s.path)
		if err != nil {
			if os.IsNotExist(err) {
				ids = map[string]struct{}{}
				return nil
			}
			return fmt.Errorf("read archive %s: %w", s.path, err)
		}
		ids = make(map[string]struct{})
		for _, line := range strings.Split(string(data), "\n") {
			if id := entryID(strings.TrimSpace(line)); id != "" {
				ids[id] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// RebuildFromArtifacts scans the search directories for verified artifacts
// and rewrites the archive as the deduplicated, sorted union of their stems
// with the existing entries (when preserveExisting is set). It returns the
// number of newly discovered ids. This is the authoritative recovery path
// after a crash.
func (s *Store) RebuildFromArtifacts(searchDirs []string, preserveExisting bool) (int, error) {
	discovered := 0
	err := s.withLock(func() error {
		entries := make(map[string]struct{})
		if preserveExisting {
			data, err := os.ReadFile(s.path)
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("read archive %s: %w", s.path, err)
			}
			for _, line := range strings.Split(string(data), "\n") {
				if id := entryID(strings.TrimSpace(line)); id != "" {
					entries[id] = struct{}{}
				}
			}
		}
		existing := len(entries)

		for _, dir := range searchDirs {
			if strings.TrimSpace(dir) == "" {
				continue
			}
			ids, err := verify.IDsInDir(dir)
			if err != nil {
				return fmt.Errorf("scan artifacts in %s: %w", dir, err)
			}
			for _, id := range ids {
				entries[id] = struct{}{}
			}
		}
		discovered = len(entries) - existing

		sorted := make([]string, 0, len(entries))
		for id := range entries {
			sorted = append(sorted, Namespace+" "+id)
		}
		sort.Strings(sorted)
		return writeLines(s.path, sorted)
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("archive rebuilt from artifacts", "new_entries", discovered)
	return discovered, nil
}

func (s *Store) withLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fl.Lock(); err != nil {
		return fmt.Errorf("lock archive %s: %w", s.path, err)
	}
	defer func() {
		_ = s.fl.Unlock()
	}()
	return fn()
}

// entryID extracts the id from a recognized-prefix archive line, or "".
func entryID(line string) string {
	rest, ok := strings.CutPrefix(line, Namespace+" ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(rest)
}

func writeLines(path string, lines []string) error {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write archive %s: %w", path, err)
	}
	return nil
}
