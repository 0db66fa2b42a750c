// Package runlock guards the output directory against concurrent
// orchestrator runs. Two runs over the same ledger would race on status
// writes and double-download, so acquisition is mandatory before scheduling.
package runlock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	lockDirName   = ".run.lock"
	ownerFileName = "owner.json"
)

type Lock struct {
	lockDir string
}

type owner struct {
	PID       int    `json:"pid"`
	CreatedAt string `json:"created_at"`
	Hostname  string `json:"hostname,omitempty"`
}

// Acquire takes the run lock for dir, creating dir if needed. Failure names
// the holder when the owner record is readable.
func Acquire(dir string) (Lock, error) {
	target := strings.TrimSpace(dir)
	if target == "" {
		return Lock{}, fmt.Errorf("lock directory is required")
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return Lock{}, fmt.Errorf("create lock parent %s: %w", target, err)
	}

	lockDir := filepath.Join(target, lockDirName)
	if err := os.Mkdir(lockDir, 0o755); err != nil {
		if os.IsExist(err) {
			var o owner
			if readErr := readJSON(filepath.Join(lockDir, ownerFileName), &o); readErr == nil && o.PID > 0 && o.CreatedAt != "" {
				return Lock{}, fmt.Errorf(
					"another run is active in %s (pid=%d created_at=%s host=%s)",
					target, o.PID, o.CreatedAt, o.Hostname,
				)
			}
			return Lock{}, fmt.Errorf("another run is active in %s", target)
		}
		return Lock{}, fmt.Errorf("acquire run lock for %s: %w", target, err)
	}

	o := owner{
		PID:       os.Getpid(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Hostname:  hostnameOrUnknown(),
	}
	if err := writeJSON(filepath.Join(lockDir, ownerFileName), o); err != nil {
		_ = os.Remove(lockDir)
		return Lock{}, fmt.Errorf("write run lock owner for %s: %w", target, err)
	}

	return Lock{lockDir: lockDir}, nil
}

func (l Lock) Release() error {
	if strings.TrimSpace(l.lockDir) == "" {
		return nil
	}
	_ = os.Remove(filepath.Join(l.lockDir, ownerFileName))
	if err := os.Remove(l.lockDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release run lock %s: %w", l.lockDir, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON for %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func hostnameOrUnknown() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return "unknown"
	}
	return host
}
