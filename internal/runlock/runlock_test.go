package runlock

import (
	"strings"
	"testing"
)

func TestAcquire_BlocksConcurrentRuns(t *testing.T) {
	dir := t.TempDir()

	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("acquire first lock: %v", err)
	}
	defer func() {
		_ = lock.Release()
	}()

	if _, err := Acquire(dir); err == nil {
		t.Fatalf("expected second acquire to fail")
	} else if !strings.Contains(err.Error(), "another run is active") {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("release lock: %v", err)
	}

	lock2, err := Acquire(dir)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	if err := lock2.Release(); err != nil {
		t.Fatalf("release second lock: %v", err)
	}
}

func TestAcquire_CreatesMissingDirectory(t *testing.T) {
	dir := t.TempDir() + "/nested/output"

	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("acquire in missing dir: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
}

func TestRelease_ZeroValueIsNoop(t *testing.T) {
	var lock Lock
	if err := lock.Release(); err != nil {
		t.Fatalf("zero-value release: %v", err)
	}
}
