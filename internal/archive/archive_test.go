package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "download_archive.txt"), nil)
}

func TestAddAndLoadIDs(t *testing.T) {
	s := newTestStore(t)

	if err := s.Add("dQw4w9WgXcQ"); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("a1B2c3D4e5_"); err != nil {
		t.Fatal(err)
	}
	// Duplicate appends are tolerated.
	if err := s.Add("dQw4w9WgXcQ"); err != nil {
		t.Fatal(err)
	}

	ids, err := s.LoadIDs()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 distinct ids, got %d", len(ids))
	}
	if _, ok := ids["dQw4w9WgXcQ"]; !ok {
		t.Fatalf("missing id in %v", ids)
	}
}

func TestLoadIDs_SkipsUnrecognizedLines(t *testing.T) {
	s := newTestStore(t)
	content := "youtube dQw4w9WgXcQ\ngarbage line\nvimeo 12345\n\nyoutube a1B2c3D4e5_\n"
	if err := os.WriteFile(s.Path(), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	ids, err := s.LoadIDs()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %v", ids)
	}
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"dQw4w9WgXcQ", "a1B2c3D4e5_"} {
		if err := s.Add(id); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Remove("dQw4w9WgXcQ"); err != nil {
		t.Fatal(err)
	}
	ids, err := s.LoadIDs()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ids["dQw4w9WgXcQ"]; ok {
		t.Fatalf("id still present after remove")
	}
	if _, ok := ids["a1B2c3D4e5_"]; !ok {
		t.Fatalf("remove dropped an unrelated id")
	}

	// Removing from a missing archive is a no-op.
	s2 := newTestStore(t)
	if err := s2.Remove("dQw4w9WgXcQ"); err != nil {
		t.Fatal(err)
	}
}

func TestRebuildFromArtifacts(t *testing.T) {
	s := newTestStore(t)
	if err := s.Add("preexisting"); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	for _, name := range []string{"dQw4w9WgXcQ.mp4", "a1B2c3D4e5_.webm"} {
		if err := os.WriteFile(filepath.Join(dir, name), make([]byte, 4096), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// Below threshold, must not be picked up.
	if err := os.WriteFile(filepath.Join(dir, "tiny0000000.mp4"), make([]byte, 10), 0o644); err != nil {
		t.Fatal(err)
	}

	discovered, err := s.RebuildFromArtifacts([]string{dir}, true)
	if err != nil {
		t.Fatal(err)
	}
	if discovered != 2 {
		t.Fatalf("expected 2 newly discovered ids, got %d", discovered)
	}

	ids, err := s.LoadIDs()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"preexisting", "dQw4w9WgXcQ", "a1B2c3D4e5_"} {
		if _, ok := ids[want]; !ok {
			t.Fatalf("missing %q after rebuild: %v", want, ids)
		}
	}

	// Rebuild without preserve drops entries with no artifact.
	if _, err := s.RebuildFromArtifacts([]string{dir}, false); err != nil {
		t.Fatal(err)
	}
	ids, err = s.LoadIDs()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ids["preexisting"]; ok {
		t.Fatalf("non-preserving rebuild kept stale entry")
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if !sortedLines(lines) {
		t.Fatalf("rebuild output not sorted:\n%s", string(data))
	}
}

func sortedLines(lines []string) bool {
	for i := 1; i < len(lines); i++ {
		if lines[i-1] > lines[i] {
			return false
		}
	}
	return true
}
