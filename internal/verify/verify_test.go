package verify

import (
	"os"
	"path/filepath"
	"testing"
)

func writeArtifact(t *testing.T, dir, name string, size int) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestExists_RequiresMinimumSize(t *testing.T) {
	dir := t.TempDir()
	v := New(dir)

	writeArtifact(t, dir, "dQw4w9WgXcQ.mp4", 512)
	if v.Exists("dQw4w9WgXcQ") {
		t.Fatalf("undersized artifact must not verify")
	}

	writeArtifact(t, dir, "dQw4w9WgXcQ.mp4", 2048)
	if !v.Exists("dQw4w9WgXcQ") {
		t.Fatalf("expected artifact to verify")
	}
}

func TestExists_ChecksAllExtensionsAndExtraDirs(t *testing.T) {
	primary := t.TempDir()
	extra := t.TempDir()
	v := New(primary)

	writeArtifact(t, extra, "a1B2c3D4e5_.webm", 4096)
	if v.Exists("a1B2c3D4e5_") {
		t.Fatalf("artifact outside search dirs must not verify")
	}
	if !v.Exists("a1B2c3D4e5_", extra) {
		t.Fatalf("expected artifact in extra dir to verify")
	}

	writeArtifact(t, primary, "zzzzzzzzzzz.m4a", 4096)
	if !v.Exists("zzzzzzzzzzz") {
		t.Fatalf("expected m4a artifact to verify")
	}
}

func TestIDsInDir(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "dQw4w9WgXcQ.mp4", 4096)
	writeArtifact(t, dir, "a1B2c3D4e5_.mkv", 4096)
	writeArtifact(t, dir, "tiny0000000.mp4", 100)
	writeArtifact(t, dir, "notes.txt", 4096)

	ids, err := IDsInDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %v", ids)
	}

	ids, err = IDsInDir(filepath.Join(dir, "missing"))
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Fatalf("missing dir should yield no ids, got %v", ids)
	}
}
