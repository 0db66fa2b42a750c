// Package verify answers the only question that matters for completion:
// does a real artifact for this video id exist on disk.
package verify

import (
	"os"
	"path/filepath"
	"strings"
)

// Extensions are the recognized artifact extensions, in the order they are
// probed.
var Extensions = []string{"mp4", "webm", "mkv", "m4a", "mp3"}

// MinArtifactSize rejects zero-byte or truncated placeholders left behind by
// interrupted transfers.
const MinArtifactSize = 1024

// Verifier checks for downloaded artifacts under a primary output directory.
type Verifier struct {
	outputDir string
}

func New(outputDir string) *Verifier {
	return &Verifier{outputDir: strings.TrimSpace(outputDir)}
}

// Exists reports whether a verified artifact for id is present in the output
// directory or any of the extra search directories. Pure query, no side
// effects.
func (v *Verifier) Exists(id string, extraDirs ...string) bool {
	dirs := append([]string{v.outputDir}, extraDirs...)
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		for _, ext := range Extensions {
			info, err := os.Stat(filepath.Join(dir, id+"."+ext))
			if err != nil {
				continue
			}
			if info.Mode().IsRegular() && info.Size() > MinArtifactSize {
				return true
			}
		}
	}
	return false
}

// IDsInDir returns the stems of all recognized artifacts in dir that pass the
// minimum size threshold. A missing directory yields an empty result.
func IDsInDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
		recognized := false
		for _, known := range Extensions {
			if ext == known {
				recognized = true
				break
			}
		}
		if !recognized {
			continue
		}
		info, err := e.Info()
		if err != nil || info.Size() <= MinArtifactSize {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, filepath.Ext(name)))
	}
	return ids, nil
}
