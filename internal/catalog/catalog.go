// Package catalog reports which directories under the local cache root hold
// complete model artifacts. Completeness is judged purely by file presence:
// a config file, a tokenizer file and a weights file, all non-empty.
// In-progress downloads simply fail the check and stay invisible.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"modelhub/internal/common/fsutil"
	"modelhub/pkg/types"
)

// idSeparator replaces the '/' of an "org/name" id in directory names.
// The mapping relies on the registry rejecting consecutive hyphens in org
// and repo names, so a literal "--" can never occur inside an id segment.
const idSeparator = "--"

// SafeDirName maps a model id to its cache directory name.
func SafeDirName(id string) string {
	return strings.ReplaceAll(id, "/", idSeparator)
}

// IDFromDir restores a model id from a cache directory name.
func IDFromDir(name string) string {
	return strings.Replace(name, idSeparator, "/", 1)
}

// Dir returns the cache directory for a model id under root.
func Dir(root, id string) string {
	return filepath.Join(root, SafeDirName(id))
}

// IsComplete reports whether dir holds all three required file roles.
func IsComplete(dir string) bool {
	return hasConfig(dir) && hasTokenizer(dir) && hasWeights(dir)
}

func hasConfig(dir string) bool {
	return fsutil.NonEmptyFile(filepath.Join(dir, "config.json"))
}

func hasTokenizer(dir string) bool {
	return fsutil.NonEmptyFile(filepath.Join(dir, "tokenizer.json")) ||
		fsutil.NonEmptyFile(filepath.Join(dir, "tokenizer.model"))
}

func hasWeights(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		if strings.HasSuffix(name, ".safetensors") || strings.HasSuffix(name, ".npz") {
			if fsutil.NonEmptyFile(filepath.Join(dir, e.Name())) {
				return true
			}
		}
	}
	return false
}

// ListDownloaded scans root and synthesizes a minimal descriptor for every
// complete artifact directory. Malformed or partial directories are skipped
// silently; only an unreadable root is an error.
func ListDownloaded(root string) ([]types.ModelDescriptor, error) {
	base, err := fsutil.ExpandHome(root)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache root: %w", err)
	}
	var out []types.ModelDescriptor
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(base, e.Name())
		if !IsComplete(dir) {
			continue
		}
		out = append(out, types.ModelDescriptor{
			ID:                 IDFromDir(e.Name()),
			EstimatedSizeBytes: dirSize(dir),
		})
	}
	return out, nil
}

func dirSize(dir string) int64 {
	var sum int64
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	for _, e := range entries {
		sum += fsutil.FileSize(filepath.Join(dir, e.Name()))
	}
	return sum
}
