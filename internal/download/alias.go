package download

import (
	"io"
	"os"
	"path/filepath"

	"modelhub/internal/common/fsutil"
)

// Weights file names: the registry ships model.safetensors, older runtime
// builds look for weights.safetensors.
const (
	canonicalWeights = "model.safetensors"
	aliasWeights     = "weights.safetensors"
)

// applyWeightsAlias creates the legacy alias next to the canonical weights
// file when the alias is missing. Symlink where supported, byte copy
// otherwise. Best effort; callers log failures and move on.
func applyWeightsAlias(dir string) error {
	src := filepath.Join(dir, canonicalWeights)
	dst := filepath.Join(dir, aliasWeights)
	if !fsutil.NonEmptyFile(src) || fsutil.PathExists(dst) {
		return nil
	}
	if err := os.Symlink(canonicalWeights, dst); err == nil {
		return nil
	}
	return copyFile(src, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return ErrFilesystem(src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return ErrFilesystem(dst, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return ErrFilesystem(dst, err)
	}
	return nil
}
