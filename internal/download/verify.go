package download

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"
)

// VerifyFile streams path through SHA-256 and compares against expectedHex
// (case-insensitive). It returns false with a nil error on a plain mismatch;
// the error is non-nil only when the file cannot be read.
func VerifyFile(path, expectedHex string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, ErrFilesystem(path, err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, ErrFilesystem(path, err)
	}
	actual := hex.EncodeToString(h.Sum(nil))
	return strings.EqualFold(actual, expectedHex), nil
}
