package download

import "fmt"

// emptyManifestError: the registry lists no files for the model.
type emptyManifestError struct{ id string }

func (e emptyManifestError) Error() string { return "empty manifest: " + e.id }

// ErrEmptyManifest constructs the fatal no-files error for a model.
func ErrEmptyManifest(id string) error { return emptyManifestError{id: id} }

// IsEmptyManifest reports whether err means the model has nothing to download.
func IsEmptyManifest(err error) bool {
	_, ok := err.(emptyManifestError)
	return ok
}

// checksumMismatchError: a fully transferred file failed verification.
type checksumMismatchError struct {
	id   string
	file string
}

func (e checksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: %s/%s", e.id, e.file)
}

// ErrChecksumMismatch constructs a verification failure for one file.
func ErrChecksumMismatch(id, file string) error {
	return checksumMismatchError{id: id, file: file}
}

// IsChecksumMismatch reports whether err is a failed file verification.
func IsChecksumMismatch(err error) bool {
	_, ok := err.(checksumMismatchError)
	return ok
}

// inProgressError: a second download for the same model was rejected.
type inProgressError struct{ id string }

func (e inProgressError) Error() string { return "download already in progress: " + e.id }

// ErrInProgress constructs the concurrent-download rejection for a model.
func ErrInProgress(id string) error { return inProgressError{id: id} }

// IsInProgress reports whether err is a rejected concurrent download.
func IsInProgress(err error) bool {
	_, ok := err.(inProgressError)
	return ok
}

// filesystemError wraps a local I/O failure with the file it hit.
// Never retried.
type filesystemError struct {
	path string
	err  error
}

func (e filesystemError) Error() string { return fmt.Sprintf("filesystem: %s: %v", e.path, e.err) }
func (e filesystemError) Unwrap() error { return e.err }

// ErrFilesystem wraps a local I/O failure.
func ErrFilesystem(path string, err error) error { return filesystemError{path: path, err: err} }

// IsFilesystem reports whether err is a local I/O failure.
func IsFilesystem(err error) bool {
	for err != nil {
		if _, ok := err.(filesystemError); ok {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
