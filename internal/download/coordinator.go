// Package download fetches multi-file model artifacts from the registry with
// resume-on-interrupt, per-file SHA-256 verification and aggregated progress.
//
// Files within one model are transferred sequentially: one registry
// connection, bounded memory, and a simple aggregation rule for progress.
// Resume uses true byte-range requests from the current local size.
package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"modelhub/internal/catalog"
	"modelhub/internal/common/fsutil"
	"modelhub/internal/hub"
	"modelhub/pkg/types"
)

const copyChunkSize = 32 * 1024

// ProgressFunc receives the overall fraction in [0,1] (monotonically
// non-decreasing) and the file currently being transferred.
type ProgressFunc func(fraction float64, file string)

// Coordinator downloads model artifacts into a local cache root. It is safe
// for concurrent use; concurrent downloads of the same model id are rejected.
type Coordinator struct {
	client hub.Client
	log    zerolog.Logger

	mu     sync.Mutex
	active map[string]struct{}
}

// New builds a coordinator over the given registry client.
func New(client hub.Client, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		client: client,
		log:    log,
		active: make(map[string]struct{}),
	}
}

// Active returns the model ids with a download currently in flight.
func (c *Coordinator) Active() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.active))
	for id := range c.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *Coordinator) acquire(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.active[id]; busy {
		return false
	}
	c.active[id] = struct{}{}
	return true
}

func (c *Coordinator) release(id string) {
	c.mu.Lock()
	delete(c.active, id)
	c.mu.Unlock()
}

// Download fetches every file of the model into destRoot and returns the
// artifact directory. Already-verified local files are skipped, partial
// files are resumed from their current byte offset, and cancellation leaves
// partial files intact for a later resume.
func (c *Coordinator) Download(ctx context.Context, id, destRoot string, onProgress ProgressFunc) (string, error) {
	if !c.acquire(id) {
		return "", ErrInProgress(id)
	}
	defer c.release(id)

	root, err := fsutil.ExpandHome(destRoot)
	if err != nil {
		return "", err
	}
	dir := catalog.Dir(root, id)
	emit := newProgressEmitter(onProgress)

	if catalog.IsComplete(dir) {
		emit.report(1, "")
		return dir, nil
	}

	entries, err := c.resolveManifest(ctx, id)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", ErrFilesystem(dir, err)
	}

	emit.total = len(entries)
	for i, entry := range entries {
		emit.index = i
		if err := c.downloadFile(ctx, id, dir, entry, emit); err != nil {
			downloadsTotal.WithLabelValues("failed").Inc()
			return "", err
		}
	}

	if err := applyWeightsAlias(dir); err != nil {
		c.log.Warn().Str("model", id).Err(err).Msg("weights alias patch failed")
	}

	if !catalog.IsComplete(dir) {
		downloadsTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("artifact %s incomplete after download", id)
	}
	emit.report(1, "")
	downloadsTotal.WithLabelValues("ok").Inc()
	c.log.Info().Str("model", id).Str("path", dir).Msg("download complete")
	return dir, nil
}

// resolveManifest builds the file manifest from registry metadata.
func (c *Coordinator) resolveManifest(ctx context.Context, id string) ([]types.FileManifestEntry, error) {
	meta, err := c.client.GetMetadata(ctx, id)
	if err != nil {
		return nil, err
	}
	entries := make([]types.FileManifestEntry, 0, len(meta.Siblings))
	for _, s := range meta.Siblings {
		if s.RFilename == "" {
			continue
		}
		entries = append(entries, types.FileManifestEntry{
			Name:              s.RFilename,
			ExpectedSizeBytes: s.SizeBytes(),
			ExpectedChecksum:  s.Checksum(),
		})
	}
	if len(entries) == 0 {
		return nil, ErrEmptyManifest(id)
	}
	// Small metadata files first, large weights last: an early failure on
	// config/tokenizer costs little, and verified small files survive a
	// later weights failure for the next resume attempt.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].ExpectedSizeBytes != entries[j].ExpectedSizeBytes {
			return entries[i].ExpectedSizeBytes < entries[j].ExpectedSizeBytes
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// downloadFile brings one file to the verified state. A checksum mismatch
// after a completed transfer triggers exactly one clean re-download before
// surfacing as fatal.
func (c *Coordinator) downloadFile(ctx context.Context, id, dir string, entry types.FileManifestEntry, emit *progressEmitter) error {
	path := filepath.Join(dir, filepath.FromSlash(entry.Name))
	if parent := filepath.Dir(path); parent != dir {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return ErrFilesystem(parent, err)
		}
	}

	state := types.DownloadState{Name: entry.Name, Status: types.FilePending}
	offset := fsutil.FileSize(path)

	// A leftover file of exactly the expected size is verified in place when
	// a checksum is known. Size alone is only trusted when the registry
	// reported no digest.
	if offset > 0 && entry.ExpectedSizeBytes > 0 && offset == entry.ExpectedSizeBytes {
		if entry.ExpectedChecksum == "" {
			emit.report(1, entry.Name)
			return nil
		}
		ok, err := VerifyFile(path, entry.ExpectedChecksum)
		if err != nil {
			return err
		}
		if ok {
			emit.report(1, entry.Name)
			return nil
		}
		checksumFailures.Inc()
		if err := os.Remove(path); err != nil {
			return ErrFilesystem(path, err)
		}
		offset = 0
	}

	for attempt := 0; attempt < 2; attempt++ {
		if err := c.streamFile(ctx, id, path, entry, offset, &state, emit); err != nil {
			return err
		}
		if entry.ExpectedChecksum == "" {
			state.Status = types.FileVerified
			emit.report(1, entry.Name)
			return nil
		}
		ok, err := VerifyFile(path, entry.ExpectedChecksum)
		if err != nil {
			return err
		}
		if ok {
			state.Status = types.FileVerified
			emit.report(1, entry.Name)
			return nil
		}
		checksumFailures.Inc()
		c.log.Warn().Str("model", id).Str("file", entry.Name).Int("attempt", attempt+1).Msg("checksum mismatch, re-downloading")
		if err := os.Remove(path); err != nil {
			return ErrFilesystem(path, err)
		}
		offset = 0
	}
	state.Status = types.FileFailed
	return ErrChecksumMismatch(id, entry.Name)
}

// streamFile appends the remaining byte range onto the local file.
func (c *Coordinator) streamFile(ctx context.Context, id, path string, entry types.FileManifestEntry, offset int64, state *types.DownloadState, emit *progressEmitter) error {
	rc, total, err := c.client.FetchRange(ctx, id, entry.Name, offset)
	if err != nil {
		return err
	}
	defer rc.Close()
	if total <= 0 {
		total = entry.ExpectedSizeBytes
	}
	state.Status = types.FileInProgress
	state.ReceivedBytes = offset
	state.TotalBytes = total

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if offset == 0 {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return ErrFilesystem(path, err)
	}
	defer f.Close()

	buf := make([]byte, copyChunkSize)
	for {
		n, rerr := rc.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return ErrFilesystem(path, werr)
			}
			state.ReceivedBytes += int64(n)
			bytesTotal.Add(float64(n))
			if state.TotalBytes > 0 {
				emit.report(float64(state.ReceivedBytes)/float64(state.TotalBytes), entry.Name)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			// Cancellation is not failure: the partial file stays for resume.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return hub.ErrTransient("stream "+id+"/"+entry.Name, rerr)
		}
	}
	if err := f.Sync(); err != nil {
		return ErrFilesystem(path, err)
	}
	if state.TotalBytes > 0 && state.ReceivedBytes < state.TotalBytes {
		return hub.ErrTransient("stream "+id+"/"+entry.Name,
			fmt.Errorf("short read: %d of %d bytes", state.ReceivedBytes, state.TotalBytes))
	}
	return nil
}

// CleanupIncomplete removes every cache directory that fails the
// completeness check, skipping models with a download in flight. Running it
// twice yields the same retained set.
func (c *Coordinator) CleanupIncomplete(root string) ([]string, error) {
	base, err := fsutil.ExpandHome(root)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ErrFilesystem(base, err)
	}
	var removed []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id := catalog.IDFromDir(e.Name())
		c.mu.Lock()
		_, busy := c.active[id]
		c.mu.Unlock()
		if busy {
			continue
		}
		dir := filepath.Join(base, e.Name())
		if catalog.IsComplete(dir) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			c.log.Warn().Str("dir", dir).Err(err).Msg("cleanup failed")
			continue
		}
		removed = append(removed, id)
	}
	return removed, nil
}

// progressEmitter aggregates per-file fractions into one monotone overall
// fraction and shields the transfer loop from callback panics.
type progressEmitter struct {
	fn    ProgressFunc
	total int
	index int
	last  float64
}

func newProgressEmitter(fn ProgressFunc) *progressEmitter {
	return &progressEmitter{fn: fn, total: 1}
}

func (p *progressEmitter) report(fileFrac float64, file string) {
	if p.fn == nil {
		return
	}
	if fileFrac < 0 {
		fileFrac = 0
	}
	if fileFrac > 1 {
		fileFrac = 1
	}
	overall := (float64(p.index) + fileFrac) / float64(p.total)
	if overall > 1 {
		overall = 1
	}
	if overall < p.last {
		overall = p.last
	}
	p.last = overall
	defer func() { _ = recover() }()
	p.fn(overall, file)
}
