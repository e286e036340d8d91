package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"modelhub/pkg/types"
)

// Client is the registry surface consumed by the search engine and the
// download coordinator. Implementations must be safe for concurrent use.
type Client interface {
	// Search returns up to limit raw records matching query.
	Search(ctx context.Context, query string, limit int) ([]types.RawModel, error)
	// ListFiles returns the relative file names of the artifact id.
	ListFiles(ctx context.Context, id string) ([]string, error)
	// FetchRange streams file bytes starting at offset. The returned size is
	// the total size of the complete file, not the remaining bytes.
	FetchRange(ctx context.Context, id, file string, offset int64) (io.ReadCloser, int64, error)
	// GetMetadata returns the full record for a single model.
	GetMetadata(ctx context.Context, id string) (*types.RawModel, error)
}

// Options configures the HTTP client.
type Options struct {
	// BaseURL of the registry, e.g. "https://huggingface.co".
	BaseURL string
	// Token is sent as a bearer token when non-empty.
	Token string
	// Timeout bounds each HTTP call. Defaults to 30s.
	Timeout time.Duration
	// MaxRetries for transient failures. Defaults to 3 attempts total.
	MaxRetries int
	// HTTPClient overrides the underlying client (tests).
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

type httpClient struct {
	base    string
	token   string
	retries int
	hc      *http.Client
	log     zerolog.Logger
}

// New returns a Client talking to a HuggingFace-style registry API.
func New(opts Options) Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	retries := opts.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	return &httpClient{
		base:    strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		retries: retries,
		hc:      hc,
		log:     opts.Logger,
	}
}

func (c *httpClient) newRequest(ctx context.Context, method, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// doRetry issues the request built by build, retrying transient failures
// with exponential backoff and jitter. Not-found responses are never retried.
func (c *httpClient) doRetry(ctx context.Context, op string, build func() (*http.Request, error)) (*http.Response, error) {
	delay := 500 * time.Millisecond
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		req, err := build()
		if err != nil {
			return nil, err
		}
		resp, err := c.hc.Do(req)
		if err != nil {
			lastErr = ErrTransient(op, err)
		} else {
			switch {
			case resp.StatusCode < 400:
				return resp, nil
			case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
				resp.Body.Close()
				return nil, ErrNotFound(op, "")
			case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable:
				// Range callers interpret this as nothing left to fetch.
				return resp, nil
			case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
				resp.Body.Close()
				lastErr = ErrTransient(op, fmt.Errorf("status %d", resp.StatusCode))
			default:
				resp.Body.Close()
				return nil, fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
			}
		}
		if attempt == c.retries {
			break
		}
		c.log.Debug().Str("op", op).Int("attempt", attempt).Err(lastErr).Msg("registry call retry")
		jitter := time.Duration(rand.Int63n(int64(delay / 4)))
		select {
		case <-time.After(delay + jitter):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		delay *= 2
	}
	return nil, lastErr
}

func (c *httpClient) Search(ctx context.Context, query string, limit int) ([]types.RawModel, error) {
	q := url.Values{}
	q.Set("search", query)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("full", "true")
	rawURL := c.base + "/api/models?" + q.Encode()
	resp, err := c.doRetry(ctx, "search "+query, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, rawURL)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var out []types.RawModel
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return out, nil
}

func (c *httpClient) GetMetadata(ctx context.Context, id string) (*types.RawModel, error) {
	rawURL := c.base + "/api/models/" + escapeID(id)
	resp, err := c.doRetry(ctx, "metadata "+id, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, rawURL)
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrNotFound(id, "")
		}
		return nil, err
	}
	defer resp.Body.Close()
	var m types.RawModel
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &m, nil
}

func (c *httpClient) ListFiles(ctx context.Context, id string) ([]string, error) {
	m, err := c.GetMetadata(ctx, id)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(m.Siblings))
	for _, s := range m.Siblings {
		if s.RFilename != "" {
			files = append(files, s.RFilename)
		}
	}
	return files, nil
}

func (c *httpClient) FetchRange(ctx context.Context, id, file string, offset int64) (io.ReadCloser, int64, error) {
	rawURL := c.base + "/" + escapeID(id) + "/resolve/main/" + escapePath(file)
	resp, err := c.doRetry(ctx, "fetch "+id+"/"+file, func() (*http.Request, error) {
		req, err := c.newRequest(ctx, http.MethodGet, rawURL)
		if err != nil {
			return nil, err
		}
		if offset > 0 {
			req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
		}
		return req, nil
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, 0, ErrNotFound(id, file)
		}
		return nil, 0, err
	}
	total := int64(0)
	switch resp.StatusCode {
	case http.StatusRequestedRangeNotSatisfiable:
		// The file is already fully present locally. A compliant server
		// reports the total as "bytes */T".
		resp.Body.Close()
		total = parseContentRangeTotal(resp.Header.Get("Content-Range"))
		if total == 0 {
			total = offset
		}
		return io.NopCloser(strings.NewReader("")), total, nil
	case http.StatusPartialContent:
		total = parseContentRangeTotal(resp.Header.Get("Content-Range"))
		if total == 0 && resp.ContentLength > 0 {
			total = offset + resp.ContentLength
		}
		return resp.Body, total, nil
	default:
		// Server ignored the range request; skip the already-held prefix
		// lazily so resume semantics still hold.
		total = resp.ContentLength
		if offset > 0 {
			return &skipReader{rc: resp.Body, skip: offset}, total, nil
		}
		return resp.Body, total, nil
	}
}

// skipReader discards the first skip bytes of the wrapped stream.
type skipReader struct {
	rc   io.ReadCloser
	skip int64
}

func (s *skipReader) Read(p []byte) (int, error) {
	for s.skip > 0 {
		n, err := io.CopyN(io.Discard, s.rc, s.skip)
		s.skip -= n
		if err != nil {
			return 0, err
		}
	}
	return s.rc.Read(p)
}

func (s *skipReader) Close() error { return s.rc.Close() }

// parseContentRangeTotal extracts the total size from a "bytes N-M/T" header.
func parseContentRangeTotal(h string) int64 {
	idx := strings.LastIndexByte(h, '/')
	if idx < 0 {
		return 0
	}
	n, err := strconv.ParseInt(h[idx+1:], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// escapeID keeps the org/name slash while escaping other path characters.
func escapeID(id string) string {
	parts := strings.Split(id, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func escapePath(p string) string {
	return escapeID(p)
}
