package hubctl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"modelhub/pkg/types"
)

// apiClient talks to a running modelhubd over its HTTP API.
type apiClient struct {
	base string
	hc   *http.Client
}

func newAPIClient(base string) *apiClient {
	return &apiClient{base: strings.TrimRight(base, "/"), hc: http.DefaultClient}
}

func (c *apiClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *apiClient) Models(ctx context.Context) ([]types.ModelDescriptor, error) {
	var out types.ModelsResponse
	if err := c.getJSON(ctx, "/models", &out); err != nil {
		return nil, err
	}
	return out.Models, nil
}

func (c *apiClient) Search(ctx context.Context, q url.Values) ([]types.ModelDescriptor, error) {
	var out types.SearchResponse
	if err := c.getJSON(ctx, "/search?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Models, nil
}

func (c *apiClient) Status(ctx context.Context) (types.StatusResponse, error) {
	var out types.StatusResponse
	err := c.getJSON(ctx, "/status", &out)
	return out, err
}

func (c *apiClient) Delete(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.base+"/models/"+id, nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *apiClient) Cleanup(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/cleanup", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, apiError(resp)
	}
	var out types.CleanupResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Removed, nil
}

// Pull streams the daemon's NDJSON progress lines, invoking onProgress for
// each. It returns the final downloaded path.
func (c *apiClient) Pull(ctx context.Context, model string, onProgress func(types.PullProgress)) (string, error) {
	body, err := json.Marshal(types.PullRequest{Model: model})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/pull", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", apiError(resp)
	}

	var last types.PullProgress
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var p types.PullProgress
		if err := json.Unmarshal(line, &p); err != nil {
			return "", fmt.Errorf("malformed progress line: %w", err)
		}
		last = p
		if onProgress != nil {
			onProgress(p)
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if last.Error != "" {
		return "", fmt.Errorf("pull failed: %s", last.Error)
	}
	if !last.Done {
		return "", fmt.Errorf("pull stream ended before completion")
	}
	return last.Path, nil
}

func apiError(resp *http.Response) error {
	var body types.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("%s (status %d)", body.Error, resp.StatusCode)
	}
	return fmt.Errorf("unexpected status %d", resp.StatusCode)
}
