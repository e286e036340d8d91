package search

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"modelhub/pkg/types"
)

// fakeClient serves canned search results per query and records calls.
type fakeClient struct {
	byQuery map[string][]types.RawModel
	errs    map[string]error
	failAll bool
	calls   []string
}

func (f *fakeClient) Search(_ context.Context, query string, _ int) ([]types.RawModel, error) {
	f.calls = append(f.calls, query)
	if f.failAll {
		return nil, errors.New("registry down")
	}
	if err, ok := f.errs[query]; ok {
		return nil, err
	}
	return f.byQuery[query], nil
}

func (f *fakeClient) ListFiles(context.Context, string) ([]string, error) { return nil, nil }
func (f *fakeClient) FetchRange(context.Context, string, string, int64) (io.ReadCloser, int64, error) {
	return nil, 0, errors.New("not implemented")
}
func (f *fakeClient) GetMetadata(context.Context, string) (*types.RawModel, error) {
	return nil, errors.New("not implemented")
}

func mlxModel(id string, downloads, likes int) types.RawModel {
	return types.RawModel{ID: id, Tags: []string{"mlx"}, Downloads: downloads, Likes: likes}
}

func newTestEngine(c *fakeClient) *Engine {
	return NewEngine(c, zerolog.Nop())
}

func TestSearchDeterministic(t *testing.T) {
	fc := &fakeClient{byQuery: map[string][]types.RawModel{
		"mlx": {mlxModel("org/b", 5, 0), mlxModel("org/a", 5, 1), mlxModel("org/c", 9, 0)},
	}}
	e := newTestEngine(fc)
	first, err := e.Search(context.Background(), types.SearchCriteria{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := e.Search(context.Background(), types.SearchCriteria{})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("non-deterministic result: %v vs %v", first, again)
		}
	}
}

func TestSearchRankingOrder(t *testing.T) {
	// downloads desc, then likes desc, then trending desc, then id asc
	fc := &fakeClient{byQuery: map[string][]types.RawModel{
		"mlx": {
			mlxModel("b", 50, 1),
			mlxModel("a", 200, 9),
			mlxModel("c", 200, 5),
			mlxModel("d", 200, 5),
		},
	}}
	got, err := newTestEngine(fc).Search(context.Background(), types.SearchCriteria{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	want := []string{"a", "c", "d", "b"}
	if len(got) != len(want) {
		t.Fatalf("got %d results", len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: got %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestSearchDedupAcrossStrategies(t *testing.T) {
	shared := mlxModel("org/shared", 100, 3)
	fc := &fakeClient{byQuery: map[string][]types.RawModel{
		"mlx instruct": {shared, mlxModel("org/x", 10, 0)},
		"mlx":          {shared, mlxModel("org/y", 500, 0)},
	}}
	got, err := newTestEngine(fc).Search(context.Background(), types.SearchCriteria{Type: types.ModelTypeChat})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	count := 0
	for _, d := range got {
		if d.ID == "org/shared" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("shared id appears %d times", count)
	}
	// position determined by ranking, not first-seen strategy
	if got[0].ID != "org/y" {
		t.Fatalf("expected org/y (500 downloads) first, got %s", got[0].ID)
	}
}

func TestSearchFailingStrategyIsSkipped(t *testing.T) {
	fc := &fakeClient{
		byQuery: map[string][]types.RawModel{
			"mlx": {mlxModel("org/ok", 1, 0)},
		},
		errs: map[string]error{"mlx instruct": errors.New("timeout")},
	}
	got, err := newTestEngine(fc).Search(context.Background(), types.SearchCriteria{Type: types.ModelTypeChat})
	if err != nil {
		t.Fatalf("one failing strategy must not abort search: %v", err)
	}
	if len(got) == 0 || got[0].ID != "org/ok" {
		t.Fatalf("unexpected results: %v", got)
	}
}

func TestSearchAllStrategiesFail(t *testing.T) {
	fc := &fakeClient{failAll: true}
	if _, err := newTestEngine(fc).Search(context.Background(), types.SearchCriteria{}); err == nil {
		t.Fatalf("expected error when every strategy fails")
	}
}

func TestSearchLenientFallbackRuns(t *testing.T) {
	// robust pass yields nothing; the generic fallback queries fill the pool
	fc := &fakeClient{byQuery: map[string][]types.RawModel{
		"mlx-community": {{ID: "mlx-community/tiny", Downloads: 2}},
	}}
	got, err := newTestEngine(fc).Search(context.Background(), types.SearchCriteria{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "mlx-community/tiny" {
		t.Fatalf("fallback results missing: %v", got)
	}
	sawFallback := false
	for _, q := range fc.calls {
		if q == "mlx-community" {
			sawFallback = true
		}
	}
	if !sawFallback {
		t.Fatalf("fallback query never executed: %v", fc.calls)
	}
}

func TestRobustFilterRequiresCompatSignal(t *testing.T) {
	// matches the requested type but carries no compatibility signal at all
	noSignal := types.RawModel{ID: "org/instruct-model-gguf", PipelineTag: "text-generation", Downloads: 9999}
	fc := &fakeClient{byQuery: map[string][]types.RawModel{
		"mlx instruct": {noSignal},
	}}
	got, err := newTestEngine(fc).Search(context.Background(), types.SearchCriteria{Type: types.ModelTypeChat})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, d := range got {
		if d.ID == noSignal.ID {
			t.Fatalf("candidate without compatibility signal survived the robust filter")
		}
	}
}

func TestRobustFilterCriteria(t *testing.T) {
	c := types.SearchCriteria{
		Architecture: "qwen",
		ExcludeArchs: []string{"llama"},
		MinDownloads: 10,
		MinLikes:     2,
	}
	keep := mlxModel("mlx-community/Qwen2.5-0.5B", 50, 5)
	if !robustKeep(&keep, c) {
		t.Fatalf("expected candidate to pass")
	}
	wrongArch := mlxModel("mlx-community/Llama-3-8B", 50, 5)
	if robustKeep(&wrongArch, c) {
		t.Fatalf("excluded architecture passed the filter")
	}
	fewDownloads := mlxModel("mlx-community/Qwen-tiny", 3, 5)
	if robustKeep(&fewDownloads, c) {
		t.Fatalf("min downloads not enforced")
	}
	gated := mlxModel("mlx-community/Qwen-gated", 50, 5)
	gated.Gated = true
	if robustKeep(&gated, c) {
		t.Fatalf("gated model passed the filter")
	}
}

func TestRobustFilterMaxSize(t *testing.T) {
	c := types.SearchCriteria{MaxFileSizeMB: 1}
	big := mlxModel("mlx-community/big", 1, 0)
	big.UsedStorage = 10 * 1024 * 1024
	if robustKeep(&big, c) {
		t.Fatalf("oversize candidate passed")
	}
	unknown := mlxModel("mlx-community/unknown-size", 1, 0)
	if !robustKeep(&unknown, c) {
		t.Fatalf("candidate with unknown size must not be excluded by max size")
	}
}

func TestRobustFilterSizeClassImpliesCap(t *testing.T) {
	c := types.SearchCriteria{Size: types.SizeSmall}
	big := mlxModel("mlx-community/too-big-for-small", 1, 0)
	big.UsedStorage = (types.SizeSmall.MaxSizeMB() + 1) * 1024 * 1024
	if robustKeep(&big, c) {
		t.Fatalf("candidate above the size-class ceiling passed")
	}
	ok := mlxModel("mlx-community/fits-small", 1, 0)
	ok.UsedStorage = 100 * 1024 * 1024
	if !robustKeep(&ok, c) {
		t.Fatalf("candidate within the size-class ceiling rejected")
	}
	// An explicit max overrides the class-implied one.
	loose := types.SearchCriteria{Size: types.SizeSmall, MaxFileSizeMB: 1 << 20}
	if !robustKeep(&big, loose) {
		t.Fatalf("explicit max must win over the class ceiling")
	}
}

func TestConvertExtraction(t *testing.T) {
	raw := types.RawModel{
		ID:   "mlx-community/Qwen2.5-13B-Instruct-4bit",
		Tags: []string{"mlx", "text-generation"},
	}
	d := Convert(raw)
	if d.Parameters != "13b" {
		t.Fatalf("parameters = %q, want 13b", d.Parameters)
	}
	if d.Quantization != "4bit" {
		t.Fatalf("quantization = %q", d.Quantization)
	}
	if d.Architecture != "qwen" {
		t.Fatalf("architecture = %q", d.Architecture)
	}

	blank := Convert(types.RawModel{ID: "org/unremarkable-model"})
	if blank.Parameters != "" || blank.Quantization != "" || blank.Architecture != "" {
		t.Fatalf("extraction guessed values: %+v", blank)
	}
}

func TestConvertEstimatesSizeFromSiblings(t *testing.T) {
	raw := types.RawModel{
		ID: "org/m",
		Siblings: []types.Sibling{
			{RFilename: "a", Size: 10},
			{RFilename: "b", Size: 32},
		},
	}
	if got := Convert(raw).EstimatedSizeBytes; got != 42 {
		t.Fatalf("estimated size = %d", got)
	}
}
