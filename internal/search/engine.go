package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"modelhub/internal/hub"
	"modelhub/pkg/types"
)

// Tuning knobs for strategy execution.
const (
	defaultStrategyLimit = 50 // per-strategy registry result cap
	defaultTargetUnique  = 30 // stop executing strategies once reached
	defaultMinUnique     = 10 // below this the lenient fallback pass runs
)

// fallbackQueries are the very generic queries used by the lenient pass.
var fallbackQueries = []string{compatPublisher, compatTag + " model"}

// Engine turns loose search criteria into a deduplicated, deterministically
// ranked candidate list.
type Engine struct {
	client hub.Client
	log    zerolog.Logger

	limit  int
	target int
	min    int
}

// NewEngine builds an engine over the given registry client.
func NewEngine(client hub.Client, log zerolog.Logger) *Engine {
	return &Engine{
		client: client,
		log:    log,
		limit:  defaultStrategyLimit,
		target: defaultTargetUnique,
		min:    defaultMinUnique,
	}
}

// SetStrategyLimit overrides the per-strategy registry result cap.
func (e *Engine) SetStrategyLimit(n int) {
	if n > 0 {
		e.limit = n
	}
}

// buildStrategies returns query strings ordered most specific first. The
// bare compatibility tag and the curated community terms are always present
// so at least one strategy runs for any criteria.
func buildStrategies(c types.SearchCriteria) []string {
	var qs []string
	if c.Type != "" {
		qs = append(qs, compatTag+" "+c.Type.SearchHint())
	}
	if c.Size != "" {
		if term := c.Size.SearchTerm(); term != "" {
			qs = append(qs, compatTag+" "+term)
		}
	}
	if c.Architecture != "" {
		qs = append(qs, compatTag+" "+strings.ToLower(c.Architecture))
	}
	if c.Quant != "" {
		qs = append(qs, compatTag+" "+string(c.Quant))
	}
	qs = append(qs, compatTag)
	qs = append(qs, compatPublisher, compatTag+" community")
	return qs
}

// Search executes strategies in order, filters and deduplicates results and
// returns them in a total ranking order. It fails only when every registry
// call failed.
func (e *Engine) Search(ctx context.Context, criteria types.SearchCriteria) ([]types.ModelDescriptor, error) {
	seen := make(map[string]types.RawModel)
	order := make([]string, 0, e.target)
	var attempted, failed int
	var lastErr error

	accumulate := func(records []types.RawModel, keep func(*types.RawModel) bool) {
		for i := range records {
			r := records[i]
			if r.ID == "" || !keep(&r) {
				continue
			}
			if _, dup := seen[r.ID]; dup {
				continue
			}
			seen[r.ID] = r
			order = append(order, r.ID)
		}
	}

	for _, q := range buildStrategies(criteria) {
		if len(order) >= e.target {
			break
		}
		attempted++
		records, err := e.client.Search(ctx, q, e.limit)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failed++
			lastErr = err
			strategiesTotal.WithLabelValues("failed").Inc()
			e.log.Warn().Str("strategy", q).Err(err).Msg("search strategy failed")
			continue
		}
		strategiesTotal.WithLabelValues("ok").Inc()
		accumulate(records, func(r *types.RawModel) bool { return robustKeep(r, criteria) })
	}

	if len(order) < e.min {
		for _, q := range fallbackQueries {
			attempted++
			records, err := e.client.Search(ctx, q, e.limit)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				failed++
				lastErr = err
				strategiesTotal.WithLabelValues("failed").Inc()
				e.log.Warn().Str("strategy", q).Err(err).Msg("fallback strategy failed")
				continue
			}
			strategiesTotal.WithLabelValues("ok").Inc()
			accumulate(records, lenientKeep)
		}
	}

	if failed == attempted && attempted > 0 {
		return nil, fmt.Errorf("all %d search strategies failed: %w", attempted, lastErr)
	}

	out := make([]types.ModelDescriptor, 0, len(order))
	for _, id := range order {
		out = append(out, Convert(seen[id]))
	}
	Rank(out)
	resultsTotal.Add(float64(len(out)))
	return out, nil
}

// Rank sorts descriptors into the canonical total order: downloads desc,
// likes desc, trending desc, id asc. The id tie-break makes the order
// deterministic for identical inputs.
func Rank(list []types.ModelDescriptor) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Downloads != b.Downloads {
			return a.Downloads > b.Downloads
		}
		if a.Likes != b.Likes {
			return a.Likes > b.Likes
		}
		if a.TrendingScore != b.TrendingScore {
			return a.TrendingScore > b.TrendingScore
		}
		return a.ID < b.ID
	})
}
