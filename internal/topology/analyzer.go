package topology

import (
	"context"
	"log/slog"
	"time"

	"github.com/ecampos-dev/epinet/internal/network"
	"github.com/ecampos-dev/epinet/pkg/metrics"
)

// Analyzer runs topology analyses against per-day contact matrices, caching
// serialized results in Redis keyed by dataset version so a data change
// naturally invalidates them.
type Analyzer struct {
	provider *network.Provider
	cache    *ResultCache
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewAnalyzer wires an Analyzer. m may be nil in tests.
func NewAnalyzer(provider *network.Provider, cache *ResultCache, m *metrics.Metrics) *Analyzer {
	return &Analyzer{
		provider: provider,
		cache:    cache,
		metrics:  m,
		logger:   slog.Default().With("component", "topology-analyzer"),
	}
}

// MST computes (or fetches) the minimum spanning forest for the given day
// under the given weight and transform modes.
func (a *Analyzer) MST(ctx context.Context, day string, weightMode network.WeightMode, mstMode MSTMode) (*MSTResult, error) {
	key, err := a.resultKey(ctx, "mst", day, weightMode, string(mstMode))
	if err != nil {
		return nil, err
	}

	var cached MSTResult
	val, hit, err := a.cache.Do(ctx, key, &cached, func() (any, error) {
		m, _, err := a.provider.MatrixForDay(ctx, day, weightMode)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		result := KruskalMST(m, mstMode)
		a.observe("mst", start)
		return &result, nil
	})
	if err != nil {
		return nil, err
	}
	a.logResult("mst", day, hit)
	return val.(*MSTResult), nil
}

// Components computes (or fetches) the weakly connected components of the
// day's contact graph.
func (a *Analyzer) Components(ctx context.Context, day string, weightMode network.WeightMode) ([]Component, error) {
	key, err := a.resultKey(ctx, "components", day, weightMode, "")
	if err != nil {
		return nil, err
	}

	var cached []Component
	val, hit, err := a.cache.Do(ctx, key, &cached, func() (any, error) {
		m, _, err := a.provider.MatrixForDay(ctx, day, weightMode)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		components := ConnectedComponents(m)
		a.observe("components", start)
		return &components, nil
	})
	if err != nil {
		return nil, err
	}
	a.logResult("components", day, hit)
	return *val.(*[]Component), nil
}

// Centrality computes (or fetches) per-node degree, betweenness, and
// closeness scores for the day's contact graph.
func (a *Analyzer) Centrality(ctx context.Context, day string, weightMode network.WeightMode) (*CentralityResult, error) {
	key, err := a.resultKey(ctx, "centrality", day, weightMode, "")
	if err != nil {
		return nil, err
	}

	var cached CentralityResult
	val, hit, err := a.cache.Do(ctx, key, &cached, func() (any, error) {
		m, _, err := a.provider.MatrixForDay(ctx, day, weightMode)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		result := CentralityScores(m)
		a.observe("centrality", start)
		return &result, nil
	})
	if err != nil {
		return nil, err
	}
	a.logResult("centrality", day, hit)
	return val.(*CentralityResult), nil
}

// Provider exposes the contact-network provider the analyzer reads from.
func (a *Analyzer) Provider() *network.Provider {
	return a.provider
}

// CacheStats returns the Redis result cache's hit/miss counters.
func (a *Analyzer) CacheStats() (hits, misses int64) {
	return a.cache.Stats()
}

// Invalidate drops every cached topology result.
func (a *Analyzer) Invalidate(ctx context.Context) error {
	return a.cache.Invalidate(ctx)
}

func (a *Analyzer) resultKey(ctx context.Context, analysis, day string, weightMode network.WeightMode, mstMode string) (ResultKey, error) {
	version, err := a.provider.Store().Version(ctx)
	if err != nil {
		return ResultKey{}, err
	}
	return ResultKey{
		Analysis: analysis,
		Day:      day,
		Mode:     string(weightMode),
		MSTMode:  mstMode,
		Version:  version,
	}, nil
}

func (a *Analyzer) observe(analysis string, start time.Time) {
	if a.metrics == nil {
		return
	}
	a.metrics.AnalysisLatency.WithLabelValues(analysis).Observe(time.Since(start).Seconds())
}

func (a *Analyzer) logResult(analysis, day string, hit bool) {
	a.logger.Debug("analysis served", "analysis", analysis, "day", day, "cache_hit", hit)
}
