package network

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ecampos-dev/epinet/internal/attendance"
	apperrors "github.com/ecampos-dev/epinet/pkg/errors"
	"github.com/ecampos-dev/epinet/pkg/metrics"
)

// Provider is the integration point the simulator, the analyzers, and the
// API use to obtain a day's matrix and the current index mapping. It keeps
// the IndexMap in step with the dataset version and routes matrix requests
// through the cache.
type Provider struct {
	store   attendance.Store
	builder *Builder
	cache   *Cache
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu            sync.Mutex
	mapper        *IndexMap
	mapperVersion int64
}

// NewProvider wires a Provider from its parts. m may be nil in tests.
func NewProvider(store attendance.Store, cache *Cache, m *metrics.Metrics) *Provider {
	return &Provider{
		store:   store,
		builder: NewBuilder(),
		cache:   cache,
		metrics: m,
		logger:  slog.Default().With("component", "network-provider"),
	}
}

// Mapper returns the index mapping for the current dataset version,
// rebuilding it when the dataset has changed since the last call.
func (p *Provider) Mapper(ctx context.Context) (*IndexMap, error) {
	version, err := p.store.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading dataset version: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mapper != nil && p.mapperVersion == version {
		return p.mapper, nil
	}

	ids, err := p.store.StudentIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading student ids: %w", err)
	}
	p.mapper = NewIndexMap(ids)
	p.mapperVersion = version
	p.logger.Info("index mapping rebuilt",
		"students", p.mapper.Len(),
		"dataset_version", version,
	)
	return p.mapper, nil
}

// MatrixForDay returns the sparse contact matrix for (day, mode) plus the
// mapper it was built against, constructing and caching the matrix if
// needed. Days without any contact-producing attendance yield
// ErrNoNetworkForDay.
func (p *Provider) MatrixForDay(ctx context.Context, day string, mode WeightMode) (*Matrix, *IndexMap, error) {
	mapper, err := p.Mapper(ctx)
	if err != nil {
		return nil, nil, err
	}
	version, err := p.store.Version(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("reading dataset version: %w", err)
	}

	key := Key{Day: day, Mode: mode, Version: version}
	matrix, err := p.cache.GetOrBuild(ctx, key, func(ctx context.Context) (*Matrix, error) {
		return p.build(ctx, day, mode, mapper)
	})
	if err != nil {
		return nil, nil, err
	}
	return matrix, mapper, nil
}

func (p *Provider) build(ctx context.Context, day string, mode WeightMode, mapper *IndexMap) (*Matrix, error) {
	start := time.Now()

	facts, err := p.store.FactsForDay(ctx, day)
	if err != nil {
		p.observeBuild("error", start)
		return nil, fmt.Errorf("loading facts for day %s: %w", day, err)
	}
	if len(facts) == 0 {
		p.observeBuild("error", start)
		return nil, fmt.Errorf("%w: %q", apperrors.ErrNoNetworkForDay, day)
	}
	classes, err := p.store.Classes(ctx)
	if err != nil {
		p.observeBuild("error", start)
		return nil, fmt.Errorf("loading classes: %w", err)
	}

	edges, err := p.builder.BuildEdges(facts, classes, mapper, mode)
	if err != nil {
		p.observeBuild("error", start)
		return nil, err
	}
	if len(edges) == 0 {
		p.observeBuild("error", start)
		return nil, fmt.Errorf("%w: %q", apperrors.ErrNoNetworkForDay, day)
	}

	matrix := NewMatrix(mapper.Len(), edges)
	p.observeBuild("ok", start)
	p.logger.Info("contact network built",
		"day", day,
		"weight_mode", string(mode),
		"nodes", matrix.NumNodes(),
		"edges", matrix.NumEdges(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return matrix, nil
}

func (p *Provider) observeBuild(status string, start time.Time) {
	if p.metrics == nil {
		return
	}
	p.metrics.NetworkBuildsTotal.WithLabelValues(status).Inc()
	if status == "ok" {
		p.metrics.NetworkBuildDuration.Observe(time.Since(start).Seconds())
	}
}

// CacheStats exposes the underlying cache's hit/miss counters.
func (p *Provider) CacheStats() (hits, misses int64) {
	return p.cache.Stats()
}

// Store returns the attendance store backing this provider.
func (p *Provider) Store() attendance.Store {
	return p.store
}
