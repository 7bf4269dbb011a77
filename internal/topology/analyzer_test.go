package topology

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecampos-dev/epinet/internal/attendance"
	"github.com/ecampos-dev/epinet/internal/network"
	"github.com/ecampos-dev/epinet/pkg/config"
	apperrors "github.com/ecampos-dev/epinet/pkg/errors"
)

// newTestAnalyzer seeds three students sharing a class on Monday. Redis is
// absent, so the result cache degrades to pass-through.
func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	store := attendance.NewMemStore()
	ctx := context.Background()
	require.NoError(t, store.UpsertClass(ctx, attendance.Class{ID: "math", DurationHours: 2}))
	for _, student := range []string{"s1", "s2", "s3"} {
		require.NoError(t, store.UpsertFact(ctx, attendance.Fact{
			StudentID: student, ClassID: "math", Day: "Monday", Present: true,
		}))
	}
	provider := network.NewProvider(store, network.NewCache(4, nil), nil)
	return NewAnalyzer(provider, NewResultCache(nil, config.RedisConfig{}), nil)
}

func TestAnalyzerMST(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	result, err := analyzer.MST(context.Background(), "Monday", network.WeightUniform, MSTInverse)
	require.NoError(t, err)
	assert.Equal(t, 3, result.NumNodes)
	assert.Len(t, result.Edges, 2)
	assert.Equal(t, 1, result.NumComponents)
}

func TestAnalyzerComponents(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	components, err := analyzer.Components(context.Background(), "Monday", network.WeightUniform)
	require.NoError(t, err)
	require.Len(t, components, 1)
	assert.Equal(t, 3, components[0].Size)
}

func TestAnalyzerCentrality(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	result, err := analyzer.Centrality(context.Background(), "Monday", network.WeightUniform)
	require.NoError(t, err)
	require.Len(t, result.Degree, 3)
	// A 3-clique: every node touches every other.
	for i := range result.Degree {
		assert.InDelta(t, 1.0, result.Degree[i], 1e-12)
	}
}

func TestAnalyzerUnknownDay(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	_, err := analyzer.MST(context.Background(), "Sunday", network.WeightUniform, MSTUniform)
	assert.ErrorIs(t, err, apperrors.ErrNoNetworkForDay)
}

func TestResultCacheWithoutRedis(t *testing.T) {
	cache := NewResultCache(nil, config.RedisConfig{})

	var out MSTResult
	assert.False(t, cache.Get(context.Background(), ResultKey{Analysis: "mst"}, &out))
	cache.Set(context.Background(), ResultKey{Analysis: "mst"}, &MSTResult{})
	assert.NoError(t, cache.Invalidate(context.Background()))

	_, misses := cache.Stats()
	assert.Equal(t, int64(1), misses)
}
