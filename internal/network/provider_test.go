package network

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecampos-dev/epinet/internal/attendance"
	apperrors "github.com/ecampos-dev/epinet/pkg/errors"
)

func seededStore(t *testing.T) *attendance.MemStore {
	t.Helper()
	store := attendance.NewMemStore()
	ctx := context.Background()
	require.NoError(t, store.UpsertClass(ctx, attendance.Class{ID: "math", DurationHours: 2}))
	for _, student := range []string{"s1", "s2", "s3"} {
		require.NoError(t, store.UpsertFact(ctx, attendance.Fact{
			StudentID: student, ClassID: "math", Day: "Monday", Present: true,
		}))
	}
	return store
}

func TestProviderMatrixForDay(t *testing.T) {
	provider := NewProvider(seededStore(t), NewCache(4, nil), nil)

	m, mapper, err := provider.MatrixForDay(context.Background(), "Monday", WeightUniform)
	require.NoError(t, err)
	assert.Equal(t, 3, mapper.Len())
	assert.Equal(t, 3, m.NumEdges())
}

func TestProviderNoNetworkForDay(t *testing.T) {
	provider := NewProvider(seededStore(t), NewCache(4, nil), nil)

	_, _, err := provider.MatrixForDay(context.Background(), "Sunday", WeightUniform)
	assert.ErrorIs(t, err, apperrors.ErrNoNetworkForDay)
}

func TestProviderMapperTracksDatasetVersion(t *testing.T) {
	store := seededStore(t)
	provider := NewProvider(store, NewCache(4, nil), nil)
	ctx := context.Background()

	mapper, err := provider.Mapper(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, mapper.Len())

	// Same version returns the same mapper instance.
	again, err := provider.Mapper(ctx)
	require.NoError(t, err)
	assert.Same(t, mapper, again)

	require.NoError(t, store.UpsertFact(ctx, attendance.Fact{
		StudentID: "s4", ClassID: "math", Day: "Monday", Present: true,
	}))
	rebuilt, err := provider.Mapper(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, rebuilt.Len())
}

func TestProviderCachesPerVersion(t *testing.T) {
	store := seededStore(t)
	cache := NewCache(4, nil)
	provider := NewProvider(store, cache, nil)
	ctx := context.Background()

	_, _, err := provider.MatrixForDay(ctx, "Monday", WeightUniform)
	require.NoError(t, err)
	_, _, err = provider.MatrixForDay(ctx, "Monday", WeightUniform)
	require.NoError(t, err)
	hits, misses := cache.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)

	// A dataset write changes the cache key, forcing a rebuild.
	require.NoError(t, store.UpsertFact(ctx, attendance.Fact{
		StudentID: "s1", ClassID: "math", Day: "Tuesday", Present: true,
	}))
	_, _, err = provider.MatrixForDay(ctx, "Monday", WeightUniform)
	require.NoError(t, err)
	_, misses = cache.Stats()
	assert.Equal(t, int64(2), misses)
}
