package attendance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreRoundTrip(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	require.NoError(t, store.UpsertClass(ctx, Class{ID: "math", DurationHours: 2}))
	require.NoError(t, store.UpsertFact(ctx, Fact{StudentID: "s2", ClassID: "math", Day: "Monday", Present: true}))
	require.NoError(t, store.UpsertFact(ctx, Fact{StudentID: "s1", ClassID: "math", Day: "Monday", Present: true}))
	require.NoError(t, store.UpsertFact(ctx, Fact{StudentID: "s1", ClassID: "math", Day: "Tuesday", Present: false}))

	ids, err := store.StudentIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, ids)

	days, err := store.Days(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Monday", "Tuesday"}, days)

	classes, err := store.Classes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.0, classes["math"].DurationHours)
}

func TestMemStoreFactsForDayOrdering(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	require.NoError(t, store.UpsertFact(ctx, Fact{StudentID: "s2", ClassID: "art", Day: "Monday", Present: true}))
	require.NoError(t, store.UpsertFact(ctx, Fact{StudentID: "s1", ClassID: "math", Day: "Monday", Present: true}))
	require.NoError(t, store.UpsertFact(ctx, Fact{StudentID: "s1", ClassID: "art", Day: "Monday", Present: true}))
	require.NoError(t, store.UpsertFact(ctx, Fact{StudentID: "s9", ClassID: "art", Day: "Tuesday", Present: true}))

	facts, err := store.FactsForDay(ctx, "Monday")
	require.NoError(t, err)
	require.Len(t, facts, 3)
	assert.Equal(t, "art", facts[0].ClassID)
	assert.Equal(t, "s1", facts[0].StudentID)
	assert.Equal(t, "s2", facts[1].StudentID)
	assert.Equal(t, "math", facts[2].ClassID)
}

func TestMemStoreUpsertReplaces(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	require.NoError(t, store.UpsertFact(ctx, Fact{StudentID: "s1", ClassID: "math", Day: "Monday", Present: true}))
	require.NoError(t, store.UpsertFact(ctx, Fact{StudentID: "s1", ClassID: "math", Day: "Monday", Present: false}))

	facts, err := store.FactsForDay(ctx, "Monday")
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.False(t, facts[0].Present)
}

func TestMemStoreVersionBumpsOnWrite(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	v0, err := store.Version(ctx)
	require.NoError(t, err)

	require.NoError(t, store.UpsertFact(ctx, Fact{StudentID: "s1", ClassID: "math", Day: "Monday", Present: true}))
	v1, err := store.Version(ctx)
	require.NoError(t, err)
	assert.Greater(t, v1, v0)

	require.NoError(t, store.UpsertClass(ctx, Class{ID: "math", DurationHours: 1}))
	v2, err := store.Version(ctx)
	require.NoError(t, err)
	assert.Greater(t, v2, v1)
}
