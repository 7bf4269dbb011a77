package attendance

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleRecordStoresFactAndClass(t *testing.T) {
	store := NewMemStore()
	handler := HandleRecord(store, nil)
	ctx := context.Background()

	payload, err := json.Marshal(Record{
		StudentID:     "s1",
		ClassID:       "math",
		Day:           "Monday",
		Present:       true,
		DurationHours: 1.5,
	})
	require.NoError(t, err)

	require.NoError(t, handler(ctx, []byte("s1"), payload))

	facts, err := store.FactsForDay(ctx, "Monday")
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "s1", facts[0].StudentID)

	classes, err := store.Classes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.5, classes["math"].DurationHours)
}

func TestHandleRecordSkipsMalformedJSON(t *testing.T) {
	store := NewMemStore()
	handler := HandleRecord(store, nil)

	// Malformed messages are dropped, not retried.
	assert.NoError(t, handler(context.Background(), nil, []byte("{not json")))

	ids, err := store.StudentIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestHandleRecordSkipsInvalidRecord(t *testing.T) {
	store := NewMemStore()
	handler := HandleRecord(store, nil)

	payload, err := json.Marshal(Record{StudentID: "", ClassID: "math", Day: "Monday", DurationHours: 1})
	require.NoError(t, err)
	assert.NoError(t, handler(context.Background(), nil, payload))

	ids, err := store.StudentIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
