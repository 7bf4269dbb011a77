package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecampos-dev/epinet/internal/epidemic"
)

func TestPartitionKeyFollowsRunID(t *testing.T) {
	assert.Equal(t, "run-1", partitionKey(epidemic.RunStartedEvent{RunID: "run-1"}))
	assert.Equal(t, "run-2", partitionKey(epidemic.TickEvent{RunID: "run-2"}))
	assert.Equal(t, "run-3", partitionKey(epidemic.RunCompletedEvent{RunID: "run-3"}))
	assert.Equal(t, "simulation", partitionKey(struct{}{}))
}

func TestTrackDropsWhenBufferFull(t *testing.T) {
	// No publish loop running: the channel fills and further events drop
	// instead of blocking the simulator.
	c := NewCollector(nil, 2)
	for i := 0; i < 5; i++ {
		c.Track(epidemic.TickEvent{RunID: "run-1", DayNumber: i})
	}
	assert.Len(t, c.eventCh, 2)
}

func TestTrackAfterCloseIsDiscarded(t *testing.T) {
	// Handlers racing shutdown may still call Track after Close; the event
	// must be dropped, never panic.
	c := NewCollector(nil, 4)
	c.Start(context.Background())
	c.Close()

	assert.NotPanics(t, func() {
		c.Track(epidemic.TickEvent{RunID: "run-1"})
	})
	assert.Len(t, c.eventCh, 0)
}
