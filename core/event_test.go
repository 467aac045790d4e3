package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEvent(t *testing.T) {
	e := NewEvent("task_completed", map[string]any{"n": 1})
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "task_completed", e.Name)
	assert.False(t, e.Timestamp.IsZero())
	assert.Len(t, NewID(), 36)
}

func TestEventLog_TailAndAll(t *testing.T) {
	log := NewEventLog()
	_, ok := log.Last()
	assert.False(t, ok)
	assert.Empty(t, log.Tail(5))

	for i := 0; i < 7; i++ {
		log.Append(NewEvent(fmt.Sprintf("e%d", i), nil))
	}

	assert.Equal(t, 7, log.Len())
	tail := log.Tail(5)
	assert.Len(t, tail, 5)
	assert.Equal(t, "e2", tail[0].Name)
	assert.Equal(t, "e6", tail[4].Name)
	assert.Len(t, log.Tail(50), 7)
	assert.Empty(t, log.Tail(0))

	last, ok := log.Last()
	assert.True(t, ok)
	assert.Equal(t, "e6", last.Name)

	// copies do not alias internal storage
	all := log.All()
	all[0].Name = "mutated"
	assert.Equal(t, "e0", log.All()[0].Name)
}
