package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := New()

	id1, ch1 := bus.Subscribe(4)
	id2, ch2 := bus.Subscribe(4)
	defer bus.Unsubscribe(id1)
	defer bus.Unsubscribe(id2)

	bus.PublishNew(TypeTaskCreated, 7, "Write tests")

	ev1 := <-ch1
	ev2 := <-ch2
	assert.Equal(t, TypeTaskCreated, ev1.Type)
	assert.Equal(t, int64(7), ev1.TaskID)
	assert.Equal(t, "Write tests", ev1.TaskTitle)
	assert.Equal(t, ev1.ID, ev2.ID)
	assert.NotEmpty(t, ev1.ID)
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := New()

	id, ch := bus.Subscribe(1)
	bus.Unsubscribe(id)

	_, ok := <-ch
	assert.False(t, ok)

	// Publishing after unsubscribe must not panic.
	bus.PublishNew(TypeTaskDeleted, 1, "gone")
}

func TestBusDropsWhenBufferFull(t *testing.T) {
	bus := New()

	id, ch := bus.Subscribe(1)
	defer bus.Unsubscribe(id)

	bus.PublishNew(TypeTaskCreated, 1, "first")
	bus.PublishNew(TypeTaskUpdated, 2, "second")

	ev := <-ch
	require.Equal(t, int64(1), ev.TaskID)

	select {
	case ev := <-ch:
		t.Fatalf("expected second event to be dropped, got %v", ev)
	default:
	}
}
