package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher(nil)

	var calls []string
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketDeleted, func(context.Context, Event) error {
		calls = append(calls, "deleted")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "t1"}))
	assert.Equal(t, []string{"first", "second:t1"}, calls)
}
