package events

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opaquecloud/lffs/ids"
)

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()
	var got []Event
	bus.Subscribe(EntryUpdated, func(e Event) { got = append(got, e) })
	bus.Subscribe(EntryUpdated, func(e Event) { got = append(got, e) })

	id := ids.NewEntryID()
	bus.Publish(Event{Topic: EntryUpdated, ID: id})

	assert.Len(t, got, 2)
	assert.Equal(t, id, got[0].ID)
}

func TestPublishOnlyReachesMatchingTopic(t *testing.T) {
	bus := NewBus()
	called := false
	bus.Subscribe(WorkspaceLoaded, func(Event) { called = true })

	bus.Publish(Event{Topic: EntryUpdated, ID: ids.NewEntryID()})

	assert.False(t, called)
}

func TestPublishRecoversSubscriberPanic(t *testing.T) {
	bus := NewBus()
	afterPanicCalled := false
	bus.Subscribe(EntryUpdated, func(Event) { panic("boom") })
	bus.Subscribe(EntryUpdated, func(Event) { afterPanicCalled = true })

	assert.NotPanics(t, func() {
		bus.Publish(Event{Topic: EntryUpdated, ID: ids.NewEntryID()})
	})
	assert.True(t, afterPanicCalled)
}
