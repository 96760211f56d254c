// Package events implements the synchronous, many-readers/one-writer event
// bus the Mutator publishes to (spec.md §4.3, §6). It is grounded in the
// teacher's logging fan-out style: a listener panic is recovered and logged
// rather than allowed to take down the publisher, since spec.md §5 requires
// that "listeners must not block back into the LFFS".
package events

import (
	log "github.com/sirupsen/logrus"

	"github.com/opaquecloud/lffs/ids"
)

// Topic names the published event kinds.
type Topic string

const (
	EntryUpdated        Topic = "fs.entry.updated"
	WorkspaceLoaded      Topic = "fs.workspace.loaded"
	EntryMinimalSynced   Topic = "fs.entry.minimal_synced"
	EntrySynced          Topic = "fs.entry.synced"
	EntryRemoteChanged   Topic = "fs.entry.remote_changed"
)

// Event is the payload delivered to subscribers. Path is only meaningful
// for WorkspaceLoaded; other topics leave it empty.
type Event struct {
	Topic Topic
	ID    ids.EntryID
	Path  string
}

// Bus is a synchronous pub-sub type: Publish iterates subscribers in the
// calling goroutine, in registration order, and does not return until every
// subscriber has processed the event.
type Bus struct {
	subscribers map[Topic][]func(Event)
}

// NewBus returns a ready-to-use, empty Bus.
func NewBus() *Bus {
	return &Bus{subscribers: map[Topic][]func(Event){}}
}

// Subscribe registers fn to be called, synchronously, for every event
// published on topic.
func (b *Bus) Subscribe(topic Topic, fn func(Event)) {
	b.subscribers[topic] = append(b.subscribers[topic], fn)
}

// Publish delivers ev to every subscriber of ev.Topic, synchronously and in
// registration order. A subscriber panic is recovered and logged so that a
// misbehaving listener cannot corrupt the publisher's state or abort the
// mutation that produced ev (the cache/LBS writes always happen before
// Publish is called, per spec.md §5's ordering guarantee).
func (b *Bus) Publish(ev Event) {
	for _, fn := range b.subscribers[ev.Topic] {
		b.deliver(fn, ev)
	}
}

func (b *Bus) deliver(fn func(Event), ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"topic": ev.Topic,
				"id":    ev.ID,
				"panic": r,
			}).Error("events: subscriber panicked, recovered")
		}
	}()
	fn(ev)
}
