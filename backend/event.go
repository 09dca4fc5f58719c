// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import "sync"

// EventKind identifies what changed on an output.
type EventKind uint8

const (
	EventAdded EventKind = iota
	EventRemoved
	EventMode
	EventScale
	EventTransform
	EventPosition
	EventEnabled
	EventRenderable

	// EventRedraw asks the compositor for a new frame.
	EventRedraw
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	case EventMode:
		return "mode"
	case EventScale:
		return "scale"
	case EventTransform:
		return "transform"
	case EventPosition:
		return "position"
	case EventEnabled:
		return "enabled"
	case EventRenderable:
		return "renderable"
	case EventRedraw:
		return "redraw"
	default:
		return "unknown"
	}
}

// Event reports a change on an output.
type Event struct {
	Kind   EventKind
	Output Output
}

// Notifier delivers output events.
type Notifier interface {
	// Subscribe registers fn for every later event. The returned function
	// removes the subscription.
	Subscribe(fn func(Event)) (cancel func())
}

// Dispatcher is a Notifier that fans events out to subscribers in
// subscription order. Backends embed it.
//
// Handlers run on the goroutine calling Emit and may subscribe or cancel
// from within a handler.
type Dispatcher struct {
	mu     sync.Mutex
	nextID int
	subs   []subscription
}

type subscription struct {
	id int
	fn func(Event)
}

// Subscribe registers fn.
func (d *Dispatcher) Subscribe(fn func(Event)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := d.nextID
	d.subs = append(d.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			for i, s := range d.subs {
				if s.id == id {
					d.subs = append(d.subs[:i:i], d.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Emit delivers ev to a snapshot of the current subscribers.
func (d *Dispatcher) Emit(ev Event) {
	d.mu.Lock()
	subs := make([]subscription, len(d.subs))
	copy(subs, d.subs)
	d.mu.Unlock()

	for _, s := range subs {
		s.fn(ev)
	}
}

// Subscribers returns the number of active subscriptions.
func (d *Dispatcher) Subscribers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}

var _ Notifier = (*Dispatcher)(nil)
