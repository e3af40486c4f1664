// Package feed fans donation changes out to in-process subscribers and,
// optionally, to other API instances through Redis.
package feed

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"donationhub/internal/domain"
)

type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
	// EventOwnerRemoved replaces per-listing deletes when an account and
	// all of its listings go at once.
	EventOwnerRemoved EventKind = "owner_removed"
)

// Event describes one change to the donation feed.
type Event struct {
	Kind       EventKind        `json:"kind"`
	DonationID string           `json:"donation_id,omitempty"`
	OwnerID    string           `json:"owner_id,omitempty"`
	Donation   *domain.Donation `json:"donation,omitempty"`
	At         time.Time        `json:"at"`
	// Origin is empty for events raised in this process and set to the
	// sending instance for events relayed through Redis.
	Origin string `json:"origin,omitempty"`
}

// Publisher accepts feed events.
type Publisher interface {
	Publish(Event)
}

const DefaultBuffer = 32

// Hub delivers every published event to all open subscriptions. A full
// subscriber buffer drops the event for that subscriber only.
type Hub struct {
	mu        sync.RWMutex
	subs      map[uint64]*Subscription
	observers map[uint64]func(Event)
	next      uint64
	buffer    int
	closed    bool
	logger    zerolog.Logger
}

func NewHub(buffer int, logger zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:      make(map[uint64]*Subscription),
		observers: make(map[uint64]func(Event)),
		buffer:    buffer,
		logger:    logger,
	}
}

// Subscribe opens a subscription. Callers must Close it.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	s := &Subscription{id: h.next, hub: h, ch: make(chan Event, h.buffer)}
	if h.closed {
		s.closed = true
		close(s.ch)
		return s
	}
	h.subs[s.id] = s
	return s
}

// Observe registers fn to run synchronously on every Publish before the
// event is queued for subscribers. fn must not call back into the hub.
func (h *Hub) Observe(fn func(Event)) (cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	id := h.next
	h.observers[id] = fn
	return func() {
		h.mu.Lock()
		delete(h.observers, id)
		h.mu.Unlock()
	}
}

func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	h.mu.RLock()
	observers := make([]func(Event), 0, len(h.observers))
	for _, fn := range h.observers {
		observers = append(observers, fn)
	}
	h.mu.RUnlock()
	for _, fn := range observers {
		fn(ev)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs {
		select {
		case s.ch <- ev:
		default:
			s.dropped.Add(1)
			h.logger.Warn().Uint64("subscriber", s.id).Str("donation_id", ev.DonationID).Msg("feed subscriber full, event dropped")
		}
	}
}

// Subscribers returns the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription and turns later subscriptions into closed ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, s := range h.subs {
		delete(h.subs, id)
		s.closed = true
		close(s.ch)
	}
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s.closed {
		return
	}
	delete(h.subs, s.id)
	s.closed = true
	close(s.ch)
}

type Subscription struct {
	id      uint64
	hub     *Hub
	ch      chan Event
	closed  bool
	dropped atomic.Uint64
}

// Events is closed once the subscription or the hub is closed.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Dropped counts events discarded because the buffer was full.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}
