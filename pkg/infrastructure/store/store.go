package store

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/retailops/shelfwatch/pkg/infrastructure/events"
)

var (
	// ErrSubscriberExists is returned when Subscribe reuses an id.
	ErrSubscriberExists = errors.New("subscriber id already exists")

	// ErrSubscriberNotFound is returned when Unsubscribe is given an unknown id.
	ErrSubscriberNotFound = errors.New("subscriber id not found")

	// ErrStoreClosed is returned for operations on a closed store.
	ErrStoreClosed = errors.New("store is closed")
)

// Store is the single owner of application state. Dispatch serializes reducer
// transitions under a mutex, records domain events, and fans the resulting
// snapshot out to subscribers without ever blocking on a slow consumer.
type Store struct {
	mu    sync.RWMutex
	state State

	subMu       sync.RWMutex
	subscribers map[string]chan<- State
	dropped     map[string]*atomic.Uint64
	closed      bool

	log *events.InMemoryLog

	transitions atomic.Uint64
}

// New creates a store around the initial state. The event log is optional;
// pass nil to skip transition recording.
func New(initial State, log *events.InMemoryLog) *Store {
	return &Store{
		state:       initial,
		subscribers: make(map[string]chan<- State),
		dropped:     make(map[string]*atomic.Uint64),
		log:         log,
	}
}

// Snapshot returns the current state. The snapshot's slices are owned by the
// store's immutability discipline: readers must not modify them.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch applies one action and returns the resulting state.
func (s *Store) Dispatch(action Action) State {
	return s.Transact(func(State) []Action {
		return []Action{action}
	})
}

// Transact runs fn against the current state under the store lock and applies
// the actions it returns in order. The read and the writes are atomic with
// respect to every other dispatch, which is what keeps concurrent scan
// updates from losing writes.
func (s *Store) Transact(fn func(current State) []Action) State {
	s.mu.Lock()
	for _, action := range fn(s.state) {
		s.state = Apply(s.state, action)
		s.record(action)
		s.transitions.Add(1)
	}
	next := s.state
	s.mu.Unlock()

	s.notify(next)
	return next
}

// Transitions returns how many actions have been applied.
func (s *Store) Transitions() uint64 {
	return s.transitions.Load()
}

// Subscribe registers a channel to receive state snapshots after each
// dispatch. Sends are non-blocking: when the channel is full the snapshot is
// dropped and counted, never queued.
func (s *Store) Subscribe(id string, ch chan<- State) error {
	if ch == nil {
		return errors.New("subscriber channel cannot be nil")
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, exists := s.subscribers[id]; exists {
		return ErrSubscriberExists
	}
	s.subscribers[id] = ch
	s.dropped[id] = &atomic.Uint64{}
	return nil
}

// Unsubscribe removes a subscriber by id.
func (s *Store) Unsubscribe(id string) error {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, exists := s.subscribers[id]; !exists {
		return ErrSubscriberNotFound
	}
	delete(s.subscribers, id)
	delete(s.dropped, id)
	return nil
}

// Dropped returns how many snapshots a subscriber has missed.
func (s *Store) Dropped(id string) uint64 {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	if counter, ok := s.dropped[id]; ok {
		return counter.Load()
	}
	return 0
}

// Close stops snapshot delivery. Idempotent; subscriber channels are not
// closed, their owners manage their lifecycle.
func (s *Store) Close() error {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) notify(state State) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	if s.closed {
		return
	}
	for id, ch := range s.subscribers {
		select {
		case ch <- state:
		default:
			s.dropped[id].Add(1)
		}
	}
}

// record appends a domain event for actions that change shelves or alerts.
// UI-only transitions (selection, filters, loading flags) are not logged.
func (s *Store) record(action Action) {
	if s.log == nil {
		return
	}
	now := time.Now()
	switch a := action.(type) {
	case UpsertShelf:
		s.log.Append(events.New(events.ShelfUpdatedEvent, a.Shelf.ID, events.ShelfUpdated{Shelf: a.Shelf}, now))
	case ReplaceShelves:
		s.log.Append(events.New(events.ShelvesReplacedEvent, events.ShelvesStream, events.ShelvesReplaced{Count: len(a.Shelves)}, now))
	case RequestRescan:
		s.log.Append(events.New(events.RescanRequestedEvent, a.ShelfID, events.RescanRequested{ShelfID: a.ShelfID}, now))
	case MarkRestocked:
		s.log.Append(events.New(events.RestockAppliedEvent, a.ShelfID, events.RestockApplied{ShelfID: a.ShelfID, Product: a.Product}, now))
	case AddAlert:
		s.log.Append(events.New(events.AlertAddedEvent, events.AlertsStream, events.AlertAdded{Alert: a.Alert}, now))
	case AcknowledgeAlert:
		s.log.Append(events.New(events.AlertAcknowledgedEvent, events.AlertsStream, events.AlertAcknowledged{AlertID: a.ID}, now))
	case RemoveAlert:
		s.log.Append(events.New(events.AlertRemovedEvent, events.AlertsStream, events.AlertRemoved{AlertID: a.ID}, now))
	case ReplaceAlerts:
		s.log.Append(events.New(events.AlertsReplacedEvent, events.AlertsStream, events.AlertsReplaced{Count: len(a.Alerts)}, now))
	}
}
