package events

import "sync"

// InMemoryLog is an append-only event log with per-stream versioning. Streams
// are shelf ids (or the synthetic alerts stream); versions start at 1.
type InMemoryLog struct {
	mu      sync.RWMutex
	streams map[string][]Event
	all     []Event
}

// NewInMemoryLog creates an empty log.
func NewInMemoryLog() *InMemoryLog {
	return &InMemoryLog{
		streams: make(map[string][]Event),
	}
}

// Append records an event at the next version of its stream.
func (l *InMemoryLog) Append(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	versioned := BaseEvent{
		EventType:    event.Type(),
		Stream:       event.StreamID(),
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: len(l.streams[event.StreamID()]) + 1,
	}
	l.streams[event.StreamID()] = append(l.streams[event.StreamID()], versioned)
	l.all = append(l.all, versioned)
}

// Read returns a stream's events starting at fromVersion (1-based).
func (l *InMemoryLog) Read(streamID string, fromVersion int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stream := l.streams[streamID]
	if fromVersion < 1 {
		fromVersion = 1
	}
	if fromVersion > len(stream) {
		return nil
	}
	out := make([]Event, len(stream)-fromVersion+1)
	copy(out, stream[fromVersion-1:])
	return out
}

// ReadAll returns every recorded event from the given global position.
func (l *InMemoryLog) ReadAll(fromPosition int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if fromPosition < 0 {
		fromPosition = 0
	}
	if fromPosition >= len(l.all) {
		return nil
	}
	out := make([]Event, len(l.all)-fromPosition)
	copy(out, l.all[fromPosition:])
	return out
}

// Len returns the total number of recorded events.
func (l *InMemoryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.all)
}
