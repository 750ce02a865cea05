package logger

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

const (
	defaultBufferSize = 1000

	// EventLogEntry is the websocket message type for streamed entries.
	EventLogEntry = "logs:entry"
)

// Broadcaster sends a typed message to connected clients.
type Broadcaster interface {
	Broadcast(msgType string, payload any)
}

// LogEntry is a parsed log event.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Stream is an io.Writer for zerolog's JSON events. It keeps the most recent
// entries and forwards each one to the hub when one is set.
type Stream struct {
	hub    Broadcaster
	buffer *RingBuffer[LogEntry]
	mu     sync.RWMutex
}

// NewStream creates a stream keeping bufferSize entries.
func NewStream(bufferSize int) *Stream {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Stream{buffer: NewRingBuffer[LogEntry](bufferSize)}
}

// SetHub sets the broadcaster. The hub is usually created after the logger.
func (s *Stream) SetHub(hub Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hub = hub
}

// Write implements io.Writer. Malformed events are dropped.
func (s *Stream) Write(p []byte) (int, error) {
	entry, err := parseEntry(p)
	if err != nil {
		return len(p), nil //nolint:nilerr // logging must never fail the caller
	}

	s.buffer.Push(entry)

	s.mu.RLock()
	hub := s.hub
	s.mu.RUnlock()
	if hub != nil {
		hub.Broadcast(EventLogEntry, entry)
	}
	return len(p), nil
}

// Recent returns up to limit of the newest entries at or above minLevel,
// oldest first. limit <= 0 returns all matching entries.
func (s *Stream) Recent(limit int, minLevel string) []LogEntry {
	all := s.buffer.GetAll()
	threshold := zerolog.TraceLevel
	if minLevel != "" {
		threshold = ParseLevel(minLevel)
	}

	out := make([]LogEntry, 0, len(all))
	for _, e := range all {
		lvl, err := zerolog.ParseLevel(e.Level)
		if err != nil || lvl >= threshold {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

func parseEntry(data []byte) (LogEntry, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return LogEntry{}, err
	}

	entry := LogEntry{}
	take := func(key string) string {
		v, _ := raw[key].(string)
		delete(raw, key)
		return v
	}
	entry.Timestamp = take(zerolog.TimestampFieldName)
	entry.Level = take(zerolog.LevelFieldName)
	entry.Component = take("component")
	entry.Message = take(zerolog.MessageFieldName)
	if len(raw) > 0 {
		entry.Fields = raw
	}
	return entry, nil
}
