package logger

import (
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const defaultBufferSize = 1000

// EventLogEntry is the websocket event type of forwarded entries.
const EventLogEntry = "logs:entry"

// Broadcaster is the interface for broadcasting messages.
type Broadcaster interface {
	Broadcast(msgType string, payload any) error
}

// LogEntry represents a parsed log entry.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Recorder implements io.Writer over zerolog's JSON output. It keeps the
// most recent entries and forwards warnings and errors to a hub.
type Recorder struct {
	buffer *RingBuffer[LogEntry]
	hub    Broadcaster
	mu     sync.RWMutex
}

// NewRecorder creates a recorder. hub may be nil and set later.
func NewRecorder(hub Broadcaster, bufferSize int) *Recorder {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Recorder{
		hub:    hub,
		buffer: NewRingBuffer[LogEntry](bufferSize),
	}
}

// SetHub sets the broadcaster hub for forwarded entries.
func (r *Recorder) SetHub(hub Broadcaster) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hub = hub
}

// Write implements io.Writer.
func (r *Recorder) Write(p []byte) (n int, err error) {
	n = len(p)

	entry, parseErr := parseLogEntry(p)
	if parseErr != nil {
		return n, nil //nolint:nilerr // malformed entries are dropped
	}

	r.buffer.Push(entry)

	r.mu.RLock()
	hub := r.hub
	r.mu.RUnlock()

	if hub != nil {
		if lvl, err := zerolog.ParseLevel(entry.Level); err == nil && lvl >= zerolog.WarnLevel {
			_ = hub.Broadcast(EventLogEntry, entry)
		}
	}

	return n, nil
}

// GetRecentLogs returns all buffered log entries.
func (r *Recorder) GetRecentLogs() []LogEntry {
	return r.buffer.GetAll()
}

// Query selects buffered entries. Zero values match everything.
type Query struct {
	// Level drops entries below this level name.
	Level     string
	Component string
	Limit     int
}

func (q Query) matches(e LogEntry) bool {
	if q.Component != "" && e.Component != q.Component {
		return false
	}
	if q.Level != "" {
		lvl, err := zerolog.ParseLevel(e.Level)
		if err != nil || lvl < ParseLevel(q.Level) {
			return false
		}
	}
	return true
}

// Query returns the newest entries matching q, oldest first.
func (r *Recorder) Query(q Query) []LogEntry {
	return r.buffer.Newest(q.Limit, q.matches)
}

func parseLogEntry(data []byte) (LogEntry, error) {
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
