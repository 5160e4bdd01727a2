package observability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Level classifies an event's severity.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Event types emitted by the store. Failure events carry the "_failed"
// suffix, which the log records at WARN; everything else is INFO.
const (
	EventTaskCreated         = "task.created"
	EventTaskUpdated         = "task.updated"
	EventTaskStatusChanged   = "task.status_changed"
	EventTaskDependencyAdded = "task.dependency_added"
	EventTaskMoved           = "task.moved"
	EventTaskDeleted         = "task.deleted"
	EventTaskMigrated        = "task.migrated"
	EventTaskPromoted        = "task.promoted"
	EventTaskDemoted         = "task.demoted"
	EventTaskReadFailed      = "task.read_failed"
	EventTaskParseFailed     = "task.parse_failed"

	EventBacklogCreated     = "backlog.created"
	EventBacklogDeleted     = "backlog.deleted"
	EventBacklogMoved       = "backlog.moved"
	EventBacklogReadFailed  = "backlog.read_failed"
	EventBacklogParseFailed = "backlog.parse_failed"
)

// Event is one recorded store activity: a task lifecycle change, a
// backlog move, a migration, or a storage-layer failure.
type Event struct {
	Time  time.Time      `json:"time"`
	Level Level          `json:"level"`
	Type  string         `json:"type"`
	Data  map[string]any `json:"data,omitempty"`
}

// EventFilter selects events on Read. Zero-value fields match everything.
type EventFilter struct {
	Since *time.Time
	Until *time.Time
	Type  string
	Level Level
}

func (f EventFilter) matches(e Event) bool {
	if f.Since != nil && e.Time.Before(*f.Since) {
		return false
	}
	if f.Until != nil && e.Time.After(*f.Until) {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.Level != "" && e.Level != f.Level {
		return false
	}
	return true
}

// EventLog is both the sink the storage and core layers log into and
// the query surface the events command reads from. LogEvent stamps the
// time and derives the level, so emitters only name the event type.
type EventLog interface {
	LogEvent(eventType string, data map[string]any) error
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

// fileEventLog appends events to a JSONL file, one JSON object per line.
type fileEventLog struct {
	path string
	mu   sync.Mutex
	f    *os.File
	enc  *json.Encoder
}

// NewJSONLEventLog opens (or creates) the JSONL event log at path.
func NewJSONLEventLog(path string) (EventLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &fileEventLog{path: path, f: f, enc: json.NewEncoder(f)}, nil
}

// levelFor derives the severity from the event type.
func levelFor(eventType string) Level {
	if strings.HasSuffix(eventType, "_failed") {
		return LevelWarn
	}
	return LevelInfo
}

// LogEvent appends one event. The encoder terminates each record with a
// newline, so the file stays valid JSONL across appends.
func (l *fileEventLog) LogEvent(eventType string, data map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	event := Event{
		Time:  time.Now().UTC(),
		Level: levelFor(eventType),
		Type:  eventType,
		Data:  data,
	}
	if err := l.enc.Encode(event); err != nil {
		return fmt.Errorf("appending %s event: %w", eventType, err)
	}
	return nil
}

// Read returns the logged events matching the filter, in file order.
// Lines that do not decode are skipped: a torn write must not make the
// whole log unreadable.
func (l *fileEventLog) Read(filter EventFilter) ([]Event, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading event log: %w", err)
	}

	var events []Event
	for _, line := range bytes.Split(raw, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		if filter.matches(event) {
			events = append(events, event)
		}
	}
	return events, nil
}

// Close closes the underlying file handle.
func (l *fileEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.f.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}
