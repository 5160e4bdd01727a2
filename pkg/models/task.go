package models

import "time"

// TaskStatus represents the current lifecycle state of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusBlocked    TaskStatus = "blocked"
	StatusDone       TaskStatus = "done"

	// StatusReview is a retired status that may still exist in old data.
	// The migration runner rewrites it to StatusBlocked.
	StatusReview TaskStatus = "review"
)

// ValidStatuses lists the statuses a task may hold after migration.
var ValidStatuses = []TaskStatus{StatusTodo, StatusInProgress, StatusBlocked, StatusDone}

// IsValid reports whether s is one of the current (non-legacy) statuses.
func (s TaskStatus) IsValid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Priority represents the urgency of a task. The allowed-value catalog
// lives in the priorities managed list; the store does not enforce it.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Location identifies which storage area currently holds a task's file.
type Location string

const (
	LocationActive  Location = "active"
	LocationArchive Location = "archive"
	LocationBacklog Location = "backlog"
)

// Subtask is a checklist item owned by a task. Subtask IDs are UUIDs
// assigned at creation and never reused.
type Subtask struct {
	ID        string `yaml:"id" json:"id"`
	Title     string `yaml:"title" json:"title"`
	Completed bool   `yaml:"completed" json:"completed"`
}

// BlockedReason is an optional structured note attached to a blocked task.
// The store clears it automatically whenever the task's status leaves blocked.
type BlockedReason struct {
	Reason string    `yaml:"reason" json:"reason"`
	Since  time.Time `yaml:"since,omitempty" json:"since,omitempty"`
}

// Task is the central entity of the store. The structured fields are
// persisted as YAML front-matter; Description is the free-text body that
// follows the front-matter block.
type Task struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	Description string     `yaml:"-" json:"description"`
	Type        string     `yaml:"type,omitempty" json:"type,omitempty"`
	Priority    Priority   `yaml:"priority" json:"priority"`
	Status      TaskStatus `yaml:"status" json:"status"`
	Project     string     `yaml:"project,omitempty" json:"project,omitempty"`
	Sprint      string     `yaml:"sprint,omitempty" json:"sprint,omitempty"`

	BlockedBy     []string       `yaml:"blocked_by,omitempty" json:"blockedBy,omitempty"`
	BlockedReason *BlockedReason `yaml:"blocked_reason,omitempty" json:"blockedReason,omitempty"`

	Subtasks               []Subtask `yaml:"subtasks,omitempty" json:"subtasks,omitempty"`
	AutoCompleteOnSubtasks bool      `yaml:"auto_complete_on_subtasks,omitempty" json:"autoCompleteOnSubtasks,omitempty"`

	// Position is the dense display-order value assigned by Reorder.
	Position int `yaml:"position" json:"position"`

	Created time.Time `yaml:"created" json:"created"`
	Updated time.Time `yaml:"updated" json:"updated"`
}

// TaskPatch is a partial update applied over an existing task. Pointer
// fields distinguish "leave unchanged" (nil) from "set to zero value".
type TaskPatch struct {
	Title                  *string
	Description            *string
	Type                   *string
	Priority               *Priority
	Status                 *TaskStatus
	Project                *string
	Sprint                 *string
	BlockedBy              *[]string
	BlockedReason          *BlockedReason
	ClearBlockedReason     bool
	Subtasks               *[]Subtask
	AutoCompleteOnSubtasks *bool
}

// CreateTaskInput carries the caller-supplied fields for a new task.
// Zero values fall back to store defaults (status todo, priority medium,
// the configured default type).
type CreateTaskInput struct {
	Title                  string
	Description            string
	Type                   string
	Priority               Priority
	Status                 TaskStatus
	Project                string
	Sprint                 string
	BlockedBy              []string
	Subtasks               []Subtask
	AutoCompleteOnSubtasks bool
}
