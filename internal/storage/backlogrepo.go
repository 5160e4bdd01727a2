package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/veritas-kanban/veritas-kanban/internal/observability"
	"github.com/veritas-kanban/veritas-kanban/pkg/models"
)

// BacklogRepository mirrors the task repository for the backlog area.
// Records use the same front-matter format but are entirely excluded
// from the active listing used by the rest of the system.
//
// Promotion and demotion are single file-system renames; a crash
// mid-operation can leave the file in either area, an accepted
// limitation of the rename-based move.
type BacklogRepository interface {
	ListAll() ([]models.Task, error)
	FindByID(id string) (*models.Task, error)
	Create(input models.CreateTaskInput) (*models.Task, error)
	Update(id string, patch models.TaskPatch) (*models.Task, error)
	Delete(id string) (bool, error)
	MoveToActive(id string) error
	MoveFromActive(id string) error
}

type fileBacklogRepository struct {
	root       string
	slugMaxLen int
	events     EventLogger
	now        func() time.Time
}

// NewBacklogRepository creates a BacklogRepository rooted at the given
// data directory. events may be nil.
func NewBacklogRepository(root string, slugMaxLen int, events EventLogger) BacklogRepository {
	if slugMaxLen <= 0 {
		slugMaxLen = DefaultSlugMaxLen
	}
	return &fileBacklogRepository{
		root:       root,
		slugMaxLen: slugMaxLen,
		events:     events,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *fileBacklogRepository) dir() (string, error) {
	return LocationDir(r.root, models.LocationBacklog)
}

func (r *fileBacklogRepository) logEvent(eventType string, data map[string]any) {
	if r.events != nil {
		_ = r.events.LogEvent(eventType, data)
	}
}

// ListAll enumerates every backlog record, skipping files that fail to
// parse. Results are ordered by position, then newest-updated-first.
func (r *fileBacklogRepository) ListAll() ([]models.Task, error) {
	dir, err := r.dir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing backlog: %w", err)
	}

	var tasks []models.Task
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			r.logEvent(observability.EventBacklogReadFailed, map[string]any{"path": path, "error": err.Error()})
			continue
		}
		task, err := UnmarshalTask(data)
		if err != nil {
			r.logEvent(observability.EventBacklogParseFailed, map[string]any{"path": path, "error": err.Error()})
			continue
		}
		tasks = append(tasks, *task)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Position != tasks[j].Position {
			return tasks[i].Position < tasks[j].Position
		}
		return tasks[i].Updated.After(tasks[j].Updated)
	})
	return tasks, nil
}

// FindByID returns the backlog record with the given ID, or nil.
func (r *fileBacklogRepository) FindByID(id string) (*models.Task, error) {
	tasks, err := r.ListAll()
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i], nil
		}
	}
	return nil, nil
}

// Create writes a new record into the backlog area with the same ID and
// default rules as the task repository.
func (r *fileBacklogRepository) Create(input models.CreateTaskInput) (*models.Task, error) {
	id, err := GenerateTaskID(r.now())
	if err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = models.StatusTodo
	}
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	now := r.now()
	task := &models.Task{
		ID:                     id,
		Title:                  input.Title,
		Description:            input.Description,
		Type:                   input.Type,
		Priority:               priority,
		Status:                 status,
		Project:                input.Project,
		Sprint:                 input.Sprint,
		BlockedBy:              input.BlockedBy,
		Subtasks:               input.Subtasks,
		AutoCompleteOnSubtasks: input.AutoCompleteOnSubtasks,
		Created:                now,
		Updated:                now,
	}

	if err := r.write(task); err != nil {
		return nil, fmt.Errorf("creating backlog task %s: %w", id, err)
	}
	r.logEvent(observability.EventBacklogCreated, map[string]any{"id": id, "title": task.Title})
	return task, nil
}

// Update merges the patch over the stored record, refreshing Updated and
// applying the same rename-on-title-change rule as the task repository.
// Returns nil when the ID is unknown.
func (r *fileBacklogRepository) Update(id string, patch models.TaskPatch) (*models.Task, error) {
	task, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, nil
	}

	oldPath, err := r.findFile(id)
	if err != nil {
		return nil, err
	}

	applyTaskPatch(task, patch)
	task.Updated = r.now()
	if task.Status != models.StatusBlocked {
		task.BlockedReason = nil
	}

	if err := r.write(task); err != nil {
		return nil, fmt.Errorf("updating backlog task %s: %w", id, err)
	}

	newName := TaskFileName(id, task.Title, r.slugMaxLen)
	if oldPath != "" && filepath.Base(oldPath) != newName {
		if err := os.Remove(oldPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("updating backlog task %s: removing renamed file: %w", id, err)
		}
	}
	return task, nil
}

// Delete removes the backlog record and reports whether a file existed.
func (r *fileBacklogRepository) Delete(id string) (bool, error) {
	path, err := r.findFile(id)
	if err != nil {
		return false, err
	}
	if path == "" {
		return false, nil
	}
	if err := os.Remove(path); err != nil {
		return false, fmt.Errorf("deleting backlog task %s: %w", id, err)
	}
	r.logEvent(observability.EventBacklogDeleted, map[string]any{"id": id})
	return true, nil
}

// MoveToActive promotes a backlog record into the active area with a
// single rename, preserving its filename.
func (r *fileBacklogRepository) MoveToActive(id string) error {
	return r.move(id, models.LocationBacklog, models.LocationActive)
}

// MoveFromActive demotes an active task into the backlog area.
func (r *fileBacklogRepository) MoveFromActive(id string) error {
	return r.move(id, models.LocationActive, models.LocationBacklog)
}

func (r *fileBacklogRepository) move(id string, from, to models.Location) error {
	fromDir, err := LocationDir(r.root, from)
	if err != nil {
		return err
	}
	toDir, err := LocationDir(r.root, to)
	if err != nil {
		return err
	}

	name, err := fileNameWithPrefix(fromDir, id+"-")
	if err != nil {
		return fmt.Errorf("moving task %s: %w", id, err)
	}
	if name == "" {
		return fmt.Errorf("moving task %s: not found in %s", id, from)
	}

	if err := os.MkdirAll(toDir, 0o750); err != nil {
		return fmt.Errorf("moving task %s: %w", id, err)
	}
	if err := os.Rename(filepath.Join(fromDir, name), filepath.Join(toDir, name)); err != nil {
		return fmt.Errorf("moving task %s from %s to %s: %w", id, from, to, err)
	}
	r.logEvent(observability.EventBacklogMoved, map[string]any{"id": id, "from": string(from), "to": string(to)})
	return nil
}

func (r *fileBacklogRepository) write(task *models.Task) error {
	dir, err := r.dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating backlog directory: %w", err)
	}
	data, err := MarshalTask(task)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, TaskFileName(task.ID, task.Title, r.slugMaxLen))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing backlog file: %w", err)
	}
	return nil
}

func (r *fileBacklogRepository) findFile(id string) (string, error) {
	dir, err := r.dir()
	if err != nil {
		return "", err
	}
	name, err := fileNameWithPrefix(dir, id+"-")
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", nil
	}
	return filepath.Join(dir, name), nil
}

// fileNameWithPrefix returns the first .md file in dir whose name starts
// with prefix, or "" when none matches.
func fileNameWithPrefix(dir, prefix string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) {
			return entry.Name(), nil
		}
	}
	return "", nil
}
