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

// EventLogger receives structured events from the storage layer, such as
// parse failures during listing. A small local interface so a nil
// logger disables logging without tying repositories to a concrete sink.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// TaskRepository defines the file-backed store for task records.
//
// Get and Update return a nil task (not an error) when the ID is unknown;
// callers must check for nil. Write failures propagate as hard errors
// with no retry. There is no optimistic concurrency: two overlapping
// updates to the same task race and the later write wins silently.
type TaskRepository interface {
	List(loc models.Location) ([]models.Task, error)
	Get(id string) (*models.Task, error)
	Create(input models.CreateTaskInput) (*models.Task, error)
	Update(id string, patch models.TaskPatch) (*models.Task, error)
	Delete(id string) (bool, error)
	Archive(id string) error
	Move(id string, from, to models.Location) error
	Reorder(orderedIDs []string) error
	Rewrite(task models.Task, loc models.Location) error
}

// fileTaskRepository implements TaskRepository with one markdown file per
// task under root/tasks/{active,archive,backlog}/. The file name encodes
// both the immutable ID and a slug of the title, so a title edit is a
// coordinated write-new/remove-old.
type fileTaskRepository struct {
	root       string
	slugMaxLen int
	events     EventLogger
	now        func() time.Time
}

// NewTaskRepository creates a TaskRepository rooted at the given data
// directory. events may be nil.
func NewTaskRepository(root string, slugMaxLen int, events EventLogger) TaskRepository {
	if slugMaxLen <= 0 {
		slugMaxLen = DefaultSlugMaxLen
	}
	return &fileTaskRepository{
		root:       root,
		slugMaxLen: slugMaxLen,
		events:     events,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *fileTaskRepository) logEvent(eventType string, data map[string]any) {
	if r.events != nil {
		_ = r.events.LogEvent(eventType, data)
	}
}

// List enumerates every task file in the given storage area. Files that
// fail to parse are skipped and logged, never fatal to the listing.
// Results are ordered by position, then newest-updated-first.
func (r *fileTaskRepository) List(loc models.Location) ([]models.Task, error) {
	dir, err := LocationDir(r.root, loc)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s tasks: %w", loc, err)
	}

	var tasks []models.Task
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			r.logEvent(observability.EventTaskReadFailed, map[string]any{"path": path, "error": err.Error()})
			continue
		}
		task, err := UnmarshalTask(data)
		if err != nil {
			r.logEvent(observability.EventTaskParseFailed, map[string]any{"path": path, "error": err.Error()})
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

// Get returns the active task with the given ID, or nil if no task
// matches. Lookup is a linear scan of the active listing.
func (r *fileTaskRepository) Get(id string) (*models.Task, error) {
	tasks, err := r.List(models.LocationActive)
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

// Create generates an ID, applies defaults (status todo, priority medium),
// and writes a new file in the active area named {id}-{slug}.md.
func (r *fileTaskRepository) Create(input models.CreateTaskInput) (*models.Task, error) {
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

	existing, err := r.List(models.LocationActive)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	position := 0
	for _, t := range existing {
		if t.Position >= position {
			position = t.Position + 1
		}
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
		Position:               position,
		Created:                now,
		Updated:                now,
	}

	if err := r.writeTask(task, models.LocationActive); err != nil {
		return nil, fmt.Errorf("creating task %s: %w", id, err)
	}

	r.logEvent(observability.EventTaskCreated, map[string]any{"id": id, "title": task.Title})
	return task, nil
}

// Update merges the patch over the stored task and refreshes Updated.
// A title change renames the file: the new file is written first, then
// the old file is removed; skipping the removal would orphan the old
// record, so a removal failure is a hard error. Returns nil when the ID
// is unknown.
func (r *fileTaskRepository) Update(id string, patch models.TaskPatch) (*models.Task, error) {
	task, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, nil
	}

	applyTaskPatch(task, patch)
	task.Updated = r.now()

	// Leaving blocked always clears the structured reason.
	if task.Status != models.StatusBlocked {
		task.BlockedReason = nil
	}

	// Resolve the current on-disk path before writing: a legacy record's
	// filename may not match what TaskFileName would compute today.
	oldPath, err := r.findTaskFile(id, models.LocationActive)
	if err != nil {
		return nil, err
	}

	if err := r.writeTask(task, models.LocationActive); err != nil {
		return nil, fmt.Errorf("updating task %s: %w", id, err)
	}

	newName := TaskFileName(id, task.Title, r.slugMaxLen)
	if oldPath != "" && filepath.Base(oldPath) != newName {
		// The old file must go even on slow storage; an orphaned record
		// would reappear in every subsequent listing.
		if err := os.Remove(oldPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("updating task %s: removing renamed file: %w", id, err)
		}
	}
	return task, nil
}

// Delete removes the task file from whichever area holds it and reports
// whether a file existed.
func (r *fileTaskRepository) Delete(id string) (bool, error) {
	for loc := range locationDirs {
		path, err := r.findTaskFile(id, loc)
		if err != nil {
			return false, err
		}
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil {
			return false, fmt.Errorf("deleting task %s: %w", id, err)
		}
		r.logEvent(observability.EventTaskDeleted, map[string]any{"id": id, "location": string(loc)})
		return true, nil
	}
	return false, nil
}

// Archive moves the task file from the active area to the archive area,
// preserving its filename. Fails if the task is not found in active.
func (r *fileTaskRepository) Archive(id string) error {
	return r.Move(id, models.LocationActive, models.LocationArchive)
}

// Move relocates a task file between storage areas with a single rename.
func (r *fileTaskRepository) Move(id string, from, to models.Location) error {
	path, err := r.findTaskFile(id, from)
	if err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("moving task %s: not found in %s", id, from)
	}

	toDir, err := LocationDir(r.root, to)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(toDir, 0o750); err != nil {
		return fmt.Errorf("moving task %s: %w", id, err)
	}

	dest := filepath.Join(toDir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("moving task %s from %s to %s: %w", id, from, to, err)
	}

	r.logEvent(observability.EventTaskMoved, map[string]any{"id": id, "from": string(from), "to": string(to)})
	return nil
}

// Reorder assigns dense position values 0..k-1 to the named active tasks
// in the given sequence. Tasks not mentioned keep their previous position.
func (r *fileTaskRepository) Reorder(orderedIDs []string) error {
	tasks, err := r.List(models.LocationActive)
	if err != nil {
		return fmt.Errorf("reordering tasks: %w", err)
	}

	byID := make(map[string]*models.Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
	}

	for pos, id := range orderedIDs {
		task, ok := byID[id]
		if !ok {
			continue
		}
		if task.Position == pos {
			continue
		}
		task.Position = pos
		// Rewrite keeps the existing filename, so reordering a record whose
		// name predates the current slug scheme does not duplicate the file.
		if err := r.Rewrite(*task, models.LocationActive); err != nil {
			return fmt.Errorf("reordering tasks: %w", err)
		}
	}
	return nil
}

// Rewrite persists a record in place in the given storage area, keeping
// its existing filename even when that filename predates the current
// slug scheme. Used by the migration runner.
func (r *fileTaskRepository) Rewrite(task models.Task, loc models.Location) error {
	task.Updated = r.now()

	path, err := r.findTaskFile(task.ID, loc)
	if err != nil {
		return err
	}
	if path == "" {
		return r.writeTask(&task, loc)
	}

	data, err := MarshalTask(&task)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("rewriting task file: %w", err)
	}
	return nil
}

// writeTask persists a task into the given area under its computed filename.
func (r *fileTaskRepository) writeTask(task *models.Task, loc models.Location) error {
	dir, err := LocationDir(r.root, loc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating %s directory: %w", loc, err)
	}

	data, err := MarshalTask(task)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, TaskFileName(task.ID, task.Title, r.slugMaxLen))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing task file: %w", err)
	}
	return nil
}

// findTaskFile returns the path of the file whose name starts with
// "{id}-" in the given area, or "" when absent. Matching on the filename
// prefix avoids parsing every record just to locate one.
func (r *fileTaskRepository) findTaskFile(id string, loc models.Location) (string, error) {
	dir, err := LocationDir(r.root, loc)
	if err != nil {
		return "", err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("scanning %s tasks: %w", loc, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		if strings.HasPrefix(entry.Name(), id+"-") {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", nil
}

// applyTaskPatch merges patch fields over task, field by field, so that
// nil-vs-set semantics are explicit rather than left to a generic merge.
func applyTaskPatch(task *models.Task, patch models.TaskPatch) {
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Type != nil {
		task.Type = *patch.Type
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Project != nil {
		task.Project = *patch.Project
	}
	if patch.Sprint != nil {
		task.Sprint = *patch.Sprint
	}
	if patch.BlockedBy != nil {
		task.BlockedBy = *patch.BlockedBy
	}
	if patch.BlockedReason != nil {
		task.BlockedReason = patch.BlockedReason
	}
	if patch.ClearBlockedReason {
		task.BlockedReason = nil
	}
	if patch.Subtasks != nil {
		task.Subtasks = *patch.Subtasks
	}
	if patch.AutoCompleteOnSubtasks != nil {
		task.AutoCompleteOnSubtasks = *patch.AutoCompleteOnSubtasks
	}
}
