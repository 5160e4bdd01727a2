package core

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/veritas-kanban/veritas-kanban/internal/observability"
	"github.com/veritas-kanban/veritas-kanban/pkg/models"
)

// TaskStore is the subset of storage.TaskRepository the task service
// needs. Defined here so core stays independent of the storage package.
type TaskStore interface {
	List(loc models.Location) ([]models.Task, error)
	Get(id string) (*models.Task, error)
	Create(input models.CreateTaskInput) (*models.Task, error)
	Update(id string, patch models.TaskPatch) (*models.Task, error)
	Delete(id string) (bool, error)
	Archive(id string) error
	Move(id string, from, to models.Location) error
	Reorder(orderedIDs []string) error
}

// BacklogStore mirrors storage.BacklogRepository for the service layer.
type BacklogStore interface {
	ListAll() ([]models.Task, error)
	FindByID(id string) (*models.Task, error)
	Create(input models.CreateTaskInput) (*models.Task, error)
	Update(id string, patch models.TaskPatch) (*models.Task, error)
	Delete(id string) (bool, error)
	MoveToActive(id string) error
	MoveFromActive(id string) error
}

// StatusChangeResult is the structured outcome of a guarded status
// transition. When the move is refused, Blockers names the tasks that
// must reach done first.
type StatusChangeResult struct {
	Allowed  bool          `json:"allowed"`
	Blockers []models.Task `json:"blockers,omitempty"`
	Task     *models.Task  `json:"task,omitempty"`
}

// DependencyResult is the structured outcome of adding a blockedBy edge.
type DependencyResult struct {
	Added  bool         `json:"added"`
	Reason string       `json:"reason,omitempty"`
	Task   *models.Task `json:"task,omitempty"`
}

// TaskService coordinates the task repository, backlog repository, and
// blocking engine. It is the single caller-facing surface: CLI and MCP
// layers go through it rather than touching files.
type TaskService interface {
	ListTasks() ([]models.Task, error)
	ListArchive() ([]models.Task, error)
	GetTask(id string) (*models.Task, error)
	CreateTask(input models.CreateTaskInput) (*models.Task, error)
	UpdateTask(id string, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(id string) (bool, error)
	ArchiveTask(id string) error
	ReorderTasks(orderedIDs []string) error

	SetStatus(id string, status models.TaskStatus) (StatusChangeResult, error)
	AddDependency(taskID, blockerID string) (DependencyResult, error)
	RemoveDependency(taskID, blockerID string) (*models.Task, error)
	BlockingStatus(id string) (BlockingStatus, error)
	WouldUnblock(id string) ([]models.Task, error)

	AddSubtask(taskID, title string) (*models.Task, error)
	ToggleSubtask(taskID, subtaskID string) (*models.Task, error)

	ListBacklog() ([]models.Task, error)
	CreateBacklogTask(input models.CreateTaskInput) (*models.Task, error)
	PromoteTask(id string) error
	DemoteTask(id string) error
}

type taskService struct {
	tasks       TaskStore
	backlog     BacklogStore
	defaultType string
	events      EventLogger
}

// NewTaskService creates a TaskService with all dependencies injected.
// defaultType is applied to created tasks that carry no type; events may
// be nil.
func NewTaskService(tasks TaskStore, backlog BacklogStore, defaultType string, events EventLogger) TaskService {
	return &taskService{
		tasks:       tasks,
		backlog:     backlog,
		defaultType: defaultType,
		events:      events,
	}
}

func (s *taskService) logEvent(eventType string, data map[string]any) {
	if s.events != nil {
		_ = s.events.LogEvent(eventType, data)
	}
}

func (s *taskService) ListTasks() ([]models.Task, error) {
	return s.tasks.List(models.LocationActive)
}

func (s *taskService) ListArchive() ([]models.Task, error) {
	return s.tasks.List(models.LocationArchive)
}

func (s *taskService) GetTask(id string) (*models.Task, error) {
	return s.tasks.Get(id)
}

func (s *taskService) CreateTask(input models.CreateTaskInput) (*models.Task, error) {
	if input.Type == "" {
		input.Type = s.defaultType
	}
	input.Subtasks = assignSubtaskIDs(input.Subtasks)
	return s.tasks.Create(input)
}

// assignSubtaskIDs gives every subtask without an ID a fresh UUID.
func assignSubtaskIDs(subtasks []models.Subtask) []models.Subtask {
	for i := range subtasks {
		if subtasks[i].ID == "" {
			subtasks[i].ID = uuid.NewString()
		}
	}
	return subtasks
}

func (s *taskService) UpdateTask(id string, patch models.TaskPatch) (*models.Task, error) {
	task, err := s.tasks.Update(id, patch)
	if err != nil || task == nil {
		return task, err
	}
	s.logEvent(observability.EventTaskUpdated, map[string]any{"id": id})
	return task, nil
}

func (s *taskService) DeleteTask(id string) (bool, error) {
	return s.tasks.Delete(id)
}

func (s *taskService) ArchiveTask(id string) error {
	return s.tasks.Archive(id)
}

func (s *taskService) ReorderTasks(orderedIDs []string) error {
	return s.tasks.Reorder(orderedIDs)
}

// SetStatus changes a task's status. A move to in-progress is gated on
// the blocking engine: the refusal carries the unresolved blockers and
// leaves the task untouched. An unknown ID yields a nil Task.
func (s *taskService) SetStatus(id string, status models.TaskStatus) (StatusChangeResult, error) {
	task, err := s.tasks.Get(id)
	if err != nil {
		return StatusChangeResult{}, err
	}
	if task == nil {
		return StatusChangeResult{}, nil
	}

	if status == models.StatusInProgress {
		all, err := s.tasks.List(models.LocationActive)
		if err != nil {
			return StatusChangeResult{}, err
		}
		check := CanMoveToInProgress(*task, all)
		if !check.Allowed {
			return StatusChangeResult{Allowed: false, Blockers: check.Blockers, Task: task}, nil
		}
	}

	updated, err := s.tasks.Update(id, models.TaskPatch{Status: &status})
	if err != nil {
		return StatusChangeResult{}, err
	}
	s.logEvent(observability.EventTaskStatusChanged, map[string]any{"id": id, "status": string(status)})
	return StatusChangeResult{Allowed: true, Task: updated}, nil
}

// AddDependency adds a blockedBy edge after checking that it would not
// close a cycle. The refusal is a structured result, not an error.
func (s *taskService) AddDependency(taskID, blockerID string) (DependencyResult, error) {
	task, err := s.tasks.Get(taskID)
	if err != nil {
		return DependencyResult{}, err
	}
	if task == nil {
		return DependencyResult{Added: false, Reason: fmt.Sprintf("task %s not found", taskID)}, nil
	}

	all, err := s.tasks.List(models.LocationActive)
	if err != nil {
		return DependencyResult{}, err
	}
	if WouldCreateCircularDependency(taskID, blockerID, all) {
		return DependencyResult{Added: false, Reason: "dependency would create a cycle"}, nil
	}

	for _, existing := range task.BlockedBy {
		if existing == blockerID {
			return DependencyResult{Added: false, Reason: "dependency already exists", Task: task}, nil
		}
	}

	blockedBy := append(append([]string{}, task.BlockedBy...), blockerID)
	updated, err := s.tasks.Update(taskID, models.TaskPatch{BlockedBy: &blockedBy})
	if err != nil {
		return DependencyResult{}, err
	}
	s.logEvent(observability.EventTaskDependencyAdded, map[string]any{"id": taskID, "blocker": blockerID})
	return DependencyResult{Added: true, Task: updated}, nil
}

// RemoveDependency drops a blockedBy edge. Removing an edge that is not
// present is a no-op. Returns nil when the task is unknown.
func (s *taskService) RemoveDependency(taskID, blockerID string) (*models.Task, error) {
	task, err := s.tasks.Get(taskID)
	if err != nil || task == nil {
		return nil, err
	}

	blockedBy := make([]string, 0, len(task.BlockedBy))
	for _, id := range task.BlockedBy {
		if id != blockerID {
			blockedBy = append(blockedBy, id)
		}
	}
	if len(blockedBy) == len(task.BlockedBy) {
		return task, nil
	}
	return s.tasks.Update(taskID, models.TaskPatch{BlockedBy: &blockedBy})
}

func (s *taskService) BlockingStatus(id string) (BlockingStatus, error) {
	task, err := s.tasks.Get(id)
	if err != nil {
		return BlockingStatus{}, err
	}
	if task == nil {
		return BlockingStatus{}, fmt.Errorf("task %s not found", id)
	}
	all, err := s.tasks.List(models.LocationActive)
	if err != nil {
		return BlockingStatus{}, err
	}
	return GetBlockingStatus(*task, all), nil
}

func (s *taskService) WouldUnblock(id string) ([]models.Task, error) {
	all, err := s.tasks.List(models.LocationActive)
	if err != nil {
		return nil, err
	}
	return GetTasksThatWouldBeUnblocked(id, all), nil
}

// AddSubtask appends a checklist item with a fresh UUID to the task.
// Returns nil when the task is unknown.
func (s *taskService) AddSubtask(taskID, title string) (*models.Task, error) {
	task, err := s.tasks.Get(taskID)
	if err != nil || task == nil {
		return nil, err
	}

	subtasks := append(append([]models.Subtask{}, task.Subtasks...), models.Subtask{
		ID:    uuid.NewString(),
		Title: title,
	})
	return s.tasks.Update(taskID, models.TaskPatch{Subtasks: &subtasks})
}

// ToggleSubtask flips the completed flag of one subtask. Returns nil
// when the task is unknown; an unknown subtask ID is an error because
// the caller named a specific item.
func (s *taskService) ToggleSubtask(taskID, subtaskID string) (*models.Task, error) {
	task, err := s.tasks.Get(taskID)
	if err != nil || task == nil {
		return nil, err
	}

	subtasks := append([]models.Subtask{}, task.Subtasks...)
	found := false
	for i := range subtasks {
		if subtasks[i].ID == subtaskID {
			subtasks[i].Completed = !subtasks[i].Completed
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("subtask %s not found on task %s", subtaskID, taskID)
	}
	return s.tasks.Update(taskID, models.TaskPatch{Subtasks: &subtasks})
}

func (s *taskService) ListBacklog() ([]models.Task, error) {
	return s.backlog.ListAll()
}

func (s *taskService) CreateBacklogTask(input models.CreateTaskInput) (*models.Task, error) {
	if input.Type == "" {
		input.Type = s.defaultType
	}
	return s.backlog.Create(input)
}

// PromoteTask moves a backlog record into the active area.
func (s *taskService) PromoteTask(id string) error {
	if err := s.backlog.MoveToActive(id); err != nil {
		return fmt.Errorf("promoting task %s: %w", id, err)
	}
	s.logEvent(observability.EventTaskPromoted, map[string]any{"id": id})
	return nil
}

// DemoteTask moves an active task back into the backlog area.
func (s *taskService) DemoteTask(id string) error {
	if err := s.backlog.MoveFromActive(id); err != nil {
		return fmt.Errorf("demoting task %s: %w", id, err)
	}
	s.logEvent(observability.EventTaskDemoted, map[string]any{"id": id})
	return nil
}
