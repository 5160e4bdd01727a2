package mcp

import (
	"context"
	"fmt"
	"testing"

	"github.com/veritas-kanban/veritas-kanban/internal/core"
	"github.com/veritas-kanban/veritas-kanban/pkg/models"
)

// fakeTaskService serves canned data to the tool handlers.
type fakeTaskService struct {
	tasks   map[string]*models.Task
	backlog []models.Task
	order   []string
}

func newFakeService(tasks ...*models.Task) *fakeTaskService {
	f := &fakeTaskService{tasks: make(map[string]*models.Task)}
	for _, t := range tasks {
		f.tasks[t.ID] = t
		f.order = append(f.order, t.ID)
	}
	return f
}

func (f *fakeTaskService) all() []models.Task {
	var out []models.Task
	for _, id := range f.order {
		out = append(out, *f.tasks[id])
	}
	return out
}

func (f *fakeTaskService) ListTasks() ([]models.Task, error)   { return f.all(), nil }
func (f *fakeTaskService) ListArchive() ([]models.Task, error) { return nil, nil }

func (f *fakeTaskService) GetTask(id string) (*models.Task, error) {
	return f.tasks[id], nil
}

func (f *fakeTaskService) CreateTask(input models.CreateTaskInput) (*models.Task, error) {
	task := &models.Task{
		ID:        fmt.Sprintf("task_20250314_%06d", len(f.tasks)+1),
		Title:     input.Title,
		Type:      input.Type,
		Status:    models.StatusTodo,
		Priority:  models.PriorityMedium,
		Project:   input.Project,
		BlockedBy: input.BlockedBy,
	}
	if input.Priority != "" {
		task.Priority = input.Priority
	}
	f.tasks[task.ID] = task
	f.order = append(f.order, task.ID)
	return task, nil
}

func (f *fakeTaskService) UpdateTask(id string, patch models.TaskPatch) (*models.Task, error) {
	return f.tasks[id], nil
}
func (f *fakeTaskService) DeleteTask(id string) (bool, error)     { return false, nil }
func (f *fakeTaskService) ArchiveTask(id string) error            { return nil }
func (f *fakeTaskService) ReorderTasks(orderedIDs []string) error { return nil }

func (f *fakeTaskService) SetStatus(id string, status models.TaskStatus) (core.StatusChangeResult, error) {
	task := f.tasks[id]
	if task == nil {
		return core.StatusChangeResult{}, nil
	}
	check := core.CanMoveToInProgress(*task, f.all())
	if status == models.StatusInProgress && !check.Allowed {
		return core.StatusChangeResult{Allowed: false, Blockers: check.Blockers, Task: task}, nil
	}
	task.Status = status
	return core.StatusChangeResult{Allowed: true, Task: task}, nil
}

func (f *fakeTaskService) AddDependency(taskID, blockerID string) (core.DependencyResult, error) {
	task := f.tasks[taskID]
	if task == nil {
		return core.DependencyResult{Added: false, Reason: "task not found"}, nil
	}
	if core.WouldCreateCircularDependency(taskID, blockerID, f.all()) {
		return core.DependencyResult{Added: false, Reason: "dependency would create a cycle"}, nil
	}
	task.BlockedBy = append(task.BlockedBy, blockerID)
	return core.DependencyResult{Added: true, Task: task}, nil
}

func (f *fakeTaskService) RemoveDependency(taskID, blockerID string) (*models.Task, error) {
	return f.tasks[taskID], nil
}

func (f *fakeTaskService) BlockingStatus(id string) (core.BlockingStatus, error) {
	task := f.tasks[id]
	if task == nil {
		return core.BlockingStatus{}, fmt.Errorf("task %s not found", id)
	}
	return core.GetBlockingStatus(*task, f.all()), nil
}

func (f *fakeTaskService) WouldUnblock(id string) ([]models.Task, error) {
	return core.GetTasksThatWouldBeUnblocked(id, f.all()), nil
}

func (f *fakeTaskService) AddSubtask(taskID, title string) (*models.Task, error) {
	return f.tasks[taskID], nil
}
func (f *fakeTaskService) ToggleSubtask(taskID, subtaskID string) (*models.Task, error) {
	return f.tasks[taskID], nil
}

func (f *fakeTaskService) ListBacklog() ([]models.Task, error) { return f.backlog, nil }
func (f *fakeTaskService) CreateBacklogTask(input models.CreateTaskInput) (*models.Task, error) {
	return nil, nil
}
func (f *fakeTaskService) PromoteTask(id string) error { return nil }
func (f *fakeTaskService) DemoteTask(id string) error  { return nil }

func testTask(id, title string, status models.TaskStatus, blockedBy ...string) *models.Task {
	return &models.Task{
		ID:        id,
		Title:     title,
		Status:    status,
		Priority:  models.PriorityMedium,
		BlockedBy: blockedBy,
	}
}

func TestHandleListTasks(t *testing.T) {
	svc := newFakeService(
		testTask("t1", "one", models.StatusTodo),
		testTask("t2", "two", models.StatusDone),
	)
	srv := NewServer(svc, "test")

	result, out, err := srv.handleListTasks(context.Background(), nil, listTasksInput{})
	if err != nil || result != nil {
		t.Fatalf("handleListTasks: result %+v, err %v", result, err)
	}
	if out.Count != 2 || len(out.Tasks) != 2 {
		t.Errorf("out = %+v, want 2 tasks", out)
	}

	_, filtered, err := srv.handleListTasks(context.Background(), nil, listTasksInput{Status: "done"})
	if err != nil {
		t.Fatalf("handleListTasks: %v", err)
	}
	if filtered.Count != 1 || filtered.Tasks[0].ID != "t2" {
		t.Errorf("filtered = %+v, want just t2", filtered)
	}
}

func TestHandleGetTask(t *testing.T) {
	svc := newFakeService(testTask("t1", "one", models.StatusTodo))
	srv := NewServer(svc, "test")

	result, out, err := srv.handleGetTask(context.Background(), nil, getTaskInput{TaskID: "t1"})
	if err != nil || result != nil {
		t.Fatalf("handleGetTask: result %+v, err %v", result, err)
	}
	if out.ID != "t1" || out.Title != "one" {
		t.Errorf("out = %+v", out)
	}

	result, _, err = srv.handleGetTask(context.Background(), nil, getTaskInput{TaskID: "nosuch"})
	if err != nil {
		t.Fatalf("handleGetTask: %v", err)
	}
	if result == nil || !result.IsError {
		t.Error("unknown task did not produce an error result")
	}

	result, _, _ = srv.handleGetTask(context.Background(), nil, getTaskInput{})
	if result == nil || !result.IsError {
		t.Error("empty task_id did not produce an error result")
	}
}

func TestHandleCreateTask(t *testing.T) {
	svc := newFakeService()
	srv := NewServer(svc, "test")

	result, out, err := srv.handleCreateTask(context.Background(), nil, createTaskInput{
		Title:    "New work",
		Priority: "high",
		Project:  "auth",
	})
	if err != nil || result != nil {
		t.Fatalf("handleCreateTask: result %+v, err %v", result, err)
	}
	if out.Title != "New work" || out.Priority != "high" || out.Project != "auth" {
		t.Errorf("out = %+v", out)
	}
	if out.Status != "todo" {
		t.Errorf("Status = %q, want default todo", out.Status)
	}

	result, _, _ = srv.handleCreateTask(context.Background(), nil, createTaskInput{})
	if result == nil || !result.IsError {
		t.Error("missing title did not produce an error result")
	}
}

func TestHandleUpdateTaskStatusRefusesBlockedMove(t *testing.T) {
	svc := newFakeService(
		testTask("gate", "the gate", models.StatusTodo),
		testTask("waiting", "waiting task", models.StatusTodo, "gate"),
	)
	srv := NewServer(svc, "test")

	result, out, err := srv.handleUpdateTaskStatus(context.Background(), nil, updateTaskStatusInput{
		TaskID: "waiting",
		Status: "in-progress",
	})
	if err != nil || result != nil {
		t.Fatalf("handleUpdateTaskStatus: result %+v, err %v", result, err)
	}
	if out.Allowed {
		t.Fatal("blocked move allowed")
	}
	if len(out.Blockers) != 1 || out.Blockers[0].ID != "gate" {
		t.Errorf("Blockers = %+v, want gate", out.Blockers)
	}

	// Complete the gate, then the move goes through.
	if _, _, err := srv.handleUpdateTaskStatus(context.Background(), nil, updateTaskStatusInput{
		TaskID: "gate", Status: "done",
	}); err != nil {
		t.Fatalf("completing gate: %v", err)
	}
	_, out, err = srv.handleUpdateTaskStatus(context.Background(), nil, updateTaskStatusInput{
		TaskID: "waiting", Status: "in-progress",
	})
	if err != nil {
		t.Fatalf("handleUpdateTaskStatus: %v", err)
	}
	if !out.Allowed {
		t.Errorf("move still refused after gate done: %+v", out)
	}

	result, _, _ = srv.handleUpdateTaskStatus(context.Background(), nil, updateTaskStatusInput{
		TaskID: "waiting", Status: "bogus",
	})
	if result == nil || !result.IsError {
		t.Error("invalid status did not produce an error result")
	}
}

func TestHandleCheckBlocking(t *testing.T) {
	svc := newFakeService(
		testTask("a", "done blocker", models.StatusDone),
		testTask("b", "open blocker", models.StatusTodo),
		testTask("c", "the task", models.StatusTodo, "a", "b"),
		testTask("d", "waiting on b", models.StatusTodo, "b"),
	)
	srv := NewServer(svc, "test")

	result, out, err := srv.handleCheckBlocking(context.Background(), nil, checkBlockingInput{TaskID: "c"})
	if err != nil || result != nil {
		t.Fatalf("handleCheckBlocking: result %+v, err %v", result, err)
	}
	if !out.IsBlocked {
		t.Error("c should be blocked")
	}
	if len(out.Blockers) != 1 || out.Blockers[0].ID != "b" {
		t.Errorf("Blockers = %+v, want b", out.Blockers)
	}
	if len(out.CompletedBlockers) != 1 || out.CompletedBlockers[0].ID != "a" {
		t.Errorf("CompletedBlockers = %+v, want a", out.CompletedBlockers)
	}

	// Finishing b frees d (c still waits on nothing else once a and b done).
	_, forB, err := srv.handleCheckBlocking(context.Background(), nil, checkBlockingInput{TaskID: "b"})
	if err != nil {
		t.Fatalf("handleCheckBlocking: %v", err)
	}
	if len(forB.WouldUnblock) != 2 {
		t.Errorf("WouldUnblock = %+v, want c and d", forB.WouldUnblock)
	}
}

func TestHandleAddDependency(t *testing.T) {
	svc := newFakeService(
		testTask("a", "a", models.StatusTodo, "b"),
		testTask("b", "b", models.StatusTodo),
	)
	srv := NewServer(svc, "test")

	result, out, err := srv.handleAddDependency(context.Background(), nil, addDependencyInput{
		TaskID: "b", BlockerID: "a",
	})
	if err != nil || result != nil {
		t.Fatalf("handleAddDependency: result %+v, err %v", result, err)
	}
	if out.Added {
		t.Error("cycle-closing dependency accepted")
	}

	result, _, _ = srv.handleAddDependency(context.Background(), nil, addDependencyInput{TaskID: "b"})
	if result == nil || !result.IsError {
		t.Error("missing blocker_id did not produce an error result")
	}
}

func TestHandleListBacklog(t *testing.T) {
	svc := newFakeService()
	svc.backlog = []models.Task{*testTask("p1", "parked", models.StatusTodo)}
	srv := NewServer(svc, "test")

	result, out, err := srv.handleListBacklog(context.Background(), nil, listBacklogInput{})
	if err != nil || result != nil {
		t.Fatalf("handleListBacklog: result %+v, err %v", result, err)
	}
	if out.Count != 1 || out.Tasks[0].ID != "p1" {
		t.Errorf("out = %+v, want p1", out)
	}
}
