package core

import (
	"fmt"
	"testing"

	"github.com/veritas-kanban/veritas-kanban/pkg/models"
)

// memStores backs the in-memory TaskStore and BacklogStore fakes with
// shared slices so promote/demote move records between areas.
type memStores struct {
	active  []models.Task
	archive []models.Task
	backlog []models.Task
	seq     int
}

func (s *memStores) newTask(input models.CreateTaskInput) models.Task {
	s.seq++
	status := input.Status
	if status == "" {
		status = models.StatusTodo
	}
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	return models.Task{
		ID:        fmt.Sprintf("task_20250314_%06d", s.seq),
		Title:     input.Title,
		Type:      input.Type,
		Status:    status,
		Priority:  priority,
		BlockedBy: input.BlockedBy,
		Subtasks:  input.Subtasks,
	}
}

func applyPatch(task *models.Task, patch models.TaskPatch) {
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.BlockedBy != nil {
		task.BlockedBy = *patch.BlockedBy
	}
	if patch.Subtasks != nil {
		task.Subtasks = *patch.Subtasks
	}
}

func removeByID(tasks []models.Task, id string) ([]models.Task, *models.Task) {
	for i := range tasks {
		if tasks[i].ID == id {
			found := tasks[i]
			return append(tasks[:i:i], tasks[i+1:]...), &found
		}
	}
	return tasks, nil
}

type memTaskStore struct{ s *memStores }

func (m *memTaskStore) List(loc models.Location) ([]models.Task, error) {
	switch loc {
	case models.LocationArchive:
		return append([]models.Task{}, m.s.archive...), nil
	default:
		return append([]models.Task{}, m.s.active...), nil
	}
}

func (m *memTaskStore) Get(id string) (*models.Task, error) {
	for i := range m.s.active {
		if m.s.active[i].ID == id {
			task := m.s.active[i]
			return &task, nil
		}
	}
	return nil, nil
}

func (m *memTaskStore) Create(input models.CreateTaskInput) (*models.Task, error) {
	task := m.s.newTask(input)
	task.Position = len(m.s.active)
	m.s.active = append(m.s.active, task)
	return &task, nil
}

func (m *memTaskStore) Update(id string, patch models.TaskPatch) (*models.Task, error) {
	for i := range m.s.active {
		if m.s.active[i].ID == id {
			applyPatch(&m.s.active[i], patch)
			task := m.s.active[i]
			return &task, nil
		}
	}
	return nil, nil
}

func (m *memTaskStore) Delete(id string) (bool, error) {
	var found *models.Task
	m.s.active, found = removeByID(m.s.active, id)
	if found == nil {
		m.s.archive, found = removeByID(m.s.archive, id)
	}
	return found != nil, nil
}

func (m *memTaskStore) Archive(id string) error {
	var found *models.Task
	m.s.active, found = removeByID(m.s.active, id)
	if found == nil {
		return fmt.Errorf("task %s not found", id)
	}
	m.s.archive = append(m.s.archive, *found)
	return nil
}

func (m *memTaskStore) Move(id string, from, to models.Location) error {
	return fmt.Errorf("not implemented in fake")
}

func (m *memTaskStore) Reorder(orderedIDs []string) error {
	for pos, id := range orderedIDs {
		for i := range m.s.active {
			if m.s.active[i].ID == id {
				m.s.active[i].Position = pos
			}
		}
	}
	return nil
}

type memBacklogStore struct{ s *memStores }

func (m *memBacklogStore) ListAll() ([]models.Task, error) {
	return append([]models.Task{}, m.s.backlog...), nil
}

func (m *memBacklogStore) FindByID(id string) (*models.Task, error) {
	for i := range m.s.backlog {
		if m.s.backlog[i].ID == id {
			task := m.s.backlog[i]
			return &task, nil
		}
	}
	return nil, nil
}

func (m *memBacklogStore) Create(input models.CreateTaskInput) (*models.Task, error) {
	task := m.s.newTask(input)
	m.s.backlog = append(m.s.backlog, task)
	return &task, nil
}

func (m *memBacklogStore) Update(id string, patch models.TaskPatch) (*models.Task, error) {
	for i := range m.s.backlog {
		if m.s.backlog[i].ID == id {
			applyPatch(&m.s.backlog[i], patch)
			task := m.s.backlog[i]
			return &task, nil
		}
	}
	return nil, nil
}

func (m *memBacklogStore) Delete(id string) (bool, error) {
	var found *models.Task
	m.s.backlog, found = removeByID(m.s.backlog, id)
	return found != nil, nil
}

func (m *memBacklogStore) MoveToActive(id string) error {
	var found *models.Task
	m.s.backlog, found = removeByID(m.s.backlog, id)
	if found == nil {
		return fmt.Errorf("task %s not found in backlog", id)
	}
	m.s.active = append(m.s.active, *found)
	return nil
}

func (m *memBacklogStore) MoveFromActive(id string) error {
	var found *models.Task
	m.s.active, found = removeByID(m.s.active, id)
	if found == nil {
		return fmt.Errorf("task %s not found in active", id)
	}
	m.s.backlog = append(m.s.backlog, *found)
	return nil
}

func newTestService() (TaskService, *memStores) {
	stores := &memStores{}
	svc := NewTaskService(&memTaskStore{s: stores}, &memBacklogStore{s: stores}, "task", nil)
	return svc, stores
}

func TestCreateTaskAppliesDefaultType(t *testing.T) {
	svc, _ := newTestService()

	task, err := svc.CreateTask(models.CreateTaskInput{Title: "Untyped"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.Type != "task" {
		t.Errorf("Type = %q, want default task", task.Type)
	}

	typed, err := svc.CreateTask(models.CreateTaskInput{Title: "Typed", Type: "bug"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if typed.Type != "bug" {
		t.Errorf("Type = %q, explicit type overridden", typed.Type)
	}
}

func TestCreateTaskAssignsSubtaskIDs(t *testing.T) {
	svc, _ := newTestService()

	task, err := svc.CreateTask(models.CreateTaskInput{
		Title: "With checklist",
		Subtasks: []models.Subtask{
			{Title: "first"},
			{Title: "second"},
			{ID: "keep-me", Title: "third"},
		},
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if task.Subtasks[0].ID == "" || task.Subtasks[1].ID == "" {
		t.Errorf("subtasks missing generated IDs: %+v", task.Subtasks)
	}
	if task.Subtasks[0].ID == task.Subtasks[1].ID {
		t.Errorf("generated subtask IDs collide: %+v", task.Subtasks)
	}
	if task.Subtasks[2].ID != "keep-me" {
		t.Errorf("pre-set subtask ID replaced: %+v", task.Subtasks[2])
	}
}

func TestSetStatusGatedOnBlockers(t *testing.T) {
	svc, _ := newTestService()

	blocker, err := svc.CreateTask(models.CreateTaskInput{Title: "Build the API"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	dependent, err := svc.CreateTask(models.CreateTaskInput{
		Title:     "Build the UI",
		BlockedBy: []string{blocker.ID},
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	result, err := svc.SetStatus(dependent.ID, models.StatusInProgress)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if result.Allowed {
		t.Fatal("move to in-progress allowed while blocker is todo")
	}
	if len(result.Blockers) != 1 || result.Blockers[0].ID != blocker.ID {
		t.Errorf("Blockers = %+v, want the todo blocker", result.Blockers)
	}
	if got, _ := svc.GetTask(dependent.ID); got.Status != models.StatusTodo {
		t.Errorf("refused transition still changed status to %q", got.Status)
	}

	done, err := svc.SetStatus(blocker.ID, models.StatusDone)
	if err != nil || !done.Allowed {
		t.Fatalf("completing blocker: %+v, %v", done, err)
	}

	result, err = svc.SetStatus(dependent.ID, models.StatusInProgress)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if !result.Allowed || result.Task.Status != models.StatusInProgress {
		t.Errorf("move refused after blocker done: %+v", result)
	}
}

func TestSetStatusUnknownTask(t *testing.T) {
	svc, _ := newTestService()

	result, err := svc.SetStatus("task_20250314_nosuch", models.StatusDone)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if result.Task != nil || result.Allowed {
		t.Errorf("SetStatus on unknown ID = %+v, want zero result", result)
	}
}

func TestAddDependency(t *testing.T) {
	svc, _ := newTestService()

	a, _ := svc.CreateTask(models.CreateTaskInput{Title: "a"})
	b, _ := svc.CreateTask(models.CreateTaskInput{Title: "b"})

	result, err := svc.AddDependency(a.ID, b.ID)
	if err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	if !result.Added || len(result.Task.BlockedBy) != 1 {
		t.Fatalf("AddDependency = %+v", result)
	}

	// Same edge again.
	result, err = svc.AddDependency(a.ID, b.ID)
	if err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	if result.Added {
		t.Errorf("duplicate edge accepted: %+v", result)
	}

	// Reverse edge closes a cycle.
	result, err = svc.AddDependency(b.ID, a.ID)
	if err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	if result.Added {
		t.Errorf("cycle-closing edge accepted: %+v", result)
	}

	// Self-reference.
	result, err = svc.AddDependency(a.ID, a.ID)
	if err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	if result.Added {
		t.Errorf("self-reference accepted: %+v", result)
	}

	// Unknown task.
	result, err = svc.AddDependency("task_20250314_nosuch", b.ID)
	if err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	if result.Added || result.Reason == "" {
		t.Errorf("AddDependency on unknown task = %+v", result)
	}
}

func TestRemoveDependency(t *testing.T) {
	svc, _ := newTestService()

	a, _ := svc.CreateTask(models.CreateTaskInput{Title: "a"})
	b, _ := svc.CreateTask(models.CreateTaskInput{Title: "b"})
	if _, err := svc.AddDependency(a.ID, b.ID); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}

	task, err := svc.RemoveDependency(a.ID, b.ID)
	if err != nil {
		t.Fatalf("RemoveDependency: %v", err)
	}
	if len(task.BlockedBy) != 0 {
		t.Errorf("BlockedBy = %v after removal", task.BlockedBy)
	}

	// Removing an absent edge is a no-op.
	task, err = svc.RemoveDependency(a.ID, b.ID)
	if err != nil || task == nil {
		t.Errorf("no-op removal = %+v, %v", task, err)
	}

	task, err = svc.RemoveDependency("task_20250314_nosuch", b.ID)
	if err != nil || task != nil {
		t.Errorf("RemoveDependency on unknown = %+v, %v; want nil, nil", task, err)
	}
}

func TestAddAndToggleSubtask(t *testing.T) {
	svc, _ := newTestService()

	created, _ := svc.CreateTask(models.CreateTaskInput{Title: "Parent"})

	task, err := svc.AddSubtask(created.ID, "Write the test")
	if err != nil {
		t.Fatalf("AddSubtask: %v", err)
	}
	if len(task.Subtasks) != 1 || task.Subtasks[0].ID == "" || task.Subtasks[0].Completed {
		t.Fatalf("AddSubtask = %+v", task.Subtasks)
	}

	task, err = svc.ToggleSubtask(created.ID, task.Subtasks[0].ID)
	if err != nil {
		t.Fatalf("ToggleSubtask: %v", err)
	}
	if !task.Subtasks[0].Completed {
		t.Error("toggle did not mark subtask complete")
	}

	if _, err := svc.ToggleSubtask(created.ID, "nosuch-subtask"); err == nil {
		t.Error("toggle on unknown subtask ID succeeded, want error")
	}
	if task, err := svc.AddSubtask("task_20250314_nosuch", "x"); err != nil || task != nil {
		t.Errorf("AddSubtask on unknown task = %+v, %v; want nil, nil", task, err)
	}
}

func TestWouldUnblock(t *testing.T) {
	svc, _ := newTestService()

	blocker, _ := svc.CreateTask(models.CreateTaskInput{Title: "gate"})
	waiting, _ := svc.CreateTask(models.CreateTaskInput{Title: "waiting", BlockedBy: []string{blocker.ID}})

	unblocked, err := svc.WouldUnblock(blocker.ID)
	if err != nil {
		t.Fatalf("WouldUnblock: %v", err)
	}
	if len(unblocked) != 1 || unblocked[0].ID != waiting.ID {
		t.Errorf("WouldUnblock = %+v, want the waiting task", unblocked)
	}
}

func TestPromoteAndDemote(t *testing.T) {
	svc, stores := newTestService()

	parked, err := svc.CreateBacklogTask(models.CreateTaskInput{Title: "Parked"})
	if err != nil {
		t.Fatalf("CreateBacklogTask: %v", err)
	}
	if parked.Type != "task" {
		t.Errorf("backlog create skipped default type: %q", parked.Type)
	}

	if err := svc.PromoteTask(parked.ID); err != nil {
		t.Fatalf("PromoteTask: %v", err)
	}
	if got, _ := svc.GetTask(parked.ID); got == nil {
		t.Fatal("promoted task not in active area")
	}
	if len(stores.backlog) != 0 {
		t.Errorf("promoted task still in backlog: %+v", stores.backlog)
	}

	if err := svc.DemoteTask(parked.ID); err != nil {
		t.Fatalf("DemoteTask: %v", err)
	}
	backlog, _ := svc.ListBacklog()
	if len(backlog) != 1 || backlog[0].ID != parked.ID {
		t.Errorf("demoted task not back in backlog: %+v", backlog)
	}

	if err := svc.PromoteTask("task_20250314_nosuch"); err == nil {
		t.Error("PromoteTask on unknown ID succeeded, want error")
	}
}
