// Package core contains the business logic of the kanban store: the
// blocking/dependency engine, the migration runner, the task service
// orchestration, and configuration loading.
package core

import (
	"github.com/veritas-kanban/veritas-kanban/pkg/models"
)

// BlockingStatus partitions a task's blockedBy set into unresolved and
// completed blockers. IsBlocked is true iff Blockers is non-empty.
type BlockingStatus struct {
	IsBlocked         bool          `json:"isBlocked"`
	Blockers          []models.Task `json:"blockers,omitempty"`
	CompletedBlockers []models.Task `json:"completedBlockers,omitempty"`
}

// MoveCheck is the structured answer to "may this task enter in-progress".
type MoveCheck struct {
	Allowed  bool          `json:"allowed"`
	Blockers []models.Task `json:"blockers,omitempty"`
}

// The blocking engine is a set of pure functions over an in-memory task
// list. It holds no storage, performs no I/O, and is safe to call
// concurrently. IDs in blockedBy that resolve to no task are treated as
// non-edges: neither a blocker nor a completed blocker.

// taskIndex builds an ID lookup over the task list.
func taskIndex(allTasks []models.Task) map[string]*models.Task {
	idx := make(map[string]*models.Task, len(allTasks))
	for i := range allTasks {
		idx[allTasks[i].ID] = &allTasks[i]
	}
	return idx
}

// GetBlockingStatus evaluates a task's blockedBy set against the current
// task list.
func GetBlockingStatus(task models.Task, allTasks []models.Task) BlockingStatus {
	idx := taskIndex(allTasks)

	var status BlockingStatus
	for _, id := range task.BlockedBy {
		blocker, ok := idx[id]
		if !ok {
			continue
		}
		if blocker.Status == models.StatusDone {
			status.CompletedBlockers = append(status.CompletedBlockers, *blocker)
		} else {
			status.Blockers = append(status.Blockers, *blocker)
		}
	}
	status.IsBlocked = len(status.Blockers) > 0
	return status
}

// CanMoveToInProgress reports whether every blocker of the task is done.
// The refusal carries the exact blockers so callers can show them.
func CanMoveToInProgress(task models.Task, allTasks []models.Task) MoveCheck {
	status := GetBlockingStatus(task, allTasks)
	return MoveCheck{
		Allowed:  !status.IsBlocked,
		Blockers: status.Blockers,
	}
}

// GetDependentTasks returns every task whose blockedBy set contains
// taskID, the reverse edge lookup.
func GetDependentTasks(taskID string, allTasks []models.Task) []models.Task {
	var dependents []models.Task
	for _, t := range allTasks {
		for _, id := range t.BlockedBy {
			if id == taskID {
				dependents = append(dependents, t)
				break
			}
		}
	}
	return dependents
}

// GetTasksThatWouldBeUnblocked simulates taskID reaching done and returns
// the dependent tasks whose remaining blockers are then all complete.
func GetTasksThatWouldBeUnblocked(taskID string, allTasks []models.Task) []models.Task {
	simulated := make([]models.Task, len(allTasks))
	copy(simulated, allTasks)
	for i := range simulated {
		if simulated[i].ID == taskID {
			simulated[i].Status = models.StatusDone
		}
	}

	var unblocked []models.Task
	for _, dependent := range GetDependentTasks(taskID, allTasks) {
		if !GetBlockingStatus(dependent, simulated).IsBlocked {
			unblocked = append(unblocked, dependent)
		}
	}
	return unblocked
}

// WouldCreateCircularDependency reports whether adding the edge
// taskID → candidateBlockerID would close a cycle in the blockedBy graph.
// A self-reference is always a cycle. Detection is a depth-first walk
// from the candidate blocker along existing blockedBy edges, so
// transitive cycles of arbitrary depth are caught.
func WouldCreateCircularDependency(taskID, candidateBlockerID string, allTasks []models.Task) bool {
	if taskID == candidateBlockerID {
		return true
	}

	idx := taskIndex(allTasks)
	visited := make(map[string]bool)

	var visit func(id string) bool
	visit = func(id string) bool {
		if id == taskID {
			return true
		}
		if visited[id] {
			return false
		}
		visited[id] = true

		node, ok := idx[id]
		if !ok {
			// Dangling reference: no outgoing edges to follow.
			return false
		}
		for _, next := range node.BlockedBy {
			if visit(next) {
				return true
			}
		}
		return false
	}

	return visit(candidateBlockerID)
}
