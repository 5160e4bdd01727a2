package core

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/veritas-kanban/veritas-kanban/pkg/models"
)

func task(id string, status models.TaskStatus, blockedBy ...string) models.Task {
	return models.Task{ID: id, Title: id, Status: status, BlockedBy: blockedBy}
}

func TestGetBlockingStatus(t *testing.T) {
	all := []models.Task{
		task("a", models.StatusDone),
		task("b", models.StatusTodo),
		task("c", models.StatusTodo, "a", "b", "ghost"),
	}

	status := GetBlockingStatus(all[2], all)
	if !status.IsBlocked {
		t.Error("c should be blocked while b is not done")
	}
	if len(status.Blockers) != 1 || status.Blockers[0].ID != "b" {
		t.Errorf("Blockers = %+v, want just b", status.Blockers)
	}
	if len(status.CompletedBlockers) != 1 || status.CompletedBlockers[0].ID != "a" {
		t.Errorf("CompletedBlockers = %+v, want just a", status.CompletedBlockers)
	}
}

func TestGetBlockingStatusIgnoresDanglingIDs(t *testing.T) {
	all := []models.Task{task("a", models.StatusTodo, "deleted-long-ago")}

	status := GetBlockingStatus(all[0], all)
	if status.IsBlocked {
		t.Errorf("dangling blockedBy entry counted as a blocker: %+v", status)
	}
	if len(status.CompletedBlockers) != 0 {
		t.Errorf("dangling entry counted as completed: %+v", status.CompletedBlockers)
	}
}

func TestCanMoveToInProgress(t *testing.T) {
	all := []models.Task{
		task("a", models.StatusDone),
		task("b", models.StatusInProgress),
		task("free", models.StatusTodo),
		task("ready", models.StatusTodo, "a"),
		task("stuck", models.StatusTodo, "a", "b"),
	}

	if check := CanMoveToInProgress(all[2], all); !check.Allowed {
		t.Errorf("task with no blockers refused: %+v", check)
	}
	if check := CanMoveToInProgress(all[3], all); !check.Allowed {
		t.Errorf("task with only done blockers refused: %+v", check)
	}
	check := CanMoveToInProgress(all[4], all)
	if check.Allowed {
		t.Error("task with an unresolved blocker allowed")
	}
	if len(check.Blockers) != 1 || check.Blockers[0].ID != "b" {
		t.Errorf("Blockers = %+v, want just b", check.Blockers)
	}
}

func TestGetDependentTasks(t *testing.T) {
	all := []models.Task{
		task("a", models.StatusTodo),
		task("b", models.StatusTodo, "a"),
		task("c", models.StatusTodo, "a", "b"),
		task("d", models.StatusTodo),
	}

	deps := GetDependentTasks("a", all)
	if len(deps) != 2 || deps[0].ID != "b" || deps[1].ID != "c" {
		t.Errorf("GetDependentTasks(a) = %+v, want b and c", deps)
	}
	if deps := GetDependentTasks("d", all); len(deps) != 0 {
		t.Errorf("GetDependentTasks(d) = %+v, want none", deps)
	}
}

func TestGetTasksThatWouldBeUnblocked(t *testing.T) {
	all := []models.Task{
		task("a", models.StatusInProgress),
		task("b", models.StatusTodo),
		task("only-a", models.StatusTodo, "a"),
		task("a-and-b", models.StatusTodo, "a", "b"),
	}

	unblocked := GetTasksThatWouldBeUnblocked("a", all)
	if len(unblocked) != 1 || unblocked[0].ID != "only-a" {
		t.Errorf("unblocked = %+v, want just only-a", unblocked)
	}
}

func TestWouldCreateCircularDependency(t *testing.T) {
	all := []models.Task{
		task("a", models.StatusTodo, "b"),
		task("b", models.StatusTodo, "c"),
		task("c", models.StatusTodo),
		task("island", models.StatusTodo),
	}

	tests := []struct {
		name            string
		taskID, blocker string
		want            bool
	}{
		{"self reference", "a", "a", true},
		{"direct reverse edge", "b", "a", true},
		{"transitive cycle", "c", "a", true},
		{"forward edge already implied", "a", "c", false},
		{"independent task", "island", "a", false},
		{"dangling candidate", "a", "ghost", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WouldCreateCircularDependency(tt.taskID, tt.blocker, all)
			if got != tt.want {
				t.Errorf("WouldCreateCircularDependency(%s, %s) = %v, want %v", tt.taskID, tt.blocker, got, tt.want)
			}
		})
	}
}

// Once an edge a←b is accepted, the reverse edge b←a must always be
// refused, whatever the rest of the graph looks like.
func TestCycleDetectionIsAntisymmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 8).Draw(t, "n")
		tasks := make([]models.Task, n)
		for i := range tasks {
			tasks[i] = task(fmt.Sprintf("t%d", i), models.StatusTodo)
		}

		// Random edges from lower to higher index keep the graph acyclic.
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if rapid.Bool().Draw(t, fmt.Sprintf("edge_%d_%d", i, j)) {
					tasks[i].BlockedBy = append(tasks[i].BlockedBy, tasks[j].ID)
				}
			}
		}

		a := rapid.IntRange(0, n-1).Draw(t, "a")
		b := rapid.IntRange(0, n-1).Draw(t, "b")
		if a == b {
			return
		}

		if WouldCreateCircularDependency(tasks[a].ID, tasks[b].ID, tasks) {
			return
		}
		tasks[a].BlockedBy = append(tasks[a].BlockedBy, tasks[b].ID)
		if !WouldCreateCircularDependency(tasks[b].ID, tasks[a].ID, tasks) {
			t.Fatalf("edge %s<-%s accepted, but reverse edge also accepted", tasks[a].ID, tasks[b].ID)
		}
	})
}
