package cli

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/veritas-kanban/veritas-kanban/pkg/models"
)

func TestRenderBoardPlacesTasksInStatusColumns(t *testing.T) {
	tasks := []models.Task{
		{ID: "t1", Title: "First task", Status: models.StatusTodo},
		{ID: "t2", Title: "Second task", Status: models.StatusInProgress},
		{ID: "t3", Title: "Third task", Status: models.StatusDone},
	}

	out := renderBoard(tasks)
	for _, id := range []string{"t1", "t2", "t3"} {
		if !strings.Contains(out, id) {
			t.Errorf("board output missing task %s", id)
		}
	}
	for _, header := range []string{"TODO", "IN-PROGRESS", "BLOCKED", "DONE"} {
		if !strings.Contains(out, header) {
			t.Errorf("board output missing column %s", header)
		}
	}
	// No blocked tasks: that column renders its placeholder.
	if !strings.Contains(out, "(empty)") {
		t.Error("empty column placeholder missing")
	}
}

func TestRenderBoardTruncatesLongTitles(t *testing.T) {
	long := strings.Repeat("x", 40)
	out := renderBoard([]models.Task{{ID: "t1", Title: long, Status: models.StatusTodo}})
	if strings.Contains(out, long) {
		t.Error("long title not truncated")
	}
	if !strings.Contains(out, "…") {
		t.Error("truncated title missing ellipsis")
	}
}

func TestRenderBoardTruncatesOnRunes(t *testing.T) {
	// Multi-byte runes: a byte-based cut would split one mid-sequence.
	long := strings.Repeat("é", 40)
	out := renderBoard([]models.Task{{ID: "t1", Title: long, Status: models.StatusTodo}})
	if !utf8.ValidString(out) {
		t.Error("board output is not valid UTF-8")
	}
	if strings.Contains(out, long) {
		t.Error("long title not truncated")
	}
	if !strings.Contains(out, "…") {
		t.Error("truncated title missing ellipsis")
	}
}

func TestRenderStatusPassesThroughUnknownValues(t *testing.T) {
	if got := renderStatus(models.TaskStatus("weird")); got != "weird" {
		t.Errorf("renderStatus(weird) = %q", got)
	}
}
