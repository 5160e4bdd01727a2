package core

import (
	"fmt"

	"github.com/veritas-kanban/veritas-kanban/internal/observability"
	"github.com/veritas-kanban/veritas-kanban/pkg/models"
)

// EventLogger receives structured events from core services. A small
// local interface so a nil logger disables logging without tying the
// services to a concrete sink.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// MigrationStore is the subset of the task repository the migration
// runner needs: enumerate records per area and rewrite them in place.
type MigrationStore interface {
	List(loc models.Location) ([]models.Task, error)
	Rewrite(task models.Task, loc models.Location) error
}

// MigrationReport summarizes one migration pass.
type MigrationReport struct {
	Scanned  int
	Migrated int
}

// MigrationRunner normalizes legacy on-disk data. The pass is idempotent:
// running it repeatedly, or against an empty store, is a no-op.
type MigrationRunner interface {
	Run() (MigrationReport, error)
}

type migrationRunner struct {
	store  MigrationStore
	events EventLogger
}

// NewMigrationRunner creates a MigrationRunner over the given store.
// events may be nil.
func NewMigrationRunner(store MigrationStore, events EventLogger) MigrationRunner {
	return &migrationRunner{store: store, events: events}
}

// Run scans the active and archive areas and rewrites every task whose
// status is the retired "review" value to "blocked". Tasks already in a
// valid state are left untouched. This read-all, filter, rewrite-matching
// shape is the template for future schema migrations; there is no
// rollback mechanism.
func (m *migrationRunner) Run() (MigrationReport, error) {
	var report MigrationReport

	for _, loc := range []models.Location{models.LocationActive, models.LocationArchive} {
		tasks, err := m.store.List(loc)
		if err != nil {
			return report, fmt.Errorf("migration: listing %s tasks: %w", loc, err)
		}
		report.Scanned += len(tasks)

		for _, task := range tasks {
			if task.Status != models.StatusReview {
				continue
			}
			task.Status = models.StatusBlocked
			if err := m.store.Rewrite(task, loc); err != nil {
				return report, fmt.Errorf("migration: rewriting task %s: %w", task.ID, err)
			}
			report.Migrated++
			if m.events != nil {
				_ = m.events.LogEvent(observability.EventTaskMigrated, map[string]any{
					"id": task.ID, "from": string(models.StatusReview), "to": string(models.StatusBlocked),
				})
			}
		}
	}

	return report, nil
}
