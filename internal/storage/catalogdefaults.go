package storage

import (
	"time"

	"github.com/veritas-kanban/veritas-kanban/pkg/models"
)

// Catalog names used for the managed-list files under .veritas-kanban/.
const (
	CatalogProjects   = "projects"
	CatalogSprints    = "sprints"
	CatalogPriorities = "priorities"
	CatalogTaskTypes  = "task-types"
)

// seededAt is the fixed timestamp stamped on seeded default items so
// repeated seeding stays byte-stable.
var seededAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func defaultItem(id, label, color string, order int) models.ManagedListItem {
	return models.ManagedListItem{
		ID:        id,
		Label:     label,
		Color:     color,
		Order:     order,
		IsDefault: true,
		Created:   seededAt,
		Updated:   seededAt,
	}
}

// DefaultPriorityItems returns the seeded priorities catalog.
func DefaultPriorityItems() []models.ManagedListItem {
	return []models.ManagedListItem{
		defaultItem("high", "High", "#ef4444", 0),
		defaultItem("medium", "Medium", "#f59e0b", 1),
		defaultItem("low", "Low", "#10b981", 2),
	}
}

// DefaultTaskTypeItems returns the seeded task-types catalog.
func DefaultTaskTypeItems() []models.ManagedListItem {
	return []models.ManagedListItem{
		defaultItem("task", "Task", "#3b82f6", 0),
		defaultItem("bug", "Bug", "#ef4444", 1),
		defaultItem("feature", "Feature", "#8b5cf6", 2),
		defaultItem("chore", "Chore", "#6b7280", 3),
	}
}
