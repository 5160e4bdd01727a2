package cli

import (
	"github.com/veritas-kanban/veritas-kanban/internal/core"
	"github.com/veritas-kanban/veritas-kanban/internal/observability"
	"github.com/veritas-kanban/veritas-kanban/internal/storage"
)

// Service instances, set during app initialization in internal/app.go.
var (
	BasePath string
	TaskSvc  core.TaskService
	Migrator core.MigrationRunner
	Catalogs map[string]*storage.ManagedListStore
	EventLog observability.EventLog
)
