// Package internal provides the App struct that wires all components of
// the Veritas Kanban store together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/veritas-kanban/veritas-kanban/internal/cli"
	"github.com/veritas-kanban/veritas-kanban/internal/core"
	"github.com/veritas-kanban/veritas-kanban/internal/observability"
	"github.com/veritas-kanban/veritas-kanban/internal/storage"
	"github.com/veritas-kanban/veritas-kanban/pkg/models"
)

// App holds all service dependencies for the Veritas Kanban store. Every
// service is constructed exactly once at startup and injected; there is
// no hidden global state.
type App struct {
	BasePath string

	ConfigMgr core.ConfigurationManager

	// Storage layer
	TaskRepo    storage.TaskRepository
	BacklogRepo storage.BacklogRepository
	Catalogs    map[string]*storage.ManagedListStore

	// Core services
	TaskSvc  core.TaskService
	Migrator core.MigrationRunner

	// Observability
	EventLog observability.EventLog
}

// NewApp creates and wires all components. basePath is the data directory
// holding tasks/ and .veritas-kanban/.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		// Use defaults if the config file is unreadable.
		cfg = &models.GlobalConfig{
			DataDir:         basePath,
			DefaultType:     "task",
			DefaultPriority: models.PriorityMedium,
			EventLogEnabled: true,
		}
	}
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = basePath
	}

	if err := storage.EnsureLayout(dataDir); err != nil {
		return nil, fmt.Errorf("initializing data layout: %w", err)
	}

	// --- Observability ---
	if cfg.EventLogEnabled {
		logPath := filepath.Join(dataDir, ".vk_events.jsonl")
		if log, err := observability.NewJSONLEventLog(logPath); err == nil {
			app.EventLog = log
		}
		// Non-fatal: the store runs without an event log.
	}

	// --- Storage layer ---
	var storageEvents storage.EventLogger
	if app.EventLog != nil {
		storageEvents = app.EventLog
	}
	app.TaskRepo = storage.NewTaskRepository(dataDir, cfg.SlugMaxLen, storageEvents)
	app.BacklogRepo = storage.NewBacklogRepository(dataDir, cfg.SlugMaxLen, storageEvents)

	catalogDir := storage.CatalogDir(dataDir)
	app.Catalogs = map[string]*storage.ManagedListStore{
		storage.CatalogProjects: storage.NewManagedListStore(
			catalogDir, storage.CatalogProjects, nil,
			taskFieldRefCounter(app.TaskRepo, app.BacklogRepo, func(t models.Task) string { return t.Project })),
		storage.CatalogSprints: storage.NewManagedListStore(
			catalogDir, storage.CatalogSprints, nil,
			taskFieldRefCounter(app.TaskRepo, app.BacklogRepo, func(t models.Task) string { return t.Sprint })),
		storage.CatalogPriorities: storage.NewManagedListStore(
			catalogDir, storage.CatalogPriorities, storage.DefaultPriorityItems(),
			taskFieldRefCounter(app.TaskRepo, app.BacklogRepo, func(t models.Task) string { return string(t.Priority) })),
		storage.CatalogTaskTypes: storage.NewManagedListStore(
			catalogDir, storage.CatalogTaskTypes, storage.DefaultTaskTypeItems(),
			taskFieldRefCounter(app.TaskRepo, app.BacklogRepo, func(t models.Task) string { return t.Type })),
	}

	// --- Core services ---
	var coreEvents core.EventLogger
	if app.EventLog != nil {
		coreEvents = app.EventLog
	}
	app.TaskSvc = core.NewTaskService(app.TaskRepo, app.BacklogRepo, cfg.DefaultType, coreEvents)
	app.Migrator = core.NewMigrationRunner(app.TaskRepo, coreEvents)

	// Normalize legacy on-disk data before anything reads it. The pass is
	// idempotent, so running it on every startup is safe.
	if _, err := app.Migrator.Run(); err != nil {
		return nil, fmt.Errorf("running startup migration: %w", err)
	}

	// --- Wire CLI package-level variables ---
	cli.BasePath = dataDir
	cli.TaskSvc = app.TaskSvc
	cli.Migrator = app.Migrator
	cli.Catalogs = app.Catalogs
	cli.EventLog = app.EventLog

	return app, nil
}

// Close releases resources held by the App, such as the event log file
// handle. Safe to call when the EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the data directory. It checks the VK_HOME
// env var, then walks up from the current directory looking for an
// existing tasks/ layout, and finally falls back to the cwd.
func ResolveBasePath() string {
	if home := os.Getenv("VK_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "tasks", "active")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

// taskFieldRefCounter builds a ReferenceCounter that counts how many
// tasks across all three storage areas reference a catalog item through
// the given field.
func taskFieldRefCounter(tasks storage.TaskRepository, backlog storage.BacklogRepository, field func(models.Task) string) storage.ReferenceCounter {
	return func(id string) (int, error) {
		count := 0
		for _, loc := range []models.Location{models.LocationActive, models.LocationArchive} {
			list, err := tasks.List(loc)
			if err != nil {
				return 0, err
			}
			for _, t := range list {
				if field(t) == id {
					count++
				}
			}
		}
		list, err := backlog.ListAll()
		if err != nil {
			return 0, err
		}
		for _, t := range list {
			if field(t) == id {
				count++
			}
		}
		return count, nil
	}
}
