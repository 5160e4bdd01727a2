// Package storage implements the file-backed persistence layer for the
// kanban task store: the task repository (one markdown file per task),
// the backlog repository, and the managed-list catalog store.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/veritas-kanban/veritas-kanban/pkg/models"
)

// locationDirs maps each storage area to its directory under tasks/.
var locationDirs = map[models.Location]string{
	models.LocationActive:  "active",
	models.LocationArchive: "archive",
	models.LocationBacklog: "backlog",
}

// LocationDir returns the absolute directory for a storage area under root.
// root is the data directory holding tasks/ and .veritas-kanban/.
func LocationDir(root string, loc models.Location) (string, error) {
	dir, ok := locationDirs[loc]
	if !ok {
		return "", fmt.Errorf("unknown location %q", loc)
	}
	return filepath.Join(root, "tasks", dir), nil
}

// CatalogDir returns the directory holding managed-list catalog files.
func CatalogDir(root string) string {
	return filepath.Join(root, ".veritas-kanban")
}

// EnsureLayout creates the on-disk directory layout under root if it does
// not already exist.
func EnsureLayout(root string) error {
	for loc := range locationDirs {
		dir, err := LocationDir(root, loc)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating %s directory: %w", loc, err)
		}
	}
	if err := os.MkdirAll(CatalogDir(root), 0o750); err != nil {
		return fmt.Errorf("creating catalog directory: %w", err)
	}
	return nil
}
