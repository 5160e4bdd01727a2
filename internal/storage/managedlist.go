package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/veritas-kanban/veritas-kanban/pkg/models"
)

// ReferenceCounter reports how many domain records currently reference a
// catalog item, e.g. how many tasks are assigned to a project. The caller
// domain supplies it; the store only consults it on deletion.
type ReferenceCounter func(id string) (int, error)

// ManagedListStore is a reusable ordered, reference-counted catalog
// backed by a single JSON file. One instance per catalog (projects,
// sprints, priorities, task types).
//
// Same-process writes are serialized by an internal mutex; the catalog
// file is additionally guarded by an advisory file lock so concurrent
// processes do not interleave partial writes.
type ManagedListStore struct {
	path     string
	defaults []models.ManagedListItem
	refCount ReferenceCounter

	// AllowDefaultDeletion is the explicit policy switch for removing
	// items marked IsDefault. It stays false unless the caller domain
	// opts in; force alone never overrides it.
	AllowDefaultDeletion bool

	mu  sync.Mutex
	flk *flock.Flock
	now func() time.Time
}

// NewManagedListStore creates a catalog store persisting to
// {dir}/{catalog}.json. defaults seeds the catalog on first access and
// serves as the fallback when the file is corrupt. refCount may be nil,
// in which case every item reports zero references.
func NewManagedListStore(dir, catalog string, defaults []models.ManagedListItem, refCount ReferenceCounter) *ManagedListStore {
	path := filepath.Join(dir, catalog+".json")
	return &ManagedListStore{
		path:     path,
		defaults: defaults,
		refCount: refCount,
		flk:      flock.New(path + ".lock"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// load reads the catalog file. A missing file seeds the defaults and
// persists them; a corrupt file falls back to the defaults without
// propagating the parse error.
func (s *ManagedListStore) load() ([]models.ManagedListItem, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			items := s.defaultItems()
			if err := s.save(items); err != nil {
				return nil, fmt.Errorf("seeding catalog: %w", err)
			}
			return items, nil
		}
		return nil, fmt.Errorf("reading catalog %s: %w", s.path, err)
	}

	var items []models.ManagedListItem
	if err := json.Unmarshal(data, &items); err != nil {
		return s.defaultItems(), nil
	}
	return items, nil
}

func (s *ManagedListStore) defaultItems() []models.ManagedListItem {
	items := make([]models.ManagedListItem, len(s.defaults))
	copy(items, s.defaults)
	return items
}

func (s *ManagedListStore) save(items []models.ManagedListItem) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("creating catalog directory: %w", err)
	}

	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("locking catalog file: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling catalog: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing catalog file: %w", err)
	}
	return nil
}

// List returns the catalog sorted ascending by order. Hidden items are
// excluded unless includeHidden is set.
func (s *ManagedListStore) List(includeHidden bool) ([]models.ManagedListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return nil, err
	}

	var result []models.ManagedListItem
	for _, item := range items {
		if item.IsHidden && !includeHidden {
			continue
		}
		result = append(result, item)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Order < result[j].Order
	})
	return result, nil
}

// Create appends a new item with order = max(existing)+1, or 0 for an
// empty catalog, and stamps created/updated.
func (s *ManagedListStore) Create(input models.CreateItemInput) (*models.ManagedListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if item.ID == input.ID {
			return nil, fmt.Errorf("creating catalog item: %s already exists", input.ID)
		}
	}

	order := 0
	for _, item := range items {
		if item.Order >= order {
			order = item.Order + 1
		}
	}

	now := s.now()
	item := models.ManagedListItem{
		ID:       input.ID,
		Label:    input.Label,
		Color:    input.Color,
		Order:    order,
		IsHidden: input.IsHidden,
		Created:  now,
		Updated:  now,
	}
	items = append(items, item)

	if err := s.save(items); err != nil {
		return nil, err
	}
	return &item, nil
}

// SeedItem inserts a fully-formed item without recomputing its order.
// Used by migrations; an existing item with the same ID is left untouched.
func (s *ManagedListStore) SeedItem(item models.ManagedListItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return err
	}
	for _, existing := range items {
		if existing.ID == item.ID {
			return nil
		}
	}
	items = append(items, item)
	return s.save(items)
}

// Update merges the patch over the named item and refreshes updated.
// An unknown ID yields a nil result, not an error.
func (s *ManagedListStore) Update(id string, patch models.ManagedListPatch) (*models.ManagedListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return nil, err
	}

	for i := range items {
		if items[i].ID != id {
			continue
		}
		if patch.Label != nil {
			items[i].Label = *patch.Label
		}
		if patch.Color != nil {
			items[i].Color = *patch.Color
		}
		if patch.IsHidden != nil {
			items[i].IsHidden = *patch.IsHidden
		}
		items[i].Updated = s.now()
		if err := s.save(items); err != nil {
			return nil, err
		}
		item := items[i]
		return &item, nil
	}
	return nil, nil
}

// CanDelete reports whether the named item could be deleted right now,
// without deleting it. The result carries the reference count or refusal
// reason so callers can present it to the user.
func (s *ManagedListStore) CanDelete(id string) (models.DeleteItemResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkDelete(id, false)
}

// Delete removes the named item. Deletion is refused when the reference
// counter reports nonzero usage, unless force is set. Items marked
// IsDefault are refused regardless of force while AllowDefaultDeletion
// is false.
func (s *ManagedListStore) Delete(id string, force bool) (models.DeleteItemResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.checkDelete(id, force)
	if err != nil || !result.Deleted {
		return result, err
	}

	items, err := s.load()
	if err != nil {
		return models.DeleteItemResult{}, err
	}
	kept := items[:0]
	for _, item := range items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	if err := s.save(kept); err != nil {
		return models.DeleteItemResult{}, err
	}
	return result, nil
}

// checkDelete evaluates the deletion policy. Callers hold s.mu.
func (s *ManagedListStore) checkDelete(id string, force bool) (models.DeleteItemResult, error) {
	items, err := s.load()
	if err != nil {
		return models.DeleteItemResult{}, err
	}

	var found *models.ManagedListItem
	for i := range items {
		if items[i].ID == id {
			found = &items[i]
			break
		}
	}
	if found == nil {
		return models.DeleteItemResult{Deleted: false, Reason: "not found"}, nil
	}

	if found.IsDefault && !s.AllowDefaultDeletion {
		return models.DeleteItemResult{Deleted: false, Reason: "default items cannot be deleted"}, nil
	}

	count := 0
	if s.refCount != nil {
		count, err = s.refCount(id)
		if err != nil {
			return models.DeleteItemResult{}, fmt.Errorf("counting references for %s: %w", id, err)
		}
	}
	if count > 0 && !force {
		return models.DeleteItemResult{Deleted: false, ReferenceCount: count, Reason: "item is in use"}, nil
	}

	return models.DeleteItemResult{Deleted: true, ReferenceCount: count}, nil
}

// Reorder renumbers the entire catalog 0..n-1: the named IDs come first
// in the given sequence, followed by the remaining items in their
// previous relative order. Unknown IDs are ignored. This replaces the
// subset-only reassignment that could leave duplicate order values.
func (s *ManagedListStore) Reorder(orderedIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return err
	}

	byID := make(map[string]int, len(items))
	for i, item := range items {
		byID[item.ID] = i
	}

	seen := make(map[string]bool, len(orderedIDs))
	var sequence []int
	for _, id := range orderedIDs {
		idx, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		sequence = append(sequence, idx)
	}

	// Remaining items keep their previous relative order.
	remaining := make([]int, 0, len(items))
	for i := range items {
		if !seen[items[i].ID] {
			remaining = append(remaining, i)
		}
	}
	sort.SliceStable(remaining, func(a, b int) bool {
		return items[remaining[a]].Order < items[remaining[b]].Order
	})
	sequence = append(sequence, remaining...)

	now := s.now()
	for pos, idx := range sequence {
		if items[idx].Order != pos {
			items[idx].Order = pos
			items[idx].Updated = now
		}
	}
	return s.save(items)
}
