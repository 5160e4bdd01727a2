package models

import "time"

// ManagedListItem is one entry of an ordered reference catalog such as
// projects, sprints, priorities, or task types.
type ManagedListItem struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Color     string    `json:"color,omitempty"`
	Order     int       `json:"order"`
	IsDefault bool      `json:"isDefault,omitempty"`
	IsHidden  bool      `json:"isHidden,omitempty"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
}

// ManagedListPatch is a partial update for a catalog item. Nil pointers
// leave the corresponding field unchanged.
type ManagedListPatch struct {
	Label    *string
	Color    *string
	IsHidden *bool
}

// CreateItemInput carries the caller-supplied fields for a new catalog item.
type CreateItemInput struct {
	ID       string
	Label    string
	Color    string
	IsHidden bool
}

// DeleteItemResult is the structured refusal/success result of a catalog
// deletion. When Deleted is false, Reason and ReferenceCount explain why.
type DeleteItemResult struct {
	Deleted        bool   `json:"deleted"`
	ReferenceCount int    `json:"referenceCount,omitempty"`
	Reason         string `json:"reason,omitempty"`
}
