package domain

import "time"

// Category is a node in the catalog's category tree. ParentID == 0
// marks a root category; children are found by querying on ParentID.
// Slugs are unique across the whole tree.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	ParentID  int64     `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == 0
}
