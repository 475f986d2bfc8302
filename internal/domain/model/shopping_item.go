//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxItemNameLen     = 120
	maxItemCategoryLen = 40
	// CategoryOther is the fallback bucket for uncategorized items.
	CategoryOther = "other"
)

// ShoppingItem is a single entry on a household's shopping list.
type ShoppingItem struct {
	ID          string     `json:"id"                   db:"id"`
	HouseholdID string     `json:"household_id"         db:"household_id"`
	Name        string     `json:"name"                 db:"name"`
	Category    string     `json:"category"             db:"category"`
	Quantity    int        `json:"quantity"             db:"quantity"`
	Unit        *string    `json:"unit,omitempty"       db:"unit"`
	Checked     bool       `json:"checked"              db:"checked"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	CreatedBy   string     `json:"created_by"           db:"created_by"`
	CreatedAt   time.Time  `json:"created_at"           db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"           db:"updated_at"`
}

// ExpiresWithin reports whether the item has an expiry inside the window
// starting at now. Items without an expiry never match.
func (i *ShoppingItem) ExpiresWithin(now time.Time, window time.Duration) bool {
	if i.ExpiresAt == nil {
		return false
	}
	return !i.ExpiresAt.Before(now) && !i.ExpiresAt.After(now.Add(window))
}

// NormalizeCategory trims and lowercases a category, defaulting to
// CategoryOther when empty.
func NormalizeCategory(value string) string {
	c := strings.ToLower(strings.TrimSpace(value))
	if c == "" {
		return CategoryOther
	}
	return c
}

// CreateShoppingItemRequest represents parameters to add a shopping item.
type CreateShoppingItemRequest struct {
	Name      string     `json:"name"`
	Category  string     `json:"category,omitempty"`
	Quantity  int        `json:"quantity,omitempty"`
	Unit      *string    `json:"unit,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Validate validates CreateShoppingItemRequest and normalizes its fields.
func (r *CreateShoppingItemRequest) Validate() error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return errors.New("name is required and cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxItemNameLen {
		return errors.New("name cannot exceed 120 characters")
	}
	r.Name = name
	r.Category = NormalizeCategory(r.Category)
	if utf8.RuneCountInString(r.Category) > maxItemCategoryLen {
		return errors.New("category cannot exceed 40 characters")
	}
	if r.Quantity <= 0 {
		r.Quantity = 1
	}
	if r.Unit != nil {
		unit := strings.TrimSpace(*r.Unit)
		if unit == "" {
			r.Unit = nil
		} else {
			r.Unit = &unit
		}
	}
	return nil
}

// ShoppingListOptions controls filtering for listing shopping items.
// Notes:
// - Search matches name via ILIKE substring.
// - Category matches exactly after normalization.
// - DueWithin keeps only items expiring inside the window when > 0.
// - IncludeChecked keeps checked-off items in the result.
type ShoppingListOptions struct {
	Search         string
	Category       string
	DueWithin      time.Duration
	IncludeChecked bool
}

// ShoppingSection is one per-category slice of a grouped shopping list.
type ShoppingSection struct {
	Category string         `json:"category"`
	Count    int            `json:"count"`
	Items    []ShoppingItem `json:"items"`
}
