//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// Household is a shared grouping entity that scopes shopping and pantry data
// to a family or group.
type Household struct {
	ID        string    `json:"id"         db:"id"`
	Name      string    `json:"name"       db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Membership joins a user to a household. A user belongs to at most one
// household; the store resolves the nested household in the same fetch.
type Membership struct {
	HouseholdID string     `json:"household_id" db:"household_id"`
	UserID      string     `json:"user_id"      db:"user_id"`
	Role        Role       `json:"role"         db:"role"`
	JoinedAt    time.Time  `json:"joined_at"    db:"joined_at"`
	Household   *Household `json:"household,omitempty" db:"-"`
}
