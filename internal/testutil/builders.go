// Package testutil provides testing utilities and helpers for the larder agent.
package testutil

import (
	"context"
	"database/sql"
	"time"

	"github.com/larderhq/larder-go/internal/domain/model"
)

// ProfileBuilder provides a fluent interface for building Profile records for testing.
type ProfileBuilder struct {
	profile model.Profile
}

// NewProfile creates a new ProfileBuilder with sensible defaults.
func NewProfile(userID string) *ProfileBuilder {
	name := "Test User"
	return &ProfileBuilder{
		profile: model.Profile{
			UserID:      userID,
			DisplayName: &name,
			Role:        model.RoleMember,
			Tier:        model.TierFree,
			CreatedAt:   TestTime(),
			UpdatedAt:   TestTime(),
		},
	}
}

// WithDisplayName sets the display name.
func (b *ProfileBuilder) WithDisplayName(name string) *ProfileBuilder {
	b.profile.DisplayName = &name
	return b
}

// WithAvatarURL sets the avatar URL.
func (b *ProfileBuilder) WithAvatarURL(url string) *ProfileBuilder {
	b.profile.AvatarURL = &url
	return b
}

// WithRole sets the household role.
func (b *ProfileBuilder) WithRole(role model.Role) *ProfileBuilder {
	b.profile.Role = role
	return b
}

// WithTier sets the subscription tier.
func (b *ProfileBuilder) WithTier(tier model.Tier) *ProfileBuilder {
	b.profile.Tier = tier
	return b
}

// Build returns the constructed Profile.
func (b *ProfileBuilder) Build() model.Profile {
	return b.profile
}

// ShoppingItemBuilder provides a fluent interface for building ShoppingItem records for testing.
type ShoppingItemBuilder struct {
	item model.ShoppingItem
}

// NewShoppingItem creates a new ShoppingItemBuilder with sensible defaults.
func NewShoppingItem(householdID string) *ShoppingItemBuilder {
	return &ShoppingItemBuilder{
		item: model.ShoppingItem{
			HouseholdID: householdID,
			Name:        "Milk",
			Category:    "dairy",
			Quantity:    1,
			CreatedBy:   "user-1",
		},
	}
}

// WithName sets the item name.
func (b *ShoppingItemBuilder) WithName(name string) *ShoppingItemBuilder {
	b.item.Name = name
	return b
}

// WithCategory sets the item category.
func (b *ShoppingItemBuilder) WithCategory(category string) *ShoppingItemBuilder {
	b.item.Category = category
	return b
}

// WithQuantity sets the quantity.
func (b *ShoppingItemBuilder) WithQuantity(quantity int) *ShoppingItemBuilder {
	b.item.Quantity = quantity
	return b
}

// WithUnit sets the unit.
func (b *ShoppingItemBuilder) WithUnit(unit string) *ShoppingItemBuilder {
	b.item.Unit = &unit
	return b
}

// WithChecked marks the item checked.
func (b *ShoppingItemBuilder) WithChecked(checked bool) *ShoppingItemBuilder {
	b.item.Checked = checked
	return b
}

// WithExpiresAt sets the expiry timestamp.
func (b *ShoppingItemBuilder) WithExpiresAt(t time.Time) *ShoppingItemBuilder {
	b.item.ExpiresAt = &t
	return b
}

// WithCreatedBy sets the creating subject id.
func (b *ShoppingItemBuilder) WithCreatedBy(userID string) *ShoppingItemBuilder {
	b.item.CreatedBy = userID
	return b
}

// Build returns the constructed ShoppingItem.
func (b *ShoppingItemBuilder) Build() model.ShoppingItem {
	return b.item
}

// Database seed helpers. These insert rows directly so repository tests do not
// depend on the code paths they exercise.

// SeedProfile inserts a profile row and returns its user id.
func SeedProfile(t TestingTB, db *sql.DB, profile model.Profile) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	role := profile.Role
	if role == "" {
		role = model.RoleMember
	}
	tier := profile.Tier
	if tier == "" {
		tier = model.TierFree
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, display_name, avatar_url, role, tier)
		VALUES ($1, $2, $3, $4, $5)`,
		profile.UserID, profile.DisplayName, profile.AvatarURL, role, tier)
	if err != nil {
		t.Fatalf("Failed to seed profile %s: %v", profile.UserID, err)
	}
	return profile.UserID
}

// SeedHousehold inserts a household row and returns its generated id.
func SeedHousehold(t TestingTB, db *sql.DB, name string) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id string
	err := db.QueryRowContext(ctx,
		"INSERT INTO households (name) VALUES ($1) RETURNING id", name).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to seed household %s: %v", name, err)
	}
	return id
}

// SeedMembership enrolls a user in a household.
func SeedMembership(t TestingTB, db *sql.DB, householdID, userID string, role model.Role) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if role == "" {
		role = model.RoleMember
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO household_members (user_id, household_id, role)
		VALUES ($1, $2, $3)`,
		userID, householdID, role)
	if err != nil {
		t.Fatalf("Failed to seed membership %s -> %s: %v", userID, householdID, err)
	}
}

// SeedShoppingItem inserts a shopping item and returns its generated id.
func SeedShoppingItem(t TestingTB, db *sql.DB, item model.ShoppingItem) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	category := model.NormalizeCategory(item.Category)
	quantity := item.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	var id string
	err := db.QueryRowContext(ctx, `
		INSERT INTO shopping_items (household_id, name, category, quantity, unit, checked, expires_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		item.HouseholdID, item.Name, category, quantity, item.Unit, item.Checked, item.ExpiresAt, item.CreatedBy).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to seed shopping item %s: %v", item.Name, err)
	}
	return id
}
