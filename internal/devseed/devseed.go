// Package devseed populates a development database with a usable household:
// the static-auth dev account's profile, a household it belongs to, and a
// handful of shopping items. Seeding is idempotent; existing records are left
// in place.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/larderhq/larder-go/internal/data"
	"github.com/larderhq/larder-go/internal/domain/model"
	apperrors "github.com/larderhq/larder-go/internal/errors"
)

// Options controls what the seed creates. Zero values fall back to the
// static-auth defaults so `larderctl db-seed` works out of the box.
type Options struct {
	UserID        string
	DisplayName   string
	HouseholdName string
}

func (o *Options) applyDefaults() {
	if o.UserID == "" {
		o.UserID = "dev-user"
	}
	if o.DisplayName == "" {
		o.DisplayName = "Dev User"
	}
	if o.HouseholdName == "" {
		o.HouseholdName = "Dev Household"
	}
}

// Run executes the development seeding workflow against the provided DB.
func Run(ctx context.Context, db *sql.DB, opts Options, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	opts.applyDefaults()

	profiles := data.NewProfileRepo(db)
	households := data.NewHouseholdRepo(db)
	shopping := data.NewShoppingRepo(db)

	profile, err := seedProfile(ctx, profiles, opts, logger)
	if err != nil {
		return err
	}

	membership, err := seedHousehold(ctx, households, opts, logger)
	if err != nil {
		return err
	}

	if err := seedShoppingItems(ctx, shopping, membership, profile.UserID, logger); err != nil {
		return err
	}

	logger.InfoContext(ctx, "development seed complete",
		"user", profile.UserID, "household", membership.HouseholdID)
	return nil
}

func seedProfile(ctx context.Context, repo *data.ProfileRepo, opts Options, logger *slog.Logger) (*model.Profile, error) {
	existing, err := repo.Get(ctx, opts.UserID)
	if err == nil {
		logger.InfoContext(ctx, "profile already exists", "user", opts.UserID)
		return existing, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("check profile: %w", err)
	}

	name := opts.DisplayName
	created, err := repo.Insert(ctx, model.Profile{
		UserID:      opts.UserID,
		DisplayName: &name,
	})
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	logger.InfoContext(ctx, "profile created", "user", created.UserID)
	return created, nil
}

func seedHousehold(ctx context.Context, repo *data.HouseholdRepo, opts Options, logger *slog.Logger) (*model.Membership, error) {
	existing, err := repo.GetMembership(ctx, opts.UserID)
	if err == nil {
		logger.InfoContext(ctx, "household membership already exists",
			"user", opts.UserID, "household", existing.HouseholdID)
		return existing, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("check membership: %w", err)
	}

	household, err := repo.Create(ctx, opts.HouseholdName)
	if err != nil {
		return nil, fmt.Errorf("create household: %w", err)
	}
	membership, err := repo.AddMember(ctx, household.ID, opts.UserID, model.RoleOwner)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	logger.InfoContext(ctx, "household created",
		"household", household.ID, "name", household.Name)

	membership.Household = household
	return membership, nil
}

func seedShoppingItems(ctx context.Context, repo *data.ShoppingRepo, membership *model.Membership, userID string, logger *slog.Logger) error {
	existing, err := repo.List(ctx, membership.HouseholdID, model.ShoppingListOptions{IncludeChecked: true})
	if err != nil {
		return fmt.Errorf("list shopping items: %w", err)
	}
	if len(existing) > 0 {
		logger.InfoContext(ctx, "shopping list already seeded", "items", len(existing))
		return nil
	}

	liter := "l"
	soon := time.Now().Add(48 * time.Hour)
	items := []model.ShoppingItem{
		{Name: "Whole milk", Category: "dairy", Quantity: 2, Unit: &liter, ExpiresAt: &soon},
		{Name: "Cheddar", Category: "dairy", Quantity: 1},
		{Name: "Apples", Category: "produce", Quantity: 6},
		{Name: "Sourdough bread", Category: "bakery", Quantity: 1},
		{Name: "Dish soap", Category: "household", Quantity: 1},
	}

	for _, item := range items {
		item.HouseholdID = membership.HouseholdID
		item.CreatedBy = userID
		if _, createErr := repo.Create(ctx, item); createErr != nil {
			return fmt.Errorf("create shopping item %q: %w", item.Name, createErr)
		}
	}
	logger.InfoContext(ctx, "shopping list seeded", "items", len(items))
	return nil
}
