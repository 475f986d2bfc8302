package ports

import (
	"context"

	"github.com/larderhq/larder-go/internal/domain/model"
)

// ProfileStore is the keyed record store for user profiles. Get returns a
// typed not-found error when no record exists for the subject, which callers
// treat as a defined absent result (profiles are created asynchronously by
// the backend after sign-up).
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*model.Profile, error)
	Update(ctx context.Context, userID string, update model.ProfileUpdate) (*model.Profile, error)
}

// HouseholdStore resolves household membership. GetMembership returns the
// membership with its nested household in one logical fetch, or a typed
// not-found error when the user belongs to no household.
type HouseholdStore interface {
	GetMembership(ctx context.Context, userID string) (*model.Membership, error)
}

// ShoppingStore persists a household's shopping list.
type ShoppingStore interface {
	List(ctx context.Context, householdID string, opts model.ShoppingListOptions) ([]model.ShoppingItem, error)
	Get(ctx context.Context, id string) (*model.ShoppingItem, error)
	Create(ctx context.Context, item model.ShoppingItem) (*model.ShoppingItem, error)
	SetChecked(ctx context.Context, id string, checked bool) (*model.ShoppingItem, error)
	Delete(ctx context.Context, id string) error
}
