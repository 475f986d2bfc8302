package service

import (
	"context"
	"sort"
	"time"

	"github.com/larderhq/larder-go/internal/domain/model"
	apperrors "github.com/larderhq/larder-go/internal/errors"
	"github.com/larderhq/larder-go/internal/ports"
)

// ShoppingServiceOptions groups dependencies for ShoppingService.
type ShoppingServiceOptions struct {
	Store  ports.ShoppingStore
	Engine ContextSource
}

// ShoppingService manages the current household's shopping list. Every
// operation is scoped to the household resolved from the engine snapshot;
// items belonging to other households are reported as not found.
type ShoppingService struct {
	store  ports.ShoppingStore
	engine ContextSource
}

// NewShoppingService constructs a new ShoppingService.
func NewShoppingService(opts ShoppingServiceOptions) *ShoppingService {
	return &ShoppingService{store: opts.Store, engine: opts.Engine}
}

// List returns the household's shopping items filtered per opts.
func (s *ShoppingService) List(ctx context.Context, opts model.ShoppingListOptions) ([]model.ShoppingItem, error) {
	scope, err := s.scope()
	if err != nil {
		return nil, err
	}
	return s.store.List(ctx, scope.householdID, opts)
}

// Grouped returns the household's shopping items bucketed by category, in
// category order. Empty categories are omitted.
func (s *ShoppingService) Grouped(ctx context.Context, opts model.ShoppingListOptions) ([]model.ShoppingSection, error) {
	items, err := s.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	sections := make([]model.ShoppingSection, 0)
	for _, item := range items {
		if n := len(sections); n == 0 || sections[n-1].Category != item.Category {
			sections = append(sections, model.ShoppingSection{Category: item.Category})
		}
		last := &sections[len(sections)-1]
		last.Items = append(last.Items, item)
		last.Count++
	}
	return sections, nil
}

// ExpiringSoon returns unchecked items expiring within the window, soonest
// first.
func (s *ShoppingService) ExpiringSoon(ctx context.Context, window time.Duration) ([]model.ShoppingItem, error) {
	if window <= 0 {
		return nil, apperrors.Validation("expiry window must be positive")
	}
	items, err := s.List(ctx, model.ShoppingListOptions{DueWithin: window})
	if err != nil {
		return nil, err
	}
	// The due-within filter guarantees every item carries an expiry.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ExpiresAt.Before(*items[j].ExpiresAt)
	})
	return items, nil
}

// Add validates and creates a shopping item attributed to the signed-in
// subject.
func (s *ShoppingService) Add(ctx context.Context, req model.CreateShoppingItemRequest) (*model.ShoppingItem, error) {
	scope, err := s.scope()
	if err != nil {
		return nil, err
	}
	if validateErr := req.Validate(); validateErr != nil {
		return nil, apperrors.Validation(validateErr.Error())
	}

	return s.store.Create(ctx, model.ShoppingItem{
		HouseholdID: scope.householdID,
		Name:        req.Name,
		Category:    req.Category,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		ExpiresAt:   req.ExpiresAt,
		CreatedBy:   scope.userID,
	})
}

// Toggle flips an item's checked state and returns the updated record.
func (s *ShoppingService) Toggle(ctx context.Context, id string) (*model.ShoppingItem, error) {
	scope, err := s.scope()
	if err != nil {
		return nil, err
	}
	item, err := s.ownedItem(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	return s.store.SetChecked(ctx, id, !item.Checked)
}

// Remove deletes an item from the household's list.
func (s *ShoppingService) Remove(ctx context.Context, id string) error {
	scope, err := s.scope()
	if err != nil {
		return err
	}
	if _, err := s.ownedItem(ctx, scope, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// ownedItem fetches an item and hides it when it belongs to another
// household.
func (s *ShoppingService) ownedItem(ctx context.Context, scope shoppingScope, id string) (*model.ShoppingItem, error) {
	item, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.HouseholdID != scope.householdID {
		return nil, apperrors.NotFound("Shopping item not found.")
	}
	return item, nil
}

type shoppingScope struct {
	userID      string
	householdID string
}

func (s *ShoppingService) scope() (shoppingScope, error) {
	if s.engine == nil {
		return shoppingScope{}, apperrors.Unauthenticated("No active session.")
	}
	snap := s.engine.Snapshot()
	if snap.Session == nil {
		return shoppingScope{}, apperrors.Unauthenticated("No active session.")
	}
	if snap.Household == nil {
		return shoppingScope{}, apperrors.Conflict("You are not a member of a household yet.")
	}
	return shoppingScope{userID: snap.Session.UserID, householdID: snap.Household.ID}, nil
}
