package data

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/larderhq/larder-go/internal/data/database"
	"github.com/larderhq/larder-go/internal/data/pgxutil"
	"github.com/larderhq/larder-go/internal/domain/model"
	apperrors "github.com/larderhq/larder-go/internal/errors"
	"github.com/larderhq/larder-go/internal/ports"
)

const shoppingItemColumns = "id, household_id, name, category, quantity, unit, checked, expires_at, created_by, created_at, updated_at"

// ShoppingRepo persists household shopping lists.
type ShoppingRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewShoppingRepo creates a new ShoppingRepo with real time provider.
func NewShoppingRepo(db *sql.DB) *ShoppingRepo {
	return &ShoppingRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewShoppingRepoWithTimeProvider creates a ShoppingRepo with a custom time provider (useful for tests).
func NewShoppingRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ShoppingRepo {
	return &ShoppingRepo{DB: db, timeProvider: tp}
}

// List returns a household's shopping items filtered per opts, ordered by
// category then name.
func (r *ShoppingRepo) List(ctx context.Context, householdID string, opts model.ShoppingListOptions) ([]model.ShoppingItem, error) {
	if householdID == "" {
		return nil, apperrors.Validation("household id is required")
	}

	queryOpts := []database.ListQueryOption{
		database.WithColumns(strings.Split(shoppingItemColumns, ", ")...),
		database.WithCondition(database.WhereCond("household_id", database.Equal, householdID)),
		database.WithOrderBy("category", "ASC"),
	}
	if search := strings.TrimSpace(opts.Search); search != "" {
		queryOpts = append(queryOpts,
			database.WithCondition(database.WhereCond("name", database.ILike, "%"+escapeLike(search)+"%")))
	}
	if strings.TrimSpace(opts.Category) != "" {
		queryOpts = append(queryOpts,
			database.WithCondition(database.WhereCond("category", database.Equal, model.NormalizeCategory(opts.Category))))
	}
	if !opts.IncludeChecked {
		queryOpts = append(queryOpts,
			database.WithCondition(database.WhereCond("checked", database.Equal, false)))
	}
	if opts.DueWithin > 0 {
		now := r.timeProvider.Now().UTC()
		queryOpts = append(queryOpts,
			database.WithCondition(database.WhereRawCond(
				"expires_at IS NOT NULL AND expires_at >= $1 AND expires_at <= $2",
				now, now.Add(opts.DueWithin))))
	}

	query, args := database.BuildListQuery(database.NewListQueryOptions("shopping_items", queryOpts...))

	var items []model.ShoppingItem
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		items, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.ShoppingItem])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	// The builder orders by a single column; settle name order in memory.
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
	return items, nil
}

// Get retrieves a single shopping item by id.
func (r *ShoppingRepo) Get(ctx context.Context, id string) (*model.ShoppingItem, error) {
	if id == "" {
		return nil, apperrors.Validation("item id is required")
	}

	var item model.ShoppingItem
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			"SELECT "+shoppingItemColumns+" FROM shopping_items WHERE id = $1", id)
		if err != nil {
			return err
		}
		defer rows.Close()
		item, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.ShoppingItem])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &item, nil
}

// Create inserts a shopping item and returns the stored record. Category and
// quantity are expected to be normalized by the caller; the database enforces
// the quantity floor regardless.
func (r *ShoppingRepo) Create(ctx context.Context, item model.ShoppingItem) (*model.ShoppingItem, error) {
	if item.HouseholdID == "" {
		return nil, apperrors.Validation("household id is required")
	}
	if strings.TrimSpace(item.Name) == "" {
		return nil, apperrors.Validation("item name is required")
	}

	now := r.timeProvider.Now().UTC()
	var out model.ShoppingItem
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO shopping_items (household_id, name, category, quantity, unit, checked, expires_at, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
			RETURNING `+shoppingItemColumns,
			item.HouseholdID, strings.TrimSpace(item.Name), model.NormalizeCategory(item.Category),
			item.Quantity, item.Unit, item.Checked, item.ExpiresAt, item.CreatedBy, now)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.ShoppingItem])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// SetChecked marks an item checked or unchecked and returns the updated
// record.
func (r *ShoppingRepo) SetChecked(ctx context.Context, id string, checked bool) (*model.ShoppingItem, error) {
	if id == "" {
		return nil, apperrors.Validation("item id is required")
	}

	var item model.ShoppingItem
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			UPDATE shopping_items SET checked = $1, updated_at = $2
			WHERE id = $3
			RETURNING `+shoppingItemColumns,
			checked, r.timeProvider.Now().UTC(), id)
		if err != nil {
			return err
		}
		defer rows.Close()
		item, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.ShoppingItem])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &item, nil
}

// Delete removes an item. Deleting a missing item is a typed not-found error.
func (r *ShoppingRepo) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.Validation("item id is required")
	}

	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, "DELETE FROM shopping_items WHERE id = $1", id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// escapeLike escapes LIKE metacharacters in user-provided search text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}

var _ ports.ShoppingStore = (*ShoppingRepo)(nil)
