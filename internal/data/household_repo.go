package data

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"

	"github.com/larderhq/larder-go/internal/data/pgxutil"
	"github.com/larderhq/larder-go/internal/domain/model"
	apperrors "github.com/larderhq/larder-go/internal/errors"
	"github.com/larderhq/larder-go/internal/ports"
)

// HouseholdRepo resolves household membership. Each user belongs to at most
// one household (user_id is the primary key of household_members), so
// membership lookups are single-row.
type HouseholdRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewHouseholdRepo creates a new HouseholdRepo with real time provider.
func NewHouseholdRepo(db *sql.DB) *HouseholdRepo {
	return &HouseholdRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

const membershipQuery = `
	SELECT m.household_id, m.user_id, m.role, m.joined_at,
	       h.id AS h_id, h.name AS h_name, h.created_at AS h_created_at
	FROM household_members m
	JOIN households h ON h.id = m.household_id
	WHERE m.user_id = $1`

// GetMembership returns the user's membership with its household attached in
// one query. A missing row is a typed not-found error; callers treat it as a
// defined "no household" result.
func (r *HouseholdRepo) GetMembership(ctx context.Context, userID string) (*model.Membership, error) {
	if userID == "" {
		return nil, apperrors.Validation("user id is required")
	}

	var membership model.Membership
	var household model.Household
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		row := conn.QueryRow(ctx, membershipQuery, userID)
		return row.Scan(
			&membership.HouseholdID, &membership.UserID, &membership.Role, &membership.JoinedAt,
			&household.ID, &household.Name, &household.CreatedAt,
		)
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	membership.Household = &household
	return &membership, nil
}

// Create inserts a household. Used by dev seeding and the admin CLI; in
// production households are created by the backend.
func (r *HouseholdRepo) Create(ctx context.Context, name string) (*model.Household, error) {
	if name == "" {
		return nil, apperrors.Validation("household name is required")
	}

	var household model.Household
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO households (name, created_at)
			VALUES ($1, $2)
			RETURNING id, name, created_at`,
			name, r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		defer rows.Close()
		household, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Household])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &household, nil
}

// AddMember enrolls a user in a household. Inserting a user who already has a
// membership violates the single-household constraint and maps to a conflict.
func (r *HouseholdRepo) AddMember(ctx context.Context, householdID, userID string, role model.Role) (*model.Membership, error) {
	if householdID == "" || userID == "" {
		return nil, apperrors.Validation("household id and user id are required")
	}
	if role == "" {
		role = model.RoleMember
	}
	if !role.Valid() {
		return nil, apperrors.Validation("invalid role: " + string(role))
	}

	var membership model.Membership
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO household_members (user_id, household_id, role, joined_at)
			VALUES ($1, $2, $3, $4)
			RETURNING household_id, user_id, role, joined_at`,
			userID, householdID, role, r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		defer rows.Close()
		membership, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Membership])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &membership, nil
}

var _ ports.HouseholdStore = (*HouseholdRepo)(nil)
