package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/larderhq/larder-go/internal/data/pgxutil"
	"github.com/larderhq/larder-go/internal/domain/model"
	apperrors "github.com/larderhq/larder-go/internal/errors"
	"github.com/larderhq/larder-go/internal/ports"
)

// ProfileRepo provides database operations for user profiles. The backend
// creates profile rows as an account-creation side effect; this repo only
// reads them and writes the caller-mutable fields.
type ProfileRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewProfileRepo creates a new ProfileRepo with real time provider.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewProfileRepoWithTimeProvider creates a ProfileRepo with a custom time provider (useful for tests).
func NewProfileRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: tp}
}

const profileGetQuery = `
	SELECT user_id, display_name, avatar_url, role, tier, created_at, updated_at
	FROM profiles
	WHERE user_id = $1`

// Get retrieves a profile by subject id. A missing row is a typed not-found
// error; callers treat it as a defined absent result.
func (r *ProfileRepo) Get(ctx context.Context, userID string) (*model.Profile, error) {
	if userID == "" {
		return nil, apperrors.Validation("user id is required")
	}

	var profile model.Profile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, profileGetQuery, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		profile, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Profile])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &profile, nil
}

// Update writes the caller-mutable profile fields (display name, avatar) and
// returns the updated record. Role, tier, and timestamps belong to the backend.
func (r *ProfileRepo) Update(ctx context.Context, userID string, update model.ProfileUpdate) (*model.Profile, error) {
	if userID == "" {
		return nil, apperrors.Validation("user id is required")
	}
	if !update.HasUpdates() {
		return r.Get(ctx, userID)
	}

	setParts := make([]string, 0, 3)
	args := make([]any, 0, 4)
	nextIdx := func() int { return len(args) + 1 }

	if update.DisplayName != nil {
		setParts = append(setParts, fmt.Sprintf("display_name = $%d", nextIdx()))
		args = append(args, strings.TrimSpace(*update.DisplayName))
	}
	if update.AvatarURL != nil {
		setParts = append(setParts, fmt.Sprintf("avatar_url = $%d", nextIdx()))
		args = append(args, strings.TrimSpace(*update.AvatarURL))
	}
	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", nextIdx()))
	args = append(args, r.timeProvider.Now().UTC())

	args = append(args, userID)
	query := "UPDATE profiles SET " + strings.Join(setParts, ", ") +
		fmt.Sprintf(" WHERE user_id = $%d", len(args)) +
		" RETURNING user_id, display_name, avatar_url, role, tier, created_at, updated_at"

	var profile model.Profile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		profile, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Profile])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &profile, nil
}

// Insert creates a profile row. In production the backend owns profile
// creation; this exists for dev seeding and tests.
func (r *ProfileRepo) Insert(ctx context.Context, profile model.Profile) (*model.Profile, error) {
	if profile.UserID == "" {
		return nil, apperrors.Validation("user id is required")
	}
	role := profile.Role
	if role == "" {
		role = model.RoleMember
	}
	tier := profile.Tier
	if tier == "" {
		tier = model.TierFree
	}

	now := r.timeProvider.Now().UTC()
	var out model.Profile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO profiles (user_id, display_name, avatar_url, role, tier, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			RETURNING user_id, display_name, avatar_url, role, tier, created_at, updated_at`,
			profile.UserID, profile.DisplayName, profile.AvatarURL, role, tier, now)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Profile])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

var _ ports.ProfileStore = (*ProfileRepo)(nil)
