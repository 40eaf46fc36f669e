package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"til-service/internal/models"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrUsernameTaken   = errors.New("username already taken")
)

const profileColumns = `id, username, email, is_online, last_activity, entry_count, created_at, updated_at`

// ProfileRepository abstracts profile persistence.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, username string, email *string) (models.Profile, error)
	GetByUsername(ctx context.Context, username string) (models.Profile, error)
	GetByID(ctx context.Context, id int) (models.Profile, error)
	TouchActivity(ctx context.Context, id int) error
	SetOnline(ctx context.Context, id int, online bool) error
	AdjustEntryCount(ctx context.Context, id int, delta int) error
}

// ProfileRepo is a sqlx implementation of ProfileRepository.
type ProfileRepo struct {
	db *sqlx.DB
}

// NewProfileRepo constructs a ProfileRepo.
func NewProfileRepo(db *sqlx.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// CreateProfile inserts a new profile for a first sign-in or guest claim.
func (r *ProfileRepo) CreateProfile(ctx context.Context, username string, email *string) (models.Profile, error) {
	var profile models.Profile
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO profiles (username, email) VALUES ($1, $2) RETURNING `+profileColumns,
		username, email).StructScan(&profile)
	if isUniqueViolation(err) {
		return models.Profile{}, ErrUsernameTaken
	}
	return profile, err
}

// GetByUsername looks up a profile by exact username. A miss returns
// ErrProfileNotFound, which callers treat as a valid outcome for search.
func (r *ProfileRepo) GetByUsername(ctx context.Context, username string) (models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile,
		`SELECT `+profileColumns+` FROM profiles WHERE username=$1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return profile, err
}

// GetByID fetches a profile by id.
func (r *ProfileRepo) GetByID(ctx context.Context, id int) (models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile,
		`SELECT `+profileColumns+` FROM profiles WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return profile, err
}

// TouchActivity refreshes the passive last-seen timestamp.
func (r *ProfileRepo) TouchActivity(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET last_activity = NOW(), updated_at = NOW() WHERE id=$1`, id)
	return err
}

// SetOnline records an explicit presence heartbeat, refreshing the
// last-activity timestamp in the same write.
func (r *ProfileRepo) SetOnline(ctx context.Context, id int, online bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET is_online = $2, last_activity = NOW(), updated_at = NOW() WHERE id=$1`,
		id, online)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// AdjustEntryCount moves the aggregate entry counter by delta.
func (r *ProfileRepo) AdjustEntryCount(ctx context.Context, id int, delta int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET entry_count = GREATEST(entry_count + $2, 0), updated_at = NOW() WHERE id=$1`,
		id, delta)
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
