package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"til-service/internal/models"
)

var ErrEntryNotFound = errors.New("entry not found")

const entryColumns = `id, profile_id, title, content, category, created_at, updated_at`

// EntryRepository abstracts journal entry persistence.
type EntryRepository interface {
	CreateEntry(ctx context.Context, profileID int, title, content string, category *string) (models.Entry, error)
	ListEntries(ctx context.Context, profileID int) ([]models.Entry, error)
	UpdateEntry(ctx context.Context, id, profileID int, title, content string, category *string) (models.Entry, error)
	DeleteEntry(ctx context.Context, id, profileID int) error
	EntryDays(ctx context.Context, profileID int) ([]time.Time, error)
	MonthlyCounts(ctx context.Context, profileID int, months int) ([]models.MonthlyCount, error)
}

// EntryRepo is a sqlx implementation of EntryRepository.
type EntryRepo struct {
	db *sqlx.DB
}

// NewEntryRepo constructs an EntryRepo.
func NewEntryRepo(db *sqlx.DB) *EntryRepo {
	return &EntryRepo{db: db}
}

// CreateEntry stores a new journal entry.
func (r *EntryRepo) CreateEntry(ctx context.Context, profileID int, title, content string, category *string) (models.Entry, error) {
	var entry models.Entry
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO entries (profile_id, title, content, category) VALUES ($1, $2, $3, $4) RETURNING `+entryColumns,
		profileID, title, content, category).StructScan(&entry)
	return entry, err
}

// ListEntries returns the profile's entries, newest first.
func (r *EntryRepo) ListEntries(ctx context.Context, profileID int) ([]models.Entry, error) {
	var entries []models.Entry
	err := r.db.SelectContext(ctx, &entries,
		`SELECT `+entryColumns+` FROM entries WHERE profile_id=$1 ORDER BY created_at DESC`, profileID)
	return entries, err
}

// UpdateEntry rewrites an entry owned by profileID.
func (r *EntryRepo) UpdateEntry(ctx context.Context, id, profileID int, title, content string, category *string) (models.Entry, error) {
	var entry models.Entry
	err := r.db.QueryRowxContext(ctx,
		`UPDATE entries SET title=$3, content=$4, category=$5, updated_at=NOW()
         WHERE id=$1 AND profile_id=$2 RETURNING `+entryColumns,
		id, profileID, title, content, category).StructScan(&entry)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entry{}, ErrEntryNotFound
	}
	return entry, err
}

// DeleteEntry removes an entry owned by profileID.
func (r *EntryRepo) DeleteEntry(ctx context.Context, id, profileID int) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM entries WHERE id=$1 AND profile_id=$2`, id, profileID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// EntryDays returns the distinct days on which the profile wrote at
// least one entry, most recent first. Streak math happens in Go.
func (r *EntryRepo) EntryDays(ctx context.Context, profileID int) ([]time.Time, error) {
	var days []time.Time
	err := r.db.SelectContext(ctx, &days,
		`SELECT DISTINCT date_trunc('day', created_at) AS day
         FROM entries WHERE profile_id=$1 ORDER BY day DESC`, profileID)
	return days, err
}

// MonthlyCounts aggregates entry counts per month over a trailing window
// of months calendar months, the current month included.
func (r *EntryRepo) MonthlyCounts(ctx context.Context, profileID int, months int) ([]models.MonthlyCount, error) {
	var counts []models.MonthlyCount
	err := r.db.SelectContext(ctx, &counts,
		`SELECT date_trunc('month', created_at) AS month, COUNT(*) AS count
         FROM entries
         WHERE profile_id=$1 AND created_at >= $2
         GROUP BY month ORDER BY month DESC`, profileID, monthlyWindowStart(time.Now(), months))
	return counts, err
}

// monthlyWindowStart returns the first day of the earliest month in a
// trailing window of months calendar months ending now. The current
// month counts as one of the buckets: months=12 in August 2026 starts
// the window at September 2025.
func monthlyWindowStart(now time.Time, months int) time.Time {
	t := now.UTC()
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -(months - 1), 0)
}
