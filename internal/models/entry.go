package models

import "time"

// Entry is one "today I learned" journal note.
type Entry struct {
	ID        int       `db:"id" json:"id"`
	ProfileID int       `db:"profile_id" json:"profile_id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	Category  *string   `db:"category" json:"category,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// MonthlyCount aggregates entries per calendar month.
type MonthlyCount struct {
	Month time.Time `db:"month" json:"month"`
	Count int       `db:"count" json:"count"`
}

// EntryStats is the derived statistics view for a profile's journal.
type EntryStats struct {
	TotalEntries  int            `json:"total_entries"`
	CurrentStreak int            `json:"current_streak"`
	Monthly       []MonthlyCount `json:"monthly"`
}
