package models

import "time"

// Profile is the identity record for a user of the journal.
type Profile struct {
	ID           int       `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        *string   `db:"email" json:"email,omitempty"`
	IsOnline     bool      `db:"is_online" json:"is_online"`
	LastActivity time.Time `db:"last_activity" json:"last_activity"`
	EntryCount   int       `db:"entry_count" json:"entry_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// PresenceInfo is the resolved online state for a profile. It is derived,
// never stored on its own: the explicit flag plus a last-activity decay.
type PresenceInfo struct {
	UserID       int       `json:"user_id"`
	IsOnline     bool      `json:"is_online"`
	LastActivity time.Time `json:"last_activity"`
}
