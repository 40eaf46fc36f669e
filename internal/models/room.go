package models

import "time"

// ChatRoom is the conversation container for exactly two participants.
// The pair is stored canonically sorted, so (A,B) and (B,A) map to the
// same row.
type ChatRoom struct {
	ID             int        `db:"id" json:"id"`
	Participant1ID int        `db:"participant1_id" json:"participant1_id"`
	Participant2ID int        `db:"participant2_id" json:"participant2_id"`
	LastMessageAt  *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// HasParticipant reports whether the user belongs to the room.
func (r ChatRoom) HasParticipant(userID int) bool {
	return r.Participant1ID == userID || r.Participant2ID == userID
}

// OtherParticipant returns the counterpart of userID in the room.
func (r ChatRoom) OtherParticipant(userID int) int {
	if r.Participant1ID == userID {
		return r.Participant2ID
	}
	return r.Participant1ID
}

// RoomSummary is a room annotated with the other participant's profile
// fields, as listed for one user.
type RoomSummary struct {
	RoomID            int        `db:"id" json:"room_id"`
	LastMessageAt     *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	OtherID           int        `db:"other_id" json:"other_id"`
	OtherUsername     string     `db:"other_username" json:"other_username"`
	OtherIsOnline     bool       `db:"other_is_online" json:"-"`
	OtherLastActivity time.Time  `db:"other_last_activity" json:"other_last_activity"`
}
