package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// MessageType classifies message content.
type MessageType string

const (
	MessageText      MessageType = "text"
	MessageImage     MessageType = "image"
	MessageVoice     MessageType = "voice"
	MessageNoteShare MessageType = "note_share"
)

// ValidMessageType reports whether t is one of the known message types.
func ValidMessageType(t MessageType) bool {
	switch t {
	case MessageText, MessageImage, MessageVoice, MessageNoteShare:
		return true
	}
	return false
}

// Metadata is the open-ended key/value payload stored with a message,
// persisted as JSONB.
type Metadata map[string]any

// Value implements driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(src any) error {
	if src == nil {
		*m = Metadata{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("metadata: unsupported scan source")
	}
	return json.Unmarshal(data, m)
}

// Message is one unit of conversation content. Rows are soft deleted:
// the read path filters is_deleted, nothing is physically removed.
type Message struct {
	ID        int         `db:"id" json:"id"`
	RoomID    int         `db:"room_id" json:"room_id"`
	SenderID  int         `db:"sender_id" json:"sender_id"`
	Content   string      `db:"content" json:"content"`
	Type      MessageType `db:"message_type" json:"message_type"`
	Metadata  Metadata    `db:"metadata" json:"metadata"`
	IsRead    bool        `db:"is_read" json:"is_read"`
	IsDeleted bool        `db:"is_deleted" json:"is_deleted"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// RoomMessage is a message joined with sender display fields.
type RoomMessage struct {
	Message
	SenderUsername string `db:"sender_username" json:"sender_username"`
}
