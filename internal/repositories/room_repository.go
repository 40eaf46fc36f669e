package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"til-service/internal/models"
)

var ErrRoomNotFound = errors.New("chat room not found")

const roomColumns = `id, participant1_id, participant2_id, last_message_at, created_at, updated_at`

// RoomRepository abstracts the chat room registry.
type RoomRepository interface {
	EnsureRoom(ctx context.Context, userA, userB int) (models.ChatRoom, error)
	FindRoomByPair(ctx context.Context, userA, userB int) (models.ChatRoom, error)
	GetRoom(ctx context.Context, roomID int) (models.ChatRoom, error)
	IsParticipant(ctx context.Context, roomID, userID int) (bool, error)
	ListRoomsFor(ctx context.Context, userID int) ([]models.RoomSummary, error)
	Touch(ctx context.Context, roomID int, at time.Time) error
}

// RoomRepo is a sqlx implementation of RoomRepository.
type RoomRepo struct {
	db *sqlx.DB
}

// NewRoomRepo constructs a RoomRepo.
func NewRoomRepo(db *sqlx.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

func sortPair(userA, userB int) (int, int) {
	pair := []int{userA, userB}
	sort.Ints(pair)
	return pair[0], pair[1]
}

// EnsureRoom upserts the room keyed on the canonically sorted pair.
// Calling it twice for the same pair, in either order, yields the same
// row, which is what makes accepted-request room creation idempotent.
func (r *RoomRepo) EnsureRoom(ctx context.Context, userA, userB int) (models.ChatRoom, error) {
	if userA == userB {
		return models.ChatRoom{}, errors.New("cannot create room with self")
	}
	p1, p2 := sortPair(userA, userB)

	var room models.ChatRoom
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO chat_rooms (participant1_id, participant2_id) VALUES ($1, $2)
         ON CONFLICT (participant1_id, participant2_id) DO UPDATE SET updated_at = NOW()
         RETURNING `+roomColumns,
		p1, p2).StructScan(&room)
	return room, err
}

// FindRoomByPair looks up the room for an unordered pair without creating it.
func (r *RoomRepo) FindRoomByPair(ctx context.Context, userA, userB int) (models.ChatRoom, error) {
	p1, p2 := sortPair(userA, userB)
	var room models.ChatRoom
	err := r.db.GetContext(ctx, &room,
		`SELECT `+roomColumns+` FROM chat_rooms WHERE participant1_id=$1 AND participant2_id=$2`, p1, p2)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatRoom{}, ErrRoomNotFound
	}
	return room, err
}

// GetRoom fetches a room by id.
func (r *RoomRepo) GetRoom(ctx context.Context, roomID int) (models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.GetContext(ctx, &room,
		`SELECT `+roomColumns+` FROM chat_rooms WHERE id=$1`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatRoom{}, ErrRoomNotFound
	}
	return room, err
}

// IsParticipant checks whether a user belongs to the room.
func (r *RoomRepo) IsParticipant(ctx context.Context, roomID, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM chat_rooms WHERE id=$1 AND (participant1_id=$2 OR participant2_id=$2))`,
		roomID, userID)
	return exists, err
}

// ListRoomsFor returns the user's rooms annotated with the counterpart's
// profile fields, ordered by conversational recency. Rooms with no
// messages yet fall back to creation time.
func (r *RoomRepo) ListRoomsFor(ctx context.Context, userID int) ([]models.RoomSummary, error) {
	var rooms []models.RoomSummary
	err := r.db.SelectContext(ctx, &rooms,
		`SELECT cr.id, cr.last_message_at, cr.created_at,
                p.id AS other_id, p.username AS other_username,
                p.is_online AS other_is_online, p.last_activity AS other_last_activity
         FROM chat_rooms cr
         JOIN profiles p ON p.id = CASE WHEN cr.participant1_id = $1 THEN cr.participant2_id ELSE cr.participant1_id END
         WHERE cr.participant1_id = $1 OR cr.participant2_id = $1
         ORDER BY COALESCE(cr.last_message_at, cr.created_at) DESC`, userID)
	if rooms == nil {
		rooms = []models.RoomSummary{}
	}
	return rooms, err
}

// Touch updates the room's last-message timestamp. Only message posting
// calls this, so room ordering tracks conversation, not metadata edits.
func (r *RoomRepo) Touch(ctx context.Context, roomID int, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE chat_rooms SET last_message_at=$2, updated_at=NOW() WHERE id=$1`, roomID, at)
	return err
}
