package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"til-service/internal/presence"
	"til-service/internal/repositories"
)

// RoomHandler lists the caller's conversations.
type RoomHandler struct {
	rooms repositories.RoomRepository
}

// NewRoomHandler builds a RoomHandler.
func NewRoomHandler(rooms repositories.RoomRepository) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

type roomResponse struct {
	RoomID            int        `json:"room_id"`
	OtherID           int        `json:"other_id"`
	OtherUsername     string     `json:"other_username"`
	OtherOnline       bool       `json:"other_online"`
	OtherLastActivity time.Time  `json:"other_last_activity"`
	LastMessageAt     *time.Time `json:"last_message_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// List returns the caller's rooms ordered by conversational recency,
// each annotated with the counterpart's resolved presence.
func (h *RoomHandler) List(c *gin.Context) {
	userID := c.GetInt("userID")

	rooms, err := h.rooms.ListRoomsFor(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}

	now := time.Now()
	responses := make([]roomResponse, 0, len(rooms))
	for _, room := range rooms {
		responses = append(responses, roomResponse{
			RoomID:            room.RoomID,
			OtherID:           room.OtherID,
			OtherUsername:     room.OtherUsername,
			OtherOnline:       presence.Online(room.OtherIsOnline, room.OtherLastActivity, now),
			OtherLastActivity: room.OtherLastActivity,
			LastMessageAt:     room.LastMessageAt,
			CreatedAt:         room.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"rooms": responses})
}
