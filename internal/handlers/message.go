package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"til-service/internal/models"
	"til-service/internal/repositories"
)

// MessageHandler manages message posting, listing, read state and soft
// deletion within a room.
type MessageHandler struct {
	rooms    repositories.RoomRepository
	messages repositories.MessageRepository
	feed     FeedPublisher
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(rooms repositories.RoomRepository, messages repositories.MessageRepository, feed FeedPublisher) *MessageHandler {
	return &MessageHandler{rooms: rooms, messages: messages, feed: feed}
}

// Post stores a message and touches the room, so room ordering always
// reflects conversational recency.
func (h *MessageHandler) Post(c *gin.Context) {
	roomID, err := strconv.Atoi(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	userID := c.GetInt("userID")
	room, err := h.rooms.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "room not found"})
		return
	}
	if !room.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a room participant"})
		return
	}

	var req struct {
		Content  string             `json:"content" binding:"required"`
		Type     models.MessageType `json:"message_type"`
		Metadata models.Metadata    `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content must not be empty"})
		return
	}
	if req.Type == "" {
		req.Type = models.MessageText
	}
	if !models.ValidMessageType(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown message type"})
		return
	}
	if req.Metadata == nil {
		req.Metadata = models.Metadata{}
	}

	msg, err := h.messages.CreateMessage(c.Request.Context(), roomID, userID, req.Content, req.Type, req.Metadata)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send message, please try again"})
		return
	}

	if err := h.rooms.Touch(c.Request.Context(), roomID, msg.CreatedAt); err != nil {
		log.Printf("room touch failed room_id=%d: %v", roomID, err)
	}

	h.feed.Publish(models.FeedEvent{Type: models.EventMessageInserted, Message: &msg}, room.Participant1ID, room.Participant2ID)
	c.JSON(http.StatusCreated, msg)
}

// List returns the room's non-deleted messages ascending by creation
// time, joined with sender display fields.
func (h *MessageHandler) List(c *gin.Context) {
	roomID, err := strconv.Atoi(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	userID := c.GetInt("userID")
	member, err := h.rooms.IsParticipant(c.Request.Context(), roomID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a room participant"})
		return
	}

	msgs, err := h.messages.ListMessages(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// MarkRead flips the read flag on every message in the room not sent by
// the caller. Reapplying has no further effect.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	roomID, err := strconv.Atoi(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	userID := c.GetInt("userID")
	room, err := h.rooms.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "room not found"})
		return
	}
	if !room.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a room participant"})
		return
	}

	marked, err := h.messages.MarkRead(c.Request.Context(), roomID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not mark messages read"})
		return
	}

	if marked > 0 {
		h.feed.Publish(models.FeedEvent{Type: models.EventRoomChanged, Room: &room}, room.OtherParticipant(userID))
	}
	c.JSON(http.StatusOK, gin.H{"marked": marked})
}

// Delete soft-deletes a message for everyone. Sender only; the row stays
// put so list ordering is stable for clients mid-fetch.
func (h *MessageHandler) Delete(c *gin.Context) {
	roomID, messageID, ok := parseRoomMessageIDs(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	room, err := h.rooms.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "room not found"})
		return
	}
	if !room.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a room participant"})
		return
	}

	msg, err := h.messages.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "message not found"})
		return
	}
	if msg.RoomID != roomID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message does not belong to room"})
		return
	}
	if msg.SenderID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the sender can delete a message"})
		return
	}

	if err := h.messages.SoftDelete(c.Request.Context(), messageID, userID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not delete message"})
		return
	}

	h.feed.Publish(models.FeedEvent{Type: models.EventRoomChanged, Room: &room}, room.Participant1ID, room.Participant2ID)
	c.Status(http.StatusNoContent)
}

func parseRoomMessageIDs(c *gin.Context) (int, int, bool) {
	roomID, err := strconv.Atoi(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return 0, 0, false
	}
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return 0, 0, false
	}
	return roomID, messageID, true
}
