package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"til-service/internal/models"
	"til-service/internal/presence"
	"til-service/internal/repositories"
)

// PresenceHandler exposes explicit heartbeats and presence lookups.
type PresenceHandler struct {
	tracker *presence.Tracker
	rooms   repositories.RoomRepository
	feed    FeedPublisher
}

// NewPresenceHandler builds a PresenceHandler.
func NewPresenceHandler(tracker *presence.Tracker, rooms repositories.RoomRepository, feed FeedPublisher) *PresenceHandler {
	return &PresenceHandler{tracker: tracker, rooms: rooms, feed: feed}
}

// Heartbeat sets the caller's explicit online flag and refreshes the
// last-activity timestamp. Conversation counterparts are notified.
func (h *PresenceHandler) Heartbeat(c *gin.Context) {
	var req struct {
		Online *bool `json:"online" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	info, err := h.tracker.Heartbeat(c.Request.Context(), userID, *req.Online)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record heartbeat, please try again"})
		return
	}

	rooms, err := h.rooms.ListRoomsFor(c.Request.Context(), userID)
	if err == nil {
		recipients := make([]int, 0, len(rooms))
		for _, room := range rooms {
			recipients = append(recipients, room.OtherID)
		}
		h.feed.Publish(models.FeedEvent{Type: models.EventPresenceChanged, Presence: &info}, recipients...)
	}

	c.JSON(http.StatusOK, info)
}

// Get resolves another user's presence.
func (h *PresenceHandler) Get(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	info, err := h.tracker.Resolve(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no such user"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve presence"})
		return
	}

	c.JSON(http.StatusOK, info)
}
