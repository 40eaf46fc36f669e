package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"til-service/internal/models"
	"til-service/internal/repositories"
	"til-service/internal/telemetry"
)

// RequestHandler manages the chat request ledger. Accepting a request is
// the only path that creates a chat room.
type RequestHandler struct {
	requests repositories.RequestRepository
	rooms    repositories.RoomRepository
	profiles repositories.ProfileRepository
	feed     FeedPublisher
	audit    *telemetry.AuditEmitter
}

// NewRequestHandler builds a RequestHandler.
func NewRequestHandler(requests repositories.RequestRepository, rooms repositories.RoomRepository, profiles repositories.ProfileRepository, feed FeedPublisher, audit *telemetry.AuditEmitter) *RequestHandler {
	return &RequestHandler{requests: requests, rooms: rooms, profiles: profiles, feed: feed, audit: audit}
}

// Send records a pending request to the receiver. A second request while
// one is pending between the pair, or while a room already exists, is
// rejected with a conflict rather than silently duplicated.
func (h *RequestHandler) Send(c *gin.Context) {
	var req struct {
		ReceiverID int    `json:"receiver_id" binding:"required"`
		Message    string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	if userID == req.ReceiverID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot send a request to yourself"})
		return
	}

	if _, err := h.profiles.GetByID(c.Request.Context(), req.ReceiverID); err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no such user"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify receiver"})
		return
	}

	_, err := h.rooms.FindRoomByPair(c.Request.Context(), userID, req.ReceiverID)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "conversation already exists"})
		return
	}
	if !errors.Is(err, repositories.ErrRoomNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check existing conversation"})
		return
	}

	request, err := h.requests.CreateRequest(c.Request.Context(), userID, req.ReceiverID, req.Message)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateRequest) {
			c.JSON(http.StatusConflict, gin.H{"error": "a pending request already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send request, please try again"})
		return
	}

	h.feed.Publish(models.FeedEvent{Type: models.EventRequestChanged, Request: &request}, request.ReceiverID)
	c.JSON(http.StatusCreated, request)
}

// ListIncoming returns pending requests addressed to the caller, newest
// first. No pending requests is an empty list, not an error.
func (h *RequestHandler) ListIncoming(c *gin.Context) {
	userID := c.GetInt("userID")

	requests, err := h.requests.ListIncoming(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// Respond resolves a pending request. Accepting it ensures the room for
// the pair; the upsert keyed on the sorted pair keeps a double accept
// from ever producing two rooms.
func (h *RequestHandler) Respond(c *gin.Context) {
	requestID, err := strconv.Atoi(c.Param("request_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	var req struct {
		Decision string `json:"decision" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var status models.RequestStatus
	switch req.Decision {
	case "accepted":
		status = models.RequestAccepted
	case "declined":
		status = models.RequestDeclined
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "decision must be accepted or declined"})
		return
	}

	userID := c.GetInt("userID")
	existing, err := h.requests.GetRequest(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load request"})
		return
	}
	if existing.ReceiverID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the receiver can respond"})
		return
	}

	request, err := h.requests.Respond(c.Request.Context(), requestID, userID, status)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestResolved) {
			c.JSON(http.StatusConflict, gin.H{"error": "request already resolved"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not respond, please try again"})
		return
	}

	h.emitAudit(c, fmt.Sprintf("chat request %d %s", request.ID, request.Status))

	if status != models.RequestAccepted {
		h.feed.Publish(models.FeedEvent{Type: models.EventRequestChanged, Request: &request}, request.SenderID)
		c.JSON(http.StatusOK, gin.H{"request": request})
		return
	}

	room, err := h.rooms.EnsureRoom(c.Request.Context(), request.SenderID, request.ReceiverID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not open conversation, please try again"})
		return
	}

	h.feed.Publish(models.FeedEvent{Type: models.EventRequestChanged, Request: &request}, request.SenderID)
	h.feed.Publish(models.FeedEvent{Type: models.EventRoomChanged, Room: &room}, room.Participant1ID, room.Participant2ID)
	c.JSON(http.StatusOK, gin.H{"request": request, "room": room})
}

func (h *RequestHandler) emitAudit(c *gin.Context, text string) {
	if h.audit == nil {
		return
	}
	var userID *string
	if id := userIDFromContext(c); id != nil {
		value := strconv.FormatInt(*id, 10)
		userID = &value
	}
	h.audit.Emit(c.Request.Context(), "INFO", text, requestIDFromContext(c), userID)
}
