package ws

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"til-service/internal/models"
	"til-service/internal/observability"
	"til-service/internal/presence"
	"til-service/internal/repositories"
)

type tokenValidator interface {
	ValidateToken(token string) (int, error)
}

// FeedHandler serves the realtime change feed. One websocket per client
// carries every event addressed to that user: requests, rooms, messages
// and presence.
type FeedHandler struct {
	hub       *Hub
	tracker   *presence.Tracker
	roomRepo  repositories.RoomRepository
	validator tokenValidator
}

// NewFeedHandler constructs a FeedHandler.
func NewFeedHandler(hub *Hub, tracker *presence.Tracker, roomRepo repositories.RoomRepository, validator tokenValidator) *FeedHandler {
	return &FeedHandler{hub: hub, tracker: tracker, roomRepo: roomRepo, validator: validator}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection, registers the subscription, and keeps
// presence in step with the connection lifecycle: heartbeat(true) on
// mount, heartbeat(false) on unmount, on every exit path.
func (h *FeedHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("til-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
		if token != "" {
			token = "Bearer " + token
		}
	}

	userID, err := h.validateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	sub := h.hub.Subscribe(userID, conn, info)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	h.publishLifecycle(ctx, info, "ws_connect", "")
	h.markPresence(ctx, userID, true)

	go func() {
		var closeReason string
		defer func() {
			sub.Close()
			observability.DecWSActive()
			observability.IncWSEvent("ws_disconnect")
			h.publishLifecycle(context.Background(), info, "ws_disconnect", closeReason)
			h.markPresence(context.Background(), userID, false)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("ws_error")
				}
				return
			}
		}
	}()
}

// markPresence records the heartbeat and notifies every user who shares
// a room with this one.
func (h *FeedHandler) markPresence(ctx context.Context, userID int, online bool) {
	info, err := h.tracker.Heartbeat(ctx, userID, online)
	if err != nil {
		log.Printf("ws heartbeat failed user_id=%d: %v", userID, err)
		return
	}

	rooms, err := h.roomRepo.ListRoomsFor(ctx, userID)
	if err != nil {
		log.Printf("ws presence fanout failed user_id=%d: %v", userID, err)
		return
	}
	recipients := make([]int, 0, len(rooms))
	for _, room := range rooms {
		recipients = append(recipients, room.OtherID)
	}
	h.hub.Publish(models.FeedEvent{Type: models.EventPresenceChanged, Presence: &info}, recipients...)
}

func (h *FeedHandler) publishLifecycle(ctx context.Context, info ConnInfo, event, reason string) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
	_ = observability.PublishEvent(ctx, "ws_events.feed", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   payload,
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}

func (h *FeedHandler) validateToken(header string) (int, error) {
	parts := strings.Split(header, " ")
	if len(parts) == 2 {
		return h.validator.ValidateToken(parts[1])
	}
	return 0, fmt.Errorf("invalid token")
}
