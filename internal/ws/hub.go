package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"til-service/internal/models"
	"til-service/internal/observability"
)

// Event is one item on the hub's inbound channel: a tagged feed payload
// plus the explicit set of user ids it is addressed to.
type Event struct {
	Payload    models.FeedEvent
	Recipients []int
}

// Hub fans feed events out to per-user websocket subscriptions. All
// events flow through one channel consumed by a single dispatch loop,
// so delivery never races connection bookkeeping beyond the map lock.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[int]map[*Subscription]struct{}
	events      chan Event
}

// NewHub creates an empty hub. Run must be started for events to flow.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[int]map[*Subscription]struct{}),
		events:      make(chan Event, 256),
	}
}

// Subscription is a handle for one websocket connection's membership in
// the hub. It is acquired on connect and must be released with Close on
// every exit path; Close is safe to call more than once.
type Subscription struct {
	userID int
	conn   *websocket.Conn
	info   ConnInfo
	hub    *Hub
	once   sync.Once
}

// UserID returns the subscriber's user id.
func (s *Subscription) UserID() int { return s.userID }

// Close removes the subscription from the hub and closes the connection.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		if s.conn != nil {
			_ = s.conn.Close()
		}
	})
}

// Subscribe registers a connection for a user and returns its handle.
func (h *Hub) Subscribe(userID int, conn *websocket.Conn, info ConnInfo) *Subscription {
	sub := &Subscription{userID: userID, conn: conn, info: info, hub: h}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[userID]; !ok {
		h.subscribers[userID] = make(map[*Subscription]struct{})
	}
	h.subscribers[userID][sub] = struct{}{}
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.subscribers[sub.userID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subscribers, sub.userID)
		}
	}
}

// SubscriberCount reports how many connections a user currently holds.
func (h *Hub) SubscriberCount(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}

// Publish enqueues an event for the given recipients. It never blocks a
// request handler: when the buffer is full the event is dropped and
// counted, and clients recover on their next explicit fetch.
func (h *Hub) Publish(payload models.FeedEvent, recipients ...int) {
	if len(recipients) == 0 {
		return
	}
	select {
	case h.events <- Event{Payload: payload, Recipients: recipients}:
	default:
		observability.IncFeedDropped()
		log.Printf("feed event dropped type=%s recipients=%d", payload.Type, len(recipients))
	}
}

// Run is the dispatch loop. It owns all deliveries and returns when the
// context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-h.events:
			h.dispatch(ev)
		}
	}
}

func (h *Hub) dispatch(ev Event) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		log.Printf("feed event marshal failed: %v", err)
		return
	}
	observability.IncFeedEvent(string(ev.Payload.Type))

	for _, userID := range ev.Recipients {
		for _, sub := range h.subscriptionsFor(userID) {
			if err := sub.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("websocket write error user_id=%d: %v", userID, err)
				h.publishWSError(sub, err)
				sub.Close()
			}
		}
	}
}

func (h *Hub) subscriptionsFor(userID int) []*Subscription {
	h.mu.RLock()
	defer h.mu.RUnlock()
	subs := make([]*Subscription, 0, len(h.subscribers[userID]))
	for sub := range h.subscribers[userID] {
		subs = append(subs, sub)
	}
	return subs
}

func (h *Hub) publishWSError(sub *Subscription, err error) {
	info := sub.info
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.feed", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent("ws_error")
}
