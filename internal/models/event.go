package models

// FeedEventType tags realtime feed events.
type FeedEventType string

const (
	EventRequestChanged  FeedEventType = "request_changed"
	EventRoomChanged     FeedEventType = "room_changed"
	EventMessageInserted FeedEventType = "message_inserted"
	EventPresenceChanged FeedEventType = "presence_changed"
)

// FeedEvent is the tagged union delivered over the websocket feed.
// Exactly one of the pointer fields matching Type is set. Payloads are
// hints: clients re-fetch the affected list instead of patching local
// state from them.
type FeedEvent struct {
	Type     FeedEventType `json:"type"`
	Request  *ChatRequest  `json:"request,omitempty"`
	Room     *ChatRoom     `json:"room,omitempty"`
	Message  *Message      `json:"message,omitempty"`
	Presence *PresenceInfo `json:"presence,omitempty"`
}
