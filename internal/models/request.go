package models

import "time"

// RequestStatus is the lifecycle state of a chat request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
	RequestBlocked  RequestStatus = "blocked"
)

// ChatRequest is a one-directional proposal to open a conversation.
// Once it leaves pending only the status field ever changes; resolved
// rows are kept as an audit trail.
type ChatRequest struct {
	ID         int           `db:"id" json:"id"`
	SenderID   int           `db:"sender_id" json:"sender_id"`
	ReceiverID int           `db:"receiver_id" json:"receiver_id"`
	Message    string        `db:"message" json:"message"`
	Status     RequestStatus `db:"status" json:"status"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}

// IncomingRequest is a pending request joined with the sender's username
// for display.
type IncomingRequest struct {
	ChatRequest
	SenderUsername string `db:"sender_username" json:"sender_username"`
}
