package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"til-service/internal/models"
)

var (
	ErrRequestNotFound  = errors.New("chat request not found")
	ErrDuplicateRequest = errors.New("pending request already exists for pair")
	ErrRequestResolved  = errors.New("chat request already resolved")
)

const requestColumns = `id, sender_id, receiver_id, message, status, created_at, updated_at`

// RequestRepository abstracts the chat request ledger.
type RequestRepository interface {
	CreateRequest(ctx context.Context, senderID, receiverID int, message string) (models.ChatRequest, error)
	ListIncoming(ctx context.Context, receiverID int) ([]models.IncomingRequest, error)
	GetRequest(ctx context.Context, id int) (models.ChatRequest, error)
	Respond(ctx context.Context, id, receiverID int, status models.RequestStatus) (models.ChatRequest, error)
}

// RequestRepo is a sqlx implementation of RequestRepository.
type RequestRepo struct {
	db *sqlx.DB
}

// NewRequestRepo constructs a RequestRepo.
func NewRequestRepo(db *sqlx.DB) *RequestRepo {
	return &RequestRepo{db: db}
}

// CreateRequest inserts a pending request. A partial unique index on the
// unordered pair rejects a second pending request in either direction,
// which surfaces here as ErrDuplicateRequest.
func (r *RequestRepo) CreateRequest(ctx context.Context, senderID, receiverID int, message string) (models.ChatRequest, error) {
	var request models.ChatRequest
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO chat_requests (sender_id, receiver_id, message) VALUES ($1, $2, $3) RETURNING `+requestColumns,
		senderID, receiverID, message).StructScan(&request)
	if isUniqueViolation(err) {
		return models.ChatRequest{}, ErrDuplicateRequest
	}
	return request, err
}

// ListIncoming returns pending requests addressed to the receiver, newest
// first, joined with the sender's username. No rows is an empty list,
// not an error.
func (r *RequestRepo) ListIncoming(ctx context.Context, receiverID int) ([]models.IncomingRequest, error) {
	var requests []models.IncomingRequest
	err := r.db.SelectContext(ctx, &requests,
		`SELECT cr.id, cr.sender_id, cr.receiver_id, cr.message, cr.status, cr.created_at, cr.updated_at,
                p.username AS sender_username
         FROM chat_requests cr
         JOIN profiles p ON p.id = cr.sender_id
         WHERE cr.receiver_id=$1 AND cr.status='pending'
         ORDER BY cr.created_at DESC`, receiverID)
	if requests == nil {
		requests = []models.IncomingRequest{}
	}
	return requests, err
}

// GetRequest fetches a request by id.
func (r *RequestRepo) GetRequest(ctx context.Context, id int) (models.ChatRequest, error) {
	var request models.ChatRequest
	err := r.db.GetContext(ctx, &request,
		`SELECT `+requestColumns+` FROM chat_requests WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatRequest{}, ErrRequestNotFound
	}
	return request, err
}

// Respond resolves a pending request. The status guard in the update
// makes the transition single-shot: a second respond, or a respond by
// anyone but the receiver, affects zero rows and is rejected, so two
// near-simultaneous accepts cannot both win.
func (r *RequestRepo) Respond(ctx context.Context, id, receiverID int, status models.RequestStatus) (models.ChatRequest, error) {
	var request models.ChatRequest
	err := r.db.QueryRowxContext(ctx,
		`UPDATE chat_requests SET status=$3, updated_at=NOW()
         WHERE id=$1 AND receiver_id=$2 AND status='pending'
         RETURNING `+requestColumns,
		id, receiverID, status).StructScan(&request)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetRequest(ctx, id); getErr != nil {
			return models.ChatRequest{}, getErr
		}
		return models.ChatRequest{}, ErrRequestResolved
	}
	return request, err
}
