package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"til-service/internal/models"
	"til-service/internal/repositories"
)

type ProfileRepositoryMock struct {
	mock.Mock
}

func (m *ProfileRepositoryMock) CreateProfile(ctx context.Context, username string, email *string) (models.Profile, error) {
	args := m.Called(ctx, username, email)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}

func (m *ProfileRepositoryMock) GetByUsername(ctx context.Context, username string) (models.Profile, error) {
	args := m.Called(ctx, username)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}

func (m *ProfileRepositoryMock) GetByID(ctx context.Context, id int) (models.Profile, error) {
	args := m.Called(ctx, id)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}

func (m *ProfileRepositoryMock) TouchActivity(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ProfileRepositoryMock) SetOnline(ctx context.Context, id int, online bool) error {
	args := m.Called(ctx, id, online)
	return args.Error(0)
}

func (m *ProfileRepositoryMock) AdjustEntryCount(ctx context.Context, id int, delta int) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

type EntryRepositoryMock struct {
	mock.Mock
}

func (m *EntryRepositoryMock) CreateEntry(ctx context.Context, profileID int, title, content string, category *string) (models.Entry, error) {
	args := m.Called(ctx, profileID, title, content, category)
	var entry models.Entry
	if val := args.Get(0); val != nil {
		entry = val.(models.Entry)
	}
	return entry, args.Error(1)
}

func (m *EntryRepositoryMock) ListEntries(ctx context.Context, profileID int) ([]models.Entry, error) {
	args := m.Called(ctx, profileID)
	var entries []models.Entry
	if val := args.Get(0); val != nil {
		entries = val.([]models.Entry)
	}
	return entries, args.Error(1)
}

func (m *EntryRepositoryMock) UpdateEntry(ctx context.Context, id, profileID int, title, content string, category *string) (models.Entry, error) {
	args := m.Called(ctx, id, profileID, title, content, category)
	var entry models.Entry
	if val := args.Get(0); val != nil {
		entry = val.(models.Entry)
	}
	return entry, args.Error(1)
}

func (m *EntryRepositoryMock) DeleteEntry(ctx context.Context, id, profileID int) error {
	args := m.Called(ctx, id, profileID)
	return args.Error(0)
}

func (m *EntryRepositoryMock) EntryDays(ctx context.Context, profileID int) ([]time.Time, error) {
	args := m.Called(ctx, profileID)
	var days []time.Time
	if val := args.Get(0); val != nil {
		days = val.([]time.Time)
	}
	return days, args.Error(1)
}

func (m *EntryRepositoryMock) MonthlyCounts(ctx context.Context, profileID int, months int) ([]models.MonthlyCount, error) {
	args := m.Called(ctx, profileID, months)
	var counts []models.MonthlyCount
	if val := args.Get(0); val != nil {
		counts = val.([]models.MonthlyCount)
	}
	return counts, args.Error(1)
}

type RequestRepositoryMock struct {
	mock.Mock
}

func (m *RequestRepositoryMock) CreateRequest(ctx context.Context, senderID, receiverID int, message string) (models.ChatRequest, error) {
	args := m.Called(ctx, senderID, receiverID, message)
	var request models.ChatRequest
	if val := args.Get(0); val != nil {
		request = val.(models.ChatRequest)
	}
	return request, args.Error(1)
}

func (m *RequestRepositoryMock) ListIncoming(ctx context.Context, receiverID int) ([]models.IncomingRequest, error) {
	args := m.Called(ctx, receiverID)
	var requests []models.IncomingRequest
	if val := args.Get(0); val != nil {
		requests = val.([]models.IncomingRequest)
	}
	return requests, args.Error(1)
}

func (m *RequestRepositoryMock) GetRequest(ctx context.Context, id int) (models.ChatRequest, error) {
	args := m.Called(ctx, id)
	var request models.ChatRequest
	if val := args.Get(0); val != nil {
		request = val.(models.ChatRequest)
	}
	return request, args.Error(1)
}

func (m *RequestRepositoryMock) Respond(ctx context.Context, id, receiverID int, status models.RequestStatus) (models.ChatRequest, error) {
	args := m.Called(ctx, id, receiverID, status)
	var request models.ChatRequest
	if val := args.Get(0); val != nil {
		request = val.(models.ChatRequest)
	}
	return request, args.Error(1)
}

type RoomRepositoryMock struct {
	mock.Mock
}

func (m *RoomRepositoryMock) EnsureRoom(ctx context.Context, userA, userB int) (models.ChatRoom, error) {
	args := m.Called(ctx, userA, userB)
	var room models.ChatRoom
	if val := args.Get(0); val != nil {
		room = val.(models.ChatRoom)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) FindRoomByPair(ctx context.Context, userA, userB int) (models.ChatRoom, error) {
	args := m.Called(ctx, userA, userB)
	var room models.ChatRoom
	if val := args.Get(0); val != nil {
		room = val.(models.ChatRoom)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) GetRoom(ctx context.Context, roomID int) (models.ChatRoom, error) {
	args := m.Called(ctx, roomID)
	var room models.ChatRoom
	if val := args.Get(0); val != nil {
		room = val.(models.ChatRoom)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) IsParticipant(ctx context.Context, roomID, userID int) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *RoomRepositoryMock) ListRoomsFor(ctx context.Context, userID int) ([]models.RoomSummary, error) {
	args := m.Called(ctx, userID)
	var rooms []models.RoomSummary
	if val := args.Get(0); val != nil {
		rooms = val.([]models.RoomSummary)
	}
	return rooms, args.Error(1)
}

func (m *RoomRepositoryMock) Touch(ctx context.Context, roomID int, at time.Time) error {
	args := m.Called(ctx, roomID, at)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, roomID, senderID int, content string, msgType models.MessageType, metadata models.Metadata) (models.Message, error) {
	args := m.Called(ctx, roomID, senderID, content, msgType, metadata)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, roomID int) ([]models.RoomMessage, error) {
	args := m.Called(ctx, roomID)
	var msgs []models.RoomMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.RoomMessage)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, roomID, readerID int) (int64, error) {
	args := m.Called(ctx, roomID, readerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepositoryMock) SoftDelete(ctx context.Context, messageID, senderID int) error {
	args := m.Called(ctx, messageID, senderID)
	return args.Error(0)
}

type FeedPublisherMock struct {
	mock.Mock
}

func (m *FeedPublisherMock) Publish(event models.FeedEvent, recipients ...int) {
	m.Called(event, recipients)
}

type TokenIssuerMock struct {
	mock.Mock
}

func (m *TokenIssuerMock) IssueToken(userID int, username string) (string, error) {
	args := m.Called(userID, username)
	return args.String(0), args.Error(1)
}

var _ repositories.ProfileRepository = (*ProfileRepositoryMock)(nil)
var _ repositories.EntryRepository = (*EntryRepositoryMock)(nil)
var _ repositories.RequestRepository = (*RequestRepositoryMock)(nil)
var _ repositories.RoomRepository = (*RoomRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
