package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"til-service/internal/mocks"
	"til-service/internal/models"
	"til-service/internal/repositories"
)

func setupMessageRouter(handler *MessageHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.POST("/chat/rooms/:room_id/messages", handler.Post)
	r.GET("/chat/rooms/:room_id/messages", handler.List)
	r.POST("/chat/rooms/:room_id/read", handler.MarkRead)
	r.DELETE("/chat/rooms/:room_id/messages/:message_id", handler.Delete)
	return r
}

func TestPostMessageSuccess(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	feed := new(mocks.FeedPublisherMock)
	handler := NewMessageHandler(roomRepo, messageRepo, feed)
	router := setupMessageRouter(handler)

	createdAt := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	msg := models.Message{ID: 11, RoomID: 5, SenderID: 1, Content: "hey", Type: models.MessageText, Metadata: models.Metadata{}, CreatedAt: createdAt}

	roomRepo.On("GetRoom", mock.Anything, 5).Return(models.ChatRoom{ID: 5, Participant1ID: 1, Participant2ID: 2}, nil).Once()
	messageRepo.On("CreateMessage", mock.Anything, 5, 1, "hey", models.MessageText, models.Metadata{}).Return(msg, nil).Once()
	roomRepo.On("Touch", mock.Anything, 5, createdAt).Return(nil).Once()
	feed.On("Publish", mock.Anything, []int{1, 2}).Return().Once()

	req := httptest.NewRequest(http.MethodPost, "/chat/rooms/5/messages", bytes.NewBufferString(`{"content":"hey"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp models.Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 11, resp.ID)

	roomRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
	feed.AssertExpectations(t)
}

func TestPostMessageNotParticipant(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	handler := NewMessageHandler(roomRepo, new(mocks.MessageRepositoryMock), new(mocks.FeedPublisherMock))
	router := setupMessageRouter(handler)

	roomRepo.On("GetRoom", mock.Anything, 5).Return(models.ChatRoom{ID: 5, Participant1ID: 2, Participant2ID: 3}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chat/rooms/5/messages", bytes.NewBufferString(`{"content":"hey"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	roomRepo.AssertExpectations(t)
}

func TestPostMessageRoomMissing(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	handler := NewMessageHandler(roomRepo, new(mocks.MessageRepositoryMock), new(mocks.FeedPublisherMock))
	router := setupMessageRouter(handler)

	roomRepo.On("GetRoom", mock.Anything, 99).Return(models.ChatRoom{}, repositories.ErrRoomNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/chat/rooms/99/messages", bytes.NewBufferString(`{"content":"hey"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	roomRepo.AssertExpectations(t)
}

func TestPostMessageBlankContent(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(roomRepo, messageRepo, new(mocks.FeedPublisherMock))
	router := setupMessageRouter(handler)

	roomRepo.On("GetRoom", mock.Anything, 5).Return(models.ChatRoom{ID: 5, Participant1ID: 1, Participant2ID: 2}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chat/rooms/5/messages", bytes.NewBufferString(`{"content":"   "}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	messageRepo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPostMessageUnknownType(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	handler := NewMessageHandler(roomRepo, new(mocks.MessageRepositoryMock), new(mocks.FeedPublisherMock))
	router := setupMessageRouter(handler)

	roomRepo.On("GetRoom", mock.Anything, 5).Return(models.ChatRoom{ID: 5, Participant1ID: 1, Participant2ID: 2}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chat/rooms/5/messages", bytes.NewBufferString(`{"content":"hey","message_type":"gif"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListMessagesSuccess(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(roomRepo, messageRepo, new(mocks.FeedPublisherMock))
	router := setupMessageRouter(handler)

	roomRepo.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	messageRepo.On("ListMessages", mock.Anything, 5).Return([]models.RoomMessage{
		{Message: models.Message{ID: 1, RoomID: 5, SenderID: 2, Content: "hi"}, SenderUsername: "bob"},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chat/rooms/5/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Messages []models.RoomMessage `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "bob", resp.Messages[0].SenderUsername)
	roomRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
}

func TestListMessagesForbidden(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	handler := NewMessageHandler(roomRepo, new(mocks.MessageRepositoryMock), new(mocks.FeedPublisherMock))
	router := setupMessageRouter(handler)

	roomRepo.On("IsParticipant", mock.Anything, 5, 1).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chat/rooms/5/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	roomRepo.AssertExpectations(t)
}

func TestMarkReadIdempotent(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	feed := new(mocks.FeedPublisherMock)
	handler := NewMessageHandler(roomRepo, messageRepo, feed)
	router := setupMessageRouter(handler)

	room := models.ChatRoom{ID: 5, Participant1ID: 1, Participant2ID: 2}
	roomRepo.On("GetRoom", mock.Anything, 5).Return(room, nil).Twice()
	messageRepo.On("MarkRead", mock.Anything, 5, 1).Return(int64(3), nil).Once()
	messageRepo.On("MarkRead", mock.Anything, 5, 1).Return(int64(0), nil).Once()
	feed.On("Publish", mock.Anything, []int{2}).Return().Once()

	first := httptest.NewRequest(http.MethodPost, "/chat/rooms/5/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Marked int64 `json:"marked"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(3), resp.Marked)

	second := httptest.NewRequest(http.MethodPost, "/chat/rooms/5/read", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, second)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(0), resp.Marked)

	roomRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
	feed.AssertExpectations(t)
}

func TestDeleteMessageSuccess(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	feed := new(mocks.FeedPublisherMock)
	handler := NewMessageHandler(roomRepo, messageRepo, feed)
	router := setupMessageRouter(handler)

	roomRepo.On("GetRoom", mock.Anything, 5).Return(models.ChatRoom{ID: 5, Participant1ID: 1, Participant2ID: 2}, nil).Once()
	messageRepo.On("GetMessage", mock.Anything, 11).Return(models.Message{ID: 11, RoomID: 5, SenderID: 1}, nil).Once()
	messageRepo.On("SoftDelete", mock.Anything, 11, 1).Return(nil).Once()
	feed.On("Publish", mock.Anything, []int{1, 2}).Return().Once()

	req := httptest.NewRequest(http.MethodDelete, "/chat/rooms/5/messages/11", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	roomRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
	feed.AssertExpectations(t)
}

func TestDeleteMessageSenderOnly(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(roomRepo, messageRepo, new(mocks.FeedPublisherMock))
	router := setupMessageRouter(handler)

	roomRepo.On("GetRoom", mock.Anything, 5).Return(models.ChatRoom{ID: 5, Participant1ID: 1, Participant2ID: 2}, nil).Once()
	messageRepo.On("GetMessage", mock.Anything, 11).Return(models.Message{ID: 11, RoomID: 5, SenderID: 2}, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/chat/rooms/5/messages/11", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	messageRepo.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteMessageWrongRoom(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(roomRepo, messageRepo, new(mocks.FeedPublisherMock))
	router := setupMessageRouter(handler)

	roomRepo.On("GetRoom", mock.Anything, 5).Return(models.ChatRoom{ID: 5, Participant1ID: 1, Participant2ID: 2}, nil).Once()
	messageRepo.On("GetMessage", mock.Anything, 11).Return(models.Message{ID: 11, RoomID: 8, SenderID: 1}, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/chat/rooms/5/messages/11", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	messageRepo.AssertExpectations(t)
}
