package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"til-service/internal/mocks"
	"til-service/internal/models"
	"til-service/internal/presence"
	"til-service/internal/repositories"
)

func setupPresenceRouter(handler *PresenceHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.POST("/presence/heartbeat", handler.Heartbeat)
	r.GET("/presence/:user_id", handler.Get)
	return r
}

func TestHeartbeatNotifiesCounterparts(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	roomRepo := new(mocks.RoomRepositoryMock)
	feed := new(mocks.FeedPublisherMock)
	tracker := presence.NewTracker(profileRepo, nil)
	handler := NewPresenceHandler(tracker, roomRepo, feed)
	router := setupPresenceRouter(handler)

	profileRepo.On("SetOnline", mock.Anything, 1, true).Return(nil).Once()
	roomRepo.On("ListRoomsFor", mock.Anything, 1).Return([]models.RoomSummary{
		{RoomID: 5, OtherID: 2},
		{RoomID: 6, OtherID: 3},
	}, nil).Once()
	feed.On("Publish", mock.Anything, []int{2, 3}).Return().Once()

	req := httptest.NewRequest(http.MethodPost, "/presence/heartbeat", bytes.NewBufferString(`{"online":true}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.PresenceInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.UserID)
	assert.True(t, resp.IsOnline)

	profileRepo.AssertExpectations(t)
	roomRepo.AssertExpectations(t)
	feed.AssertExpectations(t)
}

func TestHeartbeatMissingFlag(t *testing.T) {
	tracker := presence.NewTracker(new(mocks.ProfileRepositoryMock), nil)
	handler := NewPresenceHandler(tracker, new(mocks.RoomRepositoryMock), new(mocks.FeedPublisherMock))
	router := setupPresenceRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/presence/heartbeat", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPresenceUnknownUser(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	tracker := presence.NewTracker(profileRepo, nil)
	handler := NewPresenceHandler(tracker, new(mocks.RoomRepositoryMock), new(mocks.FeedPublisherMock))
	router := setupPresenceRouter(handler)

	profileRepo.On("GetByID", mock.Anything, 42).Return(models.Profile{}, repositories.ErrProfileNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/presence/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	profileRepo.AssertExpectations(t)
}
