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
	"til-service/internal/repositories"
)

func setupProfileRouter(handler *ProfileHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.POST("/auth/claim", handler.Claim)
	r.GET("/me", handler.Me)
	r.GET("/profiles/:username", handler.Lookup)
	return r
}

func TestClaimCreatesProfile(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	tokens := new(mocks.TokenIssuerMock)
	handler := NewProfileHandler(profileRepo, tokens)
	router := setupProfileRouter(handler)

	profileRepo.On("GetByUsername", mock.Anything, "maya").Return(models.Profile{}, repositories.ErrProfileNotFound).Once()
	profileRepo.On("CreateProfile", mock.Anything, "maya", (*string)(nil)).Return(models.Profile{ID: 1, Username: "maya"}, nil).Once()
	tokens.On("IssueToken", 1, "maya").Return("tok", nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/auth/claim", bytes.NewBufferString(`{"username":"maya"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Token   string         `json:"token"`
		Profile models.Profile `json:"profile"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "tok", resp.Token)
	assert.Equal(t, "maya", resp.Profile.Username)

	profileRepo.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestClaimSignsInExisting(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	tokens := new(mocks.TokenIssuerMock)
	handler := NewProfileHandler(profileRepo, tokens)
	router := setupProfileRouter(handler)

	profileRepo.On("GetByUsername", mock.Anything, "maya").Return(models.Profile{ID: 1, Username: "maya"}, nil).Once()
	profileRepo.On("TouchActivity", mock.Anything, 1).Return(nil).Once()
	tokens.On("IssueToken", 1, "maya").Return("tok", nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/auth/claim", bytes.NewBufferString(`{"username":"maya"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	profileRepo.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestClaimLostRaceFallsBackToSignIn(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	tokens := new(mocks.TokenIssuerMock)
	handler := NewProfileHandler(profileRepo, tokens)
	router := setupProfileRouter(handler)

	profileRepo.On("GetByUsername", mock.Anything, "maya").Return(models.Profile{}, repositories.ErrProfileNotFound).Once()
	profileRepo.On("CreateProfile", mock.Anything, "maya", (*string)(nil)).Return(models.Profile{}, repositories.ErrUsernameTaken).Once()
	profileRepo.On("GetByUsername", mock.Anything, "maya").Return(models.Profile{ID: 1, Username: "maya"}, nil).Once()
	profileRepo.On("TouchActivity", mock.Anything, 1).Return(nil).Once()
	tokens.On("IssueToken", 1, "maya").Return("tok", nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/auth/claim", bytes.NewBufferString(`{"username":"maya"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	profileRepo.AssertExpectations(t)
}

func TestClaimShortUsername(t *testing.T) {
	handler := NewProfileHandler(new(mocks.ProfileRepositoryMock), new(mocks.TokenIssuerMock))
	router := setupProfileRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/auth/claim", bytes.NewBufferString(`{"username":"ab"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLookupMiss(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := NewProfileHandler(profileRepo, new(mocks.TokenIssuerMock))
	router := setupProfileRouter(handler)

	profileRepo.On("GetByUsername", mock.Anything, "ghost").Return(models.Profile{}, repositories.ErrProfileNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/profiles/ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	profileRepo.AssertExpectations(t)
}

func TestMeSuccess(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := NewProfileHandler(profileRepo, new(mocks.TokenIssuerMock))
	router := setupProfileRouter(handler)

	profileRepo.On("GetByID", mock.Anything, 1).Return(models.Profile{ID: 1, Username: "maya", EntryCount: 4}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.Profile
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 4, resp.EntryCount)
	profileRepo.AssertExpectations(t)
}
