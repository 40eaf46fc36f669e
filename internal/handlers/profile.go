package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"til-service/internal/repositories"
)

const minUsernameLength = 3

// TokenIssuer signs a bearer token for a claimed profile.
type TokenIssuer interface {
	IssueToken(userID int, username string) (string, error)
}

// ProfileHandler manages the profile directory and username claims.
type ProfileHandler struct {
	profiles repositories.ProfileRepository
	tokens   TokenIssuer
}

// NewProfileHandler builds a ProfileHandler.
func NewProfileHandler(profiles repositories.ProfileRepository, tokens TokenIssuer) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, tokens: tokens}
}

// Claim registers a username on first use and signs the caller in on
// repeat use. There is no credential within scope, so claiming an
// existing username behaves as sign-in rather than a conflict.
func (h *ProfileHandler) Claim(c *gin.Context) {
	var req struct {
		Username string  `json:"username" binding:"required"`
		Email    *string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	username := strings.TrimSpace(req.Username)
	if len(username) < minUsernameLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username must be at least 3 characters"})
		return
	}

	profile, err := h.profiles.GetByUsername(c.Request.Context(), username)
	created := false
	if errors.Is(err, repositories.ErrProfileNotFound) {
		profile, err = h.profiles.CreateProfile(c.Request.Context(), username, req.Email)
		if errors.Is(err, repositories.ErrUsernameTaken) {
			// Lost a claim race; the username now exists, read it back.
			profile, err = h.profiles.GetByUsername(c.Request.Context(), username)
		} else {
			created = err == nil
		}
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not claim username, please try again"})
		return
	}

	if !created {
		if err := h.profiles.TouchActivity(c.Request.Context(), profile.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign in, please try again"})
			return
		}
	}

	token, err := h.tokens.IssueToken(profile.ID, profile.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token, please try again"})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"token": token, "profile": profile})
}

// Lookup searches the directory by exact username. A miss is a valid
// outcome and answers 404 so the client can say "no such user" instead
// of "something went wrong".
func (h *ProfileHandler) Lookup(c *gin.Context) {
	username := c.Param("username")

	profile, err := h.profiles.GetByUsername(c.Request.Context(), username)
	if errors.Is(err, repositories.ErrProfileNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such user"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up user"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Me returns the caller's own profile.
func (h *ProfileHandler) Me(c *gin.Context) {
	userID := c.GetInt("userID")

	profile, err := h.profiles.GetByID(c.Request.Context(), userID)
	if errors.Is(err, repositories.ErrProfileNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, profile)
}
