package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"til-service/internal/repositories"
)

const statsMonths = 12

// EntryHandler manages journal entries and their derived statistics.
type EntryHandler struct {
	entries  repositories.EntryRepository
	profiles repositories.ProfileRepository
}

// NewEntryHandler builds an EntryHandler.
func NewEntryHandler(entries repositories.EntryRepository, profiles repositories.ProfileRepository) *EntryHandler {
	return &EntryHandler{entries: entries, profiles: profiles}
}

// Create stores a new entry and bumps the profile's aggregate count.
func (h *EntryHandler) Create(c *gin.Context) {
	var req struct {
		Title    string  `json:"title" binding:"required"`
		Content  string  `json:"content" binding:"required"`
		Category *string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content must not be empty"})
		return
	}

	userID := c.GetInt("userID")
	entry, err := h.entries.CreateEntry(c.Request.Context(), userID, req.Title, req.Content, req.Category)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save entry, please try again"})
		return
	}

	if err := h.profiles.AdjustEntryCount(c.Request.Context(), userID, 1); err != nil {
		log.Printf("entry count bump failed profile_id=%d: %v", userID, err)
	}

	c.JSON(http.StatusCreated, entry)
}

// List returns the caller's entries, newest first.
func (h *EntryHandler) List(c *gin.Context) {
	userID := c.GetInt("userID")

	entries, err := h.entries.ListEntries(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load entries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// Update rewrites one of the caller's entries.
func (h *EntryHandler) Update(c *gin.Context) {
	entryID, err := strconv.Atoi(c.Param("entry_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	var req struct {
		Title    string  `json:"title" binding:"required"`
		Content  string  `json:"content" binding:"required"`
		Category *string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	entry, err := h.entries.UpdateEntry(c.Request.Context(), entryID, userID, req.Title, req.Content, req.Category)
	if err != nil {
		if errors.Is(err, repositories.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update entry, please try again"})
		return
	}

	c.JSON(http.StatusOK, entry)
}

// Delete removes one of the caller's entries.
func (h *EntryHandler) Delete(c *gin.Context) {
	entryID, err := strconv.Atoi(c.Param("entry_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	userID := c.GetInt("userID")
	if err := h.entries.DeleteEntry(c.Request.Context(), entryID, userID); err != nil {
		if errors.Is(err, repositories.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete entry"})
		return
	}

	if err := h.profiles.AdjustEntryCount(c.Request.Context(), userID, -1); err != nil {
		log.Printf("entry count decrement failed profile_id=%d: %v", userID, err)
	}

	c.Status(http.StatusNoContent)
}

// Stats returns the caller's streak and monthly aggregates.
func (h *EntryHandler) Stats(c *gin.Context) {
	userID := c.GetInt("userID")

	profile, err := h.profiles.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}

	days, err := h.entries.EntryDays(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	monthly, err := h.entries.MonthlyCounts(c.Request.Context(), userID, statsMonths)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_entries":  profile.EntryCount,
		"current_streak": currentStreak(days, time.Now()),
		"monthly":        monthly,
	})
}

// currentStreak counts consecutive days with at least one entry, ending
// today or yesterday. days must be distinct day-truncated timestamps in
// descending order.
func currentStreak(days []time.Time, now time.Time) int {
	if len(days) == 0 {
		return 0
	}

	expected := truncateDay(now)
	if !sameDay(days[0], expected) {
		expected = expected.AddDate(0, 0, -1)
		if !sameDay(days[0], expected) {
			return 0
		}
	}

	streak := 0
	for _, day := range days {
		if !sameDay(day, expected) {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -1)
	}
	return streak
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return truncateDay(a).Equal(truncateDay(b))
}
