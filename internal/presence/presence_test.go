package presence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"til-service/internal/mocks"
	"til-service/internal/models"
)

func TestIsOnlineExplicitFlag(t *testing.T) {
	now := time.Now()
	profile := models.Profile{IsOnline: true, LastActivity: now.Add(-time.Hour)}
	assert.True(t, IsOnline(profile, now))
}

func TestIsOnlineRecentActivity(t *testing.T) {
	now := time.Now()
	profile := models.Profile{IsOnline: false, LastActivity: now.Add(-time.Minute)}
	assert.True(t, IsOnline(profile, now))
}

func TestIsOnlineDecayed(t *testing.T) {
	now := time.Now()
	profile := models.Profile{IsOnline: false, LastActivity: now.Add(-6 * time.Minute)}
	assert.False(t, IsOnline(profile, now))
}

func TestIsOnlineExactWindowBoundary(t *testing.T) {
	now := time.Now()
	profile := models.Profile{IsOnline: false, LastActivity: now.Add(-OnlineWindow)}
	assert.False(t, IsOnline(profile, now))
}

func TestHeartbeatSetsFlag(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	tracker := NewTracker(profiles, nil)

	profiles.On("SetOnline", mock.Anything, 1, true).Return(nil).Once()

	info, err := tracker.Heartbeat(context.Background(), 1, true)
	require.NoError(t, err)
	assert.True(t, info.IsOnline)
	assert.Equal(t, 1, info.UserID)
	assert.WithinDuration(t, time.Now().UTC(), info.LastActivity, time.Second)
	profiles.AssertExpectations(t)
}

func TestHeartbeatOfflineDerivesOnlineWithinWindow(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	tracker := NewTracker(profiles, nil)

	profiles.On("SetOnline", mock.Anything, 1, false).Return(nil).Once()

	info, err := tracker.Heartbeat(context.Background(), 1, false)
	require.NoError(t, err)
	// the offline heartbeat refreshed last-activity, so the derived state
	// stays online until the window decays, same as Resolve would report
	assert.True(t, info.IsOnline)
	assert.WithinDuration(t, time.Now().UTC(), info.LastActivity, time.Second)
	profiles.AssertExpectations(t)
}

func TestHeartbeatProfileError(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	tracker := NewTracker(profiles, nil)

	profiles.On("SetOnline", mock.Anything, 1, false).Return(assert.AnError).Once()

	_, err := tracker.Heartbeat(context.Background(), 1, false)
	assert.Error(t, err)
	profiles.AssertExpectations(t)
}

func TestResolveFallsBackToProfile(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	tracker := NewTracker(profiles, nil)

	lastActivity := time.Now().Add(-time.Minute)
	profiles.On("GetByID", mock.Anything, 7).
		Return(models.Profile{ID: 7, IsOnline: false, LastActivity: lastActivity}, nil).Once()

	info, err := tracker.Resolve(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, info.IsOnline)
	assert.Equal(t, lastActivity, info.LastActivity)
	profiles.AssertExpectations(t)
}
