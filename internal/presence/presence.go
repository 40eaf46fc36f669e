package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"til-service/internal/models"
	"til-service/internal/repositories"
)

// OnlineWindow bounds how stale a last-activity timestamp may be while
// the user still counts as online. Explicit "leave" signals are
// unreliable (tab close, crash, network loss), so presence decays with
// time instead of waiting for one.
const OnlineWindow = 5 * time.Minute

// Online combines the explicit heartbeat flag with the time-decay
// fallback. Pure: same inputs, same answer.
func Online(explicit bool, lastActivity, now time.Time) bool {
	return explicit || now.Sub(lastActivity) < OnlineWindow
}

// IsOnline resolves a profile's derived presence.
func IsOnline(profile models.Profile, now time.Time) bool {
	return Online(profile.IsOnline, profile.LastActivity, now)
}

// Tracker records heartbeats on the profile row and mirrors resolved
// presence into Redis with a TTL matching the online window. Redis is a
// cache, not the source of truth: every failure falls through to the
// profile table.
type Tracker struct {
	profiles repositories.ProfileRepository
	rdb      *redis.Client
}

// NewTracker constructs a Tracker. rdb may be nil.
func NewTracker(profiles repositories.ProfileRepository, rdb *redis.Client) *Tracker {
	return &Tracker{profiles: profiles, rdb: rdb}
}

func presenceKey(userID int) string {
	return fmt.Sprintf("presence:%d", userID)
}

// Heartbeat sets the explicit online flag and refreshes last-activity.
// Called with online=true on surface mount and online=false on unmount.
// The returned info carries the derived state, not the raw flag: an
// offline heartbeat just refreshed last-activity, so the user still
// resolves online until the window decays, same as Resolve reports.
func (t *Tracker) Heartbeat(ctx context.Context, userID int, online bool) (models.PresenceInfo, error) {
	if err := t.profiles.SetOnline(ctx, userID, online); err != nil {
		return models.PresenceInfo{}, err
	}

	now := time.Now().UTC()
	info := models.PresenceInfo{UserID: userID, IsOnline: Online(online, now, now), LastActivity: now}
	if online {
		t.cache(ctx, info)
	} else {
		t.uncache(ctx, userID)
	}
	return info, nil
}

// Resolve returns the current presence for a user, preferring the cache.
func (t *Tracker) Resolve(ctx context.Context, userID int) (models.PresenceInfo, error) {
	if info, ok := t.cached(ctx, userID); ok {
		return info, nil
	}

	profile, err := t.profiles.GetByID(ctx, userID)
	if err != nil {
		return models.PresenceInfo{}, err
	}
	return models.PresenceInfo{
		UserID:       userID,
		IsOnline:     IsOnline(profile, time.Now()),
		LastActivity: profile.LastActivity,
	}, nil
}

func (t *Tracker) cache(ctx context.Context, info models.PresenceInfo) {
	if t.rdb == nil {
		return
	}
	data, err := json.Marshal(info)
	if err != nil {
		return
	}
	if err := t.rdb.Set(ctx, presenceKey(info.UserID), data, OnlineWindow).Err(); err != nil {
		log.Printf("presence cache set failed user_id=%d: %v", info.UserID, err)
	}
}

func (t *Tracker) uncache(ctx context.Context, userID int) {
	if t.rdb == nil {
		return
	}
	if err := t.rdb.Del(ctx, presenceKey(userID)).Err(); err != nil {
		log.Printf("presence cache del failed user_id=%d: %v", userID, err)
	}
}

func (t *Tracker) cached(ctx context.Context, userID int) (models.PresenceInfo, bool) {
	if t.rdb == nil {
		return models.PresenceInfo{}, false
	}
	data, err := t.rdb.Get(ctx, presenceKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("presence cache get failed user_id=%d: %v", userID, err)
		}
		return models.PresenceInfo{}, false
	}
	var info models.PresenceInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return models.PresenceInfo{}, false
	}
	return info, true
}
