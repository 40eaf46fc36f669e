package handlers

import "til-service/internal/models"

// FeedPublisher pushes change notifications to the realtime feed after a
// successful write. Publishing is fire-and-forget: the write has already
// committed and clients re-fetch on their own anyway.
type FeedPublisher interface {
	Publish(event models.FeedEvent, recipients ...int)
}
