// Package propagate emits best-effort notifications about social graph
// changes to downstream consumers such as feed builders and notification
// cards. Delivery is at-least-once and never participates in the store
// transaction that caused the event.
package propagate

import (
	"context"
	"time"
)

// Event types carried on the wire.
const (
	EventFollowStarted = "follow.started"
	EventFollowStopped = "follow.stopped"
	EventPostRemoved   = "post.removed"
)

// Event is the JSON payload published for each graph change.
type Event struct {
	// ID is a random identifier unique to this emission, assigned by the
	// notifier. Consumers use it for deduplication.
	ID string `json:"eventId"`

	Type string `json:"eventType"`

	FollowerUserID string `json:"followerUserId,omitempty"`
	FollowedUserID string `json:"followedUserId,omitempty"`
	PostID         string `json:"postId,omitempty"`

	OccurredAt time.Time `json:"occurredAt"`
}

// Noop discards all notifications. Useful in tests and in deployments
// without a downstream feed pipeline.
type Noop struct{}

// FollowStarted implements the follow propagator contract.
func (Noop) FollowStarted(ctx context.Context, followerUserID, followedUserID string) error {
	return nil
}

// FollowStopped implements the follow propagator contract.
func (Noop) FollowStopped(ctx context.Context, followerUserID, followedUserID string) error {
	return nil
}

// PostRemoved implements the post removal notification contract.
func (Noop) PostRemoved(ctx context.Context, postID string) error {
	return nil
}
