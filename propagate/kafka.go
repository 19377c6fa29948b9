package propagate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of kafka.Writer the notifier uses. Tests
// substitute an in-memory recorder.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Notifier publishes graph-change events to a Kafka topic. Messages are
// keyed by the affected user or post so per-entity ordering survives
// partitioning.
type Notifier struct {
	writer messageWriter
	now    func() time.Time
}

// NewNotifier creates a notifier publishing to topic on the given
// brokers.
func NewNotifier(brokers []string, topic string) *Notifier {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Notifier{writer: w, now: time.Now}
}

// FollowStarted publishes a follow.started event.
func (n *Notifier) FollowStarted(ctx context.Context, followerUserID, followedUserID string) error {
	return n.emit(ctx, followedUserID, Event{
		Type:           EventFollowStarted,
		FollowerUserID: followerUserID,
		FollowedUserID: followedUserID,
	})
}

// FollowStopped publishes a follow.stopped event.
func (n *Notifier) FollowStopped(ctx context.Context, followerUserID, followedUserID string) error {
	return n.emit(ctx, followedUserID, Event{
		Type:           EventFollowStopped,
		FollowerUserID: followerUserID,
		FollowedUserID: followedUserID,
	})
}

// PostRemoved publishes a post.removed event.
func (n *Notifier) PostRemoved(ctx context.Context, postID string) error {
	return n.emit(ctx, postID, Event{
		Type:   EventPostRemoved,
		PostID: postID,
	})
}

func (n *Notifier) emit(ctx context.Context, key string, event Event) error {
	event.ID = uuid.NewString()
	event.OccurredAt = n.now().UTC()

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  event.OccurredAt,
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (n *Notifier) Close() error {
	return n.writer.Close()
}
