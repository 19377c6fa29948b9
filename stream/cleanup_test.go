package stream_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/weftlabs/weft/stream"
)

type followSweepFake struct {
	resetFollower []string
	resetFollowed []string
	err           error
}

func (f *followSweepFake) ResetFollowerItems(ctx context.Context, followedUserID string) error {
	f.resetFollower = append(f.resetFollower, followedUserID)
	return f.err
}

func (f *followSweepFake) ResetFollowedItems(ctx context.Context, followerUserID string) error {
	f.resetFollowed = append(f.resetFollowed, followerUserID)
	return f.err
}

type likeSweepFake struct {
	byUser []string
	byPost []string
	err    error
}

func (l *likeSweepFake) DislikeAllByUser(ctx context.Context, likedByUserID string) error {
	l.byUser = append(l.byUser, likedByUserID)
	return l.err
}

func (l *likeSweepFake) DislikeAllByPost(ctx context.Context, postID string) error {
	l.byPost = append(l.byPost, postID)
	return l.err
}

func streamKey(pk, sk string) map[string]events.DynamoDBAttributeValue {
	return map[string]events.DynamoDBAttributeValue{
		"partitionKey": events.NewStringAttribute(pk),
		"sortKey":      events.NewStringAttribute(sk),
	}
}

func userRemoveRecord(userID string) events.DynamoDBEventRecord {
	return events.DynamoDBEventRecord{
		EventID:   "evt-1",
		EventName: "REMOVE",
		Change: events.DynamoDBStreamRecord{
			Keys: streamKey("user/"+userID, "profile"),
		},
	}
}

func postArchiveRecord(postID, oldStatus, newStatus string) events.DynamoDBEventRecord {
	return events.DynamoDBEventRecord{
		EventID:   "evt-2",
		EventName: "MODIFY",
		Change: events.DynamoDBStreamRecord{
			Keys: streamKey("post/"+postID, "-"),
			OldImage: map[string]events.DynamoDBAttributeValue{
				"postStatus": events.NewStringAttribute(oldStatus),
			},
			NewImage: map[string]events.DynamoDBAttributeValue{
				"postStatus": events.NewStringAttribute(newStatus),
			},
		},
	}
}

func TestHandleCleanup_UserRemoval(t *testing.T) {
	follows := &followSweepFake{}
	likes := &likeSweepFake{}
	h := stream.NewHandler(follows, likes, nil)

	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{userRemoveRecord("u1")}}
	if err := h.HandleCleanup(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(follows.resetFollower) != 1 || follows.resetFollower[0] != "u1" {
		t.Errorf("ResetFollowerItems calls = %v", follows.resetFollower)
	}
	if len(follows.resetFollowed) != 1 || follows.resetFollowed[0] != "u1" {
		t.Errorf("ResetFollowedItems calls = %v", follows.resetFollowed)
	}
	if len(likes.byUser) != 1 || likes.byUser[0] != "u1" {
		t.Errorf("DislikeAllByUser calls = %v", likes.byUser)
	}
}

func TestHandleCleanup_PostArchive(t *testing.T) {
	follows := &followSweepFake{}
	likes := &likeSweepFake{}
	h := stream.NewHandler(follows, likes, nil)

	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		postArchiveRecord("p1", "COMPLETED", "ARCHIVED"),
	}}
	if err := h.HandleCleanup(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(likes.byPost) != 1 || likes.byPost[0] != "p1" {
		t.Errorf("DislikeAllByPost calls = %v", likes.byPost)
	}
	if len(follows.resetFollower) != 0 {
		t.Errorf("unexpected follow sweeps: %v", follows.resetFollower)
	}
}

func TestHandleCleanup_IgnoresUnrelatedRecords(t *testing.T) {
	follows := &followSweepFake{}
	likes := &likeSweepFake{}
	h := stream.NewHandler(follows, likes, nil)

	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		// Removing a follow record is not a user deletion.
		{
			EventName: "REMOVE",
			Change:    events.DynamoDBStreamRecord{Keys: streamKey("follow/u1/u2", "-")},
		},
		// A post status change that is not an archive.
		postArchiveRecord("p1", "PENDING", "COMPLETED"),
		// An already-archived post re-written unchanged.
		postArchiveRecord("p2", "ARCHIVED", "ARCHIVED"),
		// User profile modified, not removed.
		{
			EventName: "MODIFY",
			Change:    events.DynamoDBStreamRecord{Keys: streamKey("user/u1", "profile")},
		},
	}}

	if err := h.HandleCleanup(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(follows.resetFollower)+len(follows.resetFollowed)+len(likes.byUser)+len(likes.byPost) != 0 {
		t.Error("unrelated records must trigger no sweeps")
	}
}

func TestHandleCleanup_SweepErrorStopsBatch(t *testing.T) {
	boom := errors.New("query throttled")
	follows := &followSweepFake{err: boom}
	likes := &likeSweepFake{}
	h := stream.NewHandler(follows, likes, nil)

	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{userRemoveRecord("u1")}}
	if err := h.HandleCleanup(context.Background(), event); !errors.Is(err, boom) {
		t.Errorf("expected sweep error to surface for retry, got %v", err)
	}
}
