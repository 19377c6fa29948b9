// Package stream provides DynamoDB Streams handlers that clean up
// dependent records after entity removals.
package stream

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// FollowSweeper detaches a deleted user from the follow graph.
type FollowSweeper interface {
	ResetFollowerItems(ctx context.Context, followedUserID string) error
	ResetFollowedItems(ctx context.Context, followerUserID string) error
}

// LikeSweeper clears likes left dangling by a removed user or post.
type LikeSweeper interface {
	DislikeAllByUser(ctx context.Context, likedByUserID string) error
	DislikeAllByPost(ctx context.Context, postID string) error
}

// Handler processes DynamoDB stream events for dependent-record cleanup.
type Handler struct {
	follows FollowSweeper
	likes   LikeSweeper
	logger  *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(follows FollowSweeper, likes LikeSweeper, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		follows: follows,
		likes:   likes,
		logger:  logger,
	}
}

// HandleCleanup processes DynamoDB stream events and runs the sweeps
// owed for each removal. This function is designed to be used as an AWS
// Lambda handler.
func (h *Handler) HandleCleanup(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	pk := getStringAttr(record.Change.Keys, "partitionKey")
	sk := getStringAttr(record.Change.Keys, "sortKey")

	switch record.EventName {
	case "REMOVE":
		if userID, ok := userProfileKey(pk, sk); ok {
			return h.cleanupUser(ctx, userID)
		}
	case "MODIFY":
		if postID, ok := postKey(pk, sk); ok {
			oldStatus := getStringAttr(record.Change.OldImage, "postStatus")
			newStatus := getStringAttr(record.Change.NewImage, "postStatus")
			if oldStatus != "ARCHIVED" && newStatus == "ARCHIVED" {
				return h.cleanupArchivedPost(ctx, postID)
			}
		}
	}
	return nil
}

// cleanupUser detaches a deleted user from both sides of the follow
// graph and withdraws their likes. Each sweep is independently
// idempotent, so partial progress before a retry is safe.
func (h *Handler) cleanupUser(ctx context.Context, userID string) error {
	h.logger.Info("cleaning up deleted user", "userId", userID)

	if err := h.follows.ResetFollowerItems(ctx, userID); err != nil {
		return err
	}
	if err := h.follows.ResetFollowedItems(ctx, userID); err != nil {
		return err
	}
	if err := h.likes.DislikeAllByUser(ctx, userID); err != nil {
		return err
	}

	h.logger.Info("user cleanup completed", "userId", userID)
	return nil
}

// cleanupArchivedPost withdraws the likes of a post that left the
// COMPLETED state.
func (h *Handler) cleanupArchivedPost(ctx context.Context, postID string) error {
	h.logger.Info("cleaning up archived post", "postId", postID)
	return h.likes.DislikeAllByPost(ctx, postID)
}

// userProfileKey reports whether the key names a user profile record.
func userProfileKey(pk, sk string) (string, bool) {
	if sk != "profile" {
		return "", false
	}
	userID, ok := strings.CutPrefix(pk, "user/")
	return userID, ok
}

// postKey reports whether the key names a post record.
func postKey(pk, sk string) (string, bool) {
	if sk != "-" {
		return "", false
	}
	postID, ok := strings.CutPrefix(pk, "post/")
	return postID, ok
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok {
		return v.String()
	}
	return ""
}
