// Package like provides post likes: one engagement record per
// (user, post) pair, with the post's per-kind like counters kept
// consistent in the same transaction.
package like

import (
	"errors"

	"github.com/weftlabs/weft/store"
)

// Like statuses. A user holds at most one like per post, whatever the
// kind.
const (
	StatusAnonymous = "ANONYMOUSLY_LIKED"
	StatusOnymous   = "ONYMOUSLY_LIKED"
)

var (
	// ErrAlreadyLiked is returned when the user already likes the post,
	// including with a different kind.
	ErrAlreadyLiked = errors.New("like: post already liked")

	// ErrNotLiked is returned when removing a like that does not exist.
	ErrNotLiked = errors.New("like: post is not liked")

	// ErrBlocked is returned when a block between liker and post owner
	// forbids the like.
	ErrBlocked = errors.New("like: blocked")

	// ErrNotFollowing is returned when liking a private user's post
	// without an accepted follow.
	ErrNotFollowing = errors.New("like: must follow private user to like their posts")

	// ErrPostNotLikable is returned when the post is not in a likable
	// state.
	ErrPostNotLikable = errors.New("like: post cannot be liked")

	// ErrLikesDisabled is returned when likes are disabled on the post.
	ErrLikesDisabled = errors.New("like: likes are disabled")

	// ErrInvalidStatus is returned for an unknown like kind.
	ErrInvalidStatus = errors.New("like: invalid like status")
)

// Like is one like engagement record.
type Like struct {
	LikedByUserID string
	PostID        string
	Status        string
	LikedAt       string
}

// itemToLike deserializes a store record into a Like.
func itemToLike(item store.Item) *Like {
	return &Like{
		LikedByUserID: item.String("likedByUserId"),
		PostID:        item.String("postId"),
		Status:        item.String("likeStatus"),
		LikedAt:       item.String("likedAt"),
	}
}
