// Package keys builds partition, sort and index keys for the single
// entity table.
package keys

import (
	"fmt"

	"github.com/weftlabs/weft/store"
)

// User returns the key of a user profile record.
func User(userID string) store.Key {
	return store.Key{Partition: "user/" + userID, Sort: "profile"}
}

// Post returns the key of a post record.
func Post(postID string) store.Key {
	return store.Key{Partition: "post/" + postID, Sort: "-"}
}

// Album returns the key of an album record.
func Album(albumID string) store.Key {
	return store.Key{Partition: "album/" + albumID, Sort: "-"}
}

// Follow returns the key of a follow relationship record.
func Follow(followerUserID, followedUserID string) store.Key {
	return store.Key{
		Partition: fmt.Sprintf("follow/%s/%s", followerUserID, followedUserID),
		Sort:      "-",
	}
}

// FollowerIndexPK is the GSI-A1 partition key for follows by follower.
func FollowerIndexPK(followerUserID string) string {
	return "follower/" + followerUserID
}

// FollowedIndexPK is the GSI-A2 partition key for follows by followed user.
func FollowedIndexPK(followedUserID string) string {
	return "followed/" + followedUserID
}

// Like returns the key of a like record.
func Like(likedByUserID, postID string) store.Key {
	return store.Key{
		Partition: fmt.Sprintf("like/%s/%s", likedByUserID, postID),
		Sort:      "-",
	}
}

// LikeUserIndexPK is the GSI-A1 partition key for likes by liking user.
func LikeUserIndexPK(likedByUserID string) string {
	return "like/" + likedByUserID
}

// LikePostIndexPK is the GSI-A2 partition key for likes by liked post.
func LikePostIndexPK(postID string) string {
	return "likedPost/" + postID
}

// Flag returns the key of a flag record. Flags share the flagged item's
// partition so all flags of one item are a single base-table query.
func Flag(itemKind, itemID, flaggedByUserID string) store.Key {
	return store.Key{
		Partition: fmt.Sprintf("%s/%s", itemKind, itemID),
		Sort:      "flag/" + flaggedByUserID,
	}
}

// FlagSortPrefix is the sort-key prefix shared by all flag records.
const FlagSortPrefix = "flag/"

// FlagUserIndexPK is the GSI-A1 partition key for flags by flagging user.
func FlagUserIndexPK(flaggedByUserID string) string {
	return "flag/" + flaggedByUserID
}

// Block returns the key of a block record.
func Block(blockerUserID, blockedUserID string) store.Key {
	return store.Key{
		Partition: fmt.Sprintf("block/%s/%s", blockerUserID, blockedUserID),
		Sort:      "-",
	}
}

// View returns the key of a post view record. Views share the post's
// partition, one record per distinct viewer.
func View(postID, viewedByUserID string) store.Key {
	return store.Key{Partition: "post/" + postID, Sort: "view/" + viewedByUserID}
}

// AlbumOwnerIndexPK is the GSI-A1 partition key for albums by owner.
func AlbumOwnerIndexPK(ownedByUserID string) string {
	return "album/" + ownedByUserID
}

// PostOwnerIndexPK is the GSI-A1 partition key for posts by owner.
func PostOwnerIndexPK(postedByUserID string) string {
	return "post/" + postedByUserID
}
