// Package post provides the post record, its engagement counters, and the
// idempotent archive used as the moderation removal side effect.
package post

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/weftlabs/weft/internal/keys"
	"github.com/weftlabs/weft/store"
)

// ErrAlreadyExists is returned when creating a post whose ID is taken.
var ErrAlreadyExists = errors.New("post: already exists")

// Post lifecycle statuses.
const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusArchived  = "ARCHIVED"
)

// Kind is the flaggable item kind for posts.
const Kind = "post"

// Post is a post record with denormalized engagement counters.
type Post struct {
	PostID             string `dynamodbav:"postId"`
	PostedByUserID     string `dynamodbav:"postedByUserId"`
	PostStatus         string `dynamodbav:"postStatus"`
	AlbumID            string `dynamodbav:"albumId,omitempty"`
	Text               string `dynamodbav:"text,omitempty"`
	LikesDisabled      bool   `dynamodbav:"likesDisabled,omitempty"`
	OnymousLikeCount   int64  `dynamodbav:"onymousLikeCount"`
	AnonymousLikeCount int64  `dynamodbav:"anonymousLikeCount"`
	FlagCount          int64  `dynamodbav:"flagCount"`
	ViewedByCount      int64  `dynamodbav:"viewedByCount"`
	PostedAt           string `dynamodbav:"postedAt"`
}

// Key returns the post's primary key.
func (p *Post) Key() store.Key {
	return keys.Post(p.PostID)
}

// Completed reports whether the post is in a likable, flaggable state.
func (p *Post) Completed() bool {
	return p.PostStatus == StatusCompleted
}

// ToItem serializes the post to its store representation, including the
// owner index attributes.
func (p *Post) ToItem() (store.Item, error) {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return nil, err
	}
	key := p.Key().AttributeValues()
	item["partitionKey"] = key["partitionKey"]
	item["sortKey"] = key["sortKey"]
	item["gsiA1PartitionKey"] = &types.AttributeValueMemberS{Value: keys.PostOwnerIndexPK(p.PostedByUserID)}
	item["gsiA1SortKey"] = &types.AttributeValueMemberS{Value: p.PostedAt}
	return item, nil
}

// ItemToPost deserializes a store record into a Post.
func ItemToPost(item store.Item) (*Post, error) {
	var p Post
	if err := attributevalue.UnmarshalMap(item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
