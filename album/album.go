// Package album provides album records and album-post membership, keeping
// the album's post count consistent with its member posts.
package album

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/weftlabs/weft/internal/keys"
	"github.com/weftlabs/weft/store"
)

var (
	// ErrAlreadyExists is returned when creating an album whose ID is taken.
	ErrAlreadyExists = errors.New("album: already exists")

	// ErrWrongOwner is returned when an album operation crosses ownership:
	// the album and the post must belong to the same user.
	ErrWrongOwner = errors.New("album: album and post owners differ")

	// ErrNotEmpty is returned when deleting an album that still has posts.
	ErrNotEmpty = errors.New("album: album still has posts")

	// ErrNotInAlbum is returned when removing a post that is in no album.
	ErrNotInAlbum = errors.New("album: post is not in an album")

	// ErrAlreadyInAlbum is returned when adding a post to the album it is
	// already in.
	ErrAlreadyInAlbum = errors.New("album: post is already in this album")
)

// Album is an album record. PostCount counts member posts and moves
// atomically with membership changes.
type Album struct {
	AlbumID            string `dynamodbav:"albumId"`
	OwnedByUserID      string `dynamodbav:"ownedByUserId"`
	Name               string `dynamodbav:"name"`
	Description        string `dynamodbav:"description,omitempty"`
	PostCount          int64  `dynamodbav:"postCount"`
	PostsLastUpdatedAt string `dynamodbav:"postsLastUpdatedAt,omitempty"`
	CreatedAt          string `dynamodbav:"createdAt"`
}

// Key returns the album's primary key.
func (a *Album) Key() store.Key {
	return keys.Album(a.AlbumID)
}

// ToItem serializes the album to its store representation, including the
// owner index attributes.
func (a *Album) ToItem() (store.Item, error) {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return nil, err
	}
	key := a.Key().AttributeValues()
	item["partitionKey"] = key["partitionKey"]
	item["sortKey"] = key["sortKey"]
	item["gsiA1PartitionKey"] = &types.AttributeValueMemberS{Value: keys.AlbumOwnerIndexPK(a.OwnedByUserID)}
	item["gsiA1SortKey"] = &types.AttributeValueMemberS{Value: a.CreatedAt}
	return item, nil
}

// ItemToAlbum deserializes a store record into an Album.
func ItemToAlbum(item store.Item) (*Album, error) {
	var a Album
	if err := attributevalue.UnmarshalMap(item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
