package album

import (
	"context"
	"fmt"
	"iter"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/weftlabs/weft/internal/keys"
	"github.com/weftlabs/weft/store"
)

// Repo builds album record operations.
type Repo struct {
	store store.Store
	index string
}

// NewRepo creates an album repository. indexA1 is the owner index name.
func NewRepo(st store.Store, indexA1 string) *Repo {
	return &Repo{store: st, index: indexA1}
}

// Get reads an album.
func (r *Repo) Get(ctx context.Context, albumID string, consistency store.Consistency) (*Album, error) {
	item, err := r.store.Get(ctx, keys.Album(albumID), consistency)
	if err != nil {
		return nil, err
	}
	return ItemToAlbum(item)
}

// BuildAdd returns a transaction item creating an album.
func (r *Repo) BuildAdd(a *Album) (store.TransactItem, error) {
	item, err := a.ToItem()
	if err != nil {
		return store.TransactItem{}, err
	}
	return store.TransactItem{
		Op:              store.OpPut,
		Item:            item,
		Condition:       "attribute_not_exists(partitionKey)",
		OnConditionFail: fmt.Errorf("album %s: %w", a.AlbumID, ErrAlreadyExists),
	}, nil
}

// BuildDelete returns a transaction item deleting an album record,
// failing if the album still has posts. The guard closes the window
// between the caller's emptiness pre-read and the delete commit.
func (r *Repo) BuildDelete(albumID string) store.TransactItem {
	return store.TransactItem{
		Op:        store.OpDelete,
		Key:       keys.Album(albumID),
		Condition: "attribute_exists(partitionKey) AND postCount = :zero",
		Values: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
		},
		OnConditionFail: fmt.Errorf("album %s: %w", albumID, ErrNotEmpty),
	}
}

// BuildAddPost returns a transaction item reflecting a post joining the
// album: the post count and the membership timestamp move together.
func (r *Repo) BuildAddPost(albumID, now string) store.TransactItem {
	return store.TransactItem{
		Op:        store.OpUpdate,
		Key:       keys.Album(albumID),
		Update:    "ADD postCount :one SET postsLastUpdatedAt = :now",
		Condition: "attribute_exists(partitionKey)",
		Values: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":now": &types.AttributeValueMemberS{Value: now},
		},
		OnConditionFail: fmt.Errorf("album %s: %w", albumID, store.ErrNotFound),
	}
}

// BuildRemovePost returns a transaction item reflecting a post leaving the
// album, failing if the post count is already zero.
func (r *Repo) BuildRemovePost(albumID, now string) store.TransactItem {
	return store.TransactItem{
		Op:        store.OpUpdate,
		Key:       keys.Album(albumID),
		Update:    "ADD postCount :negative_one SET postsLastUpdatedAt = :now",
		Condition: "attribute_exists(partitionKey) AND postCount > :zero",
		Values: map[string]types.AttributeValue{
			":negative_one": &types.AttributeValueMemberN{Value: "-1"},
			":now":          &types.AttributeValueMemberS{Value: now},
			":zero":         &types.AttributeValueMemberN{Value: "0"},
		},
		OnConditionFail: fmt.Errorf("album %s postCount: %w", albumID, store.ErrCounterUnderflow),
	}
}

// ListByOwner returns the owner's albums ordered by creation time.
func (r *Repo) ListByOwner(ctx context.Context, ownedByUserID string) iter.Seq2[*Album, error] {
	keyCond := expression.Key("gsiA1PartitionKey").Equal(expression.Value(keys.AlbumOwnerIndexPK(ownedByUserID)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()

	return func(yield func(*Album, error) bool) {
		if err != nil {
			yield(nil, err)
			return
		}
		for item, qerr := range r.store.Query(ctx, store.QuerySpec{
			Index:        r.index,
			KeyCondition: *expr.KeyCondition(),
			Names:        expr.Names(),
			Values:       expr.Values(),
			Forward:      true,
		}) {
			if qerr != nil {
				yield(nil, qerr)
				return
			}
			a, merr := ItemToAlbum(item)
			if !yield(a, merr) {
				return
			}
		}
	}
}
