package like

import (
	"context"
	"fmt"
	"iter"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/weftlabs/weft/internal/keys"
	"github.com/weftlabs/weft/store"
)

// Repo maps likes to store records and builds their conditional
// transaction items.
type Repo struct {
	store   store.Store
	indexA1 string
	indexA2 string
}

// NewRepo creates a like repository. indexA1 serves by-user lookups,
// indexA2 by-post lookups.
func NewRepo(st store.Store, indexA1, indexA2 string) *Repo {
	return &Repo{store: st, indexA1: indexA1, indexA2: indexA2}
}

// Get reads one like, returning store.ErrNotFound when absent.
func (r *Repo) Get(ctx context.Context, likedByUserID, postID string, consistency store.Consistency) (*Like, error) {
	item, err := r.store.Get(ctx, keys.Like(likedByUserID, postID), consistency)
	if err != nil {
		return nil, err
	}
	return itemToLike(item), nil
}

// BuildCreate returns a transaction item creating a like record, failing
// if the user already likes the post.
func (r *Repo) BuildCreate(likedByUserID, postID, status, now string) store.TransactItem {
	key := keys.Like(likedByUserID, postID)
	return store.TransactItem{
		Op: store.OpPut,
		Item: store.Item{
			"partitionKey":      &types.AttributeValueMemberS{Value: key.Partition},
			"sortKey":           &types.AttributeValueMemberS{Value: key.Sort},
			"gsiA1PartitionKey": &types.AttributeValueMemberS{Value: keys.LikeUserIndexPK(likedByUserID)},
			"gsiA1SortKey":      &types.AttributeValueMemberS{Value: now},
			"gsiA2PartitionKey": &types.AttributeValueMemberS{Value: keys.LikePostIndexPK(postID)},
			"gsiA2SortKey":      &types.AttributeValueMemberS{Value: now},
			"likedByUserId":     &types.AttributeValueMemberS{Value: likedByUserID},
			"postId":            &types.AttributeValueMemberS{Value: postID},
			"likeStatus":        &types.AttributeValueMemberS{Value: status},
			"likedAt":           &types.AttributeValueMemberS{Value: now},
		},
		Condition:       "attribute_not_exists(partitionKey)",
		OnConditionFail: fmt.Errorf("%s likes %s: %w", likedByUserID, postID, ErrAlreadyLiked),
	}
}

// BuildDelete returns a transaction item deleting a like record, failing
// if it no longer exists.
func (r *Repo) BuildDelete(l *Like) store.TransactItem {
	return store.TransactItem{
		Op:              store.OpDelete,
		Key:             keys.Like(l.LikedByUserID, l.PostID),
		Condition:       "attribute_exists(partitionKey)",
		OnConditionFail: fmt.Errorf("%s likes %s: %w", l.LikedByUserID, l.PostID, ErrNotLiked),
	}
}

// ListByPost returns likes of a post, oldest first.
func (r *Repo) ListByPost(ctx context.Context, postID string) iter.Seq2[*Like, error] {
	return r.list(ctx, r.indexA2, "gsiA2PartitionKey", keys.LikePostIndexPK(postID))
}

// ListByUser returns likes originated by a user, oldest first.
func (r *Repo) ListByUser(ctx context.Context, likedByUserID string) iter.Seq2[*Like, error] {
	return r.list(ctx, r.indexA1, "gsiA1PartitionKey", keys.LikeUserIndexPK(likedByUserID))
}

func (r *Repo) list(ctx context.Context, index, pkAttr, pk string) iter.Seq2[*Like, error] {
	keyCond := expression.Key(pkAttr).Equal(expression.Value(pk))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()

	return func(yield func(*Like, error) bool) {
		if err != nil {
			yield(nil, err)
			return
		}
		for item, qerr := range r.store.Query(ctx, store.QuerySpec{
			Index:        index,
			KeyCondition: *expr.KeyCondition(),
			Names:        expr.Names(),
			Values:       expr.Values(),
			Forward:      true,
		}) {
			if qerr != nil {
				yield(nil, qerr)
				return
			}
			if !yield(itemToLike(item), nil) {
				return
			}
		}
	}
}
