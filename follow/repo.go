package follow

import (
	"context"
	"fmt"
	"iter"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/weftlabs/weft/internal/keys"
	"github.com/weftlabs/weft/store"
)

// Repo maps follow relationships to store records and builds their
// conditional transaction items. It holds no business rules and never
// submits transactions.
type Repo struct {
	store   store.Store
	indexA1 string
	indexA2 string
}

// NewRepo creates a follow repository. indexA1 serves by-follower lookups,
// indexA2 by-followed lookups.
func NewRepo(st store.Store, indexA1, indexA2 string) *Repo {
	return &Repo{store: st, indexA1: indexA1, indexA2: indexA2}
}

// Get reads one relationship, returning store.ErrNotFound when absent.
func (r *Repo) Get(ctx context.Context, followerUserID, followedUserID string, consistency store.Consistency) (*Follow, error) {
	item, err := r.store.Get(ctx, keys.Follow(followerUserID, followedUserID), consistency)
	if err != nil {
		return nil, err
	}
	return itemToFollow(item), nil
}

// BuildCreate returns a transaction item creating a relationship record,
// failing if one already exists for the pair.
func (r *Repo) BuildCreate(followerUserID, followedUserID, status, now string) store.TransactItem {
	key := keys.Follow(followerUserID, followedUserID)
	return store.TransactItem{
		Op: store.OpPut,
		Item: store.Item{
			"partitionKey":      &types.AttributeValueMemberS{Value: key.Partition},
			"sortKey":           &types.AttributeValueMemberS{Value: key.Sort},
			"gsiA1PartitionKey": &types.AttributeValueMemberS{Value: keys.FollowerIndexPK(followerUserID)},
			"gsiA1SortKey":      &types.AttributeValueMemberS{Value: now},
			"gsiA2PartitionKey": &types.AttributeValueMemberS{Value: keys.FollowedIndexPK(followedUserID)},
			"gsiA2SortKey":      &types.AttributeValueMemberS{Value: now},
			"followerUserId":    &types.AttributeValueMemberS{Value: followerUserID},
			"followedUserId":    &types.AttributeValueMemberS{Value: followedUserID},
			"followStatus":      &types.AttributeValueMemberS{Value: status},
			"followedAt":        &types.AttributeValueMemberS{Value: now},
		},
		Condition:       "attribute_not_exists(partitionKey)",
		OnConditionFail: fmt.Errorf("%s follows %s: %w", followerUserID, followedUserID, ErrAlreadyFollowing),
	}
}

// BuildDelete returns a transaction item deleting a relationship record,
// failing if it no longer exists.
func (r *Repo) BuildDelete(f *Follow) store.TransactItem {
	return store.TransactItem{
		Op:              store.OpDelete,
		Key:             keys.Follow(f.FollowerUserID, f.FollowedUserID),
		Condition:       "attribute_exists(partitionKey)",
		OnConditionFail: fmt.Errorf("%s follows %s: %w", f.FollowerUserID, f.FollowedUserID, ErrNotFollowing),
	}
}

// BuildStatusChange returns a transaction item moving the relationship to
// newStatus, conditioned on the status the caller read, so stale
// transitions fail instead of clobbering a concurrent one.
func (r *Repo) BuildStatusChange(f *Follow, newStatus string) store.TransactItem {
	return store.TransactItem{
		Op:        store.OpUpdate,
		Key:       keys.Follow(f.FollowerUserID, f.FollowedUserID),
		Update:    "SET followStatus = :new",
		Condition: "attribute_exists(partitionKey) AND followStatus = :current",
		Values: map[string]types.AttributeValue{
			":new":     &types.AttributeValueMemberS{Value: newStatus},
			":current": &types.AttributeValueMemberS{Value: f.Status},
		},
		OnConditionFail: fmt.Errorf("%s follows %s: %w", f.FollowerUserID, f.FollowedUserID, ErrStatusChanged),
	}
}

// ListFollowers returns relationships targeting followedUserID, oldest
// first, optionally filtered by status.
func (r *Repo) ListFollowers(ctx context.Context, followedUserID, statusFilter string) iter.Seq2[*Follow, error] {
	return r.list(ctx, r.indexA2, "gsiA2PartitionKey", keys.FollowedIndexPK(followedUserID), statusFilter)
}

// ListFollowed returns relationships originated by followerUserID, oldest
// first, optionally filtered by status.
func (r *Repo) ListFollowed(ctx context.Context, followerUserID, statusFilter string) iter.Seq2[*Follow, error] {
	return r.list(ctx, r.indexA1, "gsiA1PartitionKey", keys.FollowerIndexPK(followerUserID), statusFilter)
}

func (r *Repo) list(ctx context.Context, index, pkAttr, pk, statusFilter string) iter.Seq2[*Follow, error] {
	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key(pkAttr).Equal(expression.Value(pk)))
	if statusFilter != "" {
		builder = builder.WithFilter(expression.Name("followStatus").Equal(expression.Value(statusFilter)))
	}
	expr, err := builder.Build()

	return func(yield func(*Follow, error) bool) {
		if err != nil {
			yield(nil, err)
			return
		}
		spec := store.QuerySpec{
			Index:        index,
			KeyCondition: *expr.KeyCondition(),
			Names:        expr.Names(),
			Values:       expr.Values(),
			Forward:      true,
		}
		if expr.Filter() != nil {
			spec.Filter = *expr.Filter()
		}
		for item, qerr := range r.store.Query(ctx, spec) {
			if qerr != nil {
				yield(nil, qerr)
				return
			}
			if !yield(itemToFollow(item), nil) {
				return
			}
		}
	}
}

// itemToFollow deserializes a store record into a detached Follow.
func itemToFollow(item store.Item) *Follow {
	return &Follow{
		FollowerUserID: item.String("followerUserId"),
		FollowedUserID: item.String("followedUserId"),
		Status:         item.String("followStatus"),
		FollowedAt:     item.String("followedAt"),
	}
}
