package flag

import (
	"context"
	"fmt"
	"iter"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/weftlabs/weft/internal/keys"
	"github.com/weftlabs/weft/store"
)

// Repo maps flags to store records and builds their conditional
// transaction items. Flags share the flagged item's partition, so listing
// an item's flags is a base-table query on the sort-key prefix.
type Repo struct {
	store   store.Store
	indexA1 string
}

// NewRepo creates a flag repository. indexA1 serves by-user lookups.
func NewRepo(st store.Store, indexA1 string) *Repo {
	return &Repo{store: st, indexA1: indexA1}
}

// Get reads one flag, returning store.ErrNotFound when absent.
func (r *Repo) Get(ctx context.Context, itemKind, itemID, flaggedByUserID string, consistency store.Consistency) (*Flag, error) {
	item, err := r.store.Get(ctx, keys.Flag(itemKind, itemID, flaggedByUserID), consistency)
	if err != nil {
		return nil, err
	}
	return itemToFlag(item), nil
}

// BuildCreate returns a transaction item creating a flag record, failing
// if the user already flagged the item.
func (r *Repo) BuildCreate(itemKind, itemID, flaggedByUserID, now string) store.TransactItem {
	key := keys.Flag(itemKind, itemID, flaggedByUserID)
	return store.TransactItem{
		Op: store.OpPut,
		Item: store.Item{
			"partitionKey":      &types.AttributeValueMemberS{Value: key.Partition},
			"sortKey":           &types.AttributeValueMemberS{Value: key.Sort},
			"gsiA1PartitionKey": &types.AttributeValueMemberS{Value: keys.FlagUserIndexPK(flaggedByUserID)},
			"gsiA1SortKey":      &types.AttributeValueMemberS{Value: now},
			"itemKind":          &types.AttributeValueMemberS{Value: itemKind},
			"itemId":            &types.AttributeValueMemberS{Value: itemID},
			"flaggedByUserId":   &types.AttributeValueMemberS{Value: flaggedByUserID},
			"flaggedAt":         &types.AttributeValueMemberS{Value: now},
		},
		Condition:       "attribute_not_exists(sortKey)",
		OnConditionFail: fmt.Errorf("%s flags %s/%s: %w", flaggedByUserID, itemKind, itemID, ErrAlreadyFlagged),
	}
}

// BuildDelete returns a transaction item deleting a flag record, failing
// if it no longer exists.
func (r *Repo) BuildDelete(f *Flag) store.TransactItem {
	return store.TransactItem{
		Op:              store.OpDelete,
		Key:             keys.Flag(f.ItemKind, f.ItemID, f.FlaggedByUserID),
		Condition:       "attribute_exists(sortKey)",
		OnConditionFail: fmt.Errorf("%s flags %s/%s: %w", f.FlaggedByUserID, f.ItemKind, f.ItemID, ErrNotFlagged),
	}
}

// ListByItem returns the flags on one item, oldest first.
func (r *Repo) ListByItem(ctx context.Context, itemKind, itemID string) iter.Seq2[*Flag, error] {
	keyCond := expression.Key("partitionKey").Equal(expression.Value(itemKind+"/"+itemID)).
		And(expression.Key("sortKey").BeginsWith(keys.FlagSortPrefix))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	return r.list(ctx, "", expr, err)
}

// ListByUser returns the flags raised by one user, oldest first.
func (r *Repo) ListByUser(ctx context.Context, flaggedByUserID string) iter.Seq2[*Flag, error] {
	keyCond := expression.Key("gsiA1PartitionKey").Equal(expression.Value(keys.FlagUserIndexPK(flaggedByUserID)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	return r.list(ctx, r.indexA1, expr, err)
}

func (r *Repo) list(ctx context.Context, index string, expr expression.Expression, buildErr error) iter.Seq2[*Flag, error] {
	return func(yield func(*Flag, error) bool) {
		if buildErr != nil {
			yield(nil, buildErr)
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
			if !yield(itemToFlag(item), nil) {
				return
			}
		}
	}
}
