package post

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/weftlabs/weft/internal/keys"
	"github.com/weftlabs/weft/store"
)

// Repo builds post record operations. Like, flag and view counters are
// mutated only through these builders so managers can commit them
// atomically with the engagement records they account for.
type Repo struct {
	store store.Store
}

// NewRepo creates a post repository.
func NewRepo(st store.Store) *Repo {
	return &Repo{store: st}
}

// Get reads a post.
func (r *Repo) Get(ctx context.Context, postID string, consistency store.Consistency) (*Post, error) {
	item, err := r.store.Get(ctx, keys.Post(postID), consistency)
	if err != nil {
		return nil, err
	}
	return ItemToPost(item)
}

// BuildAdd returns a transaction item creating a post record.
func (r *Repo) BuildAdd(p *Post) (store.TransactItem, error) {
	item, err := p.ToItem()
	if err != nil {
		return store.TransactItem{}, err
	}
	return store.TransactItem{
		Op:              store.OpPut,
		Item:            item,
		Condition:       "attribute_not_exists(partitionKey)",
		OnConditionFail: fmt.Errorf("post %s: %w", p.PostID, ErrAlreadyExists),
	}, nil
}

// BuildIncrementOnymousLikeCount returns a transaction item adding one to
// the post's onymous like count.
func (r *Repo) BuildIncrementOnymousLikeCount(postID string) store.TransactItem {
	return r.buildIncrement(postID, "onymousLikeCount")
}

// BuildDecrementOnymousLikeCount returns a transaction item subtracting
// one from the post's onymous like count.
func (r *Repo) BuildDecrementOnymousLikeCount(postID string) store.TransactItem {
	return r.buildDecrement(postID, "onymousLikeCount")
}

// BuildIncrementAnonymousLikeCount returns a transaction item adding one
// to the post's anonymous like count.
func (r *Repo) BuildIncrementAnonymousLikeCount(postID string) store.TransactItem {
	return r.buildIncrement(postID, "anonymousLikeCount")
}

// BuildDecrementAnonymousLikeCount returns a transaction item subtracting
// one from the post's anonymous like count.
func (r *Repo) BuildDecrementAnonymousLikeCount(postID string) store.TransactItem {
	return r.buildDecrement(postID, "anonymousLikeCount")
}

// BuildIncrementFlagCount returns a transaction item adding one to the
// post's flag count.
func (r *Repo) BuildIncrementFlagCount(postID string) store.TransactItem {
	return r.buildIncrement(postID, "flagCount")
}

// BuildDecrementFlagCount returns a transaction item subtracting one from
// the post's flag count.
func (r *Repo) BuildDecrementFlagCount(postID string) store.TransactItem {
	return r.buildDecrement(postID, "flagCount")
}

// BuildAddViewer returns a transaction item adding one to the post's
// distinct viewer count.
func (r *Repo) BuildAddViewer(postID string) store.TransactItem {
	return r.buildIncrement(postID, "viewedByCount")
}

// BuildViewRecord returns a transaction item recording a distinct viewer.
// The condition fails when the viewer was already recorded.
func (r *Repo) BuildViewRecord(postID, viewedByUserID, now string) store.TransactItem {
	key := keys.View(postID, viewedByUserID)
	return store.TransactItem{
		Op: store.OpPut,
		Item: store.Item{
			"partitionKey":   &types.AttributeValueMemberS{Value: key.Partition},
			"sortKey":        &types.AttributeValueMemberS{Value: key.Sort},
			"postId":         &types.AttributeValueMemberS{Value: postID},
			"viewedByUserId": &types.AttributeValueMemberS{Value: viewedByUserID},
			"firstViewedAt":  &types.AttributeValueMemberS{Value: now},
		},
		Condition:       "attribute_not_exists(partitionKey)",
		OnConditionFail: errAlreadyViewed,
	}
}

func (r *Repo) buildIncrement(postID, counter string) store.TransactItem {
	return store.TransactItem{
		Op:        store.OpUpdate,
		Key:       keys.Post(postID),
		Update:    fmt.Sprintf("ADD %s :one", counter),
		Condition: "attribute_exists(partitionKey)",
		Values: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		OnConditionFail: fmt.Errorf("post %s: %w", postID, store.ErrNotFound),
	}
}

func (r *Repo) buildDecrement(postID, counter string) store.TransactItem {
	return store.TransactItem{
		Op:        store.OpUpdate,
		Key:       keys.Post(postID),
		Update:    fmt.Sprintf("ADD %s :negative_one", counter),
		Condition: fmt.Sprintf("attribute_exists(partitionKey) AND %s > :zero", counter),
		Values: map[string]types.AttributeValue{
			":negative_one": &types.AttributeValueMemberN{Value: "-1"},
			":zero":         &types.AttributeValueMemberN{Value: "0"},
		},
		OnConditionFail: fmt.Errorf("post %s %s: %w", postID, counter, store.ErrCounterUnderflow),
	}
}
