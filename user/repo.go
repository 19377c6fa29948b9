package user

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/weftlabs/weft/internal/keys"
	"github.com/weftlabs/weft/store"
)

// Repo builds user record operations. Counter mutations are transaction
// items so managers can commit them atomically with the relationship
// records they account for.
type Repo struct {
	store store.Store
}

// NewRepo creates a user repository.
func NewRepo(st store.Store) *Repo {
	return &Repo{store: st}
}

// Get reads a user profile.
func (r *Repo) Get(ctx context.Context, userID string, consistency store.Consistency) (*User, error) {
	item, err := r.store.Get(ctx, keys.User(userID), consistency)
	if err != nil {
		return nil, err
	}
	return ItemToUser(item)
}

// BuildAdd returns a transaction item creating a user profile.
func (r *Repo) BuildAdd(u *User) (store.TransactItem, error) {
	item, err := u.ToItem()
	if err != nil {
		return store.TransactItem{}, err
	}
	return store.TransactItem{
		Op:              store.OpPut,
		Item:            item,
		Condition:       "attribute_not_exists(partitionKey)",
		OnConditionFail: fmt.Errorf("user %s: %w", u.UserID, ErrAlreadyExists),
	}, nil
}

// BuildIncrementFollowerCount returns a transaction item adding one to the
// user's follower count.
func (r *Repo) BuildIncrementFollowerCount(userID string) store.TransactItem {
	return r.buildIncrement(userID, "followerCount")
}

// BuildDecrementFollowerCount returns a transaction item subtracting one
// from the user's follower count, failing if the count is already zero.
func (r *Repo) BuildDecrementFollowerCount(userID string) store.TransactItem {
	return r.buildDecrement(userID, "followerCount")
}

// BuildIncrementFollowedCount returns a transaction item adding one to the
// count of users this user follows.
func (r *Repo) BuildIncrementFollowedCount(userID string) store.TransactItem {
	return r.buildIncrement(userID, "followedCount")
}

// BuildDecrementFollowedCount returns a transaction item subtracting one
// from the count of users this user follows.
func (r *Repo) BuildDecrementFollowedCount(userID string) store.TransactItem {
	return r.buildDecrement(userID, "followedCount")
}

// BuildIncrementPostCount returns a transaction item adding one to the
// user's post count.
func (r *Repo) BuildIncrementPostCount(userID string) store.TransactItem {
	return r.buildIncrement(userID, "postCount")
}

// BuildDecrementPostCount returns a transaction item subtracting one from
// the user's post count.
func (r *Repo) BuildDecrementPostCount(userID string) store.TransactItem {
	return r.buildDecrement(userID, "postCount")
}

func (r *Repo) buildIncrement(userID, counter string) store.TransactItem {
	return store.TransactItem{
		Op:        store.OpUpdate,
		Key:       keys.User(userID),
		Update:    fmt.Sprintf("ADD %s :one", counter),
		Condition: "attribute_exists(partitionKey)",
		Values: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		OnConditionFail: fmt.Errorf("user %s: %w", userID, store.ErrNotFound),
	}
}

func (r *Repo) buildDecrement(userID, counter string) store.TransactItem {
	return store.TransactItem{
		Op:        store.OpUpdate,
		Key:       keys.User(userID),
		Update:    fmt.Sprintf("ADD %s :negative_one", counter),
		Condition: fmt.Sprintf("attribute_exists(partitionKey) AND %s > :zero", counter),
		Values: map[string]types.AttributeValue{
			":negative_one": &types.AttributeValueMemberN{Value: "-1"},
			":zero":         &types.AttributeValueMemberN{Value: "0"},
		},
		OnConditionFail: fmt.Errorf("user %s %s: %w", userID, counter, store.ErrCounterUnderflow),
	}
}
