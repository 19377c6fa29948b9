package follow_test

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/weftlabs/weft/follow"
	"github.com/weftlabs/weft/internal/storetest"
	"github.com/weftlabs/weft/store"
	"github.com/weftlabs/weft/user"
)

// blockFake scripts directional block answers.
type blockFake struct {
	blocked map[[2]string]bool
}

func (b *blockFake) IsBlocked(ctx context.Context, blockerUserID, blockedUserID string) (bool, error) {
	return b.blocked[[2]string{blockerUserID, blockedUserID}], nil
}

// propFake records propagation calls.
type propFake struct {
	started [][2]string
	stopped [][2]string
	err     error
}

func (p *propFake) FollowStarted(ctx context.Context, followerUserID, followedUserID string) error {
	p.started = append(p.started, [2]string{followerUserID, followedUserID})
	return p.err
}

func (p *propFake) FollowStopped(ctx context.Context, followerUserID, followedUserID string) error {
	p.stopped = append(p.stopped, [2]string{followerUserID, followedUserID})
	return p.err
}

func followItem(follower, followed, status string) store.Item {
	return store.Item{
		"followerUserId": &types.AttributeValueMemberS{Value: follower},
		"followedUserId": &types.AttributeValueMemberS{Value: followed},
		"followStatus":   &types.AttributeValueMemberS{Value: status},
		"followedAt":     &types.AttributeValueMemberS{Value: "2024-03-01T00:00:00Z"},
	}
}

func newManager(fake *storetest.Fake, blocks follow.BlockChecker, prop follow.Propagator) *follow.Manager {
	if blocks == nil {
		blocks = &blockFake{}
	}
	return follow.NewManager(fake, follow.NewRepo(fake, "GSI-A1", "GSI-A2"), user.NewRepo(fake), blocks, prop, nil)
}

func TestRequestToFollow_PublicUser(t *testing.T) {
	fake := &storetest.Fake{}
	created := false
	fake.GetFunc = func(ctx context.Context, key store.Key, consistency store.Consistency) (store.Item, error) {
		if key.Partition == "follow/u1/u2" && created {
			return followItem("u1", "u2", follow.StatusFollowing), nil
		}
		return nil, store.ErrNotFound
	}
	fake.TransactFunc = func(ctx context.Context, items ...store.TransactItem) error {
		created = true
		return nil
	}
	prop := &propFake{}
	mgr := newManager(fake, nil, prop)

	follower := &user.User{UserID: "u1"}
	followed := &user.User{UserID: "u2", PrivacyStatus: user.PrivacyPublic}

	f, err := mgr.RequestToFollow(context.Background(), follower, followed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Status != follow.StatusFollowing {
		t.Errorf("status = %q, want FOLLOWING", f.Status)
	}

	// The relationship record and both counter moves commit atomically.
	if len(fake.Transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(fake.Transactions))
	}
	items := fake.Transactions[0]
	if len(items) != 3 {
		t.Fatalf("expected create + 2 counter items, got %d", len(items))
	}
	if items[0].Op != store.OpPut {
		t.Errorf("first item Op = %d, want OpPut", items[0].Op)
	}
	if got := items[1].Key; got != (store.Key{Partition: "user/u1", Sort: "profile"}) {
		t.Errorf("followed-count increment targets %+v", got)
	}
	if got := items[2].Key; got != (store.Key{Partition: "user/u2", Sort: "profile"}) {
		t.Errorf("follower-count increment targets %+v", got)
	}

	if len(prop.started) != 1 || prop.started[0] != [2]string{"u1", "u2"} {
		t.Errorf("propagation calls = %v", prop.started)
	}
}

func TestRequestToFollow_PrivateUser(t *testing.T) {
	fake := &storetest.Fake{}
	created := false
	fake.GetFunc = func(ctx context.Context, key store.Key, consistency store.Consistency) (store.Item, error) {
		if key.Partition == "follow/u1/u2" && created {
			return followItem("u1", "u2", follow.StatusRequested), nil
		}
		return nil, store.ErrNotFound
	}
	fake.TransactFunc = func(ctx context.Context, items ...store.TransactItem) error {
		created = true
		return nil
	}
	prop := &propFake{}
	mgr := newManager(fake, nil, prop)

	follower := &user.User{UserID: "u1"}
	followed := &user.User{UserID: "u2", PrivacyStatus: user.PrivacyPrivate}

	f, err := mgr.RequestToFollow(context.Background(), follower, followed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Status != follow.StatusRequested {
		t.Errorf("status = %q, want REQUESTED", f.Status)
	}

	// A pending request moves no counters and triggers no propagation.
	if len(fake.Transactions[0]) != 1 {
		t.Errorf("expected only the create item, got %d", len(fake.Transactions[0]))
	}
	if len(prop.started) != 0 {
		t.Errorf("unexpected propagation: %v", prop.started)
	}
}

func TestRequestToFollow_Self(t *testing.T) {
	mgr := newManager(&storetest.Fake{}, nil, nil)
	u := &user.User{UserID: "u1"}

	if _, err := mgr.RequestToFollow(context.Background(), u, u); !errors.Is(err, follow.ErrSelfFollow) {
		t.Errorf("expected ErrSelfFollow, got %v", err)
	}
}

func TestRequestToFollow_AlreadyExists(t *testing.T) {
	fake := &storetest.Fake{}
	fake.GetFunc = func(ctx context.Context, key store.Key, consistency store.Consistency) (store.Item, error) {
		return followItem("u1", "u2", follow.StatusDenied), nil
	}
	mgr := newManager(fake, nil, nil)

	_, err := mgr.RequestToFollow(context.Background(), &user.User{UserID: "u1"}, &user.User{UserID: "u2"})
	if !errors.Is(err, follow.ErrAlreadyFollowing) {
		t.Errorf("expected ErrAlreadyFollowing, got %v", err)
	}
	if len(fake.Transactions) != 0 {
		t.Error("existing relationship must not reach the store")
	}
}

func TestRequestToFollow_Blocked(t *testing.T) {
	tests := []struct {
		name    string
		blocker string
		blocked string
	}{
		{"followed blocked follower", "u2", "u1"},
		{"follower blocked followed", "u1", "u2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := &blockFake{blocked: map[[2]string]bool{{tt.blocker, tt.blocked}: true}}
			mgr := newManager(&storetest.Fake{}, blocks, nil)

			_, err := mgr.RequestToFollow(context.Background(), &user.User{UserID: "u1"}, &user.User{UserID: "u2"})
			if !errors.Is(err, follow.ErrBlocked) {
				t.Errorf("expected ErrBlocked, got %v", err)
			}
		})
	}
}

func TestFollow_Accept(t *testing.T) {
	fake := &storetest.Fake{}
	accepted := false
	fake.GetFunc = func(ctx context.Context, key store.Key, consistency store.Consistency) (store.Item, error) {
		status := follow.StatusRequested
		if accepted {
			status = follow.StatusFollowing
		}
		return followItem("u1", "u2", status), nil
	}
	fake.TransactFunc = func(ctx context.Context, items ...store.TransactItem) error {
		accepted = true
		return nil
	}
	prop := &propFake{}
	mgr := newManager(fake, nil, prop)

	f, err := mgr.GetFollow(context.Background(), "u1", "u2", store.Eventual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Accept(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Status != follow.StatusFollowing {
		t.Errorf("status = %q, want FOLLOWING", f.Status)
	}

	items := fake.Transactions[0]
	if len(items) != 3 {
		t.Fatalf("expected status change + 2 counter items, got %d", len(items))
	}
	// The transition is guarded by the status the handle read.
	cur, ok := items[0].Values[":current"].(*types.AttributeValueMemberS)
	if !ok || cur.Value != follow.StatusRequested {
		t.Errorf(":current = %v, want REQUESTED", items[0].Values[":current"])
	}
	if len(prop.started) != 1 {
		t.Errorf("expected FollowStarted, got %v", prop.started)
	}
}

func TestFollow_Accept_AlreadyFollowing(t *testing.T) {
	fake := &storetest.Fake{}
	fake.GetFunc = func(ctx context.Context, key store.Key, consistency store.Consistency) (store.Item, error) {
		return followItem("u1", "u2", follow.StatusFollowing), nil
	}
	mgr := newManager(fake, nil, nil)

	f, err := mgr.GetFollow(context.Background(), "u1", "u2", store.Eventual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Accept(context.Background()); !errors.Is(err, follow.ErrAlreadyFollowing) {
		t.Errorf("expected ErrAlreadyFollowing, got %v", err)
	}
}

func TestFollow_Deny(t *testing.T) {
	tests := []struct {
		name      string
		from      string
		wantItems int
		wantStop  int
	}{
		{"from requested", follow.StatusRequested, 1, 0},
		{"from following decrements counters", follow.StatusFollowing, 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &storetest.Fake{}
			denied := false
			fake.GetFunc = func(ctx context.Context, key store.Key, consistency store.Consistency) (store.Item, error) {
				status := tt.from
				if denied {
					status = follow.StatusDenied
				}
				return followItem("u1", "u2", status), nil
			}
			fake.TransactFunc = func(ctx context.Context, items ...store.TransactItem) error {
				denied = true
				return nil
			}
			prop := &propFake{}
			mgr := newManager(fake, nil, prop)

			f, err := mgr.GetFollow(context.Background(), "u1", "u2", store.Eventual)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := f.Deny(context.Background()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.Status != follow.StatusDenied {
				t.Errorf("status = %q, want DENIED", f.Status)
			}
			if got := len(fake.Transactions[0]); got != tt.wantItems {
				t.Errorf("transaction items = %d, want %d", got, tt.wantItems)
			}
			if got := len(prop.stopped); got != tt.wantStop {
				t.Errorf("FollowStopped calls = %d, want %d", got, tt.wantStop)
			}
		})
	}
}

func TestFollow_Deny_AlreadyDenied(t *testing.T) {
	fake := &storetest.Fake{}
	fake.GetFunc = func(ctx context.Context, key store.Key, consistency store.Consistency) (store.Item, error) {
		return followItem("u1", "u2", follow.StatusDenied), nil
	}
	mgr := newManager(fake, nil, nil)

	f, err := mgr.GetFollow(context.Background(), "u1", "u2", store.Eventual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Deny(context.Background()); !errors.Is(err, follow.ErrAlreadyDenied) {
		t.Errorf("expected ErrAlreadyDenied, got %v", err)
	}
}

func TestFollow_Unfollow(t *testing.T) {
	tests := []struct {
		name      string
		from      string
		wantItems int
		wantStop  int
	}{
		{"requested deletes without counters", follow.StatusRequested, 1, 0},
		{"denied deletes without counters", follow.StatusDenied, 1, 0},
		{"following decrements counters", follow.StatusFollowing, 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &storetest.Fake{}
			fake.GetFunc = func(ctx context.Context, key store.Key, consistency store.Consistency) (store.Item, error) {
				return followItem("u1", "u2", tt.from), nil
			}
			prop := &propFake{}
			mgr := newManager(fake, nil, prop)

			f, err := mgr.GetFollow(context.Background(), "u1", "u2", store.Eventual)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := f.Unfollow(context.Background()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.Status != follow.StatusNotFollowing {
				t.Errorf("status = %q, want NOT_FOLLOWING", f.Status)
			}

			items := fake.Transactions[0]
			if len(items) != tt.wantItems {
				t.Errorf("transaction items = %d, want %d", len(items), tt.wantItems)
			}
			if items[0].Op != store.OpDelete {
				t.Errorf("first item Op = %d, want OpDelete", items[0].Op)
			}
			if got := len(prop.stopped); got != tt.wantStop {
				t.Errorf("FollowStopped calls = %d, want %d", got, tt.wantStop)
			}
		})
	}
}

func TestManager_Status(t *testing.T) {
	fake := &storetest.Fake{}
	fake.GetFunc = func(ctx context.Context, key store.Key, consistency store.Consistency) (store.Item, error) {
		if key.Partition == "follow/u1/u2" {
			return followItem("u1", "u2", follow.StatusRequested), nil
		}
		return nil, store.ErrNotFound
	}
	mgr := newManager(fake, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		follower string
		followed string
		want     string
	}{
		{"self", "u1", "u1", follow.StatusSelf},
		{"existing record", "u1", "u2", follow.StatusRequested},
		{"no record", "u3", "u4", follow.StatusNotFollowing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mgr.Status(ctx, tt.follower, tt.followed)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Status = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestManager_ResetFollowerItems_ContinuesPastFailures(t *testing.T) {
	fake := &storetest.Fake{}
	fake.QueryFunc = func(ctx context.Context, spec store.QuerySpec) iter.Seq2[store.Item, error] {
		return storetest.Items([]store.Item{
			followItem("u1", "u9", follow.StatusRequested),
			followItem("u2", "u9", follow.StatusDenied),
		}, nil)
	}
	calls := 0
	fake.TransactFunc = func(ctx context.Context, items ...store.TransactItem) error {
		calls++
		if calls == 1 {
			return items[0].OnConditionFail
		}
		return nil
	}
	mgr := newManager(fake, nil, nil)

	// One failed deletion does not abort the sweep.
	if err := mgr.ResetFollowerItems(context.Background(), "u9"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.Transactions) != 2 {
		t.Errorf("expected both deletions attempted, got %d", len(fake.Transactions))
	}
}

func TestManager_DeleteAllDenied_FiltersByStatus(t *testing.T) {
	fake := &storetest.Fake{}
	fake.QueryFunc = func(ctx context.Context, spec store.QuerySpec) iter.Seq2[store.Item, error] {
		return storetest.Items([]store.Item{
			followItem("u1", "u9", follow.StatusDenied),
		}, nil)
	}
	mgr := newManager(fake, nil, nil)

	if err := mgr.DeleteAllDenied(context.Background(), "u9"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fake.Queries) != 1 {
		t.Fatalf("expected 1 query, got %d", len(fake.Queries))
	}
	if fake.Queries[0].Index != "GSI-A2" {
		t.Errorf("query index = %q, want GSI-A2", fake.Queries[0].Index)
	}
	if fake.Queries[0].Filter == "" {
		t.Error("expected a status filter expression")
	}

	// The deletes carry no counter items.
	if len(fake.Transactions) != 1 || len(fake.Transactions[0]) != 1 {
		t.Errorf("transactions = %v", fake.Transactions)
	}
}
