package block_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/weftlabs/weft/block"
	"github.com/weftlabs/weft/internal/storetest"
	"github.com/weftlabs/weft/store"
)

func TestManager_Block(t *testing.T) {
	fake := &storetest.Fake{}
	mgr := block.NewManager(fake)
	mgr.SetClock(func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) })

	if err := mgr.Block(context.Background(), "u1", "u2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fake.Writes) != 1 {
		t.Fatalf("expected 1 write, got %d", len(fake.Writes))
	}
	item := fake.Writes[0]
	if item.Op != store.OpPut {
		t.Errorf("Op = %d, want OpPut", item.Op)
	}
	if got := item.Item.Key(); got != (store.Key{Partition: "block/u1/u2", Sort: "-"}) {
		t.Errorf("key = %+v", got)
	}
	if got := item.Item.String("blockedAt"); got != "2024-03-01T00:00:00Z" {
		t.Errorf("blockedAt = %q", got)
	}
	if item.Condition != "attribute_not_exists(partitionKey)" {
		t.Errorf("Condition = %q", item.Condition)
	}
	if !errors.Is(item.OnConditionFail, block.ErrAlreadyBlocked) {
		t.Errorf("OnConditionFail = %v", item.OnConditionFail)
	}
}

func TestManager_Block_Self(t *testing.T) {
	fake := &storetest.Fake{}
	mgr := block.NewManager(fake)

	err := mgr.Block(context.Background(), "u1", "u1")
	if !errors.Is(err, block.ErrSelfBlock) {
		t.Errorf("expected ErrSelfBlock, got %v", err)
	}
	if len(fake.Writes) != 0 {
		t.Error("self block must not reach the store")
	}
}

func TestManager_Block_Duplicate(t *testing.T) {
	fake := &storetest.Fake{}
	fake.PutFunc = func(ctx context.Context, item store.TransactItem) error {
		return item.OnConditionFail
	}
	mgr := block.NewManager(fake)

	err := mgr.Block(context.Background(), "u1", "u2")
	if !errors.Is(err, block.ErrAlreadyBlocked) {
		t.Errorf("expected ErrAlreadyBlocked, got %v", err)
	}
}

func TestManager_Unblock_NotBlocked(t *testing.T) {
	fake := &storetest.Fake{}
	fake.DeleteFunc = func(ctx context.Context, item store.TransactItem) error {
		return item.OnConditionFail
	}
	mgr := block.NewManager(fake)

	err := mgr.Unblock(context.Background(), "u1", "u2")
	if !errors.Is(err, block.ErrNotBlocked) {
		t.Errorf("expected ErrNotBlocked, got %v", err)
	}
}

func TestManager_IsBlocked(t *testing.T) {
	fake := &storetest.Fake{}
	fake.GetFunc = func(ctx context.Context, key store.Key, consistency store.Consistency) (store.Item, error) {
		if key.Partition == "block/u1/u2" {
			return store.Item{
				"blockerUserId": &types.AttributeValueMemberS{Value: "u1"},
			}, nil
		}
		return nil, store.ErrNotFound
	}
	mgr := block.NewManager(fake)
	ctx := context.Background()

	blocked, err := mgr.IsBlocked(ctx, "u1", "u2")
	if err != nil || !blocked {
		t.Errorf("IsBlocked(u1, u2) = %v, %v, want true", blocked, err)
	}

	// Blocks are directional.
	blocked, err = mgr.IsBlocked(ctx, "u2", "u1")
	if err != nil || blocked {
		t.Errorf("IsBlocked(u2, u1) = %v, %v, want false", blocked, err)
	}
}

func TestManager_IsBlocked_StoreError(t *testing.T) {
	boom := errors.New("throttled")
	fake := &storetest.Fake{}
	fake.GetFunc = func(ctx context.Context, key store.Key, consistency store.Consistency) (store.Item, error) {
		return nil, boom
	}
	mgr := block.NewManager(fake)

	if _, err := mgr.IsBlocked(context.Background(), "u1", "u2"); !errors.Is(err, boom) {
		t.Errorf("expected error passthrough, got %v", err)
	}
}
