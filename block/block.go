// Package block provides user blocking, the mutual-exclusion collaborator
// consumed by every relationship and engagement creation path.
package block

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/weftlabs/weft/internal/keys"
	"github.com/weftlabs/weft/store"
)

var (
	// ErrSelfBlock is returned when a user tries to block themselves.
	ErrSelfBlock = errors.New("block: users cannot block themselves")

	// ErrAlreadyBlocked is returned when the block record already exists.
	ErrAlreadyBlocked = errors.New("block: user is already blocked")

	// ErrNotBlocked is returned when unblocking a user who is not blocked.
	ErrNotBlocked = errors.New("block: user is not blocked")
)

// Block is a block record.
type Block struct {
	BlockerUserID string `dynamodbav:"blockerUserId"`
	BlockedUserID string `dynamodbav:"blockedUserId"`
	BlockedAt     string `dynamodbav:"blockedAt"`
}

// Manager owns block records and answers blocking checks.
type Manager struct {
	store store.Store
	now   func() time.Time
}

// NewManager creates a block manager.
func NewManager(st store.Store) *Manager {
	return &Manager{store: st, now: time.Now}
}

// SetClock overrides the manager's time source.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Block records that blockerUserID blocks blockedUserID.
func (m *Manager) Block(ctx context.Context, blockerUserID, blockedUserID string) error {
	if blockerUserID == blockedUserID {
		return ErrSelfBlock
	}
	key := keys.Block(blockerUserID, blockedUserID)
	return m.store.PutConditional(ctx, store.TransactItem{
		Op: store.OpPut,
		Item: store.Item{
			"partitionKey":  &types.AttributeValueMemberS{Value: key.Partition},
			"sortKey":       &types.AttributeValueMemberS{Value: key.Sort},
			"blockerUserId": &types.AttributeValueMemberS{Value: blockerUserID},
			"blockedUserId": &types.AttributeValueMemberS{Value: blockedUserID},
			"blockedAt":     &types.AttributeValueMemberS{Value: m.now().UTC().Format(time.RFC3339)},
		},
		Condition:       "attribute_not_exists(partitionKey)",
		OnConditionFail: fmt.Errorf("%s blocks %s: %w", blockerUserID, blockedUserID, ErrAlreadyBlocked),
	})
}

// Unblock removes a block record.
func (m *Manager) Unblock(ctx context.Context, blockerUserID, blockedUserID string) error {
	return m.store.DeleteConditional(ctx, store.TransactItem{
		Op:              store.OpDelete,
		Key:             keys.Block(blockerUserID, blockedUserID),
		Condition:       "attribute_exists(partitionKey)",
		OnConditionFail: fmt.Errorf("%s blocks %s: %w", blockerUserID, blockedUserID, ErrNotBlocked),
	})
}

// IsBlocked reports whether blockerUserID has blocked blockedUserID.
func (m *Manager) IsBlocked(ctx context.Context, blockerUserID, blockedUserID string) (bool, error) {
	_, err := m.store.Get(ctx, keys.Block(blockerUserID, blockedUserID), store.Eventual)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
