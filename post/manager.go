package post

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/weftlabs/weft/internal/keys"
	"github.com/weftlabs/weft/store"
)

// errAlreadyViewed marks a view record that already exists. RecordView
// treats it as success; it never escapes this package.
var errAlreadyViewed = errors.New("post: viewer already recorded")

// Manager owns post lifecycle operations that other managers consume as
// collaborators.
type Manager struct {
	store  store.Store
	repo   *Repo
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a post manager.
func NewManager(st store.Store, repo *Repo, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  st,
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock overrides the manager's time source.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Repo returns the manager's repository.
func (m *Manager) Repo() *Repo {
	return m.repo
}

// Get reads a post.
func (m *Manager) Get(ctx context.Context, postID string, consistency store.Consistency) (*Post, error) {
	return m.repo.Get(ctx, postID, consistency)
}

// GetPostOwnerAndAlbum reads the post's owner and current album pointer,
// for album membership checks.
func (m *Manager) GetPostOwnerAndAlbum(ctx context.Context, postID string) (string, string, error) {
	p, err := m.repo.Get(ctx, postID, store.Eventual)
	if err != nil {
		return "", "", err
	}
	return p.PostedByUserID, p.AlbumID, nil
}

// RecordView records one distinct viewer of a post. The view record and
// the viewer count move in the same transaction; a repeat view by the same
// user is a no-op.
func (m *Manager) RecordView(ctx context.Context, postID, viewedByUserID string) error {
	now := m.now().UTC().Format(time.RFC3339)
	err := m.store.TransactWrite(ctx,
		m.repo.BuildViewRecord(postID, viewedByUserID, now),
		m.repo.BuildAddViewer(postID),
	)
	if errors.Is(err, errAlreadyViewed) {
		return nil
	}
	return err
}

// Archive moves a post to ARCHIVED. It is idempotent: archiving an
// already-archived or missing post succeeds without effect, so it is safe
// as a repeated moderation follow-up.
func (m *Manager) Archive(ctx context.Context, postID string) error {
	err := m.store.UpdateConditional(ctx, store.TransactItem{
		Op:        store.OpUpdate,
		Key:       keys.Post(postID),
		Update:    "SET postStatus = :archived",
		Condition: "attribute_exists(partitionKey) AND postStatus <> :archived",
		Values: map[string]types.AttributeValue{
			":archived": &types.AttributeValueMemberS{Value: StatusArchived},
		},
	})
	if errors.Is(err, store.ErrConditionFailed) {
		return nil
	}
	return err
}

// Remove implements the forced-removal side effect for flagged posts.
func (m *Manager) Remove(ctx context.Context, itemID string) error {
	return m.Archive(ctx, itemID)
}
