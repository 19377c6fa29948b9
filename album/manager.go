package album

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/weftlabs/weft/internal/keys"
	"github.com/weftlabs/weft/store"
)

// PostGetter reads posts for membership checks.
type PostGetter interface {
	GetPostOwnerAndAlbum(ctx context.Context, postID string) (ownerUserID, albumID string, err error)
}

// Manager owns album business rules and album-post membership
// transactions.
type Manager struct {
	store store.Store
	repo  *Repo
	posts PostGetter
	now   func() time.Time
}

// NewManager creates an album manager.
func NewManager(st store.Store, repo *Repo, posts PostGetter) *Manager {
	return &Manager{
		store: st,
		repo:  repo,
		posts: posts,
		now:   time.Now,
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

// Get reads an album.
func (m *Manager) Get(ctx context.Context, albumID string, consistency store.Consistency) (*Album, error) {
	return m.repo.Get(ctx, albumID, consistency)
}

// AddAlbum creates a new album owned by ownedByUserID.
func (m *Manager) AddAlbum(ctx context.Context, albumID, ownedByUserID, name, description string) (*Album, error) {
	a := &Album{
		AlbumID:       albumID,
		OwnedByUserID: ownedByUserID,
		Name:          name,
		Description:   description,
		CreatedAt:     m.now().UTC().Format(time.RFC3339),
	}
	item, err := m.repo.BuildAdd(a)
	if err != nil {
		return nil, err
	}
	if err := m.store.PutConditional(ctx, item); err != nil {
		return nil, err
	}
	return m.repo.Get(ctx, albumID, store.Strong)
}

// DeleteAlbum deletes an empty album owned by the caller.
func (m *Manager) DeleteAlbum(ctx context.Context, albumID, callerUserID string) error {
	a, err := m.repo.Get(ctx, albumID, store.Eventual)
	if err != nil {
		return err
	}
	if a.OwnedByUserID != callerUserID {
		return fmt.Errorf("album %s owned by %s: %w", albumID, a.OwnedByUserID, ErrWrongOwner)
	}
	if a.PostCount != 0 {
		return fmt.Errorf("album %s has %d posts: %w", albumID, a.PostCount, ErrNotEmpty)
	}
	return m.store.DeleteConditional(ctx, m.repo.BuildDelete(albumID))
}

// AddPostToAlbum places a post in an album. The post's album pointer, the
// destination album's post count, and (when the post moves between albums)
// the source album's post count all change in one transaction.
func (m *Manager) AddPostToAlbum(ctx context.Context, albumID, postID string) (*Album, error) {
	a, err := m.repo.Get(ctx, albumID, store.Eventual)
	if err != nil {
		return nil, err
	}
	ownerID, currentAlbumID, err := m.posts.GetPostOwnerAndAlbum(ctx, postID)
	if err != nil {
		return nil, err
	}
	if ownerID != a.OwnedByUserID {
		return nil, fmt.Errorf("post %s owned by %s: %w", postID, ownerID, ErrWrongOwner)
	}
	if currentAlbumID == albumID {
		return nil, fmt.Errorf("post %s: %w", postID, ErrAlreadyInAlbum)
	}

	now := m.now().UTC().Format(time.RFC3339)
	items := []store.TransactItem{
		m.buildSetPostAlbum(postID, albumID, currentAlbumID),
		m.repo.BuildAddPost(albumID, now),
	}
	if currentAlbumID != "" {
		items = append(items, m.repo.BuildRemovePost(currentAlbumID, now))
	}
	if err := m.store.TransactWrite(ctx, items...); err != nil {
		return nil, err
	}
	return m.repo.Get(ctx, albumID, store.Strong)
}

// RemovePostFromAlbum takes a post out of its album.
func (m *Manager) RemovePostFromAlbum(ctx context.Context, postID string) error {
	_, currentAlbumID, err := m.posts.GetPostOwnerAndAlbum(ctx, postID)
	if err != nil {
		return err
	}
	if currentAlbumID == "" {
		return fmt.Errorf("post %s: %w", postID, ErrNotInAlbum)
	}

	now := m.now().UTC().Format(time.RFC3339)
	return m.store.TransactWrite(ctx,
		m.buildClearPostAlbum(postID, currentAlbumID),
		m.repo.BuildRemovePost(currentAlbumID, now),
	)
}

// buildSetPostAlbum points the post at its new album, conditioned on the
// album pointer still being what the precondition read observed.
func (m *Manager) buildSetPostAlbum(postID, albumID, currentAlbumID string) store.TransactItem {
	item := store.TransactItem{
		Op:     store.OpUpdate,
		Key:    keys.Post(postID),
		Update: "SET albumId = :albumId",
		Values: map[string]types.AttributeValue{
			":albumId": &types.AttributeValueMemberS{Value: albumID},
		},
		OnConditionFail: fmt.Errorf("post %s album changed: %w", postID, ErrAlreadyInAlbum),
	}
	if currentAlbumID == "" {
		item.Condition = "attribute_exists(partitionKey) AND attribute_not_exists(albumId)"
	} else {
		item.Condition = "attribute_exists(partitionKey) AND albumId = :current"
		item.Values[":current"] = &types.AttributeValueMemberS{Value: currentAlbumID}
	}
	return item
}

func (m *Manager) buildClearPostAlbum(postID, currentAlbumID string) store.TransactItem {
	return store.TransactItem{
		Op:        store.OpUpdate,
		Key:       keys.Post(postID),
		Update:    "REMOVE albumId",
		Condition: "attribute_exists(partitionKey) AND albumId = :current",
		Values: map[string]types.AttributeValue{
			":current": &types.AttributeValueMemberS{Value: currentAlbumID},
		},
		OnConditionFail: fmt.Errorf("post %s: %w", postID, ErrNotInAlbum),
	}
}
