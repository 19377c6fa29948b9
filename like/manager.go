package like

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/weftlabs/weft/post"
	"github.com/weftlabs/weft/store"
	"github.com/weftlabs/weft/user"
)

// BlockChecker answers whether one user has blocked another.
type BlockChecker interface {
	IsBlocked(ctx context.Context, blockerUserID, blockedUserID string) (bool, error)
}

// FollowChecker answers whether a follower has an accepted follow on a
// followed user, for private-account privacy rules.
type FollowChecker interface {
	IsFollowing(ctx context.Context, followerUserID, followedUserID string) (bool, error)
}

// Manager owns like business rules: blocking, privacy and post-state
// checks, and the atomic pairing of like records with the post's per-kind
// like counters.
type Manager struct {
	store   store.Store
	repo    *Repo
	posts   *post.Repo
	users   *user.Repo
	blocks  BlockChecker
	follows FollowChecker
	logger  *slog.Logger
	now     func() time.Time
}

// NewManager creates a like manager.
func NewManager(st store.Store, repo *Repo, posts *post.Repo, users *user.Repo, blocks BlockChecker, follows FollowChecker, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:   st,
		repo:    repo,
		posts:   posts,
		users:   users,
		blocks:  blocks,
		follows: follows,
		logger:  logger,
		now:     time.Now,
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

// GetLike reads one like record.
func (m *Manager) GetLike(ctx context.Context, likedByUserID, postID string, consistency store.Consistency) (*Like, error) {
	return m.repo.Get(ctx, likedByUserID, postID, consistency)
}

// LikePost records that liker likes p with the given kind. The like
// record and the post's matching like counter are written in one
// transaction; the result is re-read with strong consistency.
func (m *Manager) LikePost(ctx context.Context, liker *user.User, p *post.Post, status string) (*Like, error) {
	if status != StatusAnonymous && status != StatusOnymous {
		return nil, fmt.Errorf("%q: %w", status, ErrInvalidStatus)
	}
	if !p.Completed() {
		return nil, fmt.Errorf("post %s status %s: %w", p.PostID, p.PostStatus, ErrPostNotLikable)
	}
	if p.LikesDisabled {
		return nil, fmt.Errorf("post %s: %w", p.PostID, ErrLikesDisabled)
	}

	if err := m.checkBlocks(ctx, liker.UserID, p.PostedByUserID); err != nil {
		return nil, err
	}
	if err := m.checkPrivacy(ctx, liker, p); err != nil {
		return nil, err
	}

	if _, err := m.repo.Get(ctx, liker.UserID, p.PostID, store.Eventual); err == nil {
		return nil, fmt.Errorf("%s likes %s: %w", liker.UserID, p.PostID, ErrAlreadyLiked)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	now := m.now().UTC().Format(time.RFC3339)
	err := m.store.TransactWrite(ctx,
		m.repo.BuildCreate(liker.UserID, p.PostID, status, now),
		m.buildIncrement(p.PostID, status),
	)
	if err != nil {
		return nil, err
	}
	return m.repo.Get(ctx, liker.UserID, p.PostID, store.Strong)
}

// Dislike removes a like, decrementing the post's matching like counter
// in the same transaction.
func (m *Manager) Dislike(ctx context.Context, l *Like) error {
	return m.store.TransactWrite(ctx,
		m.repo.BuildDelete(l),
		m.buildDecrement(l.PostID, l.Status),
	)
}

// DislikeAllByPost removes every like of a post. Each removal is an
// independent atomic unit; one failure does not abort the sweep.
func (m *Manager) DislikeAllByPost(ctx context.Context, postID string) error {
	for l, err := range m.repo.ListByPost(ctx, postID) {
		if err != nil {
			return err
		}
		if err := m.Dislike(ctx, l); err != nil {
			m.sweepFailure(ctx, l, err)
		}
	}
	return nil
}

// DislikeAllByUser removes every like originated by a user.
func (m *Manager) DislikeAllByUser(ctx context.Context, likedByUserID string) error {
	for l, err := range m.repo.ListByUser(ctx, likedByUserID) {
		if err != nil {
			return err
		}
		if err := m.Dislike(ctx, l); err != nil {
			m.sweepFailure(ctx, l, err)
		}
	}
	return nil
}

func (m *Manager) buildIncrement(postID, status string) store.TransactItem {
	if status == StatusAnonymous {
		return m.posts.BuildIncrementAnonymousLikeCount(postID)
	}
	return m.posts.BuildIncrementOnymousLikeCount(postID)
}

func (m *Manager) buildDecrement(postID, status string) store.TransactItem {
	if status == StatusAnonymous {
		return m.posts.BuildDecrementAnonymousLikeCount(postID)
	}
	return m.posts.BuildDecrementOnymousLikeCount(postID)
}

func (m *Manager) checkBlocks(ctx context.Context, likerUserID, ownerUserID string) error {
	blocked, err := m.blocks.IsBlocked(ctx, ownerUserID, likerUserID)
	if err != nil {
		return err
	}
	if blocked {
		return fmt.Errorf("liker has been blocked by owner %s: %w", ownerUserID, ErrBlocked)
	}
	blocked, err = m.blocks.IsBlocked(ctx, likerUserID, ownerUserID)
	if err != nil {
		return err
	}
	if blocked {
		return fmt.Errorf("liker has blocked owner %s: %w", ownerUserID, ErrBlocked)
	}
	return nil
}

// checkPrivacy requires an accepted follow before liking a private user's
// post. Owners may always like their own posts.
func (m *Manager) checkPrivacy(ctx context.Context, liker *user.User, p *post.Post) error {
	if liker.UserID == p.PostedByUserID {
		return nil
	}
	owner, err := m.users.Get(ctx, p.PostedByUserID, store.Eventual)
	if err != nil {
		return err
	}
	if !owner.Private() {
		return nil
	}
	following, err := m.follows.IsFollowing(ctx, liker.UserID, owner.UserID)
	if err != nil {
		return err
	}
	if !following {
		return fmt.Errorf("owner %s is private: %w", owner.UserID, ErrNotFollowing)
	}
	return nil
}

func (m *Manager) sweepFailure(ctx context.Context, l *Like, err error) {
	m.logger.ErrorContext(ctx, "dislike sweep item failed",
		"likedBy", l.LikedByUserID,
		"post", l.PostID,
		"error", err,
	)
}
