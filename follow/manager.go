package follow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/weftlabs/weft/store"
	"github.com/weftlabs/weft/user"
)

// BlockChecker answers whether one user has blocked another.
type BlockChecker interface {
	IsBlocked(ctx context.Context, blockerUserID, blockedUserID string) (bool, error)
}

// Propagator receives best-effort follow-up notifications after a
// relationship transaction commits. Implementations fail independently;
// the manager logs failures and never surfaces them.
type Propagator interface {
	// FollowStarted fires when a relationship becomes FOLLOWING, so
	// downstream systems can backfill the follower's feed and seed
	// first-story state.
	FollowStarted(ctx context.Context, followerUserID, followedUserID string) error

	// FollowStopped fires when a FOLLOWING relationship ends.
	FollowStopped(ctx context.Context, followerUserID, followedUserID string) error
}

// Manager owns follow business rules and composes relationship and
// counter transaction items into atomic writes.
type Manager struct {
	store  store.Store
	repo   *Repo
	users  *user.Repo
	blocks BlockChecker
	prop   Propagator
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a follow manager.
func NewManager(st store.Store, repo *Repo, users *user.Repo, blocks BlockChecker, prop Propagator, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  st,
		repo:   repo,
		users:  users,
		blocks: blocks,
		prop:   prop,
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

// GetFollow returns a live handle on one relationship, or
// store.ErrNotFound when no record exists.
func (m *Manager) GetFollow(ctx context.Context, followerUserID, followedUserID string, consistency store.Consistency) (*Follow, error) {
	f, err := m.repo.Get(ctx, followerUserID, followedUserID, consistency)
	if err != nil {
		return nil, err
	}
	f.mgr = m
	return f, nil
}

// Status reports the relationship status between two users, including the
// reporting-only SELF and NOT_FOLLOWING statuses.
func (m *Manager) Status(ctx context.Context, followerUserID, followedUserID string) (string, error) {
	if followerUserID == followedUserID {
		return StatusSelf, nil
	}
	f, err := m.repo.Get(ctx, followerUserID, followedUserID, store.Eventual)
	if errors.Is(err, store.ErrNotFound) {
		return StatusNotFollowing, nil
	}
	if err != nil {
		return "", err
	}
	return f.Status, nil
}

// IsFollowing reports whether follower has an active FOLLOWING
// relationship with followed. Consumed by engagement managers enforcing
// privacy rules.
func (m *Manager) IsFollowing(ctx context.Context, followerUserID, followedUserID string) (bool, error) {
	status, err := m.Status(ctx, followerUserID, followedUserID)
	if err != nil {
		return false, err
	}
	return status == StatusFollowing, nil
}

// RequestToFollow creates a relationship from follower to followed. The
// relationship starts REQUESTED when the followed user is private, else it
// is FOLLOWING immediately and both users' counters move in the same
// transaction. The returned handle reflects a strongly consistent re-read.
func (m *Manager) RequestToFollow(ctx context.Context, follower, followed *user.User) (*Follow, error) {
	if follower.UserID == followed.UserID {
		return nil, ErrSelfFollow
	}

	if _, err := m.repo.Get(ctx, follower.UserID, followed.UserID, store.Eventual); err == nil {
		return nil, fmt.Errorf("%s follows %s: %w", follower.UserID, followed.UserID, ErrAlreadyFollowing)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if err := m.checkBlocks(ctx, follower.UserID, followed.UserID); err != nil {
		return nil, err
	}

	status := StatusFollowing
	if followed.Private() {
		status = StatusRequested
	}

	now := m.now().UTC().Format(time.RFC3339)
	items := []store.TransactItem{m.repo.BuildCreate(follower.UserID, followed.UserID, status, now)}
	if status == StatusFollowing {
		items = append(items,
			m.users.BuildIncrementFollowedCount(follower.UserID),
			m.users.BuildIncrementFollowerCount(followed.UserID),
		)
	}
	if err := m.store.TransactWrite(ctx, items...); err != nil {
		return nil, err
	}

	f, err := m.GetFollow(ctx, follower.UserID, followed.UserID, store.Strong)
	if err != nil {
		return nil, err
	}

	if f.Status == StatusFollowing {
		m.propagateStarted(ctx, f.FollowerUserID, f.FollowedUserID)
	}
	return f, nil
}

// AcceptAllRequests accepts every REQUESTED relationship targeting
// followedUserID. Each acceptance is an independent atomic unit; one
// failure does not abort the sweep.
func (m *Manager) AcceptAllRequests(ctx context.Context, followedUserID string) error {
	for f, err := range m.repo.ListFollowers(ctx, followedUserID, StatusRequested) {
		if err != nil {
			return err
		}
		f.mgr = m
		if err := f.Accept(ctx); err != nil {
			m.sweepFailure(ctx, "accept follow request", f, err)
		}
	}
	return nil
}

// DeleteAllDenied deletes every DENIED relationship targeting
// followedUserID. DENIED relationships never incremented counters, so the
// deletes carry no counter items.
func (m *Manager) DeleteAllDenied(ctx context.Context, followedUserID string) error {
	for f, err := range m.repo.ListFollowers(ctx, followedUserID, StatusDenied) {
		if err != nil {
			return err
		}
		if err := m.store.TransactWrite(ctx, m.repo.BuildDelete(f)); err != nil {
			m.sweepFailure(ctx, "delete denied follow request", f, err)
		}
	}
	return nil
}

// ResetFollowerItems removes every relationship targeting followedUserID,
// unfollowing FOLLOWING relationships so both counters stay correct.
func (m *Manager) ResetFollowerItems(ctx context.Context, followedUserID string) error {
	return m.reset(ctx, m.repo.ListFollowers(ctx, followedUserID, ""))
}

// ResetFollowedItems removes every relationship originated by
// followerUserID, unfollowing FOLLOWING relationships so both counters
// stay correct.
func (m *Manager) ResetFollowedItems(ctx context.Context, followerUserID string) error {
	return m.reset(ctx, m.repo.ListFollowed(ctx, followerUserID, ""))
}

func (m *Manager) reset(ctx context.Context, followsSeq func(func(*Follow, error) bool)) error {
	for f, err := range followsSeq {
		if err != nil {
			return err
		}
		f.mgr = m
		if err := f.Unfollow(ctx); err != nil {
			m.sweepFailure(ctx, "reset follow", f, err)
		}
	}
	return nil
}

// checkBlocks fails with ErrBlocked when either party has blocked the
// other.
func (m *Manager) checkBlocks(ctx context.Context, followerUserID, followedUserID string) error {
	blocked, err := m.blocks.IsBlocked(ctx, followedUserID, followerUserID)
	if err != nil {
		return err
	}
	if blocked {
		return fmt.Errorf("user has been blocked by %s: %w", followedUserID, ErrBlocked)
	}
	blocked, err = m.blocks.IsBlocked(ctx, followerUserID, followedUserID)
	if err != nil {
		return err
	}
	if blocked {
		return fmt.Errorf("user has blocked %s: %w", followedUserID, ErrBlocked)
	}
	return nil
}

// propagateStarted runs best-effort downstream propagation after a
// relationship becomes FOLLOWING. Failures are logged, never returned.
func (m *Manager) propagateStarted(ctx context.Context, followerUserID, followedUserID string) {
	if m.prop == nil {
		return
	}
	if err := m.prop.FollowStarted(ctx, followerUserID, followedUserID); err != nil {
		m.logger.Warn("follow propagation failed",
			"follower", followerUserID,
			"followed", followedUserID,
			"error", err,
		)
	}
}

func (m *Manager) propagateStopped(ctx context.Context, followerUserID, followedUserID string) {
	if m.prop == nil {
		return
	}
	if err := m.prop.FollowStopped(ctx, followerUserID, followedUserID); err != nil {
		m.logger.Warn("unfollow propagation failed",
			"follower", followerUserID,
			"followed", followedUserID,
			"error", err,
		)
	}
}

func (m *Manager) sweepFailure(ctx context.Context, action string, f *Follow, err error) {
	m.logger.ErrorContext(ctx, "sweep item failed",
		"action", action,
		"follower", f.FollowerUserID,
		"followed", f.FollowedUserID,
		"error", err,
	)
}
