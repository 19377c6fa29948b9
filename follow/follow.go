// Package follow provides the follow relationship: repository, manager
// and the live relationship handle.
//
// A follow record is unique per (follower, followed) pair and carries one
// of a small closed set of statuses. Counter mutations on the two user
// profiles are committed in the same transaction as the relationship
// record, so the counters always equal the count of live FOLLOWING rows.
package follow

import (
	"context"
	"errors"
	"fmt"

	"github.com/weftlabs/weft/store"
)

// Follow relationship statuses. Absence of a record means not following.
const (
	StatusRequested = "REQUESTED"
	StatusFollowing = "FOLLOWING"
	StatusDenied    = "DENIED"

	// StatusNotFollowing and StatusSelf are reporting-only statuses; no
	// record ever carries them.
	StatusNotFollowing = "NOT_FOLLOWING"
	StatusSelf         = "SELF"
)

var (
	// ErrSelfFollow is returned when a user tries to follow themselves.
	ErrSelfFollow = errors.New("follow: users cannot follow themselves")

	// ErrAlreadyFollowing is returned when a follow record already exists
	// for the pair, whatever its status.
	ErrAlreadyFollowing = errors.New("follow: relationship already exists")

	// ErrAlreadyDenied is returned when denying an already-denied request.
	ErrAlreadyDenied = errors.New("follow: request already denied")

	// ErrNotFollowing is returned when operating on an absent relationship.
	ErrNotFollowing = errors.New("follow: relationship does not exist")

	// ErrBlocked is returned when a block between the two users forbids the
	// relationship.
	ErrBlocked = errors.New("follow: blocked")

	// ErrStatusChanged is returned when a status transition lost a race:
	// the relationship is no longer in the status the transition was built
	// against.
	ErrStatusChanged = errors.New("follow: relationship status changed concurrently")
)

// Follow is a live view of one follow relationship. Its lifecycle methods
// issue their own transactions through the manager that produced it.
type Follow struct {
	FollowerUserID string
	FollowedUserID string
	Status         string
	FollowedAt     string

	mgr *Manager
}

// Accept moves a relationship to FOLLOWING, incrementing both users'
// counters in the same transaction unless the relationship was already
// FOLLOWING.
func (f *Follow) Accept(ctx context.Context) error {
	if f.mgr == nil {
		return errDetachedHandle
	}
	if f.Status == StatusFollowing {
		return fmt.Errorf("%s follows %s: %w", f.FollowerUserID, f.FollowedUserID, ErrAlreadyFollowing)
	}

	err := f.mgr.store.TransactWrite(ctx,
		f.mgr.repo.BuildStatusChange(f, StatusFollowing),
		f.mgr.users.BuildIncrementFollowedCount(f.FollowerUserID),
		f.mgr.users.BuildIncrementFollowerCount(f.FollowedUserID),
	)
	if err != nil {
		return err
	}
	if err := f.refresh(ctx); err != nil {
		return err
	}

	f.mgr.propagateStarted(ctx, f.FollowerUserID, f.FollowedUserID)
	return nil
}

// Deny moves a relationship to DENIED. If the relationship was FOLLOWING,
// both users' counters are decremented in the same transaction.
func (f *Follow) Deny(ctx context.Context) error {
	if f.mgr == nil {
		return errDetachedHandle
	}
	if f.Status == StatusDenied {
		return fmt.Errorf("%s follows %s: %w", f.FollowerUserID, f.FollowedUserID, ErrAlreadyDenied)
	}

	wasFollowing := f.Status == StatusFollowing
	items := []store.TransactItem{f.mgr.repo.BuildStatusChange(f, StatusDenied)}
	if wasFollowing {
		items = append(items,
			f.mgr.users.BuildDecrementFollowedCount(f.FollowerUserID),
			f.mgr.users.BuildDecrementFollowerCount(f.FollowedUserID),
		)
	}
	if err := f.mgr.store.TransactWrite(ctx, items...); err != nil {
		return err
	}
	if err := f.refresh(ctx); err != nil {
		return err
	}

	if wasFollowing {
		f.mgr.propagateStopped(ctx, f.FollowerUserID, f.FollowedUserID)
	}
	return nil
}

// Unfollow deletes the relationship record. Counters are decremented only
// when the relationship was FOLLOWING; REQUESTED and DENIED relationships
// never incremented counters, so deleting them directly carries no counter
// items.
func (f *Follow) Unfollow(ctx context.Context) error {
	if f.mgr == nil {
		return errDetachedHandle
	}

	wasFollowing := f.Status == StatusFollowing
	items := []store.TransactItem{f.mgr.repo.BuildDelete(f)}
	if wasFollowing {
		items = append(items,
			f.mgr.users.BuildDecrementFollowedCount(f.FollowerUserID),
			f.mgr.users.BuildDecrementFollowerCount(f.FollowedUserID),
		)
	}
	if err := f.mgr.store.TransactWrite(ctx, items...); err != nil {
		return err
	}
	f.Status = StatusNotFollowing

	if wasFollowing {
		f.mgr.propagateStopped(ctx, f.FollowerUserID, f.FollowedUserID)
	}
	return nil
}

// refresh re-reads the relationship with strong consistency so the handle
// reflects the write it just made.
func (f *Follow) refresh(ctx context.Context) error {
	fresh, err := f.mgr.repo.Get(ctx, f.FollowerUserID, f.FollowedUserID, store.Strong)
	if err != nil {
		return err
	}
	f.Status = fresh.Status
	f.FollowedAt = fresh.FollowedAt
	return nil
}

var errDetachedHandle = errors.New("follow: handle is not attached to a manager")
