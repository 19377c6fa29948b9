package flag

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

// Source reads the current moderation-relevant state of a flaggable item.
type Source interface {
	GetFlagTarget(ctx context.Context, itemID string) (Item, error)
}

// CounterMutator builds the flag counter transaction items for one item
// kind. Engagement counters on foreign entities are mutated only through
// these builders.
type CounterMutator interface {
	BuildIncrementFlagCount(itemID string) store.TransactItem
	BuildDecrementFlagCount(itemID string) store.TransactItem
}

// Remover performs the idempotent removal side effect on an item that
// crossed the moderation threshold.
type Remover interface {
	Remove(ctx context.Context, itemID string) error
}

// Allowlist names privileged users whose single flag forces immediate
// removal.
type Allowlist interface {
	Contains(ctx context.Context, userID string) (bool, error)
}

// Config holds the crowdsourced-removal thresholds.
type Config struct {
	// MinViewers is the distinct viewer count that must be exceeded before
	// the crowdsourced policy can fire. Default 5.
	MinViewers int64

	// FlagRatio is the flag-to-viewer ratio that must be exceeded.
	// Default 0.1.
	FlagRatio float64
}

func (c *Config) validate() {
	if c.MinViewers == 0 {
		c.MinViewers = 5
	}
	if c.FlagRatio == 0 {
		c.FlagRatio = 0.1
	}
}

// Engine owns flagging rules for one item kind.
type Engine struct {
	store     store.Store
	repo      *Repo
	source    Source
	counters  CounterMutator
	remover   Remover
	blocks    BlockChecker
	allowlist Allowlist
	config    Config
	logger    *slog.Logger
	now       func() time.Time
}

// NewEngine creates a flag engine for one item kind. allowlist may be nil
// when no privileged users exist.
func NewEngine(st store.Store, repo *Repo, source Source, counters CounterMutator, remover Remover, blocks BlockChecker, allowlist Allowlist, config Config, logger *slog.Logger) *Engine {
	config.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:     st,
		repo:      repo,
		source:    source,
		counters:  counters,
		remover:   remover,
		blocks:    blocks,
		allowlist: allowlist,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock overrides the engine's time source.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Flag records that flagger flags the item. The flag record and the
// item's flag counter are written in one transaction. After the commit,
// the removal policy is evaluated synchronously; removal failures are
// logged, never returned.
func (e *Engine) Flag(ctx context.Context, itemID string, flagger *user.User) (*Flag, error) {
	item, err := e.source.GetFlagTarget(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerUserID == flagger.UserID {
		return nil, fmt.Errorf("%s owns %s/%s: %w", flagger.UserID, item.Kind, itemID, ErrSelfFlag)
	}
	if err := e.checkBlocks(ctx, flagger.UserID, item.OwnerUserID); err != nil {
		return nil, err
	}

	if _, err := e.repo.Get(ctx, item.Kind, itemID, flagger.UserID, store.Eventual); err == nil {
		return nil, fmt.Errorf("%s flags %s/%s: %w", flagger.UserID, item.Kind, itemID, ErrAlreadyFlagged)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	now := e.now().UTC().Format(time.RFC3339)
	err = e.store.TransactWrite(ctx,
		e.repo.BuildCreate(item.Kind, itemID, flagger.UserID, now),
		e.counters.BuildIncrementFlagCount(itemID),
	)
	if err != nil {
		return nil, err
	}

	f, err := e.repo.Get(ctx, item.Kind, itemID, flagger.UserID, store.Strong)
	if err != nil {
		return nil, err
	}

	e.maybeRemove(ctx, itemID, flagger.UserID)
	return f, nil
}

// Unflag removes flagger's flag from the item, decrementing the item's
// flag counter in the same transaction.
func (e *Engine) Unflag(ctx context.Context, itemID string, flaggedByUserID string) error {
	item, err := e.source.GetFlagTarget(ctx, itemID)
	if err != nil {
		return err
	}
	f, err := e.repo.Get(ctx, item.Kind, itemID, flaggedByUserID, store.Eventual)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s flags %s/%s: %w", flaggedByUserID, item.Kind, itemID, ErrNotFlagged)
	}
	if err != nil {
		return err
	}

	return e.store.TransactWrite(ctx,
		e.repo.BuildDelete(f),
		e.counters.BuildDecrementFlagCount(itemID),
	)
}

// CriteriaMet reports whether the crowdsourced-removal thresholds are
// crossed: the item has more than MinViewers distinct viewers and its
// flags exceed FlagRatio of those viewers.
func (e *Engine) CriteriaMet(item Item) bool {
	if item.ViewerCount <= e.config.MinViewers {
		return false
	}
	return float64(item.FlagCount) > e.config.FlagRatio*float64(item.ViewerCount)
}

// maybeRemove evaluates the removal policy after a successful flag. A
// privileged flagger forces removal regardless of thresholds. The removal
// call is a separate idempotent follow-up, not part of the flag
// transaction; failures here never undo the flag.
func (e *Engine) maybeRemove(ctx context.Context, itemID, flaggerUserID string) {
	force, err := e.isPrivileged(ctx, flaggerUserID)
	if err != nil {
		e.logger.Warn("allowlist check failed", "user", flaggerUserID, "error", err)
	}

	if !force {
		item, err := e.source.GetFlagTarget(ctx, itemID)
		if err != nil {
			e.logger.Warn("flag target re-read failed", "item", itemID, "error", err)
			return
		}
		if !e.CriteriaMet(item) {
			return
		}
	}

	if err := e.remover.Remove(ctx, itemID); err != nil {
		e.logger.ErrorContext(ctx, "forced removal failed", "item", itemID, "error", err)
	}
}

func (e *Engine) isPrivileged(ctx context.Context, userID string) (bool, error) {
	if e.allowlist == nil {
		return false, nil
	}
	return e.allowlist.Contains(ctx, userID)
}

func (e *Engine) checkBlocks(ctx context.Context, flaggerUserID, ownerUserID string) error {
	blocked, err := e.blocks.IsBlocked(ctx, ownerUserID, flaggerUserID)
	if err != nil {
		return err
	}
	if blocked {
		return fmt.Errorf("flagger has been blocked by owner %s: %w", ownerUserID, ErrBlockedFlag)
	}
	blocked, err = e.blocks.IsBlocked(ctx, flaggerUserID, ownerUserID)
	if err != nil {
		return err
	}
	if blocked {
		return fmt.Errorf("flagger has blocked owner %s: %w", ownerUserID, ErrBlockedFlag)
	}
	return nil
}
