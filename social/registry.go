// Package social wires the entity managers into a single registry.
// Construction order mirrors the dependency graph: repositories first,
// then managers, with cross-entity collaborators passed as the narrow
// interfaces each consumer declares.
package social

import (
	"context"
	"log/slog"
	"time"

	"github.com/weftlabs/weft/album"
	"github.com/weftlabs/weft/block"
	"github.com/weftlabs/weft/flag"
	"github.com/weftlabs/weft/follow"
	"github.com/weftlabs/weft/like"
	"github.com/weftlabs/weft/post"
	"github.com/weftlabs/weft/store"
	"github.com/weftlabs/weft/user"
)

// PostRemovedNotifier receives a best-effort event after moderation
// removes a post.
type PostRemovedNotifier interface {
	PostRemoved(ctx context.Context, postID string) error
}

// Registry holds one wired instance of every entity manager.
type Registry struct {
	Users     *user.Repo
	Posts     *post.Manager
	Albums    *album.Manager
	Blocks    *block.Manager
	Follows   *follow.Manager
	Likes     *like.Manager
	PostFlags *flag.Engine
}

type options struct {
	logger     *slog.Logger
	propagator follow.Propagator
	allowlist  flag.Allowlist
	flagConfig flag.Config
	clock      func() time.Time
}

// Option configures optional registry collaborators.
type Option func(*options)

// WithLogger sets the logger shared by all managers.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithPropagator sets the downstream notifier for follow events. If the
// propagator also implements PostRemovedNotifier, moderation removals
// are published through it as well.
func WithPropagator(p follow.Propagator) Option {
	return func(o *options) { o.propagator = p }
}

// WithAllowlist sets the privileged flagger allowlist.
func WithAllowlist(a flag.Allowlist) Option {
	return func(o *options) { o.allowlist = a }
}

// WithFlagConfig overrides the crowdsourced-removal thresholds.
func WithFlagConfig(cfg flag.Config) Option {
	return func(o *options) { o.flagConfig = cfg }
}

// WithClock overrides the time source of every manager. Tests use this
// to pin timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// New wires a registry on top of st. Only cfg's index names are read,
// with zero-value fields falling back to the store defaults; the table
// is already bound inside st.
func New(st store.Store, cfg store.Config, opts ...Option) *Registry {
	def := store.DefaultConfig()
	if cfg.IndexA1 == "" {
		cfg.IndexA1 = def.IndexA1
	}
	if cfg.IndexA2 == "" {
		cfg.IndexA2 = def.IndexA2
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	users := user.NewRepo(st)
	posts := post.NewManager(st, post.NewRepo(st), o.logger)
	blocks := block.NewManager(st)
	albums := album.NewManager(st, album.NewRepo(st, cfg.IndexA1), posts)

	follows := follow.NewManager(st, follow.NewRepo(st, cfg.IndexA1, cfg.IndexA2), users, blocks, o.propagator, o.logger)
	likes := like.NewManager(st, like.NewRepo(st, cfg.IndexA1, cfg.IndexA2), posts.Repo(), users, blocks, follows, o.logger)

	var remover flag.Remover = posts
	if notifier, ok := o.propagator.(PostRemovedNotifier); ok {
		remover = notifyingRemover{posts: posts, notifier: notifier, logger: o.logger}
	}
	postFlags := flag.NewEngine(st, flag.NewRepo(st, cfg.IndexA1), postFlagSource{posts: posts.Repo()},
		posts.Repo(), remover, blocks, o.allowlist, o.flagConfig, o.logger)

	r := &Registry{
		Users:     users,
		Posts:     posts,
		Albums:    albums,
		Blocks:    blocks,
		Follows:   follows,
		Likes:     likes,
		PostFlags: postFlags,
	}
	if o.clock != nil {
		r.Posts.SetClock(o.clock)
		r.Albums.SetClock(o.clock)
		r.Blocks.SetClock(o.clock)
		r.Follows.SetClock(o.clock)
		r.Likes.SetClock(o.clock)
		r.PostFlags.SetClock(o.clock)
	}
	return r
}

// postFlagSource adapts the post repository to the flag engine's source
// contract. Reads are strong so the policy evaluates committed counters.
type postFlagSource struct {
	posts *post.Repo
}

func (s postFlagSource) GetFlagTarget(ctx context.Context, itemID string) (flag.Item, error) {
	p, err := s.posts.Get(ctx, itemID, store.Strong)
	if err != nil {
		return flag.Item{}, err
	}
	return flag.Item{
		Kind:        post.Kind,
		ID:          p.PostID,
		OwnerUserID: p.PostedByUserID,
		FlagCount:   p.FlagCount,
		ViewerCount: p.ViewedByCount,
	}, nil
}

// notifyingRemover removes the post, then publishes the removal.
// Publish failures are logged, never returned; the removal already
// committed.
type notifyingRemover struct {
	posts    *post.Manager
	notifier PostRemovedNotifier
	logger   *slog.Logger
}

func (r notifyingRemover) Remove(ctx context.Context, itemID string) error {
	if err := r.posts.Remove(ctx, itemID); err != nil {
		return err
	}
	if err := r.notifier.PostRemoved(ctx, itemID); err != nil {
		r.logger.Warn("post removal notification failed",
			"postId", itemID,
			"error", err,
		)
	}
	return nil
}
