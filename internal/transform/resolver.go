package transform

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/internal/enrich"
	"github.com/orgball2608/channel-archiver/internal/repositories/channel"
	"github.com/orgball2608/channel-archiver/internal/repositories/post"
	"github.com/orgball2608/channel-archiver/pkg/errors"
)

const defaultCacheSize = 10000

// Resolver is the Session of one run. Its caches map native ids and normalized screen-names
// to channel ids and are dropped with the run.
type Resolver struct {
	writer   *Writer
	channels channel.Repository
	posts    post.Repository
	enricher *enrich.Registry

	forwarded *lru.Cache[string, int64]
	mentioned *lru.Cache[string, int64]
	byID      *lru.Cache[int64, *domain.Channel]
}

var _ Session = (*Resolver)(nil)

func NewResolver(w *Writer, channels channel.Repository, posts post.Repository, enricher *enrich.Registry, cacheSize int) (*Resolver, error) {
	if cacheSize < 1 {
		cacheSize = defaultCacheSize
	}
	forwarded, err := lru.New[string, int64](cacheSize)
	if err != nil {
		return nil, err
	}
	mentioned, err := lru.New[string, int64](cacheSize)
	if err != nil {
		return nil, err
	}
	byID, err := lru.New[int64, *domain.Channel](cacheSize)
	if err != nil {
		return nil, err
	}
	if enricher == nil {
		enricher = enrich.NewRegistry()
	}
	return &Resolver{
		writer:    w,
		channels:  channels,
		posts:     posts,
		enricher:  enricher,
		forwarded: forwarded,
		mentioned: mentioned,
		byID:      byID,
	}, nil
}

func (r *Resolver) ReplyTarget(ctx context.Context, channelID int64, platformID string) (int64, error) {
	// The target may still sit in the write buffer.
	if err := r.writer.Flush(ctx); err != nil {
		return 0, err
	}
	p, err := r.posts.FindByPlatformID(ctx, channelID, platformID)
	if errors.Is(err, post.ErrNotFound) {
		return domain.ReplyPending, nil
	}
	if err != nil {
		return 0, storeErr(err, "failed to look up reply target")
	}
	return p.ID, nil
}

func (r *Resolver) ForwardedChannel(ctx context.Context, platform, platformID string, hint *domain.Channel) (int64, error) {
	candidate := &domain.Channel{}
	if hint != nil {
		*candidate = *hint
	}
	key := platform + "/" + platformID
	if platformID == "" {
		// Sources that only expose the forwarding account's handle.
		key = platform + "/@" + domain.NormalizeScreenName(candidate.ScreenName)
	}
	if id, ok := r.forwarded.Get(key); ok {
		return id, nil
	}

	candidate.Platform = platform
	candidate.PlatformID = platformID
	candidate.Source = domain.SourceForwarded
	if candidate.Category == "" {
		candidate.Category = string(domain.SourceForwarded)
	}

	c, err := r.writer.Channel(ctx, candidate)
	if err != nil {
		return 0, err
	}
	r.forwarded.Add(key, c.ID)
	return c.ID, nil
}

func (r *Resolver) MentionedChannel(ctx context.Context, platform, screenName, url string) (int64, error) {
	name := domain.NormalizeScreenName(screenName)
	if name == "" {
		return 0, errors.Wrap(errors.ErrInvalidInput, "empty mention")
	}
	key := platform + "/" + name
	if id, ok := r.mentioned.Get(key); ok {
		return id, nil
	}

	c, err := r.writer.Channel(ctx, &domain.Channel{
		Platform:   platform,
		ScreenName: screenName,
		URL:        url,
		Category:   string(domain.SourceMentioned),
		Source:     domain.SourceMentioned,
	})
	if err != nil {
		return 0, err
	}
	r.mentioned.Add(key, c.ID)
	return c.ID, nil
}

func (r *Resolver) Channel(ctx context.Context, id int64) (*domain.Channel, error) {
	if c, ok := r.byID.Get(id); ok {
		return c, nil
	}
	c, err := r.channels.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, channel.ErrNotFound) {
			return nil, err
		}
		return nil, storeErr(err, "failed to load channel")
	}
	r.byID.Add(id, c)
	return c, nil
}

func (r *Resolver) Enrich(p *domain.Post) {
	r.enricher.Apply(p)
}
