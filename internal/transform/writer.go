package transform

import (
	"context"
	"fmt"
	"time"

	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/internal/repositories/channel"
	"github.com/orgball2608/channel-archiver/internal/repositories/channelinfo"
	"github.com/orgball2608/channel-archiver/internal/repositories/media"
	"github.com/orgball2608/channel-archiver/internal/repositories/post"
	"github.com/orgball2608/channel-archiver/pkg/errors"
	"github.com/orgball2608/channel-archiver/pkg/logger"
)

func storeErr(err error, msg string) error {
	return errors.WrapWithCode(err, errors.CodeStore, msg)
}

// Writer is the Inserter handed to plugins during one run. It is not safe for concurrent use.
type Writer struct {
	channels channel.Repository
	posts    post.Repository
	media    media.Repository
	infos    channelinfo.Repository
	logger   logger.Logger
	now      func() time.Time

	flushSize int
	buffer    []*domain.Post
}

var _ Inserter = (*Writer)(nil)

func NewWriter(
	channels channel.Repository,
	posts post.Repository,
	mediaRepo media.Repository,
	infos channelinfo.Repository,
	flushSize int,
	log logger.Logger,
) *Writer {
	if flushSize < 1 {
		flushSize = 1
	}
	return &Writer{
		channels:  channels,
		posts:     posts,
		media:     mediaRepo,
		infos:     infos,
		logger:    log.WithComponent("TransformWriter"),
		now:       time.Now,
		flushSize: flushSize,
	}
}

func (w *Writer) Channel(ctx context.Context, c *domain.Channel) (*domain.Channel, error) {
	if !c.HasIdentity() {
		return nil, errors.Wrap(errors.ErrInvalidInput, "channel has no url, platform id or screen-name")
	}
	if c.Source == "" {
		c.Source = domain.SourceResearcher
	}

	// A create that loses a race resolves to the winner on the second attempt.
	for attempt := 0; attempt < 2; attempt++ {
		existing, err := w.channels.FindByIdentity(ctx, c)
		switch {
		case err == nil:
			stored := *existing
			if !existing.Merge(c) {
				return existing, nil
			}
			err := w.channels.Update(ctx, existing)
			switch {
			case err == nil:
				w.logger.Debug("Merged channel", "channel_id", existing.ID, "source", existing.Source)
				return existing, nil
			case errors.Is(err, channel.ErrAlreadyExists):
				// The candidate's keys point at more than one stored channel. The stored row wins.
				w.logger.Warn("Channel keys collide with another channel, keeping stored row",
					"channel_id", stored.ID, "screen_name", c.ScreenName, "platform_id", c.PlatformID, "url", c.URL)
				return &stored, nil
			default:
				return nil, storeErr(err, "failed to update channel")
			}
		case !errors.Is(err, channel.ErrNotFound):
			return nil, storeErr(err, "failed to look up channel")
		}

		err = w.channels.Create(ctx, c)
		if err == nil {
			w.logger.Info("Added channel", "channel_id", c.ID, "platform", c.Platform, "source", c.Source,
				"screen_name", c.ScreenName, "platform_id", c.PlatformID)
			return c, nil
		}
		if !errors.Is(err, channel.ErrAlreadyExists) {
			return nil, storeErr(err, "failed to create channel")
		}
	}
	return nil, errors.WrapWithCode(channel.ErrAlreadyExists, errors.CodeConflict,
		fmt.Sprintf("channel %q kept conflicting", c.ScreenName))
}

func (w *Writer) Post(ctx context.Context, p *domain.Post) error {
	if p.RawID == 0 {
		return errors.Wrap(errors.ErrInvalidInput, "post without raw capture")
	}
	if p.TransformedAt.IsZero() {
		p.TransformedAt = w.now()
	}
	w.buffer = append(w.buffer, p)
	if len(w.buffer) >= w.flushSize {
		return w.Flush(ctx)
	}
	return nil
}

func (w *Writer) Flush(ctx context.Context) error {
	if len(w.buffer) == 0 {
		return nil
	}
	batch := w.buffer
	w.buffer = nil
	if err := w.posts.CreateBatch(ctx, batch); err != nil {
		return storeErr(err, "failed to write posts")
	}
	skipped := 0
	for _, p := range batch {
		if p.ID == 0 {
			skipped++
		}
	}
	if skipped > 0 {
		w.logger.Debug("Posts already transformed", "skipped", skipped)
	}
	return nil
}

// Pending reports how many posts wait for the next flush.
func (w *Writer) Pending() int {
	return len(w.buffer)
}

func (w *Writer) Media(ctx context.Context, m *domain.Media) error {
	if m.TransformedAt.IsZero() {
		m.TransformedAt = w.now()
	}
	err := w.media.Create(ctx, m)
	if errors.Is(err, media.ErrAlreadyExists) {
		return nil
	}
	if err != nil {
		return storeErr(err, "failed to write media")
	}
	return nil
}

func (w *Writer) ChannelInfo(ctx context.Context, info *domain.ChannelInfo) error {
	if info.TransformedAt.IsZero() {
		info.TransformedAt = w.now()
	}
	err := w.infos.Create(ctx, info)
	if errors.Is(err, channelinfo.ErrAlreadyExists) {
		return nil
	}
	if err != nil {
		return storeErr(err, "failed to write channel info")
	}
	return nil
}
