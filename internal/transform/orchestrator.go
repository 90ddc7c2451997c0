package transform

import (
	"context"
	"fmt"
	"time"

	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/internal/enrich"
	"github.com/orgball2608/channel-archiver/internal/repositories"
	"github.com/orgball2608/channel-archiver/internal/repositories/channel"
	"github.com/orgball2608/channel-archiver/internal/repositories/channelinfo"
	"github.com/orgball2608/channel-archiver/internal/repositories/media"
	"github.com/orgball2608/channel-archiver/internal/repositories/post"
	"github.com/orgball2608/channel-archiver/internal/repositories/rawchannelinfo"
	"github.com/orgball2608/channel-archiver/internal/repositories/rawpost"
	"github.com/orgball2608/channel-archiver/pkg/config"
	"github.com/orgball2608/channel-archiver/pkg/errors"
	"github.com/orgball2608/channel-archiver/pkg/logger"
)

type Settings struct {
	Batch     uint64
	FlushSize int
	CacheSize int
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Batch:     cfg.Transform.Batch,
		FlushSize: cfg.Transform.FlushSize,
		CacheSize: cfg.Transform.CacheSize,
	}
}

type Stores struct {
	Channels     channel.Repository
	RawPosts     rawpost.Repository
	RawInfos     rawchannelinfo.Repository
	Posts        post.Repository
	ChannelInfos channelinfo.Repository
	Media        media.Repository
}

// Orchestrator turns raw captures into normalized rows in watermark-ordered batches.
type Orchestrator struct {
	plugins  *Registry
	enricher *enrich.Registry
	hydrator Hydrator
	stores   Stores
	settings Settings
	logger   logger.Logger
	now      func() time.Time
}

func NewOrchestrator(plugins *Registry, enricher *enrich.Registry, hydrator Hydrator, stores Stores, settings Settings, log logger.Logger) *Orchestrator {
	if settings.Batch == 0 {
		settings.Batch = 1000
	}
	if settings.FlushSize < 1 {
		settings.FlushSize = 100
	}
	return &Orchestrator{
		plugins:  plugins,
		enricher: enricher,
		hydrator: hydrator,
		stores:   stores,
		settings: settings,
		logger:   log.WithComponent("TransformOrchestrator"),
		now:      time.Now,
	}
}

// run holds the per-run writer and resolver. Caches never outlive it.
type run struct {
	writer   *Writer
	resolver *Resolver
}

func (o *Orchestrator) newRun() (*run, error) {
	w := NewWriter(o.stores.Channels, o.stores.Posts, o.stores.Media, o.stores.ChannelInfos, o.settings.FlushSize, o.logger)
	w.now = o.now
	r, err := NewResolver(w, o.stores.Channels, o.stores.Posts, o.enricher, o.settings.CacheSize)
	if err != nil {
		return nil, err
	}
	return &run{writer: w, resolver: r}, nil
}

// itemErr sorts a plugin error into an item failure or a fatal store error.
func itemErr(kind, key string, err error) (domain.ItemResult, error) {
	if errors.IsStore(err) {
		return domain.ItemResult{}, err
	}
	return domain.Failed(kind, key, err), nil
}

// RunUntransformed transforms every raw post without a post, oldest first. Rows failing to
// transform are reported and left for the next run.
func (o *Orchestrator) RunUntransformed(ctx context.Context, filter domain.ChannelFilter) (*domain.Report, error) {
	return o.runUntransformed(ctx, domain.NewReport("transform"), filter)
}

func (o *Orchestrator) runUntransformed(ctx context.Context, report *domain.Report, filter domain.ChannelFilter) (*domain.Report, error) {
	rn, err := o.newRun()
	if err != nil {
		return nil, err
	}

	var wm repositories.Watermark
	for {
		if err := ctx.Err(); err != nil {
			return report.Finish(), err
		}
		batch, err := o.stores.RawPosts.ListUntransformed(ctx, rawpost.UntransformedQuery{
			After:  wm,
			Limit:  o.settings.Batch,
			Filter: filter,
		})
		if err != nil {
			return report.Finish(), storeErr(err, "failed to list untransformed captures")
		}
		if len(batch) == 0 {
			break
		}
		report.Rounds++
		o.logger.Info("Transforming batch", "round", report.Rounds, "size", len(batch), "from", batch[0].Date)

		for _, raw := range batch {
			wm = wm.Advance(raw.Date, raw.ID)
			res, err := o.transformOne(ctx, rn, raw)
			if err != nil {
				return report.Finish(), err
			}
			report.Add(res)
		}
		if err := rn.writer.Flush(ctx); err != nil {
			return report.Finish(), err
		}
	}

	report.Finish()
	o.logger.Info("Transform finished", "summary", report.Summary())
	return report, nil
}

func (o *Orchestrator) transformOne(ctx context.Context, rn *run, raw *domain.RawPost) (domain.ItemResult, error) {
	key := fmt.Sprintf("raw %d", raw.ID)
	plugin, err := o.plugins.ForPlatform(raw.Platform)
	if err != nil {
		o.logger.Warn("No transformer", "raw_id", raw.ID, "platform", raw.Platform)
		return domain.Skipped("raw_post", key, err.Error()), nil
	}
	if !plugin.CanHandle(raw) {
		return domain.Skipped("raw_post", key, fmt.Sprintf("%s cannot handle scraper %q", plugin.Name(), raw.Scraper)), nil
	}

	if err := plugin.Transform(ctx, raw, rn.writer, rn.resolver); err != nil {
		o.logger.Warn("Failed to transform capture", "raw_id", raw.ID, "error", err)
		return itemErr("raw_post", key, err)
	}
	return domain.Succeeded("raw_post", key, 1), nil
}

// RunUntransformedInfo transforms profile snapshots without a channel_info row.
func (o *Orchestrator) RunUntransformedInfo(ctx context.Context) (*domain.Report, error) {
	report := domain.NewReport("transform-info")
	rn, err := o.newRun()
	if err != nil {
		return nil, err
	}

	var wm repositories.Watermark
	for {
		batch, err := o.stores.RawInfos.ListUntransformed(ctx, wm, o.settings.Batch)
		if err != nil {
			return report.Finish(), storeErr(err, "failed to list untransformed profiles")
		}
		if len(batch) == 0 {
			break
		}
		report.Rounds++
		for _, raw := range batch {
			wm = wm.Advance(raw.CapturedAt, raw.ID)
			res, err := o.transformProfile(ctx, rn, raw)
			if err != nil {
				return report.Finish(), err
			}
			report.Add(res)
		}
		if err := rn.writer.Flush(ctx); err != nil {
			return report.Finish(), err
		}
	}

	report.Finish()
	o.logger.Info("Profile transform finished", "summary", report.Summary())
	return report, nil
}

func (o *Orchestrator) transformProfile(ctx context.Context, rn *run, raw *domain.RawChannelInfo) (domain.ItemResult, error) {
	key := fmt.Sprintf("raw_channel_info %d", raw.ID)
	plugin, err := o.plugins.ForPlatform(raw.Platform)
	if err != nil {
		return domain.Skipped("raw_channel_info", key, err.Error()), nil
	}
	ch, err := o.stores.Channels.GetByID(ctx, raw.ChannelID)
	if errors.Is(err, channel.ErrNotFound) {
		return domain.Skipped("raw_channel_info", key, "channel is gone"), nil
	}
	if err != nil {
		return domain.ItemResult{}, storeErr(err, "failed to load channel")
	}
	if err := plugin.TransformProfile(ctx, raw, rn.writer, rn.resolver, ch); err != nil {
		o.logger.Warn("Failed to transform profile", "raw_channel_info_id", raw.ID, "error", err)
		return itemErr("raw_channel_info", key, err)
	}
	return domain.Succeeded("raw_channel_info", key, 1), nil
}

// RunUntransformedMedia writes media rows for transformed posts with archived assets, most
// recent first.
func (o *Orchestrator) RunUntransformedMedia(ctx context.Context) (*domain.Report, error) {
	report := domain.NewReport("transform-media")
	rn, err := o.newRun()
	if err != nil {
		return nil, err
	}

	wm := repositories.Watermark{Desc: true}
	for {
		batch, err := o.stores.RawPosts.ListWithoutMedia(ctx, wm, o.settings.Batch)
		if err != nil {
			return report.Finish(), storeErr(err, "failed to list captures without media")
		}
		if len(batch) == 0 {
			break
		}
		report.Rounds++
		for _, raw := range batch {
			wm = wm.Advance(raw.Date, raw.ID)
			res, err := o.transformMedia(ctx, rn, raw)
			if err != nil {
				return report.Finish(), err
			}
			report.Add(res)
		}
	}

	report.Finish()
	o.logger.Info("Media transform finished", "summary", report.Summary())
	return report, nil
}

func (o *Orchestrator) transformMedia(ctx context.Context, rn *run, raw *domain.RawPost) (domain.ItemResult, error) {
	key := fmt.Sprintf("raw %d", raw.ID)
	plugin, err := o.plugins.ForPlatform(raw.Platform)
	if err != nil {
		return domain.Skipped("media", key, err.Error()), nil
	}
	p, err := o.stores.Posts.GetByRawID(ctx, raw.ID)
	if errors.Is(err, post.ErrNotFound) {
		return domain.Skipped("media", key, "capture is not transformed"), nil
	}
	if err != nil {
		return domain.ItemResult{}, storeErr(err, "failed to load post")
	}
	if err := plugin.TransformMedia(ctx, raw, p, rn.writer); err != nil {
		o.logger.Warn("Failed to transform media", "raw_id", raw.ID, "error", err)
		return itemErr("media", key, err)
	}
	return domain.Succeeded("media", key, len(raw.ArchivedURLs)-len(raw.ArchivedURLs.TooLarge())), nil
}

// Retransform deletes the normalized posts of the selected channels and transforms their
// captures again. An empty filter is refused.
func (o *Orchestrator) Retransform(ctx context.Context, filter domain.ChannelFilter) (*domain.Report, error) {
	if len(filter.IDs) == 0 && filter.Platform == "" && filter.Category == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "retransform needs a channel, platform or category")
	}
	deleted, err := o.stores.Posts.DeleteForChannels(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "failed to delete posts")
	}
	o.logger.Info("Deleted posts for retransform", "deleted", deleted, "channels", filter.IDs,
		"platform", filter.Platform, "category", filter.Category)

	report, err := o.runUntransformed(ctx, domain.NewReport("retransform"), filter)
	if err != nil {
		return report, err
	}
	mediaReport, err := o.RunUntransformedMedia(ctx)
	if err != nil {
		return report, err
	}
	report.Items += mediaReport.Items
	return report, nil
}
