package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/internal/repositories/channel"
	"github.com/orgball2608/channel-archiver/internal/repositories/rawchannelinfo"
	"github.com/orgball2608/channel-archiver/internal/repositories/rawpost"
	"github.com/orgball2608/channel-archiver/internal/source"
	"github.com/orgball2608/channel-archiver/pkg/config"
	"github.com/orgball2608/channel-archiver/pkg/errors"
	"github.com/orgball2608/channel-archiver/pkg/logger"
	"go.uber.org/fx"
)

type Settings struct {
	SweepBatch        uint64
	SweepWorkers      int
	SweepMaxRounds    int
	BackfillMaxRounds int
	RetryTooLarge     bool
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		SweepBatch:        cfg.Sync.SweepBatch,
		SweepWorkers:      cfg.Sync.SweepWorkers,
		SweepMaxRounds:    cfg.Sync.SweepMaxRounds,
		BackfillMaxRounds: cfg.Sync.BackfillMaxRounds,
		RetryTooLarge:     cfg.Archive.RetryTooLarge,
	}
}

type Opts struct {
	fx.In
	Logger   logger.Logger
	Config   *config.Config
	Sources  *source.Registry
	Channels channel.Repository
	RawPosts rawpost.Repository
	RawInfos rawchannelinfo.Repository
}

// Syncer drives source plugins and persists what they return.
type Syncer struct {
	sources  *source.Registry
	channels channel.Repository
	raws     rawpost.Repository
	rawInfos rawchannelinfo.Repository
	settings Settings
	logger   logger.Logger
	now      func() time.Time
}

func New(opts Opts) *Syncer {
	return NewSyncer(opts.Sources, opts.Channels, opts.RawPosts, opts.RawInfos, SettingsFromConfig(opts.Config), opts.Logger)
}

func NewSyncer(
	sources *source.Registry,
	channels channel.Repository,
	raws rawpost.Repository,
	rawInfos rawchannelinfo.Repository,
	settings Settings,
	log logger.Logger,
) *Syncer {
	if settings.SweepWorkers < 1 {
		settings.SweepWorkers = 1
	}
	if settings.SweepBatch == 0 {
		settings.SweepBatch = 100
	}
	if settings.BackfillMaxRounds < 1 {
		settings.BackfillMaxRounds = 1
	}
	return &Syncer{
		sources:  sources,
		channels: channels,
		raws:     raws,
		rawInfos: rawInfos,
		settings: settings,
		logger:   log.WithComponent("Syncer"),
		now:      time.Now,
	}
}

type SyncOptions struct {
	ArchiveMedia bool
	// Backfill walks history older than the oldest stored capture instead of newer items.
	Backfill bool
}

func storeErr(err error, msg string) error {
	return errors.WrapWithCode(err, errors.CodeStore, msg)
}

// SyncChannel fetches what is new for one channel and stores every capture as soon as the
// plugin yields it. The returned error is non-nil only for store failures.
func (s *Syncer) SyncChannel(ctx context.Context, ch *domain.Channel, opts SyncOptions) (domain.ItemResult, error) {
	key := fmt.Sprintf("channel %d", ch.ID)
	log := s.logger.With("channel_id", ch.ID, "platform", ch.Platform)

	plugin, err := s.sources.ForChannel(ch)
	if err != nil {
		log.Warn("No source plugin for channel", "error", err)
		return domain.Skipped("channel", key, err.Error()), nil
	}

	fetch := source.FetchOptions{ArchiveMedia: opts.ArchiveMedia}
	if opts.Backfill {
		oldest, err := s.raws.Oldest(ctx, ch.ID)
		if err != nil && !errors.Is(err, rawpost.ErrNotFound) {
			return domain.ItemResult{}, storeErr(err, "failed to load oldest capture")
		}
		if oldest == nil {
			return domain.Skipped("channel", key, "nothing stored to backfill from"), nil
		}
		fetch.Until = oldest
	} else {
		newest, err := s.raws.Newest(ctx, ch.ID)
		if err != nil && !errors.Is(err, rawpost.ErrNotFound) {
			return domain.ItemResult{}, storeErr(err, "failed to load newest capture")
		}
		fetch.Since = newest
	}

	stored := 0
	for round := 1; ; round++ {
		p, err := s.consume(ctx, plugin, ch, fetch)
		stored += p.stored
		if err != nil {
			return domain.ItemResult{}, err
		}

		if errors.Is(p.end, source.ErrMorePages) {
			// Only backfill may stop short. Forward sync runs to the cursor or the end of the source.
			switch {
			case p.oldest == nil:
				err := errors.Wrap(source.ErrMorePages, "page budget spent without reaching the cursor")
				log.Error("Channel sync stalled", "rounds", round, "stored", stored)
				r := domain.Failed("channel", key, err)
				r.Items = stored
				return r, nil
			case opts.Backfill && round >= s.settings.BackfillMaxRounds:
				log.Info("Backfill round limit reached", "rounds", round)
			default:
				fetch.Until = p.oldest
				continue
			}
			break
		}
		if errors.IsChannelUnavailable(p.end) {
			if err := s.channels.MarkUnavailable(ctx, ch.ID, s.now()); err != nil {
				return domain.ItemResult{}, storeErr(err, "failed to flag channel")
			}
			log.Warn("Channel unavailable, flagged", "error", p.end)
			return domain.Skipped("channel", key, "channel unavailable"), nil
		}
		if p.end != nil {
			log.Error("Channel sync failed", "stored", stored, "error", p.end)
			r := domain.Failed("channel", key, p.end)
			r.Items = stored
			return r, nil
		}
		break
	}

	log.Info("Channel synced", "stored", stored)
	return domain.Succeeded("channel", key, stored), nil
}

// pass is the outcome of one FetchPosts invocation.
type pass struct {
	stored int
	oldest *domain.RawPost
	// end is nil when the stream reached the cursor or the end of the source.
	end error
}

// consume drains one FetchPosts invocation. Only store failures are returned as errors.
func (s *Syncer) consume(ctx context.Context, plugin source.Plugin, ch *domain.Channel, opts source.FetchOptions) (pass, error) {
	var p pass
	stream, err := plugin.FetchPosts(ctx, ch, opts)
	if err != nil {
		p.end = err
		return p, nil
	}
	defer stream.Close()

	for {
		raw, err := stream.Next(ctx)
		if err != nil {
			if !source.Terminal(err) || errors.Is(err, source.ErrMorePages) {
				p.end = err
			}
			return p, nil
		}

		raw.ChannelID = ch.ID
		raw.Platform = ch.Platform
		if raw.Scraper == "" {
			raw.Scraper = plugin.Name()
		}
		if raw.ArchivedURLs == nil {
			raw.ArchivedURLs = domain.ArchiveMap{}
		}
		if err := s.raws.Create(ctx, raw); err != nil {
			return p, storeErr(err, "failed to store capture")
		}
		p.stored++
		if p.oldest == nil || raw.Date.Before(p.oldest.Date) {
			p.oldest = raw
		}
	}
}

// SyncAll syncs every channel matching the filter. Channel failures are recorded in the
// report; a store failure stops the run.
func (s *Syncer) SyncAll(ctx context.Context, filter domain.ChannelFilter, opts SyncOptions) (*domain.Report, error) {
	op := "sync"
	if opts.Backfill {
		op = "backfill"
	}
	report := domain.NewReport(op)
	defer report.Finish()

	channels, err := s.channels.List(ctx, filter)
	if err != nil {
		return report, storeErr(err, "failed to list channels")
	}
	s.logger.Info("Syncing channels", "count", len(channels), "backfill", opts.Backfill)

	for _, ch := range channels {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res, err := s.SyncChannel(ctx, ch, opts)
		if err != nil {
			return report, err
		}
		report.Add(res)
	}
	report.Rounds = 1
	return report, nil
}

// SyncProfiles captures one profile snapshot per channel matching the filter.
func (s *Syncer) SyncProfiles(ctx context.Context, filter domain.ChannelFilter) (*domain.Report, error) {
	report := domain.NewReport("channel-info")
	defer report.Finish()

	channels, err := s.channels.List(ctx, filter)
	if err != nil {
		return report, storeErr(err, "failed to list channels")
	}

	for _, ch := range channels {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		key := fmt.Sprintf("channel %d", ch.ID)

		plugin, err := s.sources.ForChannel(ch)
		if err != nil {
			report.Add(domain.Skipped("profile", key, err.Error()))
			continue
		}

		info, err := plugin.FetchProfile(ctx, ch)
		switch {
		case errors.IsChannelUnavailable(err):
			if err := s.channels.MarkUnavailable(ctx, ch.ID, s.now()); err != nil {
				return report, storeErr(err, "failed to flag channel")
			}
			report.Add(domain.Skipped("profile", key, "channel unavailable"))
			continue
		case err != nil:
			s.logger.Error("Profile fetch failed", "channel_id", ch.ID, "error", err)
			report.Add(domain.Failed("profile", key, err))
			continue
		}

		info.ChannelID = ch.ID
		info.Platform = ch.Platform
		if info.Scraper == "" {
			info.Scraper = plugin.Name()
		}
		if err := s.rawInfos.Create(ctx, info); err != nil {
			return report, storeErr(err, "failed to store profile")
		}
		report.Add(domain.Succeeded("profile", key, 1))
	}
	report.Rounds = 1
	return report, nil
}
