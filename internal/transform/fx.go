package transform

import (
	"github.com/orgball2608/channel-archiver/internal/archive"
	"github.com/orgball2608/channel-archiver/internal/enrich"
	"github.com/orgball2608/channel-archiver/internal/repositories/channel"
	"github.com/orgball2608/channel-archiver/internal/repositories/channelinfo"
	"github.com/orgball2608/channel-archiver/internal/repositories/media"
	"github.com/orgball2608/channel-archiver/internal/repositories/post"
	"github.com/orgball2608/channel-archiver/internal/repositories/rawchannelinfo"
	"github.com/orgball2608/channel-archiver/internal/repositories/rawpost"
	"github.com/orgball2608/channel-archiver/pkg/config"
	"github.com/orgball2608/channel-archiver/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In
	Logger   logger.Logger
	Config   *config.Config
	Plugins  *Registry
	Enricher *enrich.Registry
	Hydrator Hydrator `optional:"true"`

	Channels     channel.Repository
	RawPosts     rawpost.Repository
	RawInfos     rawchannelinfo.Repository
	Posts        post.Repository
	ChannelInfos channelinfo.Repository
	Media        media.Repository
}

func New(opts Opts) *Orchestrator {
	return NewOrchestrator(opts.Plugins, opts.Enricher, opts.Hydrator, Stores{
		Channels:     opts.Channels,
		RawPosts:     opts.RawPosts,
		RawInfos:     opts.RawInfos,
		Posts:        opts.Posts,
		ChannelInfos: opts.ChannelInfos,
		Media:        opts.Media,
	}, SettingsFromConfig(opts.Config), opts.Logger)
}

func newHydrator(fetcher archive.Fetcher) *ProbeHydrator {
	return NewProbeHydrator(fetcher, nil)
}

var Module = fx.Module("transform",
	fx.Provide(
		func() *enrich.Registry { return enrich.NewRegistry() },
		fx.Annotate(newHydrator, fx.As(new(Hydrator))),
		New,
	),
)
