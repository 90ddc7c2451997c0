package fx

import (
	"github.com/orgball2608/channel-archiver/internal/repositories/channel"
	"github.com/orgball2608/channel-archiver/internal/repositories/channelinfo"
	"github.com/orgball2608/channel-archiver/internal/repositories/media"
	"github.com/orgball2608/channel-archiver/internal/repositories/post"
	"github.com/orgball2608/channel-archiver/internal/repositories/rawchannelinfo"
	"github.com/orgball2608/channel-archiver/internal/repositories/rawpost"
	"go.uber.org/fx"
)

var Module = fx.Options(
	channel.Module,
	rawpost.Module,
	rawchannelinfo.Module,
	post.Module,
	channelinfo.Module,
	media.Module,
)
