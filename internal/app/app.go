package app

import (
	"github.com/orgball2608/channel-archiver/internal/archive"
	"github.com/orgball2608/channel-archiver/internal/notify"
	"github.com/orgball2608/channel-archiver/internal/platform/telegram"
	repositories "github.com/orgball2608/channel-archiver/internal/repositories/fx"
	"github.com/orgball2608/channel-archiver/internal/source"
	"github.com/orgball2608/channel-archiver/internal/syncer"
	"github.com/orgball2608/channel-archiver/internal/transform"
	"github.com/orgball2608/channel-archiver/pkg/config"
	"github.com/orgball2608/channel-archiver/pkg/logger"
	"github.com/orgball2608/channel-archiver/pkg/pgx"
	"go.uber.org/fx"
)

// Every platform contributes one source plugin and one transform plugin here.
func newSources(tg *telegram.Source) (*source.Registry, error) {
	return source.NewRegistry(tg)
}

func newTransforms(tg *telegram.Transformer) (*transform.Registry, error) {
	return transform.NewRegistry(tg)
}

var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		pgx.New,
	),
	repositories.Module,
	archive.Module,
	telegram.Module,
	fx.Provide(
		newSources,
		newTransforms,
	),
	syncer.Module,
	transform.Module,
	notify.Module,
	fx.Provide(newJobs),
)
