package telegram

import (
	"net/http"

	"github.com/orgball2608/channel-archiver/internal/archive"
	"github.com/orgball2608/channel-archiver/internal/ratelimit"
	"github.com/orgball2608/channel-archiver/pkg/config"
	"github.com/orgball2608/channel-archiver/pkg/logger"
	"go.uber.org/fx"
)

func newSource(cfg *config.Config, limiter ratelimit.Limiter, archiver *archive.Archiver, log logger.Logger) (*Source, error) {
	return NewSource(SourceOpts{
		Client:    &http.Client{Timeout: cfg.HTTP.Timeout},
		BaseURL:   cfg.Telegram.WebURL,
		Limiter:   limiter,
		Archiver:  archiver,
		Retry:     archive.RetryConfig(cfg),
		MaxPages:  cfg.Telegram.MaxPages,
		UserAgent: cfg.HTTP.UserAgent,
		Logger:    log,
	})
}

func newTransformer(cfg *config.Config, log logger.Logger) *Transformer {
	return NewTransformer(cfg.Telegram.WebURL, log)
}

var Module = fx.Module("telegram",
	fx.Provide(
		newSource,
		newTransformer,
	),
)
