package archive

import (
	"context"
	"net/http"

	"github.com/orgball2608/channel-archiver/internal/ratelimit"
	"github.com/orgball2608/channel-archiver/pkg/config"
	"github.com/orgball2608/channel-archiver/pkg/logger"
	"github.com/orgball2608/channel-archiver/pkg/retry"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In
	LC     fx.Lifecycle
	Logger logger.Logger
	Config *config.Config
}

// NewStore picks the minio store when an endpoint is configured and the local directory otherwise.
func NewStore(opts Opts) (Store, error) {
	c := opts.Config.Archive
	if c.Endpoint == "" {
		opts.Logger.Info("Archiving media to local directory", "dir", c.LocalDir)
		return NewLocalStore(c.LocalDir, c.PublicURL)
	}

	store, err := NewMinioStore(MinioOptions{
		Endpoint:  c.Endpoint,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Bucket:    c.Bucket,
		Region:    c.Region,
		UseSSL:    c.UseSSL,
		PublicURL: c.PublicURL,
	})
	if err != nil {
		return nil, err
	}

	opts.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return store.EnsureBucket(ctx)
		},
	})
	return store, nil
}

func RetryConfig(cfg *config.Config) retry.Config {
	rc := retry.DefaultConfig()
	rc.MaxRetries = cfg.Archive.Retries
	return rc
}

func NewLimiter(cfg *config.Config) *ratelimit.InMemoryLimiter {
	return ratelimit.NewPerSecond(cfg.HTTP.RequestsPerSecond, cfg.HTTP.Burst)
}

func NewFetcher(cfg *config.Config, limiter ratelimit.Limiter, log logger.Logger) *HTTPFetcher {
	return NewHTTPFetcher(HTTPFetcherOpts{
		Client:    &http.Client{Timeout: cfg.HTTP.Timeout},
		Limiter:   limiter,
		Logger:    log,
		Retry:     RetryConfig(cfg),
		MaxBytes:  cfg.Archive.MaxBytes,
		UserAgent: cfg.HTTP.UserAgent,
	})
}

func newArchiver(cfg *config.Config, fetcher Fetcher, store Store, log logger.Logger) *Archiver {
	return NewArchiver(fetcher, store, RetryConfig(cfg), log)
}

var Module = fx.Module("archive",
	fx.Provide(
		NewStore,
		fx.Annotate(NewLimiter, fx.As(new(ratelimit.Limiter))),
		fx.Annotate(NewFetcher, fx.As(new(Fetcher))),
		newArchiver,
	),
)
