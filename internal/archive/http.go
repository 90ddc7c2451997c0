package archive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/orgball2608/channel-archiver/internal/ratelimit"
	"github.com/orgball2608/channel-archiver/pkg/errors"
	"github.com/orgball2608/channel-archiver/pkg/logger"
	"github.com/orgball2608/channel-archiver/pkg/retry"
)

type HTTPFetcherOpts struct {
	Client    *http.Client
	Limiter   ratelimit.Limiter
	Logger    logger.Logger
	Retry     retry.Config
	MaxBytes  int64
	UserAgent string
}

// HTTPFetcher downloads assets with bounded retries, a per-host rate limit and a size cap.
type HTTPFetcher struct {
	client    *http.Client
	limiter   ratelimit.Limiter
	logger    logger.Logger
	retry     retry.Config
	maxBytes  int64
	userAgent string
}

var _ Fetcher = (*HTTPFetcher)(nil)

func NewHTTPFetcher(opts HTTPFetcherOpts) *HTTPFetcher {
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.NewPerSecond(0, 1)
	}
	return &HTTPFetcher{
		client:    client,
		limiter:   limiter,
		logger:    opts.Logger.WithComponent("MediaFetcher"),
		retry:     opts.Retry,
		maxBytes:  opts.MaxBytes,
		userAgent: opts.UserAgent,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Blob, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, fmt.Sprintf("invalid media url %q", rawURL))
	}

	var blob *Blob
	err = retry.Do(ctx, f.logger, "fetch "+u.Host, func() error {
		if err := f.limiter.Wait(ctx, u.Host); err != nil {
			return retry.Permanent(err)
		}
		b, err := f.fetchOnce(ctx, rawURL)
		if err != nil {
			return err
		}
		blob = b
		return nil
	}, f.retry)
	if err != nil {
		return nil, err
	}
	return blob, nil
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, rawURL string) (*Blob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, retry.Permanent(fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode))
	}

	if f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		return nil, retry.Permanent(ErrTooLarge)
	}

	body := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return nil, retry.Permanent(ErrTooLarge)
	}

	return &Blob{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}
