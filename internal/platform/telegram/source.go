package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/orgball2608/channel-archiver/internal/archive"
	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/internal/ratelimit"
	"github.com/orgball2608/channel-archiver/internal/source"
	"github.com/orgball2608/channel-archiver/pkg/errors"
	"github.com/orgball2608/channel-archiver/pkg/logger"
	"github.com/orgball2608/channel-archiver/pkg/retry"
)

// ScraperName is recorded on every capture; the media sweep finds the plugin by it.
const ScraperName = "telegram-web/0.1"

// MediaArchiver is implemented by *archive.Archiver.
type MediaArchiver interface {
	ArchiveURL(ctx context.Context, namespace, sourceURL string) (string, error)
	Complete(ctx context.Context, namespace string, raw *domain.RawPost) (*domain.RawPost, error)
}

var _ MediaArchiver = (*archive.Archiver)(nil)

type SourceOpts struct {
	Client    *http.Client
	BaseURL   string
	Limiter   ratelimit.Limiter
	Archiver  MediaArchiver
	Retry     retry.Config
	MaxPages  int
	UserAgent string
	Logger    logger.Logger
}

// Source scrapes the public web preview of a channel.
type Source struct {
	client    *http.Client
	base      *url.URL
	limiter   ratelimit.Limiter
	archiver  MediaArchiver
	retry     retry.Config
	maxPages  int
	userAgent string
	namespace string
	logger    logger.Logger
}

var _ source.Plugin = (*Source)(nil)

func NewSource(opts SourceOpts) (*Source, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid telegram web url: %w", err)
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.NewPerSecond(0, 1)
	}
	return &Source{
		client:    opts.Client,
		base:      base,
		limiter:   opts.Limiter,
		archiver:  opts.Archiver,
		retry:     opts.Retry,
		maxPages:  opts.MaxPages,
		userAgent: opts.UserAgent,
		namespace: archive.Namespace(ScraperName),
		logger:    opts.Logger.WithComponent("TelegramSource"),
	}, nil
}

func (s *Source) Name() string     { return ScraperName }
func (s *Source) Platform() string { return Platform }

// screenName takes the handle from the channel, falling back to its URL.
func screenName(c *domain.Channel) string {
	if name := domain.NormalizeScreenName(c.ScreenName); name != "" {
		return name
	}
	if c.URL != "" {
		return strings.ToLower(usernameFromLink(c.URL))
	}
	return ""
}

// CanHandle accepts public channels; groups have no web preview.
func (s *Source) CanHandle(c *domain.Channel) bool {
	return c.Platform == Platform && !c.Chat && screenName(c) != ""
}

func (s *Source) previewURL(name, before string) string {
	u := *s.base
	u.Path = strings.TrimRight(u.Path, "/") + "/s/" + name
	if before != "" {
		u.RawQuery = url.Values{"before": {before}}.Encode()
	}
	return u.String()
}

// get fetches a preview page, retrying transient failures.
func (s *Source) get(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte
	err := retry.Do(ctx, s.logger, "fetch "+rawURL, func() error {
		if err := s.limiter.Wait(ctx, s.base.Host); err != nil {
			return retry.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		if s.userAgent != "" {
			req.Header.Set("User-Agent", s.userAgent)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return retry.Permanent(errors.ErrChannelUnavailable)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		case resp.StatusCode >= 400:
			return retry.Permanent(fmt.Errorf("unexpected status %d", resp.StatusCode))
		}
		// Channels without a preview redirect to the landing page.
		if !strings.Contains(resp.Request.URL.Path, "/s/") {
			return retry.Permanent(errors.ErrChannelUnavailable)
		}

		body, err = io.ReadAll(resp.Body)
		return err
	}, s.retry)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeFetch, "failed to fetch preview")
	}
	return body, nil
}

func (s *Source) FetchPosts(ctx context.Context, c *domain.Channel, opts source.FetchOptions) (source.Stream, error) {
	name := screenName(c)
	if name == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "channel has no screen-name")
	}
	log := s.logger.With("channel_id", c.ID, "screen_name", name)

	paged := source.PagedOpts{Since: opts.Since, Until: opts.Until, MaxPages: s.maxPages}
	if opts.Until != nil {
		paged.Token = opts.Until.PlatformID
	}

	fetch := func(ctx context.Context, token string) (*source.Page, error) {
		body, err := s.get(ctx, s.previewURL(name, token))
		if err != nil {
			return nil, err
		}
		preview, err := parsePreview(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		log.Debug("Fetched preview page", "before", token, "messages", len(preview.Messages))

		page := &source.Page{}
		for _, m := range preview.Messages {
			raw, err := s.capture(ctx, c, m, opts.ArchiveMedia)
			if err != nil {
				return nil, err
			}
			page.Items = append(page.Items, raw)
		}
		if n := len(preview.Messages); n > 0 {
			if oldest := preview.Messages[n-1].ID; oldest > 1 {
				page.Next = strconv.FormatInt(oldest, 10)
			}
		}
		return page, nil
	}

	return source.NewPagedStream(fetch, paged), nil
}

func (s *Source) capture(ctx context.Context, c *domain.Channel, m *Message, archiveMedia bool) (*domain.RawPost, error) {
	urls := domain.ArchiveMap{}
	for _, u := range m.Media {
		urls.Add(u)
	}
	if archiveMedia && s.archiver != nil {
		for _, u := range urls.Unresolved() {
			archived, err := s.archiver.ArchiveURL(ctx, s.namespace, u)
			if err != nil {
				// Left for the media sweep.
				s.logger.Warn("Failed to archive media", "url", u, "error", err)
				continue
			}
			urls.Resolve(u, archived)
		}
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return &domain.RawPost{
		Scraper:      ScraperName,
		Platform:     Platform,
		ChannelID:    c.ID,
		PlatformID:   strconv.FormatInt(m.ID, 10),
		Date:         m.Date,
		RawData:      string(data),
		ArchivedURLs: urls,
	}, nil
}

func (s *Source) FetchProfile(ctx context.Context, c *domain.Channel) (*domain.RawChannelInfo, error) {
	name := screenName(c)
	if name == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "channel has no screen-name")
	}
	body, err := s.get(ctx, s.previewURL(name, ""))
	if err != nil {
		return nil, err
	}
	profile, ok, err := parseProfile(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.ErrChannelUnavailable
	}
	if id, err := strconv.ParseInt(c.PlatformID, 10, 64); err == nil {
		profile.FullChat.ID = id
		profile.Chats[0].ID = id
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return nil, err
	}
	return &domain.RawChannelInfo{
		Scraper:   ScraperName,
		Platform:  Platform,
		ChannelID: c.ID,
		RawData:   string(data),
	}, nil
}

func (s *Source) CompleteArchival(ctx context.Context, raw *domain.RawPost) (*domain.RawPost, error) {
	if s.archiver == nil {
		return raw, nil
	}
	return s.archiver.Complete(ctx, s.namespace, raw)
}
