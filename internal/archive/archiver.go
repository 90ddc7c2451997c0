package archive

import (
	"context"

	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/pkg/errors"
	"github.com/orgball2608/channel-archiver/pkg/logger"
	"github.com/orgball2608/channel-archiver/pkg/retry"
)

// Archiver moves remote assets into the Store. Source plugins use it while fetching and from
// CompleteArchival.
type Archiver struct {
	fetcher Fetcher
	store   Store
	retry   retry.Config
	logger  logger.Logger
}

func NewArchiver(fetcher Fetcher, store Store, retryCfg retry.Config, log logger.Logger) *Archiver {
	return &Archiver{
		fetcher: fetcher,
		store:   store,
		retry:   retryCfg,
		logger:  log.WithComponent("Archiver"),
	}
}

// ArchiveURL downloads and uploads one asset, returning the archived locator. Oversized assets
// are reported as domain.ArchiveTooLarge with a nil error.
func (a *Archiver) ArchiveURL(ctx context.Context, namespace, sourceURL string) (string, error) {
	blob, err := a.fetcher.Fetch(ctx, sourceURL)
	if errors.Is(err, ErrTooLarge) {
		a.logger.Info("Asset too large, skipping", "url", sourceURL)
		return domain.ArchiveTooLarge, nil
	}
	if err != nil {
		return "", errors.WrapWithCode(err, errors.CodeFetch, "failed to fetch asset")
	}

	key := Key(namespace, sourceURL, blob.ContentType)
	var archived string
	err = retry.Do(ctx, a.logger, "upload "+key, func() error {
		u, err := a.store.Put(ctx, blob.Data, blob.ContentType, key)
		if err != nil {
			return err
		}
		archived = u
		return nil
	}, a.retry)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.CodeUpload, "failed to upload asset")
	}
	return archived, nil
}

// Complete resolves the still-null entries of raw's archive map. It returns raw itself, without
// touching the network, when nothing is unresolved. Otherwise it returns a copy; entries that
// keep failing stay null for the next sweep.
func (a *Archiver) Complete(ctx context.Context, namespace string, raw *domain.RawPost) (*domain.RawPost, error) {
	pending := raw.ArchivedURLs.Unresolved()
	if len(pending) == 0 {
		return raw, nil
	}

	out := *raw
	out.ArchivedURLs = raw.ArchivedURLs.Clone()
	for _, u := range pending {
		if err := ctx.Err(); err != nil {
			return &out, err
		}
		archived, err := a.ArchiveURL(ctx, namespace, u)
		if err != nil {
			a.logger.Warn("Asset left unresolved", "raw_id", raw.ID, "url", u, "error", err)
			continue
		}
		out.ArchivedURLs.Resolve(u, archived)
	}
	return &out, nil
}
