package syncer

import (
	"context"
	"fmt"
	"sync"

	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/internal/repositories/rawpost"
	"github.com/orgball2608/channel-archiver/pkg/errors"
	"github.com/panjf2000/ants/v2"
)

type SweepOptions struct {
	// Chronological processes the backlog oldest first instead of in random order.
	Chronological bool
}

// sweep holds the state of one SweepUnarchivedMedia pass.
// ErrMediaUnresolved marks a capture that still has media left to archive after a sweep.
var ErrMediaUnresolved = errors.New("media unresolved")

type sweep struct {
	mu     sync.Mutex
	report *domain.Report
	// retained are captures still unresolved after an attempt in this pass.
	retained []int64
	fatal    error
}

func (w *sweep) add(res domain.ItemResult, retain int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.report.Add(res)
	if retain != 0 {
		w.retained = append(w.retained, retain)
	}
}

func (w *sweep) fail(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fatal == nil {
		w.fatal = err
	}
}

func (w *sweep) err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fatal
}

// SweepUnarchivedMedia completes the archive maps of captures whose media sweep is still open.
// Each capture is attempted at most once per pass, so entries that keep failing wait for the
// next pass.
func (s *Syncer) SweepUnarchivedMedia(ctx context.Context, opts SweepOptions) (*domain.Report, error) {
	w := &sweep{report: domain.NewReport("archive-media")}
	defer w.report.Finish()

	if s.settings.RetryTooLarge {
		n, err := s.raws.ReopenTooLarge(ctx)
		if err != nil {
			return w.report, storeErr(err, "failed to reopen oversized media")
		}
		s.logger.Info("Reopened oversized media", "captures", n)
	}

	var pool *ants.Pool
	if s.settings.SweepWorkers > 1 {
		p, err := ants.NewPool(s.settings.SweepWorkers, ants.WithPreAlloc(true))
		if err != nil {
			return w.report, fmt.Errorf("failed to create sweep pool: %w", err)
		}
		defer p.Release()
		pool = p
	}

	for s.settings.SweepMaxRounds <= 0 || w.report.Rounds < s.settings.SweepMaxRounds {
		if err := ctx.Err(); err != nil {
			return w.report, err
		}

		w.mu.Lock()
		exclude := append([]int64(nil), w.retained...)
		w.mu.Unlock()

		batch, err := s.raws.ListUnarchived(ctx, rawpost.UnarchivedQuery{
			Limit:         s.settings.SweepBatch,
			Chronological: opts.Chronological,
			ExcludeIDs:    exclude,
		})
		if err != nil {
			return w.report, storeErr(err, "failed to list unarchived captures")
		}
		if len(batch) == 0 {
			break
		}
		w.report.Rounds++

		if pool == nil {
			for _, raw := range batch {
				s.sweepOne(ctx, w, raw)
				if w.err() != nil {
					break
				}
			}
		} else {
			s.sweepConcurrently(ctx, pool, w, batch)
		}

		if err := w.err(); err != nil {
			return w.report, err
		}
	}

	s.logger.Info("Media sweep finished", "summary", w.report.Summary())
	return w.report, nil
}

func (s *Syncer) sweepConcurrently(ctx context.Context, pool *ants.Pool, w *sweep, batch []*domain.RawPost) {
	var wg sync.WaitGroup
	for _, raw := range batch {
		wg.Add(1)
		rawToProcess := raw

		err := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil || w.err() != nil {
				return
			}
			s.sweepOne(ctx, w, rawToProcess)
		})
		if err != nil {
			wg.Done()
			s.logger.Error("Failed to submit capture to sweep pool", "raw_id", rawToProcess.ID, "error", err)
			w.add(domain.Failed("media", fmt.Sprintf("raw %d", rawToProcess.ID), err), rawToProcess.ID)
		}
	}
	wg.Wait()
}

func (s *Syncer) sweepOne(ctx context.Context, w *sweep, raw *domain.RawPost) {
	key := fmt.Sprintf("raw %d", raw.ID)
	log := s.logger.With("raw_id", raw.ID, "scraper", raw.Scraper)

	plugin, err := s.sources.ForScraper(raw.Scraper)
	if err != nil {
		log.Warn("No source plugin for capture", "error", err)
		w.add(domain.Skipped("media", key, err.Error()), raw.ID)
		return
	}

	before := len(raw.ArchivedURLs.Unresolved())
	out, err := plugin.CompleteArchival(ctx, raw)
	if err != nil {
		log.Error("Archival failed", "error", err)
		w.add(domain.Failed("media", key, err), raw.ID)
		return
	}
	if out == nil {
		out = raw
	}

	pending := out.ArchivedURLs.Unresolved()
	complete := len(pending) == 0
	if complete {
		at := s.now()
		out.ArchivedAt = &at
	}
	if complete || len(pending) != before {
		if err := s.raws.UpdateArchive(ctx, raw.ID, out.ArchivedURLs, out.ArchivedAt); err != nil {
			w.fail(storeErr(err, "failed to update archive map"))
			return
		}
	}

	if !complete {
		log.Info("Capture still has unresolved media", "pending", len(pending))
		res := domain.Failed("media", key, errors.WrapWithCode(ErrMediaUnresolved, errors.CodeFetch, fmt.Sprintf("%d entries unresolved", len(pending))))
		res.Items = before - len(pending)
		w.add(res, raw.ID)
		return
	}
	w.add(domain.Succeeded("media", key, before), 0)
}
