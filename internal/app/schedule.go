package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-co-op/gocron/v2"
	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/internal/syncer"
)

type pass func(ctx context.Context) (*domain.Report, error)

type scheduledJob struct {
	name   string
	cron   string
	passes []pass
}

func (j *Jobs) scheduledJobs() []scheduledJob {
	all := domain.ChannelFilter{}
	return []scheduledJob{
		{
			name: "sync",
			cron: j.Config.Sync.Cron,
			passes: []pass{
				func(ctx context.Context) (*domain.Report, error) {
					return j.Syncer.SyncAll(ctx, all, syncer.SyncOptions{ArchiveMedia: true})
				},
				func(ctx context.Context) (*domain.Report, error) {
					return j.Syncer.SyncProfiles(ctx, all)
				},
			},
		},
		{
			name: "archive-media",
			cron: j.Config.Sync.SweepCron,
			passes: []pass{
				func(ctx context.Context) (*domain.Report, error) {
					return j.Syncer.SweepUnarchivedMedia(ctx, syncer.SweepOptions{})
				},
			},
		},
		{
			name: "transform",
			cron: j.Config.Transform.Cron,
			passes: []pass{
				func(ctx context.Context) (*domain.Report, error) {
					return j.Transform.RunUntransformed(ctx, all)
				},
				j.Transform.RunUntransformedInfo,
				j.Transform.RunUntransformedMedia,
				j.Transform.HydrateMedia,
			},
		},
	}
}

// runPasses runs passes in order and stops at the first fatal error.
func (j *Jobs) runPasses(ctx context.Context, name string, passes []pass) {
	for _, p := range passes {
		if ctx.Err() != nil {
			j.Logger.Info("Context cancelled, skipping remaining passes", "job", name)
			return
		}
		report, err := p(ctx)
		if j.Deliver(ctx, report, err) != nil {
			return
		}
	}
}

func (j *Jobs) newScheduler(ctx context.Context, jobs []scheduledJob) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	for _, sj := range jobs {
		if sj.cron == "" {
			j.Logger.Info("Job disabled", "job", sj.name)
			continue
		}
		_, err := scheduler.NewJob(
			gocron.CronJob(sj.cron, false),
			gocron.NewTask(func() {
				j.Logger.Info("Starting scheduled job", "job", sj.name)
				j.runPasses(ctx, sj.name, sj.passes)
			}),
			gocron.WithName(sj.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = scheduler.Shutdown()
			return nil, fmt.Errorf("failed to schedule %s job: %w", sj.name, err)
		}
	}
	return scheduler, nil
}

// Schedule runs the sync, sweep and transform passes on their cron schedules and serves
// /healthz until ctx is cancelled.
func Schedule(ctx context.Context, j *Jobs) error {
	scheduler, err := j.newScheduler(ctx, j.scheduledJobs())
	if err != nil {
		return err
	}

	srv := newHealthServer(j.Config.App.Port, j.Logger)
	serveErr := make(chan error, 1)
	go func() {
		j.Logger.Info(fmt.Sprintf("Starting server on %s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	scheduler.Start()
	j.Logger.Info("Scheduler started", "jobs", len(scheduler.Jobs()))

	select {
	case <-ctx.Done():
	case err = <-serveErr:
		j.Logger.Error("Health server failed", "error", err)
	}

	j.Logger.Info("Stopping scheduler")
	if serr := scheduler.Shutdown(); serr != nil {
		j.Logger.Error("Failed to shut down scheduler", "error", serr)
	}
	if serr := srv.Shutdown(context.Background()); serr != nil {
		j.Logger.Error("Failed to shut down health server", "error", serr)
	}
	return err
}
