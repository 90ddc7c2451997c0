package app

import (
	"context"
	"time"

	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/internal/notify"
	"github.com/orgball2608/channel-archiver/internal/syncer"
	"github.com/orgball2608/channel-archiver/internal/transform"
	"github.com/orgball2608/channel-archiver/pkg/config"
	"github.com/orgball2608/channel-archiver/pkg/logger"
	"go.uber.org/fx"
)

type JobsOpts struct {
	fx.In

	Config    *config.Config
	Logger    logger.Logger
	Syncer    *syncer.Syncer
	Transform *transform.Orchestrator
	Notifier  notify.Notifier
}

// Jobs is what a command gets to work with once the graph has started.
type Jobs struct {
	Config    *config.Config
	Logger    logger.Logger
	Syncer    *syncer.Syncer
	Transform *transform.Orchestrator
	Notifier  notify.Notifier
}

func newJobs(opts JobsOpts) *Jobs {
	return &Jobs{
		Config:    opts.Config,
		Logger:    opts.Logger,
		Syncer:    opts.Syncer,
		Transform: opts.Transform,
		Notifier:  opts.Notifier,
	}
}

// Deliver logs a finished report, hands it to the notifier and passes err through.
// Notification failures are logged only.
func (j *Jobs) Deliver(ctx context.Context, report *domain.Report, err error) error {
	if report != nil {
		log := j.Logger.With("operation", report.Operation)
		if report.Failed > 0 {
			log.Warn("Run finished with failures", "summary", report.Summary())
		} else {
			log.Info("Run finished", "summary", report.Summary())
		}
		if nerr := j.Notifier.Notify(ctx, report); nerr != nil {
			log.Warn("Failed to deliver run report", "error", nerr)
		}
	}
	if err != nil {
		j.Logger.Error("Run aborted", "error", err)
	}
	return err
}

// Run starts the application graph, hands its jobs to fn and stops the graph again.
func Run(ctx context.Context, log logger.Logger, fn func(ctx context.Context, jobs *Jobs) error) error {
	var jobs *Jobs
	a := fx.New(
		fx.Logger(log),
		Module,
		fx.Populate(&jobs),
	)

	startCtx, cancel := context.WithTimeout(ctx, a.StartTimeout())
	defer cancel()
	if err := a.Start(startCtx); err != nil {
		return err
	}

	runErr := fn(ctx, jobs)

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStop()
	if err := a.Stop(stopCtx); err != nil && runErr == nil {
		return err
	}
	return runErr
}
