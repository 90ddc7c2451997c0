package main

import (
	"context"

	"github.com/orgball2608/channel-archiver/internal/app"
	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/internal/syncer"
	"github.com/orgball2608/channel-archiver/pkg/config"
	"github.com/spf13/cobra"
)

func newInitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			return app.Migrate(cmd.Context(), cfg, bootLogger())
		},
	}
}

func newScrapeChannelsCmd() *cobra.Command {
	var (
		f     filterFlags
		media bool
	)
	cmd := &cobra.Command{
		Use:   "scrape-channels",
		Short: "Fetch everything newer than the latest stored capture of each channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, func(ctx context.Context, jobs *app.Jobs) (*domain.Report, error) {
				return jobs.Syncer.SyncAll(ctx, f.filter(), syncer.SyncOptions{ArchiveMedia: media})
			})
		},
	}
	f.bind(cmd, true)
	cmd.Flags().BoolVar(&media, "media", false, "Archive media while fetching")
	return cmd
}

func newScrapeChannelsOldCmd() *cobra.Command {
	var (
		f     filterFlags
		media bool
	)
	cmd := &cobra.Command{
		Use:   "scrape-channels-old",
		Short: "Backfill history older than the oldest stored capture of each channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, func(ctx context.Context, jobs *app.Jobs) (*domain.Report, error) {
				return jobs.Syncer.SyncAll(ctx, f.filter(), syncer.SyncOptions{ArchiveMedia: media, Backfill: true})
			})
		},
	}
	f.bind(cmd, true)
	cmd.Flags().BoolVar(&media, "media", false, "Archive media while fetching")
	return cmd
}

func newChannelInfoCmd() *cobra.Command {
	var f filterFlags
	cmd := &cobra.Command{
		Use:   "channel-info",
		Short: "Capture a profile snapshot of each channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, func(ctx context.Context, jobs *app.Jobs) (*domain.Report, error) {
				return jobs.Syncer.SyncProfiles(ctx, f.filter())
			})
		},
	}
	f.bind(cmd, true)
	return cmd
}

func newArchiveMediaCmd() *cobra.Command {
	var chronological bool
	cmd := &cobra.Command{
		Use:   "archive-media",
		Short: "Complete media archival of stored captures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, func(ctx context.Context, jobs *app.Jobs) (*domain.Report, error) {
				return jobs.Syncer.SweepUnarchivedMedia(ctx, syncer.SweepOptions{Chronological: chronological})
			})
		},
	}
	cmd.Flags().BoolVar(&chronological, "chronological", false, "Process the oldest captures first instead of in random order")
	return cmd
}

func newTransformCmd() *cobra.Command {
	var f filterFlags
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Normalize every raw capture that has no post yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, func(ctx context.Context, jobs *app.Jobs) (*domain.Report, error) {
				return jobs.Transform.RunUntransformed(ctx, f.filter())
			})
		},
	}
	f.bind(cmd, false)
	return cmd
}

func newTransformInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transform-info",
		Short: "Normalize every raw profile snapshot that has no channel info yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, func(ctx context.Context, jobs *app.Jobs) (*domain.Report, error) {
				return jobs.Transform.RunUntransformedInfo(ctx)
			})
		},
	}
}

func newTransformMediaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transform-media",
		Short: "Create media rows for transformed posts with archived media",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, func(ctx context.Context, jobs *app.Jobs) (*domain.Report, error) {
				return jobs.Transform.RunUntransformedMedia(ctx)
			})
		},
	}
}

func newHydrateMediaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hydrate-media",
		Short: "Attach inspection metadata to media rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, func(ctx context.Context, jobs *app.Jobs) (*domain.Report, error) {
				return jobs.Transform.HydrateMedia(ctx)
			})
		},
	}
}

func newRetransformCmd() *cobra.Command {
	var f filterFlags
	cmd := &cobra.Command{
		Use:   "retransform",
		Short: "Delete and rebuild the posts of a subset of channels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, func(ctx context.Context, jobs *app.Jobs) (*domain.Report, error) {
				return jobs.Transform.Retransform(ctx, f.filter())
			})
		},
	}
	f.bind(cmd, false)
	return cmd
}

func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run sync, sweep and transform passes on their cron schedules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), bootLogger(), app.Schedule)
		},
	}
}
