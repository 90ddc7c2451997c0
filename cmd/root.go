package main

import (
	"context"

	"github.com/orgball2608/channel-archiver/internal/app"
	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/pkg/config"
	"github.com/orgball2608/channel-archiver/pkg/logger"
	"github.com/spf13/cobra"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "channel-archiver",
		Short:         "Collect, archive and normalize public social media channels",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if configPath != "" {
				config.SetPath(configPath)
			}
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a configuration file read before the environment")

	root.AddCommand(
		newInitDBCmd(),
		newScrapeChannelsCmd(),
		newScrapeChannelsOldCmd(),
		newChannelInfoCmd(),
		newArchiveMediaCmd(),
		newTransformCmd(),
		newTransformInfoCmd(),
		newTransformMediaCmd(),
		newHydrateMediaCmd(),
		newRetransformCmd(),
		newScheduleCmd(),
	)
	return root
}

func bootLogger() logger.Logger {
	return logger.New(logger.Opts{})
}

// runReport runs one orchestrator pass inside a started application and delivers its report.
func runReport(cmd *cobra.Command, pass func(ctx context.Context, jobs *app.Jobs) (*domain.Report, error)) error {
	return app.Run(cmd.Context(), bootLogger(), func(ctx context.Context, jobs *app.Jobs) error {
		report, err := pass(ctx, jobs)
		return jobs.Deliver(ctx, report, err)
	})
}

type filterFlags struct {
	platform           string
	channels           []int64
	category           string
	includeUnavailable bool
}

func (f *filterFlags) bind(cmd *cobra.Command, unavailable bool) {
	cmd.Flags().StringVar(&f.platform, "platform", "", "Only channels of this platform")
	cmd.Flags().Int64SliceVar(&f.channels, "channel", nil, "Only these channel ids (repeatable)")
	cmd.Flags().StringVar(&f.category, "category", "", "Only channels of this research category")
	if unavailable {
		cmd.Flags().BoolVar(&f.includeUnavailable, "include-unavailable", false, "Also visit channels marked unavailable")
	}
}

func (f *filterFlags) filter() domain.ChannelFilter {
	return domain.ChannelFilter{
		IDs:                f.channels,
		Platform:           f.platform,
		Category:           f.category,
		IncludeUnavailable: f.includeUnavailable,
	}
}
