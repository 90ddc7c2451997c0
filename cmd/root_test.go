package main

import (
	"testing"

	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootRegistersCommands(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{
		"init-db", "scrape-channels", "scrape-channels-old", "channel-info", "archive-media",
		"transform", "transform-info", "transform-media", "hydrate-media", "retransform", "schedule",
	} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestFilterFlags(t *testing.T) {
	var f filterFlags
	cmd := &cobra.Command{Use: "x"}
	f.bind(cmd, true)

	require.NoError(t, cmd.ParseFlags([]string{
		"--platform", "Telegram", "--channel", "3", "--channel", "7", "--category", "news", "--include-unavailable",
	}))

	assert.Equal(t, domain.ChannelFilter{
		IDs:                []int64{3, 7},
		Platform:           "Telegram",
		Category:           "news",
		IncludeUnavailable: true,
	}, f.filter())
}

func TestFilterFlagsWithoutUnavailable(t *testing.T) {
	var f filterFlags
	cmd := &cobra.Command{Use: "x"}
	f.bind(cmd, false)

	assert.Nil(t, cmd.Flags().Lookup("include-unavailable"))
	assert.Equal(t, domain.ChannelFilter{}, f.filter())
}
