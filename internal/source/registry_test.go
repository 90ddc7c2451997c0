package source_test

import (
	"testing"

	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/internal/source"
	mock_source "github.com/orgball2608/channel-archiver/internal/source/mocks"
	"github.com/orgball2608/channel-archiver/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func plugin(ctrl *gomock.Controller, name, platform string) *mock_source.MockPlugin {
	p := mock_source.NewMockPlugin(ctrl)
	p.EXPECT().Name().Return(name).AnyTimes()
	p.EXPECT().Platform().Return(platform).AnyTimes()
	return p
}

func TestRegistryForChannelUsesRegistrationOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := plugin(ctrl, "tg-api/1", "Telegram")
	second := plugin(ctrl, "tg-web/1", "Telegram")
	other := plugin(ctrl, "gettr/1", "Gettr")

	reg, err := source.NewRegistry(first, second, other)
	require.NoError(t, err)

	ch := &domain.Channel{ID: 1, Platform: "Telegram"}
	first.EXPECT().CanHandle(ch).Return(false)
	second.EXPECT().CanHandle(ch).Return(true)

	got, err := reg.ForChannel(ch)
	require.NoError(t, err)
	assert.Same(t, second, got)
}

func TestRegistryNoHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg, err := source.NewRegistry(plugin(ctrl, "tg-web/1", "Telegram"))
	require.NoError(t, err)

	_, err = reg.ForChannel(&domain.Channel{Platform: "Mastodon"})
	assert.True(t, errors.IsNoHandler(err))

	_, err = reg.ForScraper("gone/0")
	assert.True(t, errors.IsNoHandler(err))

	p, err := reg.ForScraper("tg-web/1")
	require.NoError(t, err)
	assert.Equal(t, "Telegram", p.Platform())
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	ctrl := gomock.NewController(t)
	_, err := source.NewRegistry(plugin(ctrl, "a/1", "X"), plugin(ctrl, "a/1", "Y"))
	assert.Error(t, err)
}
