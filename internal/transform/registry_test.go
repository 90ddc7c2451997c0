package transform_test

import (
	"testing"

	"github.com/orgball2608/channel-archiver/internal/transform"
	pkgerrors "github.com/orgball2608/channel-archiver/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	fake := newFakePlugin()
	reg, err := transform.NewRegistry(fake)
	require.NoError(t, err)

	got, err := reg.ForPlatform(platform)
	require.NoError(t, err)
	assert.Same(t, fake, got)

	_, err = reg.ForPlatform("Nowhere")
	assert.True(t, pkgerrors.IsNoHandler(err))

	_, err = transform.NewRegistry(fake, newFakePlugin())
	assert.Error(t, err)
}
