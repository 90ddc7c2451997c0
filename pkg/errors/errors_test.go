package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapWithCodeKeepsChain(t *testing.T) {
	base := fmt.Errorf("dial: %w", ErrServiceUnavailable)
	err := WrapWithCode(base, CodeStore, "insert raw post")

	assert.True(t, IsStore(err))
	assert.True(t, Is(err, ErrServiceUnavailable))
	assert.Equal(t, "insert raw post", GetMessage(err))
	assert.Equal(t, "insert raw post: dial: service unavailable", err.Error())
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "x"))
	assert.Nil(t, WrapWithCode(nil, CodeFetch, "x"))
}

func TestSentinels(t *testing.T) {
	err := fmt.Errorf("fetch channel 12: %w", ErrChannelUnavailable)
	assert.True(t, IsChannelUnavailable(err))
	assert.False(t, IsNoHandler(err))
	assert.False(t, IsStore(err))
	assert.Equal(t, "", GetCode(err))
}
