package archive

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyIsDeterministic(t *testing.T) {
	a := Key("telegram-web_1", "https://cdn.example/a.jpg?x=1", "image/jpeg")
	b := Key("telegram-web_1", "https://cdn.example/a.jpg?x=1", "image/jpeg")
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "telegram-web_1/"))
	assert.True(t, strings.HasSuffix(a, ".jpg"))
	assert.Len(t, strings.TrimSuffix(strings.TrimPrefix(a, "telegram-web_1/"), ".jpg"), 64)

	assert.NotEqual(t, a, Key("other_1", "https://cdn.example/a.jpg?x=1", "image/jpeg"))
	assert.NotEqual(t, a, Key("telegram-web_1", "https://cdn.example/b.jpg", "image/jpeg"))
}

func TestKeyExtensionFallsBackToURL(t *testing.T) {
	assert.True(t, strings.HasSuffix(Key("", "https://cdn.example/v.MP4?sig=1", ""), ".mp4"))
	assert.True(t, strings.HasSuffix(Key("", "https://cdn.example/v.mp4", "video/mp4; codecs=avc1"), ".mp4"))
	assert.False(t, strings.Contains(Key("", "https://cdn.example/blob", ""), "."))
}

func TestNamespace(t *testing.T) {
	assert.Equal(t, "telegram-web_1.0", Namespace("telegram-web/1.0"))
}
