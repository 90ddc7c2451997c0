package migrations

import (
	"strings"
	"testing"

	"github.com/orgball2608/channel-archiver/internal/repositories/channel"
	"github.com/stretchr/testify/assert"
)

func TestScreenNameIndexMatchesLookupExpression(t *testing.T) {
	assert.Equal(t, 2, strings.Count(normalizedScreenNameIndex, channel.ScreenNameKey))
}
