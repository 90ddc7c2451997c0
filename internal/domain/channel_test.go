package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSameAs(t *testing.T) {
	base := &Channel{Platform: "Telegram", ScreenName: "@StarGame"}

	assert.True(t, base.SameAs(&Channel{Platform: "Telegram", ScreenName: "@StarGame"}))
	assert.False(t, base.SameAs(&Channel{Platform: "telegram", ScreenName: "stargame"}))
	assert.False(t, base.SameAs(&Channel{Platform: "Gettr", ScreenName: "stargame"}))
	assert.False(t, base.SameAs(&Channel{Platform: "Telegram", PlatformID: "42"}))

	byID := &Channel{Platform: "Telegram", PlatformID: "42"}
	assert.True(t, byID.SameAs(&Channel{Platform: "Telegram", PlatformID: "42", URL: "x"}))
}

func TestMergeFillsEmptyIdentity(t *testing.T) {
	existing := &Channel{Platform: "Telegram", ScreenName: "stargame", Source: SourceMentioned}
	changed := existing.Merge(&Channel{Platform: "Telegram", ScreenName: "stargame", PlatformID: "-100186", Source: SourceForwarded})

	assert.True(t, changed)
	assert.Equal(t, "-100186", existing.PlatformID)
	assert.Equal(t, SourceMentioned, existing.Source)
}

func TestMergeNeverDowngradesCurated(t *testing.T) {
	existing := &Channel{
		Platform: "Telegram", ScreenName: "stargame", Name: "Star Game",
		Category: "test", Country: "RU", Source: SourceResearcher,
	}
	changed := existing.Merge(&Channel{
		Platform: "Telegram", ScreenName: "stargame", Name: "placeholder",
		Category: "forwarded", Source: SourceForwarded,
	})

	assert.False(t, changed)
	assert.Equal(t, "Star Game", existing.Name)
	assert.Equal(t, "test", existing.Category)
	assert.Equal(t, SourceResearcher, existing.Source)
}

func TestMergePromotesPlaceholder(t *testing.T) {
	existing := &Channel{Platform: "Telegram", ScreenName: "stargame", Name: "guess", Category: "mentioned", Source: SourceMentioned}
	changed := existing.Merge(&Channel{
		Platform: "Telegram", ScreenName: "stargame", Name: "Star Game",
		Category: "news", Country: "RU", Public: true, Source: SourceSpreadsheet,
	})

	assert.True(t, changed)
	assert.Equal(t, "Star Game", existing.Name)
	assert.Equal(t, "news", existing.Category)
	assert.Equal(t, "RU", existing.Country)
	assert.True(t, existing.Public)
	assert.Equal(t, SourceSpreadsheet, existing.Source)
}

func TestMergeNoopOnIdenticalCandidate(t *testing.T) {
	existing := &Channel{Platform: "Telegram", ScreenName: "a", PlatformID: "1", Source: SourceForwarded}
	assert.False(t, existing.Merge(&Channel{Platform: "Telegram", ScreenName: "a", PlatformID: "1", Source: SourceMentioned}))
}
