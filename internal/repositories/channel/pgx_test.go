package channel

import (
	"testing"

	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityQueryOrsPopulatedKeys(t *testing.T) {
	sql, args, err := identityQuery(&domain.Channel{
		Platform:   "Telegram",
		ScreenName: "@StarGame",
		PlatformID: "-1001",
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, `WHERE platform = $1 AND (platform_id = $2 OR lower(btrim(screenname, E'@ \t\r\n')) = $3)`)
	assert.Contains(t, sql, "ORDER BY id LIMIT 1")
	assert.Equal(t, []any{"Telegram", "-1001", "stargame"}, args)
}

func TestIdentityQueryNormalizesBothSides(t *testing.T) {
	for _, name := range []string{"foo", "@Foo", " @FOO "} {
		sql, args, err := identityQuery(&domain.Channel{Platform: "Telegram", ScreenName: name}).ToSql()
		require.NoError(t, err)
		assert.Contains(t, sql, "("+ScreenNameKey+" = $2)", name)
		assert.Equal(t, []any{"Telegram", "foo"}, args, name)
	}
}

func TestListQueryFilters(t *testing.T) {
	sql, args, err := listQuery(domain.ChannelFilter{IDs: []int64{1, 2}, Category: "news"}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE id IN ($1,$2) AND category = $3 AND unavailable_at IS NULL")
	assert.Equal(t, []any{int64(1), int64(2), "news"}, args)

	sql, _, err = listQuery(domain.ChannelFilter{IncludeUnavailable: true}).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "WHERE")
}

func TestInsertQueryIsConflictSafe(t *testing.T) {
	sql, _, err := insertQuery(&domain.Channel{Platform: "Telegram", Source: domain.SourceMentioned}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "ON CONFLICT DO NOTHING RETURNING id")
}
