package post

import (
	"testing"

	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchQuerySkipsTransformedCaptures(t *testing.T) {
	sql, args, err := batchQuery([]*domain.Post{{RawID: 1}, {RawID: 2}}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "ON CONFLICT (raw_id) DO NOTHING RETURNING id, raw_id")
	assert.Len(t, args, 2*len(insertColumns))
	assert.Equal(t, []int64{}, args[15])
}

func TestDeleteStatementsNestSubset(t *testing.T) {
	stmts := deleteStatements(domain.ChannelFilter{IDs: []int64{4}})
	require.Len(t, stmts, 3)

	sql, args, err := stmts[1].ToSql()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE posts SET reply_to = $1 WHERE reply_to IN (SELECT p.id FROM posts p JOIN raw_posts r ON r.id = p.raw_id WHERE r.channel IN ($2))", sql)
	assert.Equal(t, []any{domain.ReplyPending, int64(4)}, args)

	sql, _, err = stmts[2].ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "DELETE FROM posts WHERE id IN (SELECT p.id")
}
