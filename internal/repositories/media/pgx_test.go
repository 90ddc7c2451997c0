package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnhydratedQuery(t *testing.T) {
	sql, args, err := unhydratedQuery(41, 25).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, post, raw_id, type, url, original_url, date, date_transformed, exif, ocr, date_hydrated "+
		"FROM media WHERE date_hydrated IS NULL AND id > $1 ORDER BY id LIMIT 25", sql)
	assert.Equal(t, []any{int64(41)}, args)
}
