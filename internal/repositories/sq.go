package repositories

import (
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
)

var SqBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var ErrBadQuery = errors.New("bad query")

// UniqueViolation is the postgres error code for a unique constraint violation.
const UniqueViolation = "23505"

// Watermark is a keyset position over a (date, id) ordered result set. Rows dated exactly
// At are admitted only if their id is not in Seen, so rows sharing a timestamp are neither
// skipped nor repeated between batches.
type Watermark struct {
	At   time.Time
	Seen []int64
	Desc bool
}

// Where returns the predicate admitting rows after the watermark, or nil at the start.
func (w Watermark) Where(dateCol, idCol string) squirrel.Sqlizer {
	if w.At.IsZero() {
		return nil
	}
	if len(w.Seen) == 0 {
		if w.Desc {
			return squirrel.LtOrEq{dateCol: w.At}
		}
		return squirrel.GtOrEq{dateCol: w.At}
	}
	var beyond squirrel.Sqlizer = squirrel.Gt{dateCol: w.At}
	if w.Desc {
		beyond = squirrel.Lt{dateCol: w.At}
	}
	return squirrel.Or{
		beyond,
		squirrel.And{
			squirrel.Eq{dateCol: w.At},
			squirrel.NotEq{idCol: w.Seen},
		},
	}
}

// Admits mirrors Where for in-memory filtering.
func (w Watermark) Admits(date time.Time, id int64) bool {
	if w.At.IsZero() {
		return true
	}
	if date.Equal(w.At) {
		for _, s := range w.Seen {
			if s == id {
				return false
			}
		}
		return true
	}
	if w.Desc {
		return date.Before(w.At)
	}
	return date.After(w.At)
}

// Advance moves the watermark past a processed row. Rows must be fed in query order.
func (w Watermark) Advance(date time.Time, id int64) Watermark {
	if !w.At.IsZero() && date.Equal(w.At) {
		seen := make([]int64, len(w.Seen), len(w.Seen)+1)
		copy(seen, w.Seen)
		return Watermark{At: w.At, Seen: append(seen, id), Desc: w.Desc}
	}
	moved := w.At.IsZero() || (w.Desc && date.Before(w.At)) || (!w.Desc && date.After(w.At))
	if !moved {
		return w
	}
	return Watermark{At: date, Seen: []int64{id}, Desc: w.Desc}
}

// OrderBy returns the ordering matching the watermark direction.
func (w Watermark) OrderBy(dateCol, idCol string) []string {
	if w.Desc {
		return []string{dateCol + " DESC", idCol + " DESC"}
	}
	return []string{dateCol + " ASC", idCol + " ASC"}
}

// NonNil replaces a nil slice with an empty one so NOT NULL array columns accept it.
func NonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
