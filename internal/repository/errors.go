// Package repository holds the MySQL data access for users, their session
// tokens and visa applications. Every method takes a context and uses
// placeholder arguments; callers translate the sentinel errors below.
package repository

import (
	"errors"
	"math"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup or conditional write matched no
// live row. Soft-deleted users count as absent.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when MySQL rejects a write with a unique key
// violation (error 1062).
var ErrDuplicate = errors.New("duplicate entry")

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}

// MaxPageSize caps the LIMIT of every list query.
const MaxPageSize = 100

// pageOffset converts a 1-based page into a LIMIT/OFFSET pair. limit is
// clamped to [1, MaxPageSize] and the offset saturates instead of wrapping.
func pageOffset(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	skip := page - 1
	if skip > math.MaxInt64/limit {
		skip = math.MaxInt64 / limit
	}
	return limit, skip * limit
}
