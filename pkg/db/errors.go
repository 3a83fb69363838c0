package db

import (
	"strings"

	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
)

// IsUniqueViolation reports whether err broke a unique constraint on Postgres
// or SQLite. A non-empty target must appear in the constraint name or, on
// SQLite, in the reported column list (e.g. "sku" matches "products.sku").
func IsUniqueViolation(err error, target string) bool {
	if err == nil {
		return false
	}
	dump := pkgerrors.Dump(err)
	where := dump.Constraint
	if dump.Violation != pkgerrors.ViolationUnique {
		// Drivers wrapped behind string-only errors still carry the message.
		if !strings.Contains(dump.TopMessage, "duplicate key value") && !strings.Contains(dump.TopMessage, "UNIQUE constraint failed") {
			return false
		}
		where = dump.TopMessage
	}
	return target == "" || strings.Contains(where, target)
}
