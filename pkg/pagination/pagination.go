package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
	"github.com/angelmondragon/stockroom/pkg/types"
)

const (
	// DefaultLimit is the page size used when the caller sends none.
	DefaultLimit = 25
	// MaxLimit caps how many rows a single list call returns.
	MaxLimit = 100

	cursorVersion = "v1"
)

// Cursor is the keyset position of the last row on a page. Lists are
// ordered newest first, so the next page starts strictly below it.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit clamps limit into [1, MaxLimit], substituting DefaultLimit for zero or negatives.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// EncodeCursor renders a URL-safe opaque token.
func EncodeCursor(cursor Cursor) string {
	payload := cursorVersion + "." + strconv.FormatInt(cursor.CreatedAt.UTC().UnixNano(), 10) + "." + cursor.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes a token produced by EncodeCursor. Blank input yields a nil cursor.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(string(decoded), ".", 3)
	if len(parts) != 3 || parts[0] != cursorVersion {
		return nil, fmt.Errorf("unsupported cursor format")
	}
	nanos, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(parts[2])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	return &Cursor{CreatedAt: time.Unix(0, nanos).UTC(), ID: id}, nil
}

// Decode is ParseCursor for service boundaries: failures surface as validation errors.
func Decode(value string) (*Cursor, error) {
	cursor, err := ParseCursor(value)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").
			WithDetails(map[string]any{"field": "cursor"})
	}
	return cursor, nil
}

// Token encodes next, or returns "" when there is no further page.
func Token(next *Cursor) string {
	if next == nil {
		return ""
	}
	return EncodeCursor(*next)
}

// Seek applies newest-first keyset ordering, resuming after cursor when set,
// and fetches one extra row so Trim can tell whether another page exists.
func Seek(query *gorm.DB, cursor *Cursor, limit int) *gorm.DB {
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	return query.Order("created_at DESC, id DESC").Limit(NormalizeLimit(limit) + 1)
}

// Trim cuts rows fetched by Seek down to the page size and reports the
// cursor of the last kept row when more rows remain.
func Trim[T any](rows []T, limit int, key func(T) Cursor) ([]T, *Cursor) {
	normalized := NormalizeLimit(limit)
	if len(rows) <= normalized {
		return rows, nil
	}
	next := key(rows[normalized-1])
	return rows[:normalized], &next
}

// NewPage wraps a trimmed result set for the API.
func NewPage[T any](rows []T, next *Cursor) *types.Page[T] {
	return &types.Page[T]{Items: rows, Cursor: Token(next)}
}
