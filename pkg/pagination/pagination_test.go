package pagination_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/pkg/db/dbtest"
	"github.com/angelmondragon/stockroom/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
	"github.com/angelmondragon/stockroom/pkg/pagination"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, pagination.DefaultLimit, pagination.NormalizeLimit(0))
	assert.Equal(t, pagination.DefaultLimit, pagination.NormalizeLimit(-3))
	assert.Equal(t, 7, pagination.NormalizeLimit(7))
	assert.Equal(t, pagination.MaxLimit, pagination.NormalizeLimit(pagination.MaxLimit+1))
}

func TestCursorRoundTrip(t *testing.T) {
	in := pagination.Cursor{
		CreatedAt: time.Date(2026, 3, 4, 10, 11, 12, 123456789, time.UTC),
		ID:        uuid.New(),
	}
	token := pagination.EncodeCursor(in)
	assert.NotContains(t, token, "=")

	out, err := pagination.ParseCursor(token)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.ID, out.ID)
}

func TestParseCursorBlank(t *testing.T) {
	out, err := pagination.ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := pagination.Decode("not-a-cursor!")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestTokenNil(t *testing.T) {
	assert.Empty(t, pagination.Token(nil))
}

func TestTrim(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]models.AuditEntry, 4)
	for i := range rows {
		rows[i] = models.AuditEntry{ID: uuid.New(), CreatedAt: base.Add(-time.Duration(i) * time.Minute)}
	}
	key := func(row models.AuditEntry) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	}

	page, next := pagination.Trim(rows, 3, key)
	require.Len(t, page, 3)
	require.NotNil(t, next)
	assert.Equal(t, rows[2].ID, next.ID)

	page, next = pagination.Trim(rows[:3], 3, key)
	assert.Len(t, page, 3)
	assert.Nil(t, next)
}

func TestSeekBuildsKeysetQuery(t *testing.T) {
	db := dbtest.Open(t)
	cursor := &pagination.Cursor{CreatedAt: time.Now().UTC(), ID: uuid.New()}

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []models.AuditEntry
		return pagination.Seek(tx.Model(&models.AuditEntry{}), cursor, 3).Find(&rows)
	})
	assert.Contains(t, sql, "(created_at, id) <")
	assert.Contains(t, sql, "ORDER BY created_at DESC, id DESC")
	assert.Contains(t, sql, "LIMIT 4")
}
