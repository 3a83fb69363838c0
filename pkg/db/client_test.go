package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/pkg/config"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
)

type testModel struct {
	ID   int
	Name string `gorm:"uniqueIndex"`
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&testModel{}))
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := NewFromGorm(db)

	ctx := context.Background()
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}))

	var count int64
	require.NoError(t, db.Model(&testModel{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)
	require.NoError(t, db.Model(&testModel{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestPing(t *testing.T) {
	client := NewFromGorm(newTestDB(t))
	require.NoError(t, client.Ping(context.Background()))
}

func TestIsUniqueViolation_SQLite(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&testModel{Name: "dup"}).Error)
	err := db.Create(&testModel{Name: "dup"}).Error
	require.Error(t, err)
	require.True(t, IsUniqueViolation(err, ""))
	require.True(t, IsUniqueViolation(err, "test_models.name"))
	require.False(t, IsUniqueViolation(err, "other_constraint"))
	require.False(t, IsUniqueViolation(errors.New("boom"), ""))
	require.False(t, IsUniqueViolation(nil, ""))
}

func TestDialectorFor(t *testing.T) {
	d, err := dialectorFor(config.DBConfig{Driver: config.DBDriverSQLite, DSN: "file::memory:"})
	require.NoError(t, err)
	require.Equal(t, "sqlite", d.Name())

	d, err = dialectorFor(config.DBConfig{Driver: config.DBDriverPostgres, DSN: "postgres://localhost/x"})
	require.NoError(t, err)
	require.Equal(t, "postgres", d.Name())

	_, err = dialectorFor(config.DBConfig{Driver: "mysql", DSN: "x"})
	require.Error(t, err)
}

func TestWithTx_RetriesTransientLockErrors(t *testing.T) {
	client := NewFromGorm(newTestDB(t))
	ctx := context.Background()

	calls := 0
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		calls++
		if calls == 1 {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, sqlite3.Error{Code: sqlite3.ErrBusy}, "reserve stock")
		}
		return tx.Create(&testModel{Name: "retried"}).Error
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)

	calls = 0
	err = client.WithTx(ctx, func(*gorm.DB) error {
		calls++
		return &pgconn.PgError{Code: "40001"}
	})
	require.Error(t, err)
	require.Equal(t, defaultTxAttempts, calls)

	calls = 0
	err = client.WithTx(ctx, func(*gorm.DB) error {
		calls++
		return errors.New("validation failed")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}
