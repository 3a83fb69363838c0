package migrate

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateEmbedded())
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	matches, err := fs.Glob(migrationsFS, "migrations/*_create_orders.sql")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := fs.ReadFile(migrationsFS, matches[0])
	require.NoError(t, err)
	content := string(data)

	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS order_items",
		"CHECK (shipped_quantity >= 0 AND shipped_quantity <= prepared_quantity)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_backorder_items_open ON backorder_items (order_id, product_id) WHERE status = 'pending'",
		"DROP TABLE IF EXISTS backorder_items",
	} {
		require.Contains(t, content, sub)
	}
}

func TestRunUpAgainstSQLite(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, Run(ctx, db, "sqlite", "up"))

	version, err := Version(ctx, db, "sqlite")
	require.NoError(t, err)
	require.EqualValues(t, 20260105120200, version)

	var name string
	require.NoError(t, db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='backorder_items'").Scan(&name))
	require.Equal(t, "backorder_items", name)

	require.NoError(t, MigrateToVersion(ctx, db, "sqlite", "20260105120000"))
	version, err = Version(ctx, db, "sqlite")
	require.NoError(t, err)
	require.EqualValues(t, 20260105120000, version)
}

func TestDialect(t *testing.T) {
	d, err := Dialect("SQLite")
	require.NoError(t, err)
	require.Equal(t, "sqlite3", d)

	d, err = Dialect("postgres")
	require.NoError(t, err)
	require.Equal(t, "postgres", d)

	_, err = Dialect("mysql")
	require.Error(t, err)
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Supplier Phone!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(filepath.Base(path), "_add_supplier_phone.sql"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "-- +goose Up")
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, ValidateDir(dir))
}

func TestValidateDirReportsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("20260101000000_ok.sql", "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n")
	write("20260101000001_no_down.sql", "-- +goose Up\nSELECT 1;\n")
	write("20260101000002_swapped.sql", "-- +goose Down\nSELECT 1;\n-- +goose Up\nSELECT 1;\n")
	write("20261399000000_bad_month.sql", "-- +goose Up\n-- +goose Down\n")

	err := ValidateDir(dir)
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 3)
	require.Contains(t, err.Error(), "missing -- +goose Down")
	require.Contains(t, err.Error(), "Down section precedes Up")
	require.Contains(t, err.Error(), "version is not a timestamp")
}

func TestSlug(t *testing.T) {
	slug, err := Slug("  Customer Prices: add index ")
	require.NoError(t, err)
	require.Equal(t, "customer_prices_add_index", slug)
}
