package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/multierr"
)

const versionLayout = "20060102150405"

var (
	filenameRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)
	slugRe     = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slug turns a free-form description into the name part of a migration file.
func Slug(name string) (string, error) {
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	return slug, nil
}

// CreateSQLMigration writes an empty goose migration named
// <dir>/<UTC timestamp>_<slug>.sql and returns its path.
func CreateSQLMigration(dir, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("migrations dir is required")
	}
	slug, err := Slug(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	full := filepath.Join(dir, time.Now().UTC().Format(versionLayout)+"_"+slug+".sql")
	body := "-- +goose Up\n-- +goose StatementBegin\n-- " + slug + ": must run on sqlite and postgres\n-- +goose StatementEnd\n\n" +
		"-- +goose Down\n-- +goose StatementBegin\n-- undo " + slug + "\n-- +goose StatementEnd\n"

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration: %w", err)
	}
	if _, err := f.WriteString(body); err != nil {
		return "", multierr.Append(fmt.Errorf("write %s: %w", full, err), f.Close())
	}
	return full, f.Close()
}

// ValidateDir checks the migrations in dir the same way ValidateEmbedded checks the bundled set.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("migrations dir is required")
	}
	return validateFS(os.DirFS(dir), ".")
}

func ValidateEmbedded() error {
	return validateFS(migrationsFS, embeddedDir)
}

// validateFS reports every malformed file at once: bad names, duplicate
// versions, and Up/Down annotations that are missing or out of order.
func validateFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}

	var errs error
	versions := map[string]string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".sql" {
			continue
		}
		m := filenameRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: want %s_name.sql", name, versionLayout))
			continue
		}
		if _, err := time.Parse(versionLayout, m[1]); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: version is not a timestamp", name))
		}
		if prev, dup := versions[m[1]]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%s: version already used by %s", name, prev))
		}
		versions[m[1]] = name

		raw, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		up := strings.Index(string(raw), "-- +goose Up")
		down := strings.Index(string(raw), "-- +goose Down")
		switch {
		case up < 0:
			errs = multierr.Append(errs, fmt.Errorf("%s: missing -- +goose Up", name))
		case down < 0:
			errs = multierr.Append(errs, fmt.Errorf("%s: missing -- +goose Down", name))
		case down < up:
			errs = multierr.Append(errs, fmt.Errorf("%s: Down section precedes Up", name))
		}
	}
	return errs
}
