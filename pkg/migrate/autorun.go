package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/stockroom/pkg/config"
	"github.com/angelmondragon/stockroom/pkg/db"
	"github.com/angelmondragon/stockroom/pkg/logger"
)

// MaybeRun applies pending migrations on boot when STOCKROOM_DB_AUTO_MIGRATE is
// set. The embedded sqlite store relies on this; Postgres deployments usually
// disable it and run cmd/migrate instead.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.DB.AutoMigrate {
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithField(ctx, "driver", cfg.DB.Driver)
	before, err := Version(ctx, sqlDB, cfg.DB.Driver)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if err := Run(ctx, sqlDB, cfg.DB.Driver, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	after, err := Version(ctx, sqlDB, cfg.DB.Driver)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"from_version": before, "to_version": after})
	if after == before {
		logg.Info(ctx, "schema already current")
		return nil
	}
	logg.Info(ctx, "schema migrated")
	return nil
}
