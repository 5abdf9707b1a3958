package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/stockroute-backend/pkg/config"
	"github.com/angelmondragon/stockroute-backend/pkg/db"
	"github.com/angelmondragon/stockroute-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations on boot when running in dev with the
// auto-migrate flag on. Other environments run cmd/migrate explicitly.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir})

	pending, err := Pending(ctx, sqlDB, DefaultDir)
	if err != nil {
		return err
	}
	if pending == 0 {
		logg.Info(ctx, "schema up to date")
		return nil
	}

	logg.Info(logg.WithField(ctx, "pending", pending), "applying goose migrations")
	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(ctx, "goose migrations completed")
	return nil
}
