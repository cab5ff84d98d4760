package migrate

import (
	"context"
	"fmt"

	"github.com/famiglia/ops-console/pkg/config"
	"github.com/famiglia/ops-console/pkg/db"
	"github.com/famiglia/ops-console/pkg/logger"
)

// MaybeRunDev applies the embedded schema when running in dev with auto-migrate
// enabled. Outside dev the relational store is owned by the storefront.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": EmbeddedDir})
	logg.Info(ctx, "running goose migrations (dev auto-run)")

	if err := Run(ctx, sqlDB, EmbeddedDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
