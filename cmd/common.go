package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/contractmanage/internal/config"
	"github.com/contractmanage/internal/database"
	"github.com/contractmanage/internal/logging"
)

// loadRuntime reads the configuration named by the global --config flag and
// installs the logger it describes.
func loadRuntime(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Pretty); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	return database.NewDB(ctx, database.Options{
		URL:            cfg.Database.URL,
		MaxOpenConns:   cfg.Database.MaxOpenConns,
		ConnectRetries: cfg.Database.ConnectRetries,
	})
}
