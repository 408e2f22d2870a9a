package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/contractmanage/internal/database"
)

// MigrateCommand creates the database tables.
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create the contract tables if they do not exist",
		Action: func(c *cli.Context) error {
			cfg, err := loadRuntime(c)
			if err != nil {
				return err
			}
			db, err := openDB(c.Context, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.EnsureSchema(c.Context, db); err != nil {
				return err
			}
			log.Info().Int("statements", len(database.Schema)).Msg("schema is up to date")
			return nil
		},
	}
}
