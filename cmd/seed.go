package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/contractmanage/internal/contracts"
	"github.com/contractmanage/internal/database"
)

// SeedCommand loads a YAML fixture into Postgres.
func SeedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Load clauses and template element configs from a YAML fixture",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Fixture `FILE`",
				Required: true,
			},
		},
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
			return applySeed(c, contracts.NewPostgresStore(db), c.String("file"))
		},
	}
}
