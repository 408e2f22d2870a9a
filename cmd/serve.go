package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/contractmanage/internal/api"
	"github.com/contractmanage/internal/contracts"
	"github.com/contractmanage/internal/database"
	"github.com/contractmanage/internal/seed"
)

// ServeCommand returns the CLI command for starting the API server
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the contract API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server (overrides server.port)",
			},
			&cli.BoolFlag{
				Name:  "memory",
				Usage: "Keep everything in memory instead of Postgres",
			},
			&cli.StringFlag{
				Name:  "seed",
				Usage: "Load clauses and templates from `FILE` before serving",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := loadRuntime(c)
	if err != nil {
		return err
	}
	ctx := c.Context

	port := cfg.Server.Port
	if c.IsSet("port") {
		port = c.Int("port")
	}

	var store contracts.Store
	if c.Bool("memory") {
		log.Warn().Msg("using in-memory store, data is lost on exit")
		store = contracts.NewMemoryStore()
	} else {
		db, err := openDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.EnsureSchema(ctx, db); err != nil {
			return err
		}
		store = contracts.NewPostgresStore(db)
	}

	if path := c.String("seed"); path != "" {
		if err := applySeed(c, store, path); err != nil {
			return err
		}
	}

	server := api.NewServer(contracts.NewService(store), api.Options{
		Port:      port,
		RateLimit: cfg.Server.RateLimit,
	})
	return server.Start(ctx)
}

func applySeed(c *cli.Context, store contracts.Store, path string) error {
	fixture, err := seed.ParseFile(path)
	if err != nil {
		return err
	}
	if _, err := seed.Apply(c.Context, store, fixture); err != nil {
		return err
	}
	if pg, ok := store.(*contracts.PostgresStore); ok {
		return pg.SyncSequences(c.Context)
	}
	return nil
}
