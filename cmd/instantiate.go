package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/contractmanage/internal/contracts"
	"github.com/contractmanage/pkg/models"
)

// InstantiateCommand creates a contract from a template and prints it.
func InstantiateCommand() *cli.Command {
	return &cli.Command{
		Name:  "instantiate",
		Usage: "Create a contract from a template and print it as JSON",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:     "template",
				Aliases:  []string{"t"},
				Usage:    "Template id",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "name",
				Aliases:  []string{"n"},
				Usage:    "Contract name",
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

			svc := contracts.NewService(contracts.NewPostgresStore(db))
			created, err := svc.CreateFromTemplate(c.Context, c.Int64("template"), models.Contract{ContractName: c.String("name")})
			if err != nil {
				return fmt.Errorf("instantiate template %d: %w", c.Int64("template"), err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(created)
		},
	}
}
