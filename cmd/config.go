package cmd

import (
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/contractmanage/internal/config"
)

// ConfigCommand returns the config command
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Write or check contractmanage.toml",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a sample TOML file with [server], [database] and [log] sections",
				Description: "The sample points database.url at a local postgres. Any key can later be\n" +
					"overridden from the environment, e.g. CONTRACTMANAGE_DATABASE_URL or\n" +
					"CONTRACTMANAGE_SERVER_PORT. An existing file is never overwritten.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the sample settings to `FILE`",
						Value:   "contractmanage.toml",
					},
				},
				Action: runConfigInit,
			},
			{
				Name:        "validate",
				Usage:       "Check the merged settings (file, then CONTRACTMANAGE_* env) before serving",
				Description: "Prints the effective listen port, database target and log level. The\ndatabase password is masked.",
				Action:      runConfigValidate,
			},
		},
	}
}

func runConfigInit(c *cli.Context) error {
	outputPath := c.String("output")

	if err := config.InitConfig(outputPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Wrote contract service settings to %s\n", outputPath)
	return nil
}

func runConfigValidate(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	printSettings(os.Stdout, cfg)
	return nil
}

func printSettings(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Configuration is valid")
	for _, kv := range [][2]any{
		{"server.port", cfg.Server.Port},
		{"server.rate_limit", cfg.Server.RateLimit},
		{"database.url", maskDatabaseURL(cfg.Database.URL)},
		{"log.level", cfg.Log.Level},
	} {
		fmt.Fprintf(w, "  %-18s %v\n", kv[0], kv[1])
	}
}

// maskDatabaseURL hides the password of a postgres URL. Key/value DSNs and
// unparsable values are not echoed at all.
func maskDatabaseURL(raw string) string {
	if raw == "" {
		return "(unset)"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return "(set)"
	}
	return u.Redacted()
}
