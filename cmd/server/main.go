package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/dfryer1193/goblog/internal"
	pkgconfig "github.com/dfryer1193/goblog/pkg/config"
)

func run(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if cmd.Bool("dev") {
		cfg.App.Mode = internal.ModeDevelopment
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.App.HTTP.Port = int(port)
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "goblog",
		Usage:  "Render and serve markdown blog posts",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.BoolFlag{
				Name:    "dev",
				Usage:   "Run in development mode (always re-render posts)",
				Sources: cli.EnvVars("GOBLOG_DEV"),
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "HTTP port, overrides the config file",
				Sources: cli.EnvVars("PORT"),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}
