package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/enexmd/internal"
	pkgconfig "github.com/starford/enexmd/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func convert(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("stdout") {
		cfg.Output.Mode = internal.OutputModeStdout
	}
	if cmd.IsSet("output") {
		cfg.Output.Root = cmd.String("output")
		cfg.Output.Mode = internal.OutputModeDisk
	}
	if cmd.Bool("catalog") {
		cfg.Catalog.Enabled = true
	}
	if cmd.Bool("frontmatter") {
		cfg.Output.Frontmatter = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := internal.Convert(ctx, cmd.Args().Slice(), internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("convert error: %w", err)
	}
	return nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg))
}

func search(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("search: query is required")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Search(ctx, cmd.Args().First(), int(cmd.Int("limit")), internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:  "enexmd",
		Usage: "Convert Evernote exports to Markdown notes with attachments",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "convert",
				Usage:     "Convert one or more .enex files",
				ArgsUsage: "<file.enex>...",
				Action:    convert,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "stdout",
						Usage: "Print notes to stdout instead of writing files (attachments are skipped)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output root directory",
					},
					&cli.BoolFlag{
						Name:  "catalog",
						Usage: "Record converted notes in the SQLite catalog",
					},
					&cli.BoolFlag{
						Name:  "frontmatter",
						Usage: "Prepend a YAML frontmatter block to every note",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and the inbox watcher",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdin/stdout",
				Action: mcp,
			},
			{
				Name:      "search",
				Usage:     "Search the catalog of converted notes",
				ArgsUsage: "<query>",
				Action:    search,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 20,
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
