// Command plugport converts Claude Code plugins into OpenCode bundles.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/i2y/plugport/mcp"
	"github.com/i2y/plugport/opencode"
	"github.com/i2y/plugport/plugin"
	"github.com/i2y/plugport/schema"
)

var errPluginDirRequired = errors.New("plugin directory argument is required")

func main() {
	_ = godotenv.Load()

	if err := NewApp(&Config{}).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func NewApp(cfg *Config) *cli.Command {
	return &cli.Command{
		Name:  "plugport",
		Usage: "Convert Claude Code plugins into OpenCode bundles",
		Flags: GlobalFlags(cfg),
		Commands: []*cli.Command{
			{
				Name:      "convert",
				Usage:     "Convert a plugin and write the OpenCode bundle",
				ArgsUsage: "<plugin-dir>",
				Flags:     ConvertFlags(cfg),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runConvert(cmd, cfg)
				},
			},
			{
				Name:      "inspect",
				Usage:     "Print the components of a plugin",
				ArgsUsage: "<plugin-dir>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					logger, err := cfg.Logger()
					if err != nil {
						return err
					}
					defer func() { _ = logger.Sync() }()

					p, err := loadPlugin(cmd, logger)
					if err != nil {
						return err
					}
					_, err = io.WriteString(cmd.Root().Writer, p.Summary())
					return err
				},
			},
			{
				Name:  "schema",
				Usage: "Print the JSON Schema of the generated opencode.json",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					raw, err := schema.Config()
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(cmd.Root().Writer, string(raw))
					return err
				},
			},
			{
				Name:      "probe",
				Usage:     "Convert a plugin and check that its MCP servers answer",
				ArgsUsage: "<plugin-dir>",
				Flags:     ProbeFlags(cfg),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runProbe(ctx, cmd, cfg)
				},
			},
		},
	}
}

func loadPlugin(cmd *cli.Command, logger *zap.Logger) (*plugin.Plugin, error) {
	dir := cmd.Args().First()
	if dir == "" {
		return nil, errPluginDirRequired
	}
	return plugin.Load(dir, plugin.WithLogger(logger))
}

func runConvert(cmd *cli.Command, cfg *Config) error {
	opts, err := cfg.Options()
	if err != nil {
		return err
	}

	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	p, err := loadPlugin(cmd, logger)
	if err != nil {
		return err
	}

	bundle := opencode.Convert(p, opts)
	if err := opencode.Write(cfg.Output, bundle); err != nil {
		return fmt.Errorf("writing bundle: %w", err)
	}

	fmt.Fprintf(cmd.Root().Writer, "Converted %s: %d agents, %d commands, %d skills, %d MCP servers -> %s\n",
		p.Manifest.Name, len(bundle.Agents), len(bundle.Config.Command), len(bundle.Skills), len(bundle.Config.MCP), cfg.Output)
	return nil
}

func runProbe(ctx context.Context, cmd *cli.Command, cfg *Config) error {
	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	p, err := loadPlugin(cmd, logger)
	if err != nil {
		return err
	}

	servers := opencode.Convert(p, opencode.DefaultOptions()).Config.MCP
	out := cmd.Root().Writer
	probed, failed := 0, 0
	for _, name := range p.MCPServerNames() {
		server := servers[name]
		if !server.Enabled {
			fmt.Fprintf(out, "%s: disabled, skipped\n", name)
			continue
		}

		probed++
		result, err := mcp.Probe(ctx, name, server, mcp.WithTimeout(cfg.ProbeTimeout))
		if err != nil {
			failed++
			logger.Warn("probe failed", zap.String("server", name), zap.Error(err))
			fmt.Fprintf(out, "%s: FAILED: %v\n", name, err)
			continue
		}
		fmt.Fprintf(out, "%s: ok (%s %s), %d tools\n", name, result.ServerName, result.ServerVersion, len(result.Tools))
		for _, tool := range result.Tools {
			fmt.Fprintf(out, "  - %s\n", tool)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d MCP servers failed", failed, probed)
	}
	return nil
}
