package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/i2y/plugport/mcp"
	"github.com/i2y/plugport/opencode"
	"github.com/i2y/plugport/permission"
)

type Config struct {
	Verbose          bool
	Output           string
	AgentMode        string
	InferTemperature bool
	Permissions      string
	ProbeTimeout     time.Duration
}

func GlobalFlags(config *Config) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name: "verbose", Usage: "Enable debug logging",
			Aliases:     []string{"v"},
			Sources:     cli.EnvVars("PLUGPORT_VERBOSE"),
			Destination: &config.Verbose,
		},
	}
}

func ConvertFlags(config *Config) []cli.Flag {
	defaults := opencode.DefaultOptions()
	return []cli.Flag{
		&cli.StringFlag{
			Name: "output", Usage: "Directory the bundle is written to (falls back to PLUGPORT_OUTPUT env var)",
			Aliases:     []string{"o"},
			Value:       ".opencode",
			Sources:     cli.EnvVars("PLUGPORT_OUTPUT"),
			Destination: &config.Output,
		},
		&cli.StringFlag{
			Name: "agent-mode", Usage: "Mode of converted agents: primary or subagent (falls back to PLUGPORT_AGENT_MODE env var)",
			Value:       string(defaults.AgentMode),
			Sources:     cli.EnvVars("PLUGPORT_AGENT_MODE"),
			Destination: &config.AgentMode,
		},
		&cli.BoolFlag{
			Name: "infer-temperature", Usage: "Infer agent temperatures from model and role (falls back to PLUGPORT_INFER_TEMPERATURE env var)",
			Value:       defaults.InferTemperature,
			Sources:     cli.EnvVars("PLUGPORT_INFER_TEMPERATURE"),
			Destination: &config.InferTemperature,
		},
		&cli.StringFlag{
			Name: "permissions", Usage: "Permission policy: none, broad or from-commands (falls back to PLUGPORT_PERMISSIONS env var)",
			Value:       string(defaults.Permissions),
			Sources:     cli.EnvVars("PLUGPORT_PERMISSIONS"),
			Destination: &config.Permissions,
		},
	}
}

func ProbeFlags(config *Config) []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name: "timeout", Usage: "Time allowed per MCP server (falls back to PLUGPORT_PROBE_TIMEOUT env var)",
			Value:       mcp.DefaultTimeout,
			Sources:     cli.EnvVars("PLUGPORT_PROBE_TIMEOUT"),
			Destination: &config.ProbeTimeout,
		},
	}
}

// Options validates the conversion settings.
func (c *Config) Options() (opencode.Options, error) {
	mode, err := opencode.ParseAgentMode(c.AgentMode)
	if err != nil {
		return opencode.Options{}, err
	}
	perms, err := permission.ParseMode(c.Permissions)
	if err != nil {
		return opencode.Options{}, err
	}
	return opencode.Options{
		AgentMode:        mode,
		InferTemperature: c.InferTemperature,
		Permissions:      perms,
	}, nil
}

func (c *Config) Logger() (*zap.Logger, error) {
	if c.Verbose {
		return zap.NewDevelopment()
	}
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}
