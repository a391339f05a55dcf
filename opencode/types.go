// Package opencode converts a loaded Claude Code plugin into an OpenCode
// bundle and writes that bundle to disk.
package opencode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/i2y/plugport/permission"
)

// SchemaURL is the $schema value of every generated config.
const SchemaURL = "https://opencode.ai/config.json"

// AgentMode selects how converted agents are exposed.
type AgentMode string

const (
	// Primary agents can be selected directly by the user.
	Primary AgentMode = "primary"
	// Subagent agents are only invoked by other agents.
	Subagent AgentMode = "subagent"
)

// ErrInvalidAgentMode is returned by ParseAgentMode for unknown modes.
var ErrInvalidAgentMode = errors.New("invalid agent mode")

// ParseAgentMode parses an agent mode name, case-insensitively.
func ParseAgentMode(s string) (AgentMode, error) {
	switch m := AgentMode(strings.ToLower(strings.TrimSpace(s))); m {
	case Primary, Subagent:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q (want primary or subagent)", ErrInvalidAgentMode, s)
	}
}

// Options configures one conversion.
type Options struct {
	AgentMode        AgentMode
	InferTemperature bool
	Permissions      permission.Mode
}

// DefaultOptions returns subagents with inferred temperatures and broad
// permissions.
func DefaultOptions() Options {
	return Options{
		AgentMode:        Subagent,
		InferTemperature: true,
		Permissions:      permission.Broad,
	}
}

// Bundle is the result of a conversion.
type Bundle struct {
	Config  Config
	Agents  []File // One markdown document per agent, named after the agent
	Skills  []File // One SKILL.md document per skill, named after the skill
	Plugins []File // Generated scripts; empty when the plugin has no hooks
}

// File is a generated document.
type File struct {
	Name    string
	Content string
}

// Config is the opencode.json document.
type Config struct {
	Schema     string                   `json:"$schema"`
	Command    map[string]CommandConfig `json:"command,omitempty" jsonschema:"description=Slash commands keyed by name"`
	Permission permission.Map           `json:"permission,omitempty" jsonschema:"description=Tool permissions keyed by capability"`
	MCP        map[string]MCPServer     `json:"mcp,omitempty" jsonschema:"description=MCP servers keyed by name"`
}

// CommandConfig is one slash command.
type CommandConfig struct {
	Template    string `json:"template" jsonschema:"required,description=Prompt sent when the command runs"`
	Description string `json:"description,omitempty"`
	Model       string `json:"model,omitempty" jsonschema:"description=Vendor-qualified model id"`
}

// MCPServer is one MCP server entry. Local servers set Command and
// Environment; remote servers set URL and Headers.
type MCPServer struct {
	Type        string            `json:"type" jsonschema:"required,enum=local,enum=remote"`
	Command     []string          `json:"command,omitempty"`
	Environment map[string]string `json:"environment,omitempty"`
	URL         string            `json:"url,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Enabled     bool              `json:"enabled"`
}
