package plugin

import (
	"fmt"
	"sort"
	"strings"
)

// Summary returns a compact, human-readable inventory of the plugin.
//
// Format:
//
//	# Plugin: name (version)
//
//	Agents (2):
//	- reviewer: Reviews code (model: sonnet)
//	Commands (1):
//	- /workflows:review: Review a PR [disabled]
//	...
func (p *Plugin) Summary() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Plugin: %s", p.Manifest.Name))
	if p.Manifest.Version != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", p.Manifest.Version))
	}
	sb.WriteString("\n")
	if p.Manifest.Description != "" {
		sb.WriteString("\n" + p.Manifest.Description + "\n")
	}

	if len(p.Agents) > 0 {
		sb.WriteString(fmt.Sprintf("\nAgents (%d):\n", len(p.Agents)))
		for _, a := range p.Agents {
			sb.WriteString(fmt.Sprintf("- %s: %s", a.Name, a.Description))
			if a.Model != "" {
				sb.WriteString(fmt.Sprintf(" (model: %s)", a.Model))
			}
			sb.WriteString("\n")
		}
	}

	if len(p.Commands) > 0 {
		sb.WriteString(fmt.Sprintf("\nCommands (%d):\n", len(p.Commands)))
		for _, c := range p.Commands {
			sb.WriteString(fmt.Sprintf("- /%s: %s", c.Name, c.Description))
			if c.DisableModelInvocation {
				sb.WriteString(" [disabled]")
			}
			sb.WriteString("\n")
		}
	}

	if len(p.Skills) > 0 {
		sb.WriteString(fmt.Sprintf("\nSkills (%d):\n", len(p.Skills)))
		for _, s := range p.Skills {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", s.Name, s.Description))
		}
	}

	if len(p.Hooks) > 0 {
		sb.WriteString(fmt.Sprintf("\nHooks (%d):\n", len(p.Hooks)))
		for _, h := range p.Hooks {
			scope := h.Matcher
			if h.Agent != "" {
				scope = "agent " + h.Agent
			}
			if scope == "" {
				scope = "*"
			}
			sb.WriteString(fmt.Sprintf("- %s [%s]: %s\n", h.Event, scope, h.CommandLine))
		}
	}
	if len(p.UnmappedHookEvents) > 0 {
		sb.WriteString(fmt.Sprintf("\nUnmapped hook events: %s\n", strings.Join(p.UnmappedHookEvents, ", ")))
	}

	if len(p.MCPServers) > 0 {
		sb.WriteString(fmt.Sprintf("\nMCP servers (%d):\n", len(p.MCPServers)))
		for _, name := range p.MCPServerNames() {
			s := p.MCPServers[name]
			target := s.URL
			if s.Type == MCPLocal {
				target = strings.Join(s.Command, " ")
			}
			sb.WriteString(fmt.Sprintf("- %s (%s): %s\n", name, s.Type, target))
		}
	}

	return sb.String()
}

// MCPServerNames returns the declared MCP server names, sorted.
func (p *Plugin) MCPServerNames() []string {
	names := make([]string, 0, len(p.MCPServers))
	for name := range p.MCPServers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasSkill checks if a skill with the given name exists.
func (p *Plugin) HasSkill(name string) bool {
	return p.GetSkill(name) != nil
}

// HasCommand checks if a command with the given name exists.
func (p *Plugin) HasCommand(name string) bool {
	return p.GetCommand(name) != nil
}

// HasAgent checks if an agent with the given name exists.
func (p *Plugin) HasAgent(name string) bool {
	return p.GetAgent(name) != nil
}
