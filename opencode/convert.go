package opencode

import (
	"maps"
	"slices"

	"github.com/i2y/plugport/frontmatter"
	"github.com/i2y/plugport/hooks"
	"github.com/i2y/plugport/model"
	"github.com/i2y/plugport/paths"
	"github.com/i2y/plugport/permission"
	"github.com/i2y/plugport/plugin"
)

// Convert builds the OpenCode bundle for a plugin. It never fails and does
// not modify p.
func Convert(p *plugin.Plugin, opts Options) *Bundle {
	if opts.AgentMode == "" {
		opts.AgentMode = Subagent
	}

	b := &Bundle{
		Config: Config{
			Schema:     SchemaURL,
			Command:    convertCommands(p.Commands),
			Permission: permission.Resolve(p.Commands, opts.Permissions),
			MCP:        convertServers(p.MCPServers),
		},
	}

	for _, a := range p.Agents {
		b.Agents = append(b.Agents, File{Name: a.Name, Content: agentDocument(a, opts)})
	}
	for _, s := range p.Skills {
		b.Skills = append(b.Skills, File{Name: s.Name, Content: skillDocument(s)})
	}
	if len(p.Hooks) > 0 {
		b.Plugins = []File{{
			Name:    hooks.FileName,
			Content: hooks.Transpile(p.Hooks, p.UnmappedHookEvents...),
		}}
	}
	return b
}

// agentDocument renders an agent with metadata keys in the order name,
// description, mode, model, temperature.
func agentDocument(a plugin.Agent, opts Options) string {
	meta := frontmatter.Data{
		{Key: "name", Value: a.Name},
		{Key: "description", Value: a.Description},
		{Key: "mode", Value: string(opts.AgentMode)},
	}

	resolved := model.Resolve(a.Model)
	if resolved != "" {
		meta = append(meta, frontmatter.Field{Key: "model", Value: resolved})
	}
	if t, ok := agentTemperature(a, resolved, opts.InferTemperature); ok {
		meta = append(meta, frontmatter.Field{Key: "temperature", Value: t})
	}

	return frontmatter.Serialize(meta, paths.Rewrite(a.Body))
}

// agentTemperature prefers a declared temperature, then the resolved model's
// suggestion, then one inferred from the agent's role.
func agentTemperature(a plugin.Agent, resolved string, infer bool) (float64, bool) {
	if a.Temperature != nil {
		return *a.Temperature, true
	}
	if !infer {
		return 0, false
	}
	if t, ok := model.InferTemperature(resolved); ok {
		return t, true
	}
	return model.InferRoleTemperature(a.Name, a.Description)
}

func skillDocument(s plugin.Skill) string {
	meta := frontmatter.Data{
		{Key: "name", Value: s.Name},
		{Key: "description", Value: s.Description},
	}
	return frontmatter.Serialize(meta, paths.Rewrite(s.Body))
}

func convertCommands(commands []plugin.Command) map[string]CommandConfig {
	if len(commands) == 0 {
		return nil
	}
	out := make(map[string]CommandConfig, len(commands))
	for _, c := range commands {
		if c.DisableModelInvocation {
			continue
		}
		out[c.Name] = CommandConfig{
			Template:    paths.Rewrite(c.Body),
			Description: c.Description,
			Model:       model.Resolve(c.Model),
		}
	}
	return out
}

func convertServers(servers map[string]plugin.MCPServerSpec) map[string]MCPServer {
	if servers == nil {
		return nil
	}
	out := make(map[string]MCPServer, len(servers))
	for name, s := range servers {
		out[name] = MCPServer{
			Type:        string(s.Type),
			Command:     slices.Clone(s.Command),
			Environment: maps.Clone(s.Environment),
			URL:         s.URL,
			Headers:     maps.Clone(s.Headers),
			Enabled:     s.IsEnabled(),
		}
	}
	return out
}
