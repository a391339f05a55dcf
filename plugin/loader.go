package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

var (
	// ErrManifestNotFound is returned when the plugin has no .claude-plugin/plugin.json.
	ErrManifestNotFound = errors.New("plugin manifest not found")
	// ErrNameRequired is returned when the manifest does not name the plugin.
	ErrNameRequired = errors.New("plugin name is required in manifest")
)

// PluginRootVar is expanded to the plugin's absolute path in MCP server
// declarations.
const PluginRootVar = "${CLAUDE_PLUGIN_ROOT}"

// LoadOption configures Load.
type LoadOption func(*loadConfig)

type loadConfig struct {
	logger *zap.Logger
}

// WithLogger sets the logger used to report skipped files and unsupported
// declarations.
func WithLogger(logger *zap.Logger) LoadOption {
	return func(c *loadConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Load loads a Claude Code plugin from the given path.
// The path should point to the plugin root directory containing .claude-plugin/plugin.json.
//
// Component files that cannot be read are skipped and logged; a file whose
// frontmatter is malformed is loaded with empty metadata.
func Load(path string, opts ...LoadOption) (*Plugin, error) {
	cfg := &loadConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}
	log := cfg.logger

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("accessing plugin path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("plugin path must be a directory: %s", absPath)
	}

	manifestPath := filepath.Join(absPath, ".claude-plugin", "plugin.json")
	manifest, err := loadManifest(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}

	p := &Plugin{
		RootPath: absPath,
		Manifest: Manifest{
			Name:        manifest.Name,
			Version:     manifest.Version,
			Description: manifest.Description,
		},
	}
	if manifest.Author != nil {
		p.Manifest.Author = *manifest.Author
	}

	p.Commands = loadCommands(componentDir(absPath, "commands", manifest.Commands), log)
	p.Agents = loadAgents(componentDir(absPath, "agents", manifest.Agents), log)
	p.Skills = loadSkills(componentDir(absPath, "skills", manifest.Skills), log)

	hooks, err := loadHooksConfig(absPath, manifest.Hooks)
	if err != nil {
		log.Warn("skipping hooks", zap.Error(err))
	} else if hooks != nil {
		p.Hooks, p.UnmappedHookEvents = declarationsFrom(hooks, log)
	}

	servers, err := loadMCPConfig(absPath, manifest.MCPServers)
	if err != nil {
		log.Warn("skipping MCP servers", zap.Error(err))
	} else if len(servers) > 0 {
		p.MCPServers = normalizeServers(servers, absPath, log)
	}

	log.Debug("plugin loaded",
		zap.String("name", p.Manifest.Name),
		zap.Int("agents", len(p.Agents)),
		zap.Int("commands", len(p.Commands)),
		zap.Int("skills", len(p.Skills)),
		zap.Int("hooks", len(p.Hooks)),
		zap.Int("mcp_servers", len(p.MCPServers)),
	)

	return p, nil
}

func componentDir(root, fallback, custom string) string {
	if custom != "" {
		return filepath.Join(root, custom)
	}
	return filepath.Join(root, fallback)
}

// loadManifest loads the plugin.json manifest file.
func loadManifest(path string) (*pluginManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var manifest pluginManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	if manifest.Name == "" {
		return nil, ErrNameRequired
	}

	return &manifest, nil
}

// markdownFiles returns the slash-separated paths of all .md files under dir,
// relative to dir and sorted. A missing directory yields no files.
func markdownFiles(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	matches, err := doublestar.Glob(os.DirFS(dir), "**/*.md", doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// commandName derives a command name from its path relative to the commands
// directory: "workflows/review.md" becomes "workflows:review".
func commandName(rel string) string {
	return strings.ReplaceAll(strings.TrimSuffix(rel, ".md"), "/", ":")
}

// loadCommands loads all command files below a directory.
func loadCommands(dir string, log *zap.Logger) []Command {
	files, err := markdownFiles(dir)
	if err != nil {
		log.Warn("listing commands", zap.String("dir", dir), zap.Error(err))
		return nil
	}

	commands := make([]Command, 0, len(files))
	for _, rel := range files {
		cmd, err := ParseCommand(commandName(rel), filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			log.Warn("skipping command", zap.Error(err))
			continue
		}
		commands = append(commands, *cmd)
	}
	return commands
}

// loadAgents loads all agent files below a directory.
func loadAgents(dir string, log *zap.Logger) []Agent {
	files, err := markdownFiles(dir)
	if err != nil {
		log.Warn("listing agents", zap.String("dir", dir), zap.Error(err))
		return nil
	}

	agents := make([]Agent, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, rel := range files {
		agent, err := ParseAgent(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			log.Warn("skipping agent", zap.Error(err))
			continue
		}
		if !validName(agent.Name) {
			log.Warn("skipping agent with invalid name",
				zap.String("name", agent.Name),
				zap.String("path", agent.SourcePath),
			)
			continue
		}
		if prev, dup := seen[agent.Name]; dup {
			log.Warn("skipping duplicate agent",
				zap.String("name", agent.Name),
				zap.String("path", agent.SourcePath),
				zap.String("first", prev),
			)
			continue
		}
		seen[agent.Name] = agent.SourcePath
		agents = append(agents, *agent)
	}
	return agents
}

// validName reports whether an agent name from frontmatter can become a file
// name: one path element, not "." or "..".
func validName(name string) bool {
	switch name {
	case "", ".", "..":
		return false
	}
	return !strings.ContainsAny(name, `/\`+"\x00")
}

// loadSkills loads all skills from a directory.
// Each subdirectory containing a SKILL.md file is a skill.
func loadSkills(dir string, log *zap.Logger) []Skill {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("listing skills", zap.String("dir", dir), zap.Error(err))
		}
		return nil
	}

	skills := make([]Skill, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		skillPath := filepath.Join(dir, entry.Name())
		if _, err := os.Stat(filepath.Join(skillPath, "SKILL.md")); err != nil {
			continue
		}

		skill, err := ParseSkill(skillPath)
		if err != nil {
			log.Warn("skipping skill", zap.Error(err))
			continue
		}
		skills = append(skills, *skill)
	}
	return skills
}

// loadInlineOrFile resolves a manifest field that is either an inline JSON
// object or a path (relative to the plugin root) to a JSON file. When the
// field is absent, fallback is read if it exists. Returns nil when nothing
// is declared.
func loadInlineOrFile(root string, field any, fallback string) ([]byte, error) {
	switch v := field.(type) {
	case nil:
		data, err := os.ReadFile(filepath.Join(root, fallback))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return data, err
	case string:
		return os.ReadFile(filepath.Join(root, v))
	case map[string]any:
		return json.Marshal(v)
	default:
		return nil, fmt.Errorf("unsupported manifest value of type %T", field)
	}
}

func loadHooksConfig(root string, field any) (*hooksFile, error) {
	data, err := loadInlineOrFile(root, field, filepath.Join("hooks", "hooks.json"))
	if err != nil || data == nil {
		return nil, err
	}

	var cfg hooksFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing hooks config: %w", err)
	}
	// Inline manifest hooks may omit the outer "hooks" key.
	if cfg.Hooks == nil {
		var bare map[string][]hookMatcher
		if err := json.Unmarshal(data, &bare); err == nil {
			cfg.Hooks = bare
		}
	}
	return &cfg, nil
}

// sourceHookEvents maps Claude Code hook events to lifecycle events, in the
// order declarations are collected.
var sourceHookEvents = []struct {
	name  string
	event HookEvent
}{
	{"PreToolUse", EventToolPreExecute},
	{"PostToolUse", EventToolPostExecute},
	{"PostToolUseFailure", EventToolPostExecute},
	{"SessionStart", EventSessionCreated},
	{"SessionEnd", EventSessionDeleted},
	{"Stop", EventSessionIdle},
	{"SubagentStop", EventSessionIdle},
	{"PreCompact", EventSessionCompacting},
	{"PermissionRequest", EventPermissionRequested},
	{"UserPromptSubmit", EventMessageCreated},
	{"Notification", EventMessageUpdated},
}

// agentScopedEvents name the events whose matcher selects an agent.
var agentScopedEvents = map[string]bool{"SubagentStop": true}

// declarationsFrom flattens a hooks config into declarations: one per
// command, in event order then file order. Unknown event names are returned
// separately, sorted.
func declarationsFrom(cfg *hooksFile, log *zap.Logger) ([]HookDeclaration, []string) {
	var decls []HookDeclaration
	known := make(map[string]bool, len(sourceHookEvents))

	for _, src := range sourceHookEvents {
		known[src.name] = true
		for _, m := range cfg.Hooks[src.name] {
			for _, h := range m.Hooks {
				if h.Type != "" && h.Type != "command" {
					log.Warn("skipping non-command hook",
						zap.String("event", src.name),
						zap.String("type", h.Type),
						zap.String("matcher", m.Matcher),
					)
					continue
				}
				if strings.TrimSpace(h.Command) == "" {
					continue
				}

				decl := HookDeclaration{
					Event:          src.event,
					Matcher:        m.Matcher,
					CommandLine:    h.Command,
					TimeoutSeconds: h.Timeout,
				}
				if agentScopedEvents[src.name] && m.Matcher != "" && m.Matcher != "*" {
					decl.Agent = m.Matcher
					decl.Matcher = ""
				}
				decls = append(decls, decl)
			}
		}
	}

	var unmapped []string
	for name := range cfg.Hooks {
		if !known[name] {
			unmapped = append(unmapped, name)
		}
	}
	sort.Strings(unmapped)
	for _, name := range unmapped {
		log.Warn("hook event has no target equivalent", zap.String("event", name))
	}

	return decls, unmapped
}

func loadMCPConfig(root string, field any) (map[string]mcpServerEntry, error) {
	data, err := loadInlineOrFile(root, field, ".mcp.json")
	if err != nil || data == nil {
		return nil, err
	}

	var wrapped struct {
		MCPServers map[string]mcpServerEntry `json:"mcpServers"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parsing MCP config: %w", err)
	}
	if wrapped.MCPServers != nil {
		return wrapped.MCPServers, nil
	}

	var bare map[string]mcpServerEntry
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("parsing MCP config: %w", err)
	}
	return bare, nil
}

// normalizeServers turns .mcp.json entries into server specs, replacing
// ${CLAUDE_PLUGIN_ROOT} with the actual path.
func normalizeServers(entries map[string]mcpServerEntry, pluginRoot string, log *zap.Logger) map[string]MCPServerSpec {
	result := make(map[string]MCPServerSpec, len(entries))
	for name, e := range entries {
		switch {
		case e.Command != "":
			command := make([]string, 0, len(e.Args)+1)
			command = append(command, expandPluginRoot(e.Command, pluginRoot))
			for _, arg := range e.Args {
				command = append(command, expandPluginRoot(arg, pluginRoot))
			}
			var env map[string]string
			if e.Env != nil {
				env = make(map[string]string, len(e.Env))
				for k, v := range e.Env {
					env[k] = expandPluginRoot(v, pluginRoot)
				}
			}
			result[name] = MCPServerSpec{
				Type:        MCPLocal,
				Command:     command,
				Environment: env,
				Enabled:     e.Enabled,
			}
		case e.URL != "":
			result[name] = MCPServerSpec{
				Type:    MCPRemote,
				URL:     expandPluginRoot(e.URL, pluginRoot),
				Headers: e.Headers,
				Enabled: e.Enabled,
			}
		default:
			log.Warn("skipping MCP server without command or url", zap.String("server", name))
		}
	}
	return result
}

// expandPluginRoot replaces ${CLAUDE_PLUGIN_ROOT} with the actual plugin root path.
func expandPluginRoot(s, pluginRoot string) string {
	return strings.ReplaceAll(s, PluginRootVar, pluginRoot)
}

// GetCommand returns a command by name, or nil if not found.
func (p *Plugin) GetCommand(name string) *Command {
	for i := range p.Commands {
		if p.Commands[i].Name == name {
			return &p.Commands[i]
		}
	}
	return nil
}

// GetAgent returns an agent by name, or nil if not found.
func (p *Plugin) GetAgent(name string) *Agent {
	for i := range p.Agents {
		if p.Agents[i].Name == name {
			return &p.Agents[i]
		}
	}
	return nil
}

// GetSkill returns a skill by name, or nil if not found.
func (p *Plugin) GetSkill(name string) *Skill {
	for i := range p.Skills {
		if p.Skills[i].Name == name {
			return &p.Skills[i]
		}
	}
	return nil
}
