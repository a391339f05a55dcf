// Package plugin models a Claude Code plugin and loads one from disk.
//
// The types here are the input of the conversion: once loaded, a Plugin is
// treated as immutable.
package plugin

import "fmt"

// Plugin represents a loaded Claude Code plugin.
type Plugin struct {
	// Root path of the plugin. Not dereferenced by the converter.
	RootPath string

	Manifest Manifest

	// Components
	Agents   []Agent
	Commands []Command
	Skills   []Skill

	// Lifecycle hooks in declaration order, grouped by event.
	Hooks []HookDeclaration

	// Source hook events that have no equivalent on the target host.
	UnmappedHookEvents []string

	// MCP servers keyed by name. Nil when the plugin declares none.
	MCPServers map[string]MCPServerSpec
}

// Manifest holds the identifying metadata from plugin.json.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
	Author      Author `json:"author,omitempty"`
}

// Author represents plugin author information.
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Agent represents a subagent defined in a plugin.
type Agent struct {
	Name        string   // From frontmatter, or derived from filename
	Description string   // From frontmatter
	Body        string   // Markdown content (agent instructions)
	SourcePath  string   // Original file path
	Model       string   // Optional model alias or id
	Tools       []string // Tools this agent can use
	Temperature *float64 // Optional declared sampling temperature
}

// Command represents a slash command defined in a plugin.
type Command struct {
	Name                   string   // Derived from path, e.g. "workflows:review"
	Description            string   // From frontmatter
	ArgumentHint           string   // From frontmatter
	Body                   string   // Markdown content (the prompt template)
	SourcePath             string   // Original file path
	Model                  string   // Optional model alias or id
	DisableModelInvocation bool     // Excluded from the converted command map
	AllowedTools           []string // Tool specs, e.g. "Bash(git status:*)"
	DeniedTools            []string // Tool specs the command must not use
}

// Skill represents an agent skill defined in a plugin.
type Skill struct {
	Name        string // Derived from directory name
	Description string // From frontmatter
	Body        string // Markdown content (skill instructions)
	SourcePath  string // Original SKILL.md path
}

// HookEvent is a host-neutral lifecycle event a hook can be bound to.
type HookEvent string

// Lifecycle events, in the order generated handlers are emitted.
const (
	EventToolPreExecute      HookEvent = "tool-pre-execute"
	EventToolPostExecute     HookEvent = "tool-post-execute"
	EventSessionCreated      HookEvent = "session-created"
	EventSessionDeleted      HookEvent = "session-deleted"
	EventSessionIdle         HookEvent = "session-idle"
	EventSessionCompacting   HookEvent = "session-compacting"
	EventPermissionRequested HookEvent = "permission-requested"
	EventPermissionReplied   HookEvent = "permission-replied"
	EventMessageCreated      HookEvent = "message-created"
	EventMessageUpdated      HookEvent = "message-updated"
)

// AllHookEvents lists every lifecycle event in canonical order.
var AllHookEvents = []HookEvent{
	EventToolPreExecute,
	EventToolPostExecute,
	EventSessionCreated,
	EventSessionDeleted,
	EventSessionIdle,
	EventSessionCompacting,
	EventPermissionRequested,
	EventPermissionReplied,
	EventMessageCreated,
	EventMessageUpdated,
}

// IsToolEvent reports whether the event carries a tool name its matcher can
// be checked against.
func (e HookEvent) IsToolEvent() bool {
	switch e {
	case EventToolPreExecute, EventToolPostExecute, EventPermissionRequested, EventPermissionReplied:
		return true
	default:
		return false
	}
}

// HookDeclaration is a single command bound to a lifecycle event.
type HookDeclaration struct {
	Event          HookEvent
	Matcher        string // Tool-name pattern such as "Bash|Write"; empty matches everything
	Agent          string // Set when the hook is scoped to one agent rather than a tool
	CommandLine    string
	TimeoutSeconds int // Zero when not declared
}

// MCPServerType distinguishes locally spawned servers from remote ones.
type MCPServerType string

const (
	MCPLocal  MCPServerType = "local"
	MCPRemote MCPServerType = "remote"
)

// MCPServerSpec declares an MCP server. Local servers set Command (program
// followed by its arguments) and optionally Environment; remote servers set
// URL and optionally Headers.
type MCPServerSpec struct {
	Type        MCPServerType
	Command     []string
	Environment map[string]string
	URL         string
	Headers     map[string]string
	Enabled     *bool // Nil means enabled
}

// IsEnabled reports whether the server is enabled, defaulting to true.
func (s MCPServerSpec) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// ParseError reports a component file that could not be read or decoded.
type ParseError struct {
	Path  string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// pluginManifest represents the plugin.json structure.
type pluginManifest struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Version     string  `json:"version,omitempty"`
	Author      *Author `json:"author,omitempty"`

	// Custom paths for components
	Commands string `json:"commands,omitempty"`
	Agents   string `json:"agents,omitempty"`
	Skills   string `json:"skills,omitempty"`

	// Inline object or path to hooks/mcp config
	Hooks      any `json:"hooks,omitempty"`
	MCPServers any `json:"mcpServers,omitempty"`
}

// hooksFile represents hooks.json.
type hooksFile struct {
	Hooks map[string][]hookMatcher `json:"hooks"`
}

type hookMatcher struct {
	Matcher string      `json:"matcher,omitempty"`
	Hooks   []hookEntry `json:"hooks"`
}

type hookEntry struct {
	Type    string `json:"type"`
	Command string `json:"command,omitempty"`
	Timeout int    `json:"timeout,omitempty"`
}

// mcpServerEntry represents one server in .mcp.json.
type mcpServerEntry struct {
	Type    string            `json:"type,omitempty"`
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	URL     string            `json:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Enabled *bool             `json:"enabled,omitempty"`
}
