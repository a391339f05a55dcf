package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func createTestPlugin(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeFile(t, root, ".claude-plugin/plugin.json", `{
  "name": "compound-engineering",
  "version": "1.2.0",
  "description": "Review and planning workflows",
  "author": {"name": "Test Author", "email": "test@example.com"}
}`)

	writeFile(t, root, "commands/plan.md", `---
description: Plan a feature
model: sonnet
---
Plan $ARGUMENTS.`)
	writeFile(t, root, "commands/workflows/review.md", `---
description: Review a PR
allowed-tools: Bash(gh pr view:*), Read
---
Review the pull request.`)
	writeFile(t, root, "commands/setup.md", `---
description: Internal setup
disable-model-invocation: true
---
Setup.`)

	writeFile(t, root, "agents/review/security-sentinel.md", `---
name: security-sentinel
description: Audits code for vulnerabilities
model: opus
---
You audit code.`)
	writeFile(t, root, "agents/research/repo-research-analyst.md", `---
description: Researches repository conventions
---
You research repos.`)

	writeFile(t, root, "skills/git-worktree/SKILL.md", `---
name: git-worktree
description: Manage git worktrees
---
Use .claude/worktrees for state.`)
	writeFile(t, root, "skills/notes.txt", "not a skill")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "skills", "empty"), 0o755))

	writeFile(t, root, "hooks/hooks.json", `{
  "hooks": {
    "PreToolUse": [
      {"matcher": "Bash|Write", "hooks": [{"type": "command", "command": "./lint.sh", "timeout": 30}]}
    ],
    "SubagentStop": [
      {"matcher": "security-sentinel", "hooks": [{"type": "command", "command": "echo done"}]},
      {"matcher": "*", "hooks": [{"type": "command", "command": "echo any"}]}
    ],
    "Stop": [
      {"hooks": [{"type": "prompt", "prompt": "Summarize"}, {"type": "command", "command": "notify-send stop"}]}
    ],
    "Setup": [
      {"hooks": [{"type": "command", "command": "make setup"}]}
    ]
  }
}`)

	writeFile(t, root, ".mcp.json", `{
  "mcpServers": {
    "local": {"command": "${CLAUDE_PLUGIN_ROOT}/bin/server", "args": ["--port", "0"]},
    "withenv": {"command": "npx", "args": ["ctx"], "env": {"ROOT": "${CLAUDE_PLUGIN_ROOT}"}},
    "remote": {"type": "http", "url": "https://mcp.example.com/mcp", "headers": {"Authorization": "Bearer x"}},
    "broken": {"type": "stdio"}
  }
}`)

	return root
}

func TestLoad(t *testing.T) {
	root := createTestPlugin(t)

	p, err := Load(root)
	require.NoError(t, err)

	absRoot, err := filepath.Abs(root)
	require.NoError(t, err)

	t.Run("manifest", func(t *testing.T) {
		assert.Equal(t, absRoot, p.RootPath)
		assert.Equal(t, "compound-engineering", p.Manifest.Name)
		assert.Equal(t, "1.2.0", p.Manifest.Version)
		assert.Equal(t, "Review and planning workflows", p.Manifest.Description)
		assert.Equal(t, "Test Author", p.Manifest.Author.Name)
	})

	t.Run("commands", func(t *testing.T) {
		require.Len(t, p.Commands, 3)
		assert.Equal(t, "plan", p.Commands[0].Name)
		assert.Equal(t, "setup", p.Commands[1].Name)
		assert.Equal(t, "workflows:review", p.Commands[2].Name)

		review := p.GetCommand("workflows:review")
		require.NotNil(t, review)
		assert.Equal(t, []string{"Bash(gh pr view:*)", "Read"}, review.AllowedTools)
		assert.True(t, p.GetCommand("setup").DisableModelInvocation)
		assert.Nil(t, p.GetCommand("missing"))
		assert.True(t, p.HasCommand("workflows:review"))
		assert.False(t, p.HasCommand("missing"))
	})

	t.Run("agents", func(t *testing.T) {
		require.Len(t, p.Agents, 2)
		assert.Equal(t, "repo-research-analyst", p.Agents[0].Name)
		assert.Equal(t, "security-sentinel", p.Agents[1].Name)
		assert.Equal(t, "opus", p.GetAgent("security-sentinel").Model)
		assert.True(t, p.HasAgent("repo-research-analyst"))
	})

	t.Run("skills", func(t *testing.T) {
		require.Len(t, p.Skills, 1)
		assert.Equal(t, "git-worktree", p.Skills[0].Name)
		assert.Equal(t, "Manage git worktrees", p.Skills[0].Description)
		assert.True(t, p.HasSkill("git-worktree"))
		assert.False(t, p.HasSkill("empty"))
	})

	t.Run("hooks", func(t *testing.T) {
		assert.Equal(t, []HookDeclaration{
			{Event: EventToolPreExecute, Matcher: "Bash|Write", CommandLine: "./lint.sh", TimeoutSeconds: 30},
			{Event: EventSessionIdle, CommandLine: "notify-send stop"},
			{Event: EventSessionIdle, Agent: "security-sentinel", CommandLine: "echo done"},
			{Event: EventSessionIdle, Matcher: "*", CommandLine: "echo any"},
		}, p.Hooks)
		assert.Equal(t, []string{"Setup"}, p.UnmappedHookEvents)
	})

	t.Run("mcp servers", func(t *testing.T) {
		assert.Equal(t, []string{"local", "remote", "withenv"}, p.MCPServerNames())

		local := p.MCPServers["local"]
		assert.Equal(t, MCPLocal, local.Type)
		assert.Equal(t, []string{absRoot + "/bin/server", "--port", "0"}, local.Command)
		assert.Nil(t, local.Environment)
		assert.True(t, local.IsEnabled())

		assert.Equal(t, map[string]string{"ROOT": absRoot}, p.MCPServers["withenv"].Environment)

		remote := p.MCPServers["remote"]
		assert.Equal(t, MCPRemote, remote.Type)
		assert.Equal(t, "https://mcp.example.com/mcp", remote.URL)
		assert.Equal(t, map[string]string{"Authorization": "Bearer x"}, remote.Headers)
	})
}

func TestLoad_LogsSkippedDeclarations(t *testing.T) {
	root := createTestPlugin(t)
	core, logs := observer.New(zap.WarnLevel)

	_, err := Load(root, WithLogger(zap.New(core)))
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("skipping non-command hook").Len())
	assert.Equal(t, 1, logs.FilterMessage("hook event has no target equivalent").Len())
	assert.Equal(t, 1, logs.FilterMessage("skipping MCP server without command or url").Len())
}

func TestLoad_DuplicateAgentKeepsFirst(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".claude-plugin/plugin.json", `{"name": "dup"}`)
	writeFile(t, root, "agents/a.md", "---\nname: reviewer\ndescription: first\n---\nA")
	writeFile(t, root, "agents/b.md", "---\nname: reviewer\ndescription: second\n---\nB")

	p, err := Load(root)
	require.NoError(t, err)

	require.Len(t, p.Agents, 1)
	assert.Equal(t, "first", p.Agents[0].Description)
}

func TestLoad_SkipsAgentWithPathName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".claude-plugin/plugin.json", `{"name": "names"}`)
	writeFile(t, root, "agents/ok.md", "---\ndescription: fine\n---\nA")
	writeFile(t, root, "agents/up.md", "---\nname: ../../escaped\n---\nB")
	writeFile(t, root, "agents/dot.md", "---\nname: ..\n---\nC")
	writeFile(t, root, "agents/win.md", "---\nname: a\\\\b\n---\nD")
	core, logs := observer.New(zap.WarnLevel)

	p, err := Load(root, WithLogger(zap.New(core)))
	require.NoError(t, err)

	require.Len(t, p.Agents, 1)
	assert.Equal(t, "ok", p.Agents[0].Name)
	assert.Equal(t, 3, logs.FilterMessage("skipping agent with invalid name").Len())
}

func TestLoad_InlineManifestDeclarations(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".claude-plugin/plugin.json", `{
  "name": "inline",
  "hooks": {"SessionStart": [{"hooks": [{"type": "command", "command": "echo hi"}]}]},
  "mcpServers": "config/servers.json"
}`)
	writeFile(t, root, "config/servers.json", `{"docs": {"url": "https://docs.example.com/mcp"}}`)

	p, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, []HookDeclaration{{Event: EventSessionCreated, CommandLine: "echo hi"}}, p.Hooks)
	require.Contains(t, p.MCPServers, "docs")
	assert.Equal(t, MCPRemote, p.MCPServers["docs"].Type)
}

func TestLoad_EmptyPlugin(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".claude-plugin/plugin.json", `{"name": "empty"}`)

	p, err := Load(root)
	require.NoError(t, err)

	assert.Empty(t, p.Agents)
	assert.Empty(t, p.Commands)
	assert.Empty(t, p.Skills)
	assert.Nil(t, p.Hooks)
	assert.Nil(t, p.MCPServers)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing manifest", func(t *testing.T) {
		_, err := Load(t.TempDir())
		assert.ErrorIs(t, err, ErrManifestNotFound)
	})

	t.Run("missing name", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, ".claude-plugin/plugin.json", `{"version": "1.0.0"}`)

		_, err := Load(root)
		assert.ErrorIs(t, err, ErrNameRequired)
	})

	t.Run("path is a file", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "file.txt", "x")

		_, err := Load(filepath.Join(root, "file.txt"))
		assert.Error(t, err)
	})
}

func TestSummary(t *testing.T) {
	p, err := Load(createTestPlugin(t))
	require.NoError(t, err)

	summary := p.Summary()

	assert.Contains(t, summary, "# Plugin: compound-engineering (1.2.0)")
	assert.Contains(t, summary, "Agents (2):")
	assert.Contains(t, summary, "- security-sentinel: Audits code for vulnerabilities (model: opus)")
	assert.Contains(t, summary, "- /setup: Internal setup [disabled]")
	assert.Contains(t, summary, "- session-idle [agent security-sentinel]: echo done")
	assert.Contains(t, summary, "Unmapped hook events: Setup")
	assert.Contains(t, summary, "- remote (remote): https://mcp.example.com/mcp")
}
