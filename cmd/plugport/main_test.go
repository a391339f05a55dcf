package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/plugport/opencode"
	"github.com/i2y/plugport/permission"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func createPlugin(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, ".claude-plugin/plugin.json", `{"name": "demo", "version": "0.1.0"}`)
	writeFile(t, root, "agents/security-sentinel.md", "---\ndescription: Audits code\n---\nAudit .claude/state.")
	writeFile(t, root, "commands/review.md", "---\ndescription: Review\nallowed-tools: Bash(git diff:*)\n---\nReview it.")
	writeFile(t, root, "hooks/hooks.json", `{"hooks": {"SessionStart": [{"hooks": [{"type": "command", "command": "echo hi"}]}]}}`)
	return root
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := NewApp(&Config{})
	app.Writer = &out
	err := app.Run(context.Background(), append([]string{"plugport"}, args...))
	return out.String(), err
}

func TestConvertCommand(t *testing.T) {
	src := createPlugin(t)
	dst := filepath.Join(t.TempDir(), "bundle")

	out, err := run(t, "convert", "-o", dst, "--permissions", "from-commands", "--agent-mode", "primary", src)
	require.NoError(t, err)
	assert.Contains(t, out, "Converted demo: 1 agents, 1 commands, 0 skills, 0 MCP servers")

	data, err := os.ReadFile(filepath.Join(dst, opencode.ConfigFileName))
	require.NoError(t, err)
	var config opencode.Config
	require.NoError(t, json.Unmarshal(data, &config))
	assert.Equal(t, permission.Map{
		permission.Bash: permission.Patterned(map[string]permission.Decision{"git diff *": permission.Allow}),
	}, config.Permission)
	assert.Equal(t, "Review it.", config.Command["review"].Template)

	agent, err := os.ReadFile(filepath.Join(dst, "agents", "security-sentinel.md"))
	require.NoError(t, err)
	assert.Contains(t, string(agent), "mode: primary\n")
	assert.Contains(t, string(agent), "Audit .opencode/state.")

	assert.FileExists(t, filepath.Join(dst, "plugins", "converted-hooks.ts"))
}

func TestConvertCommand_InvalidOptions(t *testing.T) {
	src := createPlugin(t)

	_, err := run(t, "convert", "-o", t.TempDir(), "--agent-mode", "main", src)
	assert.ErrorIs(t, err, opencode.ErrInvalidAgentMode)

	_, err = run(t, "convert", "-o", t.TempDir(), "--permissions", "strict", src)
	assert.ErrorIs(t, err, permission.ErrInvalidMode)
}

func TestConvertCommand_MissingArgument(t *testing.T) {
	_, err := run(t, "convert", "-o", t.TempDir())
	assert.ErrorIs(t, err, errPluginDirRequired)
}

func TestInspectCommand(t *testing.T) {
	out, err := run(t, "inspect", createPlugin(t))
	require.NoError(t, err)

	assert.Contains(t, out, "# Plugin: demo (0.1.0)")
	assert.Contains(t, out, "- security-sentinel: Audits code")
	assert.Contains(t, out, "- session-created [*]: echo hi")
}

func TestSchemaCommand(t *testing.T) {
	out, err := run(t, "schema")
	require.NoError(t, err)

	assert.True(t, json.Valid([]byte(out)))
	assert.Contains(t, out, `"permission"`)
}

func TestProbeCommand_NoServers(t *testing.T) {
	out, err := run(t, "probe", createPlugin(t))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestProbeCommand_DisabledServer(t *testing.T) {
	src := createPlugin(t)
	writeFile(t, src, ".mcp.json", `{"mcpServers": {"off": {"command": "nonexistent-server", "enabled": false}}}`)

	out, err := run(t, "probe", src)
	require.NoError(t, err)
	assert.Equal(t, "off: disabled, skipped\n", out)
}

func TestProbeCommand_FailureCountsOnlyEnabledServers(t *testing.T) {
	src := createPlugin(t)
	writeFile(t, src, ".mcp.json", `{"mcpServers": {
  "broken": {"command": "/nonexistent/plugport-test-server"},
  "off": {"command": "nonexistent-server", "enabled": false}
}}`)

	out, err := run(t, "probe", "--timeout", "5s", src)
	require.Error(t, err)
	assert.EqualError(t, err, "1 of 1 MCP servers failed")
	assert.Contains(t, out, "broken: FAILED: ")
	assert.Contains(t, out, "off: disabled, skipped\n")
}
