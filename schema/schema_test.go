package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/plugport/opencode"
)

func parse(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(raw, &parsed))
	return parsed
}

func property(t *testing.T, s map[string]any, name string) map[string]any {
	t.Helper()
	props, ok := s["properties"].(map[string]any)
	require.True(t, ok, "schema should have properties")
	prop, ok := props[name].(map[string]any)
	require.True(t, ok, "schema should contain property %s", name)
	return prop
}

func TestConfig(t *testing.T) {
	raw, err := Config()
	require.NoError(t, err)
	require.True(t, json.Valid(raw))

	s := parse(t, raw)

	assert.Equal(t, "object", s["type"])
	assert.Equal(t, "OpenCode config", s["title"])
	for _, name := range []string{"$schema", "command", "permission", "mcp"} {
		property(t, s, name)
	}
	assert.Equal(t, []any{"$schema"}, s["required"])
}

func TestConfig_NoReferences(t *testing.T) {
	assert.True(t, Reflector.DoNotReference)

	raw, err := Config()
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "$ref")
}

func TestConfig_Permission(t *testing.T) {
	raw, err := Config()
	require.NoError(t, err)

	perm := property(t, parse(t, raw), "permission")

	assert.Equal(t, false, perm["additionalProperties"])
	bash := property(t, perm, "bash")
	oneOf, ok := bash["oneOf"].([]any)
	require.True(t, ok)
	require.Len(t, oneOf, 2)
	assert.Equal(t, "string", oneOf[0].(map[string]any)["type"])
	assert.Equal(t, "object", oneOf[1].(map[string]any)["type"])
	assert.Len(t, perm["properties"], 14)
}

func TestConfig_MCPServer(t *testing.T) {
	raw, err := Config()
	require.NoError(t, err)

	server := property(t, parse(t, raw), "mcp")["additionalProperties"].(map[string]any)

	assert.Equal(t, []any{"local", "remote"}, property(t, server, "type")["enum"])
	assert.ElementsMatch(t, []any{"type", "enabled"}, server["required"])
}

func TestGenerate_Command(t *testing.T) {
	raw, err := Generate[opencode.CommandConfig]()
	require.NoError(t, err)

	s := parse(t, raw)

	assert.Equal(t, "Prompt sent when the command runs", property(t, s, "template")["description"])
	assert.Equal(t, []any{"template"}, s["required"])
}
