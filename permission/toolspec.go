package permission

import (
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// toolCapabilities maps Claude Code tool names to capabilities.
var toolCapabilities = map[string]Capability{
	"Bash":            Bash,
	"Read":            Read,
	"Write":           Write,
	"Edit":            Edit,
	"MultiEdit":       Edit,
	"NotebookEdit":    Edit,
	"Grep":            Grep,
	"Glob":            Glob,
	"LS":              List,
	"WebFetch":        WebFetch,
	"WebSearch":       WebFetch,
	"Skill":           Skill,
	"Patch":           Patch,
	"Task":            Task,
	"AskUserQuestion": Question,
	"TodoWrite":       TodoWrite,
	"TodoRead":        TodoRead,
}

// CapabilityOf returns the capability a tool name maps to.
func CapabilityOf(tool string) (Capability, bool) {
	c, ok := toolCapabilities[strings.TrimSpace(tool)]
	return c, ok
}

// ToolSpec is one parsed entry of an allowed-tools or disallowed-tools list,
// such as "Read" or "Bash(git add:*)".
type ToolSpec struct {
	Capability Capability
	Pattern    string // Empty when the entry covers the whole capability
}

// ParseToolSpec parses a single tool entry. It reports false for tools
// without a capability (MCP tools, for instance) and for read patterns that
// are not valid globs.
//
//	ParseToolSpec("Bash(git add:*)") // => {bash, "git add *"}, true
//	ParseToolSpec("mcp__github__x")  // => {}, false
func ParseToolSpec(spec string) (ToolSpec, bool) {
	spec = strings.TrimSpace(spec)
	name, pattern := spec, ""
	if open := strings.IndexByte(spec, '('); open >= 0 && strings.HasSuffix(spec, ")") {
		name = spec[:open]
		pattern = strings.TrimSpace(spec[open+1 : len(spec)-1])
	}

	c, ok := CapabilityOf(name)
	if !ok {
		return ToolSpec{}, false
	}
	if pattern == Wildcard || !c.IsPatternBased() {
		pattern = ""
	}

	switch c {
	case Bash:
		pattern = normalizeBashPattern(pattern)
	case Read:
		if pattern != "" && !doublestar.ValidatePattern(pattern) {
			return ToolSpec{}, false
		}
	}
	return ToolSpec{Capability: c, Pattern: pattern}, true
}

// normalizeBashPattern turns the "prefix:*" form into "prefix *".
func normalizeBashPattern(p string) string {
	if strings.HasSuffix(p, ":*") {
		return strings.TrimSpace(strings.TrimSuffix(p, ":*")) + " *"
	}
	return p
}

var (
	// !`git status --short`
	inlineShellRe = regexp.MustCompile("!`([^`]+)`")
	// @docs/plan.md, preceded by start of text or whitespace
	fileRefRe = regexp.MustCompile(`(?:^|\s)@([A-Za-z0-9_./-]*[A-Za-z0-9_-]\.[A-Za-z0-9]+)`)
)

// InferredUsage returns the tool usage implied by a command body: inline
// shell invocations allow their program, file references allow reading the
// referenced path.
//
//	InferredUsage("Status: !`git status`\nSee @docs/plan.md")
//	// => [{bash, "git *"}, {read, "docs/plan.md"}]
func InferredUsage(body string) []ToolSpec {
	var specs []ToolSpec
	for _, m := range inlineShellRe.FindAllStringSubmatch(body, -1) {
		fields := strings.Fields(m[1])
		if len(fields) == 0 {
			continue
		}
		specs = append(specs, ToolSpec{Capability: Bash, Pattern: fields[0] + " *"})
	}
	for _, m := range fileRefRe.FindAllStringSubmatch(body, -1) {
		if !doublestar.ValidatePattern(m[1]) {
			continue
		}
		specs = append(specs, ToolSpec{Capability: Read, Pattern: m[1]})
	}
	return specs
}
