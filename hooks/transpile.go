package hooks

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/i2y/plugport/permission"
	"github.com/i2y/plugport/plugin"
)

// FileName is the name of the generated script within the plugins directory.
const FileName = "converted-hooks.ts"

const (
	header = `import type { Plugin } from "@opencode-ai/plugin"` + "\n\n"
	open   = "export const ConvertedHooks: Plugin = async ({ $ }) => {\n  return {\n"
	footer = "\n  }\n}\n\nexport default ConvertedHooks\n"
)

// Transpile renders hook declarations as an OpenCode plugin script. Events
// are registered in plugin.AllHookEvents order; declarations within an event
// run in the order given. Unmapped source event names, if any, are listed in
// a leading comment.
func Transpile(decls []plugin.HookDeclaration, unmapped ...string) string {
	byEvent := make(map[plugin.HookEvent][]plugin.HookDeclaration)
	for _, d := range decls {
		byEvent[d.Event] = append(byEvent[d.Event], d)
	}

	var handlers []string
	for _, event := range plugin.AllHookEvents {
		if len(byEvent[event]) == 0 {
			continue
		}
		target, _ := TargetEvent(event)
		handlers = append(handlers, handler(target, event, byEvent[event]))
	}

	var sb strings.Builder
	sb.WriteString(header)
	if len(unmapped) > 0 {
		sb.WriteString("// Unmapped Claude hook events: " + annotation(strings.Join(unmapped, ", ")) + "\n\n")
	}
	sb.WriteString(open)
	sb.WriteString(strings.Join(handlers, ",\n"))
	sb.WriteString(footer)
	return sb.String()
}

func handler(target string, event plugin.HookEvent, decls []plugin.HookDeclaration) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "    %q: async (input) => {\n", target)
	for _, d := range decls {
		switch {
		case d.Agent != "":
			fmt.Fprintf(&sb, "      // agent: %s\n", annotation(d.Agent))
		case d.Matcher != "":
			fmt.Fprintf(&sb, "      // matcher: %s\n", annotation(d.Matcher))
		}
		if d.TimeoutSeconds > 0 {
			fmt.Fprintf(&sb, "      // timeout: %ds (not enforced)\n", d.TimeoutSeconds)
		}
		sb.WriteString("      " + statement(event, d) + "\n")
	}
	sb.WriteString("    }")
	return sb.String()
}

func statement(event plugin.HookEvent, d plugin.HookDeclaration) string {
	run := "await $`" + escape(d.CommandLine) + "`"
	if !event.IsToolEvent() {
		return run
	}
	tools := matcherTools(d.Matcher)
	if len(tools) == 0 {
		return run
	}
	conds := make([]string, len(tools))
	for i, tool := range tools {
		conds[i] = fmt.Sprintf("input.tool === %q", tool)
	}
	return "if (" + strings.Join(conds, " || ") + ") { " + run + " }"
}

var toolNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// matcherTools returns the target tool names an alternation matcher such as
// "Bash|Write" selects. It returns nil when the matcher matches everything or
// is a pattern that cannot be reduced to tool names.
func matcherTools(matcher string) []string {
	matcher = strings.TrimSpace(matcher)
	if matcher == "" || matcher == permission.Wildcard {
		return nil
	}

	var tools []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(matcher, "|") {
		part = strings.TrimSpace(part)
		if !toolNameRe.MatchString(part) {
			return nil
		}
		tool := strings.ToLower(part)
		if c, ok := permission.CapabilityOf(part); ok {
			tool = string(c)
		}
		if !seen[tool] {
			seen[tool] = true
			tools = append(tools, tool)
		}
	}
	return tools
}

// lineBreaks are the characters that end a line comment in TypeScript.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ", "\u2028", " ", "\u2029", " ")

// annotation flattens s onto one line so it stays inside a // comment.
func annotation(s string) string {
	return lineBreaks.Replace(s)
}

var escaper = strings.NewReplacer("\\", "\\\\", "`", "\\`", "${", "\\${")

// escape makes a command line safe inside a template literal.
func escape(s string) string {
	return escaper.Replace(s)
}
