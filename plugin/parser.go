package plugin

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/i2y/plugport/frontmatter"
)

// Frontmatter keys read from component files.
const (
	keyName                   = "name"
	keyDescription            = "description"
	keyModel                  = "model"
	keyTools                  = "tools"
	keyTemperature            = "temperature"
	keyArgumentHint           = "argument-hint"
	keyAllowedTools           = "allowed-tools"
	keyDisallowedTools        = "disallowed-tools"
	keyDisableModelInvocation = "disable-model-invocation"
)

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ParseError{Path: path, Cause: err}
	}
	return string(data), nil
}

// ParseAgent parses an agent markdown file.
func ParseAgent(path string) (*Agent, error) {
	text, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return NewAgent(strings.TrimSuffix(filepath.Base(path), ".md"), path, text), nil
}

// NewAgent builds an Agent from markdown text. A "name" key in the metadata
// overrides fallbackName. Malformed metadata is treated as absent.
func NewAgent(fallbackName, sourcePath, text string) *Agent {
	meta, body := frontmatter.Parse(text)

	agent := &Agent{
		Name:        fallbackName,
		Description: meta.String(keyDescription),
		Body:        strings.TrimSpace(body),
		SourcePath:  sourcePath,
		Model:       meta.String(keyModel),
		Tools:       SplitToolList(meta.Strings(keyTools)),
	}
	if name := strings.TrimSpace(meta.String(keyName)); name != "" {
		agent.Name = name
	}
	if t, ok := meta.Float(keyTemperature); ok {
		agent.Temperature = &t
	}
	return agent
}

// ParseCommand parses a command markdown file. The command is named after
// the given name rather than the file, since nested commands derive their
// name from the directory structure.
func ParseCommand(name, path string) (*Command, error) {
	text, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return NewCommand(name, path, text), nil
}

// NewCommand builds a Command from markdown text. Malformed metadata is
// treated as absent.
func NewCommand(name, sourcePath, text string) *Command {
	meta, body := frontmatter.Parse(text)

	cmd := &Command{
		Name:         name,
		Description:  meta.String(keyDescription),
		ArgumentHint: meta.String(keyArgumentHint),
		Body:         strings.TrimSpace(body),
		SourcePath:   sourcePath,
		Model:        meta.String(keyModel),
		AllowedTools: SplitToolList(meta.Strings(keyAllowedTools)),
		DeniedTools:  SplitToolList(meta.Strings(keyDisallowedTools)),
	}
	if disabled, ok := meta.Bool(keyDisableModelInvocation); ok {
		cmd.DisableModelInvocation = disabled
	}
	return cmd
}

// ParseSkill parses a skill from a directory containing SKILL.md.
func ParseSkill(dirPath string) (*Skill, error) {
	skillFile := filepath.Join(dirPath, "SKILL.md")

	text, err := readFile(skillFile)
	if err != nil {
		return nil, err
	}

	meta, body := frontmatter.Parse(text)
	return &Skill{
		Name:        filepath.Base(dirPath),
		Description: meta.String(keyDescription),
		Body:        strings.TrimSpace(body),
		SourcePath:  skillFile,
	}, nil
}

// SplitToolList flattens tool declarations into individual tool specs.
// Each entry may itself be a comma-separated list; commas inside
// parentheses belong to a pattern and do not split.
//
//	SplitToolList([]string{"Read, Bash(git add:*), Grep"})
//	// => ["Read", "Bash(git add:*)", "Grep"]
func SplitToolList(entries []string) []string {
	var out []string
	for _, entry := range entries {
		depth := 0
		start := 0
		for i, r := range entry {
			switch r {
			case '(':
				depth++
			case ')':
				if depth > 0 {
					depth--
				}
			case ',':
				if depth == 0 {
					out = appendTool(out, entry[start:i])
					start = i + 1
				}
			}
		}
		out = appendTool(out, entry[start:])
	}
	return out
}

func appendTool(out []string, spec string) []string {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return out
	}
	return append(out, spec)
}
