// Package permission builds the OpenCode permission block from the tool
// usage declared by Claude Code commands.
package permission

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

// Capability is a permission key understood by the target host.
type Capability string

// The closed set of capabilities.
const (
	Read      Capability = "read"
	Write     Capability = "write"
	Edit      Capability = "edit"
	Bash      Capability = "bash"
	Grep      Capability = "grep"
	Glob      Capability = "glob"
	List      Capability = "list"
	WebFetch  Capability = "webfetch"
	Skill     Capability = "skill"
	Patch     Capability = "patch"
	Task      Capability = "task"
	Question  Capability = "question"
	TodoWrite Capability = "todowrite"
	TodoRead  Capability = "todoread"
)

// AllCapabilities lists every capability in canonical order.
var AllCapabilities = []Capability{
	Read, Write, Edit, Bash, Grep, Glob, List,
	WebFetch, Skill, Patch, Task, Question, TodoWrite, TodoRead,
}

// IsPatternBased reports whether rules for the capability may be refined
// per pattern rather than granted as a whole.
func (c Capability) IsPatternBased() bool {
	return c == Bash || c == Read
}

// Decision is the outcome of a permission rule.
type Decision string

const (
	Allow Decision = "allow"
	Deny  Decision = "deny"
)

// Wildcard is the pattern matching everything not matched by a more
// specific pattern.
const Wildcard = "*"

// Rule is either a single decision for the whole capability or a map from
// pattern to decision. It marshals to a JSON string or object accordingly.
type Rule struct {
	Decision Decision
	Patterns map[string]Decision
}

// Scalar returns a rule applying d to the whole capability.
func Scalar(d Decision) Rule {
	return Rule{Decision: d}
}

// Patterned returns a rule deciding per pattern.
func Patterned(patterns map[string]Decision) Rule {
	return Rule{Patterns: patterns}
}

// IsScalar reports whether the rule applies one decision to everything.
func (r Rule) IsScalar() bool {
	return r.Patterns == nil
}

func (r Rule) MarshalJSON() ([]byte, error) {
	if r.IsScalar() {
		return json.Marshal(r.Decision)
	}
	return json.Marshal(r.Patterns)
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var d Decision
	if err := json.Unmarshal(data, &d); err == nil {
		*r = Scalar(d)
		return nil
	}
	var patterns map[string]Decision
	if err := json.Unmarshal(data, &patterns); err != nil {
		return fmt.Errorf("permission rule must be a decision or a pattern map: %w", err)
	}
	*r = Patterned(patterns)
	return nil
}

// JSONSchema describes a rule as a decision string or a pattern map.
func (Rule) JSONSchema() *jsonschema.Schema {
	decision := func() *jsonschema.Schema {
		return &jsonschema.Schema{Type: "string", Enum: []any{string(Allow), string(Deny)}}
	}
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			decision(),
			{Type: "object", AdditionalProperties: decision()},
		},
	}
}

// Map is the permission block: one rule per capability that received a
// decision.
type Map map[Capability]Rule

// JSONSchema restricts the block to the known capabilities.
func (Map) JSONSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	for _, c := range AllCapabilities {
		props.Set(string(c), Rule{}.JSONSchema())
	}
	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

// Capabilities returns the capabilities present in m, in canonical order.
func (m Map) Capabilities() []Capability {
	var caps []Capability
	for _, c := range AllCapabilities {
		if _, ok := m[c]; ok {
			caps = append(caps, c)
		}
	}
	return caps
}

// Mode selects how the permission block is produced.
type Mode string

const (
	// None emits no permission block.
	None Mode = "none"
	// Broad allows every capability.
	Broad Mode = "broad"
	// FromCommands derives the block from the commands' declared tool usage.
	FromCommands Mode = "from-commands"
)

// ErrInvalidMode is returned by ParseMode for unknown modes.
var ErrInvalidMode = errors.New("invalid permission mode")

// Modes returns the accepted modes.
func Modes() []Mode {
	return []Mode{None, Broad, FromCommands}
}

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes() {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want none, broad or from-commands)", ErrInvalidMode, s)
}

// BroadMap allows every capability.
func BroadMap() Map {
	m := make(Map, len(AllCapabilities))
	for _, c := range AllCapabilities {
		m[c] = Scalar(Allow)
	}
	return m
}
