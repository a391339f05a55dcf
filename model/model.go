// Package model resolves the short model names used by plugin authors into
// fully-qualified vendor/model identifiers.
package model

import (
	"regexp"
	"strings"
)

// Alias is a short model name accepted in agent and command metadata.
type Alias string

// Known aliases.
const (
	Haiku  Alias = "haiku"
	Sonnet Alias = "sonnet"
	Opus   Alias = "opus"
)

// Inherit means "use whatever model the host is running". It resolves to no
// model at all.
const Inherit = "inherit"

// PreciseTemperature is the sampling temperature suggested for models tagged
// as precise.
const PreciseTemperature = 0.1

// entry describes one row of the alias table.
type entry struct {
	ID      string // vendor-qualified identifier
	Precise bool   // reasoning-oriented; runs best at a low temperature
}

var aliases = map[Alias]entry{
	Haiku:  {ID: "anthropic/claude-haiku-4-5"},
	Sonnet: {ID: "anthropic/claude-sonnet-4-20250514"},
	Opus:   {ID: "anthropic/claude-opus-4-1", Precise: true},
}

// Aliases returns the known aliases in a stable order.
func Aliases() []Alias {
	return []Alias{Haiku, Sonnet, Opus}
}

// ID returns the vendor-qualified identifier of a known alias.
func (a Alias) ID() string {
	return aliases[a].ID
}

// familyPrefixes qualifies bare model ids whose vendor is obvious from the name.
var familyPrefixes = []struct {
	prefix string
	vendor string
}{
	{"claude-", "anthropic"},
	{"gpt-", "openai"},
	{"o1", "openai"},
	{"o3", "openai"},
	{"o4", "openai"},
	{"gemini-", "google"},
}

// Resolve maps ref to a vendor-qualified model identifier.
//
// An empty ref or "inherit" yields "". A ref that already contains a vendor
// segment ("vendor/model") is returned unchanged, as is any bare name that is
// neither a known alias nor a recognizable model family.
func Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.EqualFold(ref, Inherit) {
		return ""
	}
	if strings.Contains(ref, "/") {
		return ref
	}
	if e, ok := aliases[Alias(strings.ToLower(ref))]; ok {
		return e.ID
	}
	for _, f := range familyPrefixes {
		if strings.HasPrefix(ref, f.prefix) {
			return f.vendor + "/" + ref
		}
	}
	return ref
}

// InferTemperature returns PreciseTemperature for a resolved model that the
// alias table tags as precise.
func InferTemperature(resolved string) (float64, bool) {
	if resolved == "" {
		return 0, false
	}
	for _, e := range aliases {
		if e.Precise && e.ID == resolved {
			return PreciseTemperature, true
		}
	}
	return 0, false
}

var roleTemperatures = []struct {
	pattern     *regexp.Regexp
	temperature float64
}{
	{regexp.MustCompile(`review|audit|security|sentinel|oracle|lint|verification|guardian`), 0.1},
	{regexp.MustCompile(`plan|architect|strategist|analy|research`), 0.2},
	{regexp.MustCompile(`doc|readme|changelog|editor|writer`), 0.3},
	{regexp.MustCompile(`brainstorm|creative|ideate|design|concept`), 0.6},
}

// InferRoleTemperature guesses a temperature from what an agent is for,
// based on keywords in its name and description. The first matching role
// wins.
func InferRoleTemperature(name, description string) (float64, bool) {
	sample := strings.ToLower(name + " " + description)
	for _, r := range roleTemperatures {
		if r.pattern.MatchString(sample) {
			return r.temperature, true
		}
	}
	return 0, false
}
