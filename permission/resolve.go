package permission

import "github.com/i2y/plugport/plugin"

// Resolve produces the permission block for the given mode. It returns nil
// for None.
//
// With FromCommands, every command contributes its allowed-tools and
// disallowed-tools entries plus the usage inferred from its body. An allow
// always wins over a deny for the same capability or pattern, so the result
// does not depend on command order. Capabilities nobody mentioned are
// omitted.
func Resolve(commands []plugin.Command, mode Mode) Map {
	switch mode {
	case Broad:
		return BroadMap()
	case FromCommands:
		return fromCommands(commands)
	default:
		return nil
	}
}

// accumulator collects the decisions observed for one capability.
type accumulator struct {
	allowAll bool
	denyAll  bool
	patterns map[string]Decision
}

func (a *accumulator) add(pattern string, d Decision) {
	if pattern == "" {
		if d == Allow {
			a.allowAll = true
		} else {
			a.denyAll = true
		}
		return
	}
	if a.patterns == nil {
		a.patterns = make(map[string]Decision)
	}
	if a.patterns[pattern] != Allow {
		a.patterns[pattern] = d
	}
}

func (a *accumulator) rule(c Capability) (Rule, bool) {
	switch {
	case a.allowAll:
		return Scalar(Allow), true
	case !c.IsPatternBased() || len(a.patterns) == 0:
		if a.denyAll {
			return Scalar(Deny), true
		}
		return Rule{}, false
	}

	patterns := make(map[string]Decision, len(a.patterns)+1)
	anyAllow := false
	for p, d := range a.patterns {
		patterns[p] = d
		if d == Allow {
			anyAllow = true
		}
	}
	if a.denyAll || (c == Read && anyAllow) {
		if patterns[Wildcard] != Allow {
			patterns[Wildcard] = Deny
		}
	}
	return Patterned(patterns), true
}

func fromCommands(commands []plugin.Command) Map {
	accs := make(map[Capability]*accumulator)
	observe := func(spec ToolSpec, d Decision) {
		acc, ok := accs[spec.Capability]
		if !ok {
			acc = &accumulator{}
			accs[spec.Capability] = acc
		}
		acc.add(spec.Pattern, d)
	}

	for _, cmd := range commands {
		for _, entry := range cmd.AllowedTools {
			if spec, ok := ParseToolSpec(entry); ok {
				observe(spec, Allow)
			}
		}
		for _, entry := range cmd.DeniedTools {
			if spec, ok := ParseToolSpec(entry); ok {
				observe(spec, Deny)
			}
		}
		for _, spec := range InferredUsage(cmd.Body) {
			observe(spec, Allow)
		}
	}

	m := make(Map, len(accs))
	for c, acc := range accs {
		if r, ok := acc.rule(c); ok {
			m[c] = r
		}
	}
	return m
}
