// Package paths rewrites Claude Code configuration directory references in
// free text to their OpenCode equivalents.
package paths

import "regexp"

const (
	// SourceDir is the project-level configuration directory of the source host.
	SourceDir = ".claude/"
	// TargetDir is the project-level configuration directory of the target host.
	TargetDir = ".opencode/"
	// SourceHomeDir is the user-level configuration directory of the source host.
	SourceHomeDir = "~/.claude/"
	// TargetHomeDir is the user-level configuration directory of the target host.
	TargetHomeDir = "~/.config/opencode/"

	// targetHomeRel is TargetHomeDir relative to the home directory.
	targetHomeRel = ".config/opencode/"
)

// dirRef matches ".claude/" when it starts a path, that is, when it is not
// the tail of a longer name such as "foo.claude/". Group 1 is the preceding
// character (if any). Group 2 is an optional home directory prefix: "~/",
// "$HOME/", "${HOME}/" or a literal /home/<user>/, /Users/<user>/ or /root/.
var dirRef = regexp.MustCompile(`(^|[^A-Za-z0-9_.~-])(~/|\$HOME/|\$\{HOME\}/|/home/[^/\s]+/|/Users/[^/\s]+/|/root/)?\.claude/`)

// Rewrite replaces the source host directory segment of every path rooted at
// it, leaving the rest of each path and all surrounding text as is. Paths
// under a home directory move to the target's user-level directory and keep
// their home prefix as written.
func Rewrite(text string) string {
	return dirRef.ReplaceAllStringFunc(text, func(m string) string {
		sub := dirRef.FindStringSubmatch(m)
		if sub[2] != "" {
			return sub[1] + sub[2] + targetHomeRel
		}
		return sub[1] + TargetDir
	})
}
