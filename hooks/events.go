// Package hooks generates the OpenCode plugin script that replays Claude Code
// lifecycle hooks.
package hooks

import "github.com/i2y/plugport/plugin"

// targetEvents maps each lifecycle event to the hook key registered in the
// generated script.
var targetEvents = map[plugin.HookEvent]string{
	plugin.EventToolPreExecute:      "tool.execute.before",
	plugin.EventToolPostExecute:     "tool.execute.after",
	plugin.EventSessionCreated:      "session.created",
	plugin.EventSessionDeleted:      "session.deleted",
	plugin.EventSessionIdle:         "session.idle",
	plugin.EventSessionCompacting:   "experimental.session.compacting",
	plugin.EventPermissionRequested: "permission.requested",
	plugin.EventPermissionReplied:   "permission.replied",
	plugin.EventMessageCreated:      "message.created",
	plugin.EventMessageUpdated:      "message.updated",
}

// TargetEvent returns the hook key an event is registered under.
func TargetEvent(e plugin.HookEvent) (string, bool) {
	name, ok := targetEvents[e]
	return name, ok
}
