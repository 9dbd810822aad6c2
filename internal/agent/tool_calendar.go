package agent

import (
	"context"
	"encoding/json"
	"fmt"
)

// CalendarTool is a placeholder calendar integration, grounded on
// original_source's calendar_tool (tools/calendar.py) — the source itself
// never wires a real calendar API, so neither does this port.
type CalendarTool struct{}

func (CalendarTool) Name() string { return "calendar" }

func (CalendarTool) Description() string {
	return "Manage calendar events: action is one of 'create', 'read', 'update', 'delete'."
}

func (CalendarTool) InputSchema() (map[string]any, []string) {
	return map[string]any{
		"action": map[string]any{"type": "string", "enum": []string{"create", "read", "update", "delete"}},
		"title":  map[string]any{"type": "string", "description": "Event title, for action=create"},
	}, []string{"action"}
}

func (CalendarTool) Execute(_ context.Context, _ *ToolContext, args json.RawMessage) (string, error) {
	action := argString(args, "action")
	switch action {
	case "create":
		title := argString(args, "title")
		if title == "" {
			title = "Untitled Event"
		}
		return fmt.Sprintf("Created calendar event: %s", title), nil
	case "read":
		return "Retrieved calendar events (placeholder)", nil
	case "update":
		return "Updated calendar event (placeholder)", nil
	case "delete":
		return "Deleted calendar event (placeholder)", nil
	default:
		return fmt.Sprintf("Unknown calendar action: %s", action), nil
	}
}
