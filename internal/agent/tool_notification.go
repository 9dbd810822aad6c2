package agent

import (
	"context"
	"encoding/json"
	"fmt"
)

// NotificationTool pushes a title/message pair to the client's display,
// grounded on original_source's notification_tool (tools/notification.py),
// reworked from its global callback to the explicit ToolContext.
type NotificationTool struct{}

func (NotificationTool) Name() string { return "notification" }

func (NotificationTool) Description() string {
	return "Display a notification with a title and message on the user's AR glasses."
}

func (NotificationTool) InputSchema() (map[string]any, []string) {
	return map[string]any{
		"title":   map[string]any{"type": "string", "description": "Notification title"},
		"message": map[string]any{"type": "string", "description": "Notification message content"},
	}, []string{"title", "message"}
}

func (NotificationTool) Execute(_ context.Context, tc *ToolContext, args json.RawMessage) (string, error) {
	title := argString(args, "title")
	message := argString(args, "message")
	if tc.Notify != nil {
		tc.Notify(title, message)
	}
	return fmt.Sprintf("Displayed notification: %s - %s", title, message), nil
}
