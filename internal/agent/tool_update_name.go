package agent

import (
	"context"
	"encoding/json"
	"fmt"
)

// UpdateNameTool renames the person currently bound to the conversation,
// grounded on original_source's update_name_tool (tools/update_name.py).
type UpdateNameTool struct{}

func (UpdateNameTool) Name() string { return "update_name" }

func (UpdateNameTool) Description() string {
	return "Update the name of the person currently in conversation."
}

func (UpdateNameTool) InputSchema() (map[string]any, []string) {
	return map[string]any{
		"new_name": map[string]any{"type": "string", "description": "New name for the current person"},
	}, []string{"new_name"}
}

func (UpdateNameTool) Execute(ctx context.Context, tc *ToolContext, args json.RawMessage) (string, error) {
	newName := argString(args, "new_name")
	if newName == "" {
		return "Error: new_name is required", nil
	}
	if tc.PersonID == "" {
		return "Error: No person currently in conversation", nil
	}
	if tc.UpdateName == nil {
		return "Error: Database manager not available", nil
	}
	if err := tc.UpdateName(ctx, newName); err != nil {
		return fmt.Sprintf("Error: Failed to update name: %v", err), nil
	}
	return fmt.Sprintf("Updated name to '%s'", newName), nil
}
