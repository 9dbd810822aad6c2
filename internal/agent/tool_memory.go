package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vxl-labs/glasscore/internal/models"
)

// MemoryTool records and recalls free-form notes about the currently bound
// person (the `person_memories` table named by spec §6), grounded on
// original_source's pattern of one tool per table the agent can write to.
type MemoryTool struct{}

func (MemoryTool) Name() string { return "memory" }

func (MemoryTool) Description() string {
	return "Save or recall a note about the current person: action is 'save' or 'recall'."
}

func (MemoryTool) InputSchema() (map[string]any, []string) {
	return map[string]any{
		"action":  map[string]any{"type": "string", "enum": []string{"save", "recall"}},
		"text":    map[string]any{"type": "string", "description": "Note text, for action=save"},
		"context": map[string]any{"type": "string", "description": "Short context for the note, for action=save"},
	}, []string{"action"}
}

func (MemoryTool) Execute(ctx context.Context, tc *ToolContext, args json.RawMessage) (string, error) {
	if tc.PersonID == "" {
		return "Error: no person is currently bound to this conversation", nil
	}

	action := argString(args, "action")
	switch action {
	case "save":
		text := argString(args, "text")
		if text == "" {
			return "Error: text is required for action=save", nil
		}
		m := models.PersonMemory{
			ID:             uuid.NewString(),
			PersonID:       tc.PersonID,
			Text:           text,
			Context:        argString(args, "context"),
			ConversationID: tc.ConversationID,
			CreatedAt:      time.Now(),
		}
		if err := tc.DB.AddPersonMemory(ctx, m); err != nil {
			return fmt.Sprintf("Error: failed to save memory: %v", err), nil
		}
		return "Saved note about this person", nil

	case "recall":
		memories, err := tc.DB.ListPersonMemories(ctx, tc.PersonID)
		if err != nil {
			return fmt.Sprintf("Error: failed to recall memories: %v", err), nil
		}
		if len(memories) == 0 {
			return "No saved notes about this person", nil
		}
		out := ""
		for _, m := range memories {
			if m.Context != "" {
				out += fmt.Sprintf("- (%s) %s\n", m.Context, m.Text)
			} else {
				out += fmt.Sprintf("- %s\n", m.Text)
			}
		}
		return out, nil

	default:
		return fmt.Sprintf("Unknown memory action: %s", action), nil
	}
}
