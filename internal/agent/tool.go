package agent

import (
	"context"
	"encoding/json"

	"github.com/vxl-labs/glasscore/internal/storage"
)

// ToolContext is the explicit value carried into every tool invocation,
// replacing the source's process-global callback pointers (spec §9,
// "Dynamic binding of tool callbacks"). One ToolContext exists per
// Coordinator turn, so multiple concurrent agents never share mutable
// callback state.
type ToolContext struct {
	PersonID       string
	ConversationID string
	DB             *storage.PostgresStore

	// Notify pushes a notification frame to this client's Fanout mailbox.
	Notify func(title, message string)

	// UpdateName renames the bound person in the store. May be nil, in which
	// case the update_name tool reports the store as unavailable.
	UpdateName func(ctx context.Context, newName string) error
}

// Tool is one function the agent's tool loop can invoke.
type Tool interface {
	Name() string
	Description() string
	// InputSchema returns the tool's parameters as a JSON Schema object's
	// "properties" and "required" members.
	InputSchema() (properties map[string]any, required []string)
	Execute(ctx context.Context, tc *ToolContext, args json.RawMessage) (string, error)
}

func argString(args json.RawMessage, key string) string {
	var m map[string]any
	if err := json.Unmarshal(args, &m); err != nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
