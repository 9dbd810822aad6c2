package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vxl-labs/glasscore/internal/models"
)

// TodoTool manages todo items for the current conversation, grounded on
// original_source's todo_tool (tools/todo.py) and given a real backing
// store instead of the source's placeholder strings.
type TodoTool struct{}

func (TodoTool) Name() string { return "todo" }

func (TodoTool) Description() string {
	return "Manage todo list items: action is one of 'add', 'list', 'complete', 'delete'."
}

func (TodoTool) InputSchema() (map[string]any, []string) {
	return map[string]any{
		"action":      map[string]any{"type": "string", "enum": []string{"add", "list", "complete", "delete"}},
		"task":        map[string]any{"type": "string", "description": "Task description, for action=add"},
		"task_id":     map[string]any{"type": "string", "description": "Todo id, for action=complete or delete"},
	}, []string{"action"}
}

func (TodoTool) Execute(ctx context.Context, tc *ToolContext, args json.RawMessage) (string, error) {
	action := argString(args, "action")

	switch action {
	case "add":
		task := argString(args, "task")
		if task == "" {
			return "Error: task is required for action=add", nil
		}
		todo := models.Todo{
			ID:             uuid.NewString(),
			Description:    task,
			Status:         models.TodoStatusPending,
			PersonID:       tc.PersonID,
			ConversationID: tc.ConversationID,
			CreatedAt:      time.Now(),
		}
		if err := tc.DB.AddTodo(ctx, todo); err != nil {
			return fmt.Sprintf("Error: failed to add todo: %v", err), nil
		}
		return fmt.Sprintf("Added todo item: %s", task), nil

	case "list":
		todos, err := tc.DB.ListTodos(ctx, tc.ConversationID)
		if err != nil {
			return fmt.Sprintf("Error: failed to list todos: %v", err), nil
		}
		if len(todos) == 0 {
			return "No todo items for this conversation", nil
		}
		out := ""
		for _, t := range todos {
			out += fmt.Sprintf("- [%s] %s (%s)\n", t.ID, t.Description, t.Status)
		}
		return out, nil

	case "complete":
		taskID := argString(args, "task_id")
		if taskID == "" {
			return "Error: task_id is required for action=complete", nil
		}
		if err := tc.DB.CompleteTodo(ctx, taskID); err != nil {
			return fmt.Sprintf("Error: failed to complete todo: %v", err), nil
		}
		return fmt.Sprintf("Completed todo item: %s", taskID), nil

	case "delete":
		taskID := argString(args, "task_id")
		if taskID == "" {
			return "Error: task_id is required for action=delete", nil
		}
		if err := tc.DB.DeleteTodo(ctx, taskID); err != nil {
			return fmt.Sprintf("Error: failed to delete todo: %v", err), nil
		}
		return fmt.Sprintf("Deleted todo item: %s", taskID), nil

	default:
		return fmt.Sprintf("Unknown todo action: %s", action), nil
	}
}
