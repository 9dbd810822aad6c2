package agent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestMemoryTool_RequiresBoundPerson(t *testing.T) {
	tc := &ToolContext{}
	args, _ := json.Marshal(map[string]string{"action": "save", "text": "likes coffee"})

	result, err := MemoryTool{}.Execute(context.Background(), tc, args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "no person is currently bound") {
		t.Fatalf("expected a no-person-bound message, got %q", result)
	}
}

func TestMemoryTool_SaveRequiresText(t *testing.T) {
	tc := &ToolContext{PersonID: "alice"}
	args, _ := json.Marshal(map[string]string{"action": "save"})

	result, err := MemoryTool{}.Execute(context.Background(), tc, args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "text is required") {
		t.Fatalf("expected a text-required message, got %q", result)
	}
}

func TestMemoryTool_UnknownAction(t *testing.T) {
	tc := &ToolContext{PersonID: "alice"}
	args, _ := json.Marshal(map[string]string{"action": "forget"})

	result, err := MemoryTool{}.Execute(context.Background(), tc, args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "Unknown memory action") {
		t.Fatalf("expected unknown-action message, got %q", result)
	}
}
