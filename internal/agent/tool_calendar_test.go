package agent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestCalendarTool_Create(t *testing.T) {
	args, _ := json.Marshal(map[string]string{"action": "create", "title": "Standup"})
	result, err := CalendarTool{}.Execute(context.Background(), nil, args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "Standup") {
		t.Fatalf("expected result to mention the event title, got %q", result)
	}
}

func TestCalendarTool_CreateDefaultsTitle(t *testing.T) {
	args, _ := json.Marshal(map[string]string{"action": "create"})
	result, err := CalendarTool{}.Execute(context.Background(), nil, args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "Untitled Event") {
		t.Fatalf("expected default title, got %q", result)
	}
}

func TestCalendarTool_UnknownAction(t *testing.T) {
	args, _ := json.Marshal(map[string]string{"action": "teleport"})
	result, err := CalendarTool{}.Execute(context.Background(), nil, args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "Unknown") {
		t.Fatalf("expected an unknown-action message, got %q", result)
	}
}
