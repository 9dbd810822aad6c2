package agent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestWebSearchTool_RequiresQuery(t *testing.T) {
	tool := NewWebSearchTool("some-key")
	args, _ := json.Marshal(map[string]string{})

	result, err := tool.Execute(context.Background(), nil, args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "query is required") {
		t.Fatalf("expected a query-required message, got %q", result)
	}
}

func TestWebSearchTool_NoAPIKeyConfigured(t *testing.T) {
	tool := NewWebSearchTool("")
	args, _ := json.Marshal(map[string]string{"query": "weather today"})

	result, err := tool.Execute(context.Background(), nil, args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "TAVILY_API_KEY") {
		t.Fatalf("expected a not-configured message, got %q", result)
	}
}
