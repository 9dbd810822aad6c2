package summarizer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/vxl-labs/glasscore/internal/models"
)

func TestRenderMessages(t *testing.T) {
	messages := []models.Message{
		{Role: models.RoleUser, Content: "hello", Timestamp: time.Now()},
		{Role: models.RoleAssistant, Content: "hi there", Timestamp: time.Now()},
	}

	rendered := renderMessages(messages)
	if !strings.Contains(rendered, "USER: hello") {
		t.Fatalf("expected rendered text to contain the user turn, got %q", rendered)
	}
	if !strings.Contains(rendered, "ASSISTANT: hi there") {
		t.Fatalf("expected rendered text to contain the assistant turn, got %q", rendered)
	}
}

func TestGenerateAndSave_NoMessagesIsNoop(t *testing.T) {
	s := &Summarizer{}
	if err := s.GenerateAndSave(context.Background(), "alice", nil); err != nil {
		t.Fatalf("expected no error for an empty message list, got %v", err)
	}
}
