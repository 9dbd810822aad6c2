package conversation

import (
	"testing"

	"github.com/vxl-labs/glasscore/internal/models"
)

func TestNewAssignsConversationID(t *testing.T) {
	s := New()
	if s.ConversationID == "" {
		t.Fatal("expected a non-empty conversation id")
	}
}

func TestAddMessageAppendsAndTracksSpeechTime(t *testing.T) {
	s := New()
	before := s.LastSpeechTime

	AddMessage(s, models.RoleUser, "hello", "alice")
	if len(s.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(s.Messages))
	}
	if s.Messages[0].Content != "hello" || s.Messages[0].PersonID != "alice" {
		t.Fatalf("unexpected message %+v", s.Messages[0])
	}
	if !s.LastSpeechTime.After(before) {
		t.Fatal("expected LastSpeechTime to advance on a user message")
	}
}

func TestAddMessageAssistantDoesNotUpdateSpeechTime(t *testing.T) {
	s := New()
	AddMessage(s, models.RoleUser, "hi", "alice")
	afterUser := s.LastSpeechTime

	AddMessage(s, models.RoleAssistant, "hello there", "alice")
	if s.LastSpeechTime != afterUser {
		t.Fatal("assistant messages should not advance LastSpeechTime")
	}
}

func TestAddToolCallAppends(t *testing.T) {
	s := New()
	AddToolCall(s, "todo", `{"action":"add"}`, "Added todo item: buy milk")
	if len(s.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(s.ToolCalls))
	}
	if s.ToolCalls[0].Name != "todo" {
		t.Fatalf("unexpected tool call %+v", s.ToolCalls[0])
	}
}

func TestMessagesForFiltersByPerson(t *testing.T) {
	s := New()
	AddMessage(s, models.RoleUser, "from alice", "alice")
	AddMessage(s, models.RoleUser, "from bob", "bob")
	AddMessage(s, models.RoleAssistant, "reply to alice", "alice")

	got := MessagesFor(s, "alice")
	if len(got) != 2 {
		t.Fatalf("expected 2 messages for alice, got %d", len(got))
	}
	for _, m := range got {
		if m.PersonID != "alice" {
			t.Fatalf("unexpected message for a different person: %+v", m)
		}
	}
}

func TestResetClearsMessagesAndIssuesNewConversationID(t *testing.T) {
	s := New()
	oldID := s.ConversationID
	AddMessage(s, models.RoleUser, "hi", "alice")
	AddToolCall(s, "todo", "{}", "ok")

	Reset(s)

	if len(s.Messages) != 0 {
		t.Fatalf("expected messages cleared, got %d", len(s.Messages))
	}
	if len(s.ToolCalls) != 0 {
		t.Fatalf("expected tool calls cleared, got %d", len(s.ToolCalls))
	}
	if s.ConversationID == oldID {
		t.Fatal("expected a fresh conversation id after reset")
	}
}
