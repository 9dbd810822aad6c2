// Package conversation owns per-client ConversationState and the
// Interaction Coordinator and Transcript Router components built on top of
// it (spec §4.4, §4.5).
package conversation

import (
	"time"

	"github.com/google/uuid"

	"github.com/vxl-labs/glasscore/internal/models"
)

// New returns a fresh ConversationState with a new conversation id, the
// shape a coordinator starts with and resets to after every switch.
func New() *models.ConversationState {
	return &models.ConversationState{ConversationID: uuid.NewString()}
}

// AddMessage appends a message and, for user turns, stamps LastSpeechTime —
// mirrors original_source's ConversationState.add_message.
func AddMessage(s *models.ConversationState, role, content, personID string) {
	s.Messages = append(s.Messages, models.Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		PersonID:  personID,
	})
	if role == models.RoleUser {
		s.LastSpeechTime = time.Now()
	}
}

// AddToolCall records a tool invocation, mirroring add_tool_call.
func AddToolCall(s *models.ConversationState, name, args, result string) {
	s.ToolCalls = append(s.ToolCalls, models.ToolCallRecord{
		Name:      name,
		Args:      args,
		Result:    result,
		Timestamp: time.Now(),
	})
}

// MessagesFor returns the messages attributed to personID, in order — used
// to carve out the departing person's slice for background summarization
// without holding the live state's lock across an LLM call.
func MessagesFor(s *models.ConversationState, personID string) []models.Message {
	var out []models.Message
	for _, m := range s.Messages {
		if m.PersonID == personID {
			out = append(out, m)
		}
	}
	return out
}

// Reset clears history and mints a new conversation id, the fresh start
// every switch gives the incoming person (spec §4.4 step 2).
func Reset(s *models.ConversationState) {
	s.Messages = nil
	s.ToolCalls = nil
	s.ConversationID = uuid.NewString()
}
