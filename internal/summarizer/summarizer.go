// Package summarizer generates structured end-of-conversation summaries and
// synthesizes a short recap from a person's prior summaries, grounded on
// original_source's ConversationSummarizer (conversation/summarizer.py).
package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"github.com/vxl-labs/glasscore/internal/config"
	"github.com/vxl-labs/glasscore/internal/models"
	"github.com/vxl-labs/glasscore/internal/storage"
)

const summaryMaxTokens int64 = 512

const summaryPrompt = "Write a brief, prose summary of the following conversation: who was" +
	" involved, the main topics discussed, and any action items or decisions." +
	" Respond with the summary text only, no preamble.\n\nConversation:\n%s"

const recapPrompt = "Write a quick personal reminder about this person for someone who is" +
	" about to talk to them again, based on these past conversation summaries" +
	" (most recent first). Keep it to one or two sentences.\n\nSummaries:\n%s"

// Summarizer generates and persists conversation summaries (spec §4.4
// steps 1 and 4).
type Summarizer struct {
	sdk   anthropic.Client
	model string
	db    *storage.PostgresStore
}

func New(cfg config.AgentConfig, db *storage.PostgresStore) *Summarizer {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")))
	}
	return &Summarizer{
		sdk:   anthropic.NewClient(opts...),
		model: cfg.Model,
		db:    db,
	}
}

// GenerateAndSave builds a plain-text rendering of messages, asks the LLM
// for a prose summary, appends it to the Summaries table for personID, and
// writes the same prose into the person's Recap field (spec §4.4 step 1).
// Intended to run inside the caller's detached background task.
func (s *Summarizer) GenerateAndSave(ctx context.Context, personID string, messages []models.Message) error {
	if len(messages) == 0 {
		return nil
	}

	text := renderMessages(messages)
	summary, err := s.complete(ctx, fmt.Sprintf(summaryPrompt, text), summaryMaxTokens)
	if err != nil {
		return fmt.Errorf("generate summary: %w", err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return nil
	}

	id := uuid.NewString()
	if err := s.db.AddSummary(ctx, id, personID, summary); err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	if err := s.db.UpdateRecap(ctx, personID, summary); err != nil {
		return fmt.Errorf("update recap: %w", err)
	}
	return nil
}

// GenerateRecap synthesizes a short reminder from personID's prior
// Summaries, most-recent-first (spec §4.4 step 4). Returns "" if personID
// has no summaries yet; callers apply the 30s timeout via ctx.
func (s *Summarizer) GenerateRecap(ctx context.Context, personID string) (string, error) {
	summaries, err := s.db.ListSummaries(ctx, personID)
	if err != nil {
		return "", fmt.Errorf("list summaries: %w", err)
	}
	if len(summaries) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for _, sum := range summaries {
		fmt.Fprintf(&sb, "- %s\n", sum.Text)
	}

	recap, err := s.complete(ctx, fmt.Sprintf(recapPrompt, sb.String()), summaryMaxTokens)
	if err != nil {
		return "", fmt.Errorf("generate recap: %w", err)
	}
	return strings.TrimSpace(recap), nil
}

func (s *Summarizer) complete(ctx context.Context, prompt string, maxTokens int64) (string, error) {
	resp, err := s.sdk.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: maxTokens,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(tb.Text)
		}
	}
	return sb.String(), nil
}

func renderMessages(messages []models.Message) string {
	var sb strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&sb, "%s: %s\n", strings.ToUpper(m.Role), m.Content)
	}
	return sb.String()
}
