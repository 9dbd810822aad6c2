// Package agent implements the Interaction Coordinator's "black box" LLM
// agent (spec §4.5): a tool loop that returns either reply text or the
// sentinel NoFurtherResponse, grounded on original_source's ConversationAgent
// (conversation/agent.py) and adapted to the Anthropic Messages API the way
// intelligencedev-manifold's anthropic client wraps it.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/vxl-labs/glasscore/internal/config"
	"github.com/vxl-labs/glasscore/internal/models"
)

// NoFurtherResponse is the sentinel the core treats as "suppress the reply"
// (spec §4.5 step 3).
const NoFurtherResponse = "NO_FURTHER_RESPONSE"

const defaultMaxTokens int64 = 1024
const maxToolIterations = 4

const systemPrompt = "You are a helpful conversation assistant for AR glasses.\n" +
	"- You can help users with questions and tasks.\n" +
	"- You have access to tools that you can use when needed.\n" +
	"- Always be concise and conversational in your responses.\n" +
	"- If you use a tool, explain what you did and why.\n"

// Agent runs the tool loop against a single LLM backend.
type Agent struct {
	sdk       anthropic.Client
	model     string
	maxTokens int64

	tools    map[string]Tool
	toolDefs []anthropic.ToolUnionParam
}

// New builds an Agent from config and the tool set it should expose. Every
// tool passed in is registered as given; a tool that lacks its own
// configuration (a WebSearchTool with no API key) returns a graceful error
// string when invoked.
func New(cfg config.AgentConfig, tools ...Tool) *Agent {
	opts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(cfg.APIKey))}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(base, "/")))
	}
	opts = append(opts, option.WithHTTPClient(http.DefaultClient))

	a := &Agent{
		sdk:       anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: defaultMaxTokens,
		tools:     make(map[string]Tool, len(tools)),
	}

	for _, t := range tools {
		a.tools[t.Name()] = t
		properties, required := t.InputSchema()
		a.toolDefs = append(a.toolDefs, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name(),
				Description: anthropic.String(t.Description()),
				InputSchema: anthropic.ToolInputSchemaParam{
					Type:       constant.ValueOf[constant.Object](),
					Properties: properties,
					Required:   required,
				},
			},
		})
	}

	return a
}

// Run builds the message history from state, invokes the agent's tool
// loop, and returns either reply text or NoFurtherResponse (spec §4.5
// steps 2-3). It appends no messages to state, only a record of each tool
// invocation to state.ToolCalls; the caller appends the reply itself.
func (a *Agent) Run(ctx context.Context, state *models.ConversationState, tc *ToolContext) (string, error) {
	messages := buildMessages(state)
	toolInvoked := false

	for i := 0; i < maxToolIterations; i++ {
		resp, err := a.sdk.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(a.model),
			MaxTokens: a.maxTokens,
			System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
			Messages:  messages,
			Tools:     a.toolDefs,
		})
		if err != nil {
			return "", fmt.Errorf("agent turn: %w", err)
		}

		var textReply strings.Builder
		var toolUses []anthropic.ToolUseBlock
		var assistantBlocks []anthropic.ContentBlockParamUnion

		for _, block := range resp.Content {
			switch v := block.AsAny().(type) {
			case anthropic.TextBlock:
				textReply.WriteString(v.Text)
				assistantBlocks = append(assistantBlocks, anthropic.NewTextBlock(v.Text))
			case anthropic.ToolUseBlock:
				toolUses = append(toolUses, v)
				assistantBlocks = append(assistantBlocks, anthropic.NewToolUseBlock(v.ID, v.Input, v.Name))
			}
		}

		if len(toolUses) == 0 {
			if toolInvoked {
				return NoFurtherResponse, nil
			}
			return textReply.String(), nil
		}

		toolInvoked = true
		if len(assistantBlocks) > 0 {
			messages = append(messages, anthropic.NewAssistantMessage(assistantBlocks...))
		}

		var resultBlocks []anthropic.ContentBlockParamUnion
		for _, tu := range toolUses {
			result := a.invoke(ctx, tu, tc)
			state.ToolCalls = append(state.ToolCalls, models.ToolCallRecord{
				Name:      tu.Name,
				Args:      string(tu.Input),
				Result:    result,
				Timestamp: time.Now(),
			})
			resultBlocks = append(resultBlocks, anthropic.NewToolResultBlock(tu.ID, result, false))
		}
		messages = append(messages, anthropic.NewUserMessage(resultBlocks...))
	}

	if toolInvoked {
		return NoFurtherResponse, nil
	}
	return "", fmt.Errorf("agent: exceeded tool loop iterations without a final reply")
}

func (a *Agent) invoke(ctx context.Context, tu anthropic.ToolUseBlock, tc *ToolContext) string {
	t, ok := a.tools[tu.Name]
	if !ok {
		return fmt.Sprintf("Error: unknown tool %q", tu.Name)
	}
	out, err := t.Execute(ctx, tc, json.RawMessage(tu.Input))
	if err != nil {
		slog.Error("tool execution failed", "tool", tu.Name, "error", err)
		return fmt.Sprintf("Error: %v", err)
	}
	return out
}

func buildMessages(state *models.ConversationState) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(state.Messages))
	for _, m := range state.Messages {
		switch m.Role {
		case models.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case models.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return messages
}
