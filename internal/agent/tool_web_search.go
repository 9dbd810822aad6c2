package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const tavilySearchURL = "https://api.tavily.com/search"

// WebSearchTool queries the Tavily search API, grounded on
// original_source's web_search tool (tools/web_search.py), which wraps the
// same service via langchain_community's TavilySearchResults. No Go Tavily
// client exists in the example corpus, so this calls Tavily's documented
// REST endpoint directly over net/http — there is no third-party HTTP
// client library in the pack to ground this on instead.
type WebSearchTool struct {
	APIKey     string
	HTTPClient *http.Client
}

func NewWebSearchTool(apiKey string) *WebSearchTool {
	return &WebSearchTool{APIKey: apiKey, HTTPClient: &http.Client{Timeout: 10 * time.Second}}
}

func (t *WebSearchTool) Name() string { return "web_search" }

func (t *WebSearchTool) Description() string {
	return "Search the web for current information, facts, or news."
}

func (t *WebSearchTool) InputSchema() (map[string]any, []string) {
	return map[string]any{
		"query": map[string]any{"type": "string", "description": "The search query to execute"},
	}, []string{"query"}
}

type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

func (t *WebSearchTool) Execute(ctx context.Context, _ *ToolContext, args json.RawMessage) (string, error) {
	query := argString(args, "query")
	if query == "" {
		return "Error: query is required", nil
	}
	if t.APIKey == "" {
		return "TAVILY_API_KEY not configured", nil
	}

	body, err := json.Marshal(tavilyRequest{APIKey: t.APIKey, Query: query, MaxResults: 5})
	if err != nil {
		return "", fmt.Errorf("marshal tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilySearchURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build tavily request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return fmt.Sprintf("Error performing web search: %v", err), nil
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read tavily response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("Error performing web search: tavily returned %d", resp.StatusCode), nil
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("parse tavily response: %w", err)
	}

	var sb strings.Builder
	for _, r := range parsed.Results {
		fmt.Fprintf(&sb, "%s (%s): %s\n", r.Title, r.URL, r.Content)
	}
	if sb.Len() == 0 {
		return "No results found", nil
	}
	return sb.String(), nil
}
