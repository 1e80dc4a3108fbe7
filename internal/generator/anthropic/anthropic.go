package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"coursechat/internal/generator"
)

const (
	messagesURL = "https://api.anthropic.com/v1/messages"
	apiVersion  = "2023-06-01"
)

// Client talks to the Anthropic messages API, including tool use.
type Client struct {
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
	maxRetries  int
}

// Config configures the generation client.
type Config struct {
	APIKeyEnv   string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// NewClient creates a generation client, reading the API key from the
// configured environment variable.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 800
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:      key,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: timeout},
		maxRetries:  3,
	}, nil
}

type contentBlock struct {
	Type      string         `json:"type"`
	Text      string         `json:"text,omitempty"`
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Input     map[string]any `json:"input,omitempty"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
	Content   string         `json:"content,omitempty"`
}

type wireMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type wireTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	System      string        `json:"system,omitempty"`
	Messages    []wireMessage `json:"messages"`
	Tools       []wireTool    `json:"tools,omitempty"`
}

type wireResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

// Generate runs one messages-API call and maps the response to either
// plain text or a tool invocation request.
func (c *Client) Generate(ctx context.Context, req generator.Request) (generator.Reply, error) {
	body := wireRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		System:      req.System,
		Messages:    encodeMessages(req.Messages),
	}
	for _, t := range req.Tools {
		body.Tools = append(body.Tools, wireTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}

	resp, err := c.send(ctx, body)
	if err != nil {
		return generator.Reply{}, err
	}

	var reply generator.Reply
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			reply.Text += block.Text
		case "tool_use":
			if reply.ToolCall == nil {
				reply.ToolCall = &generator.ToolCall{
					ID:        block.ID,
					Name:      block.Name,
					Arguments: block.Input,
				}
			}
		}
	}
	if reply.Text == "" && reply.ToolCall == nil {
		return generator.Reply{}, fmt.Errorf("generator returned no usable content (stop_reason %q)", resp.StopReason)
	}
	return reply, nil
}

func encodeMessages(messages []generator.Message) []wireMessage {
	out := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		wm := wireMessage{Role: m.Role}
		switch {
		case m.ToolCall != nil:
			if m.Content != "" {
				wm.Content = append(wm.Content, contentBlock{Type: "text", Text: m.Content})
			}
			wm.Content = append(wm.Content, contentBlock{
				Type:  "tool_use",
				ID:    m.ToolCall.ID,
				Name:  m.ToolCall.Name,
				Input: m.ToolCall.Arguments,
			})
		case m.ToolResult != nil:
			wm.Content = append(wm.Content, contentBlock{
				Type:      "tool_result",
				ToolUseID: m.ToolResult.CallID,
				Content:   m.ToolResult.Content,
			})
		default:
			wm.Content = append(wm.Content, contentBlock{Type: "text", Text: m.Content})
		}
		out = append(out, wm)
	}
	return out
}

func (c *Client) send(ctx context.Context, body wireRequest) (*wireResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, messagesURL, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", apiVersion)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("generation request failed: %s", resp.Status)
			continue
		}
		if resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("generation request failed: %s", resp.Status)
		}
		var out wireResponse
		err = json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode generation response: %w", err)
		}
		return &out, nil
	}
	return nil, lastErr
}

func backoff(attempt int) time.Duration {
	d := 500 * time.Millisecond << attempt
	if d > 8*time.Second {
		d = 8 * time.Second
	}
	return d
}
