package generator

import "context"

// Generator is the external language model consumed as a black box. One
// call produces either plain answer text or a single tool invocation
// request.
type Generator interface {
	Generate(ctx context.Context, req Request) (Reply, error)
}

// ToolDefinition describes one invokable capability offered to the
// generator: a name, a human-readable description and a JSON schema for
// its parameters.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ToolCall is the generator's request to invoke a tool. Arguments are
// interpreted as data against the tool's schema, never as code.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolResult carries the textual outcome of a tool invocation back into
// the conversation.
type ToolResult struct {
	CallID  string
	Content string
}

// Message is one conversation entry. Exactly one of Content, ToolCall or
// ToolResult is meaningful: assistant turns may carry a ToolCall, user
// turns may carry a ToolResult.
type Message struct {
	Role       string
	Content    string
	ToolCall   *ToolCall
	ToolResult *ToolResult
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Request is one generation call: system instructions, the conversation
// so far and the capabilities on offer.
type Request struct {
	System   string
	Messages []Message
	Tools    []ToolDefinition
}

// Reply is the generator's answer: plain text, or a tool invocation
// request when ToolCall is non-nil.
type Reply struct {
	Text     string
	ToolCall *ToolCall
}
