// Package cook implements the canonical data model, content-addressed
// deduplication, and dependency reconstruction that turn a batch of raw
// LLM trace records into a single cooked artifact.
package cook

// Role is the canonical set of message roles the normalizers emit.
const (
	RoleSystem     = "system"
	RoleUser       = "user"
	RoleAssistant  = "assistant"
	RoleToolUse    = "tool_use"
	RoleToolResult = "tool_result"
	RoleThinking   = "thinking"
)

// Format is the explicit provider hint accepted by the batch driver.
type Format string

const (
	FormatAuto   Format = "auto"
	FormatOpenAI Format = "openai"
	FormatClaude Format = "claude"
	FormatGemini Format = "gemini"
)

// ToolCall is one decoded tool invocation collected onto a tool_use Message.
type ToolCall struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments"`
	ID        string `json:"id,omitempty"`
}

// Message is a single normalized conversational turn fragment, deduplicated
// by content hash across the whole batch.
type Message struct {
	ID         string     `json:"id"`
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolUseID  string     `json:"tool_use_id,omitempty"`
	IsError    *bool      `json:"is_error,omitempty"`
}

// Tool is a deduplicated tool/function definition shared across requests.
type Tool struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Parameters   any    `json:"parameters"`
	IsServerSide bool   `json:"is_server_side"`
}

// Request is one captured request/response pair, normalized to message and
// tool IDs. ParentID is populated by the dependency analyzer, after every
// Request in the batch has been created.
type Request struct {
	ID               string   `json:"id"`
	ParentID         *string  `json:"parent_id"`
	Timestamp        int64    `json:"timestamp"`
	RequestMessages  []string `json:"request_messages"`
	ResponseMessages []string `json:"response_messages"`
	Model            string   `json:"model"`
	Tools            []string `json:"tools"`
	DurationMs       int64    `json:"duration_ms"`
}

// Output is the cooked artifact handed to the visualizer.
type Output struct {
	Messages []Message `json:"messages"`
	Tools    []Tool    `json:"tools"`
	Requests []Request `json:"requests"`
}
