package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracecook/llmtrace/internal/cook"
)

func TestGeminiNormalizer_Name(t *testing.T) {
	assert.Equal(t, cook.FormatGemini, NewGeminiNormalizer().Name())
}

func TestGeminiNormalizer_Detect(t *testing.T) {
	n := NewGeminiNormalizer()

	tests := []struct {
		name     string
		record   map[string]any
		expected bool
	}{
		{
			name:     "contents present",
			record:   map[string]any{"request": map[string]any{"contents": []any{}}},
			expected: true,
		},
		{
			name:     "system_instruction present",
			record:   map[string]any{"request": map[string]any{"system_instruction": map[string]any{}}},
			expected: true,
		},
		{
			name:     "function_declarations tool",
			record:   map[string]any{"request": map[string]any{"tools": []any{map[string]any{"function_declarations": []any{}}}}},
			expected: true,
		},
		{
			name:     "modelVersion in response",
			record:   map[string]any{"request": map[string]any{}, "response": map[string]any{"modelVersion": "gemini-2.0-flash"}},
			expected: true,
		},
		{
			name:     "plain openai-shaped record",
			record:   map[string]any{"request": map[string]any{"messages": []any{}}},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.Detect(tt.record))
		})
	}
}

// TestCook_S4_GeminiFunctionDeclarations grounds scenario S4.
func TestCook_S4_GeminiFunctionDeclarations(t *testing.T) {
	record := map[string]any{
		"id":        "req-1",
		"timestamp": "2024-01-15T10:00:00Z",
		"request": map[string]any{
			"system_instruction": map[string]any{"parts": []any{map[string]any{"text": "sys"}}},
			"contents": []any{
				map[string]any{"role": "user", "parts": []any{map[string]any{"text": "q"}}},
			},
			"tools": []any{
				map[string]any{"function_declarations": []any{
					map[string]any{"name": "f", "parameters": map[string]any{}},
				}},
			},
		},
		"response": map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"role": "model",
						"parts": []any{
							map[string]any{"functionCall": map[string]any{"name": "f", "args": map[string]any{"x": 1}}},
						},
					},
				},
			},
		},
	}

	c := cook.NewCooker(NewGeminiNormalizer())
	out := c.Cook([]map[string]any{record}, cook.FormatGemini)

	require.Len(t, out.Requests, 1)
	require.Len(t, out.Tools, 1)
	assert.Equal(t, "f", out.Tools[0].Name)

	var systemMsg, userMsg, toolUseMsg *cook.Message

	for i := range out.Messages {
		switch {
		case out.Messages[i].Role == cook.RoleSystem:
			systemMsg = &out.Messages[i]
		case out.Messages[i].Role == cook.RoleUser:
			userMsg = &out.Messages[i]
		case out.Messages[i].Role == cook.RoleToolUse:
			toolUseMsg = &out.Messages[i]
		}
	}

	require.NotNil(t, systemMsg)
	assert.Equal(t, "sys", systemMsg.Content)

	require.NotNil(t, userMsg)
	assert.Equal(t, "q", userMsg.Content)

	require.NotNil(t, toolUseMsg)
	require.Len(t, toolUseMsg.ToolCalls, 1)
	assert.Equal(t, "f", toolUseMsg.ToolCalls[0].Name)
	assert.Equal(t, map[string]any{"x": 1}, toolUseMsg.ToolCalls[0].Arguments)
}

func TestMapGeminiRole(t *testing.T) {
	tests := []struct {
		role     string
		expected string
	}{
		{role: "model", expected: cook.RoleAssistant},
		{role: "user", expected: cook.RoleUser},
		{role: "", expected: cook.RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			assert.Equal(t, tt.expected, mapGeminiRole(tt.role))
		})
	}
}

func TestGeminiNormalizer_ProcessParts_FunctionResponseUsesNameAsToolUseID(t *testing.T) {
	n := NewGeminiNormalizer()
	dedup := cook.NewMessageDeduplicator()

	parts := []any{
		map[string]any{"function_response": map[string]any{"name": "f", "response": map[string]any{"content": "42"}}},
	}

	ids := n.processParts(parts, cook.RoleUser, dedup)

	require.Len(t, ids, 1)
	messages := dedup.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, cook.RoleToolResult, messages[0].Role)
	assert.Equal(t, "f", messages[0].ToolUseID)
	assert.Equal(t, "42", messages[0].Content)
}
