package cook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageDeduplicator_GetOrCreate_DedupesIdenticalMessages(t *testing.T) {
	dedup := NewMessageDeduplicator()

	id1 := dedup.GetOrCreate(RoleUser, "hello", nil, "", nil)
	id2 := dedup.GetOrCreate(RoleUser, "hello", nil, "", nil)

	assert.Equal(t, id1, id2, "identical messages should share one id")
	assert.Len(t, dedup.Messages(), 1)
}

func TestMessageDeduplicator_GetOrCreate_DistinguishesByEveryField(t *testing.T) {
	dedup := NewMessageDeduplicator()

	isErr := true

	tests := []struct {
		name      string
		role      string
		content   string
		toolCalls []ToolCall
		toolUseID string
		isError   *bool
	}{
		{name: "base", role: RoleUser, content: "hi"},
		{name: "different role", role: RoleAssistant, content: "hi"},
		{name: "different content", role: RoleUser, content: "bye"},
		{name: "with tool use id", role: RoleToolResult, content: "hi", toolUseID: "t1"},
		{name: "with is_error", role: RoleToolResult, content: "hi", toolUseID: "t1", isError: &isErr},
		{name: "with tool calls", role: RoleToolUse, content: "", toolCalls: []ToolCall{{Name: "f", Arguments: map[string]any{}}}},
	}

	seen := map[string]bool{}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := dedup.GetOrCreate(tt.role, tt.content, tt.toolCalls, tt.toolUseID, tt.isError)
			assert.False(t, seen[id], "expected a distinct id for %s", tt.name)
			seen[id] = true
		})
	}

	assert.Len(t, dedup.Messages(), len(tests))
}

func TestMessageDeduplicator_Messages_PreservesInsertionOrder(t *testing.T) {
	dedup := NewMessageDeduplicator()

	dedup.GetOrCreate(RoleUser, "first", nil, "", nil)
	dedup.GetOrCreate(RoleAssistant, "second", nil, "", nil)
	dedup.GetOrCreate(RoleUser, "first", nil, "", nil) // duplicate, should not reorder
	dedup.GetOrCreate(RoleUser, "third", nil, "", nil)

	messages := dedup.Messages()
	require := assert.New(t)
	require.Len(messages, 3)
	require.Equal("first", messages[0].Content)
	require.Equal("second", messages[1].Content)
	require.Equal("third", messages[2].Content)
}

func TestToolDeduplicator_GetOrCreate_DedupesIdenticalTools(t *testing.T) {
	dedup := NewToolDeduplicator()

	params := map[string]any{"type": "object"}
	id1 := dedup.GetOrCreate("search", "searches the web", params, false)
	id2 := dedup.GetOrCreate("search", "searches the web", params, false)

	assert.Equal(t, id1, id2)
	assert.Len(t, dedup.Tools(), 1)
}

func TestToolDeduplicator_GetOrCreate_NilParametersDefaultToEmptyObject(t *testing.T) {
	dedup := NewToolDeduplicator()

	id := dedup.GetOrCreate("noop", "", nil, false)

	tools := dedup.Tools()
	require := assert.New(t)
	require.Len(tools, 1)
	require.Equal(id, tools[0].ID)
	require.Equal(map[string]any{}, tools[0].Parameters)
}

func TestToolDeduplicator_GetOrCreate_ServerSideDistinguishesHash(t *testing.T) {
	dedup := NewToolDeduplicator()

	id1 := dedup.GetOrCreate("search", "", map[string]any{}, false)
	id2 := dedup.GetOrCreate("search", "", map[string]any{}, true)

	assert.NotEqual(t, id1, id2)
	assert.Len(t, dedup.Tools(), 2)
}
