package providers

import (
	"sort"
	"strings"

	"github.com/tracecook/llmtrace/internal/cook"
	"github.com/tracecook/llmtrace/internal/jsonval"
)

// ClaudeNormalizer handles the Anthropic Messages wire format, including
// its server-sent-event streaming encoding.
type ClaudeNormalizer struct{}

func NewClaudeNormalizer() *ClaudeNormalizer { return &ClaudeNormalizer{} }

func (n *ClaudeNormalizer) Name() cook.Format { return cook.FormatClaude }

func (n *ClaudeNormalizer) Detect(record map[string]any) bool {
	request := jsonval.AsMap(jsonval.Field(record, "request"))
	response := jsonval.AsMap(jsonval.Field(record, "response"))

	if response != nil {
		if streaming, _ := jsonval.BoolField(response, "stream"); streaming {
			if lines := stringSlice(jsonval.Field(response, "sse_lines")); lines != nil {
				for _, chunk := range sseDataChunks(lines) {
					if isClaudeEventType(jsonval.StringField(chunk, "type")) {
						return true
					}
					if _, ok := chunk["choices"]; ok {
						return false
					}
				}
			}
		}
	}

	if _, ok := jsonval.Field(request, "system").([]any); ok {
		return true
	}

	if tools := jsonval.AsSlice(jsonval.Field(request, "tools")); len(tools) > 0 {
		if first := jsonval.AsMap(tools[0]); first != nil {
			if _, ok := first["input_schema"]; ok {
				return true
			}
		}
	}

	for _, msg := range jsonval.AsSlice(jsonval.Field(request, "messages")) {
		msgMap := jsonval.AsMap(msg)
		for _, block := range jsonval.AsSlice(jsonval.Field(msgMap, "content")) {
			blockMap := jsonval.AsMap(block)
			if isClaudeContentBlockType(jsonval.StringField(blockMap, "type")) {
				return true
			}
		}
	}

	return false
}

func (n *ClaudeNormalizer) Process(record map[string]any, messages *cook.MessageDeduplicator, tools *cook.ToolDeduplicator) cook.Request {
	request := jsonval.AsMap(jsonval.Field(record, "request"))
	response := jsonval.AsMap(jsonval.Field(record, "response"))
	errStr := jsonval.StringField(record, "error")

	requestMsgIDs := n.processRequestMessages(request, messages)
	responseMsgIDs := n.processResponse(response, errStr, messages)
	toolIDs := n.processTools(jsonval.AsSlice(jsonval.Field(request, "tools")), tools)

	return cook.Request{
		ID:               jsonval.StringField(record, "id"),
		ParentID:         nil,
		Timestamp:        cook.ParseTimestamp(jsonval.StringField(record, "timestamp")),
		RequestMessages:  requestMsgIDs,
		ResponseMessages: responseMsgIDs,
		Model:            jsonval.StringField(request, "model"),
		Tools:            toolIDs,
		DurationMs:       jsonval.Int64Field(record, "duration_ms"),
	}
}

// processRequestMessages prepends the request-level system prompt(s), then
// walks each message: a string content is one Message, an array content is
// expanded block by block.
func (n *ClaudeNormalizer) processRequestMessages(request map[string]any, dedup *cook.MessageDeduplicator) []string {
	ids := n.processSystem(jsonval.Field(request, "system"), dedup)

	for _, raw := range jsonval.AsSlice(jsonval.Field(request, "messages")) {
		msg := jsonval.AsMap(raw)
		role := jsonval.StringField(msg, "role")
		content := jsonval.Field(msg, "content")

		if s, ok := content.(string); ok {
			ids = append(ids, dedup.GetOrCreate(role, s, nil, "", nil))
			continue
		}

		if blocks := jsonval.AsSlice(content); blocks != nil {
			ids = append(ids, n.processContentBlocks(role, blocks, dedup)...)
		}
	}

	return ids
}

// processSystem normalizes Claude's system field - a string or a list of
// {type: text, text} blocks - into leading system Messages.
func (n *ClaudeNormalizer) processSystem(system any, dedup *cook.MessageDeduplicator) []string {
	var ids []string

	switch s := system.(type) {
	case string:
		if s != "" {
			ids = append(ids, dedup.GetOrCreate(cook.RoleSystem, s, nil, "", nil))
		}
	case []any:
		for _, raw := range s {
			if block := jsonval.AsMap(raw); block != nil {
				if jsonval.StringField(block, "type") == "text" {
					ids = append(ids, dedup.GetOrCreate(cook.RoleSystem, jsonval.StringField(block, "text"), nil, "", nil))
				}
				continue
			}
			if str, ok := raw.(string); ok {
				ids = append(ids, dedup.GetOrCreate(cook.RoleSystem, str, nil, "", nil))
			}
		}
	}

	return ids
}

// processContentBlocks walks a Claude content-block array. Text blocks
// each become their own Message; thinking blocks become a separate
// "thinking" Message; tool_use blocks are collected into one trailing
// tool_use Message; tool_result blocks become their own "tool_result"
// Message carrying the tool_use_id/is_error back-references.
func (n *ClaudeNormalizer) processContentBlocks(role string, blocks []any, dedup *cook.MessageDeduplicator) []string {
	var ids []string

	var toolCalls []cook.ToolCall

	for _, raw := range blocks {
		block := jsonval.AsMap(raw)
		if block == nil {
			ids = append(ids, dedup.GetOrCreate(role, jsonval.Jsonify(raw), nil, "", nil))
			continue
		}

		switch jsonval.StringField(block, "type") {
		case "text":
			ids = append(ids, dedup.GetOrCreate(role, jsonval.StringField(block, "text"), nil, "", nil))

		case "thinking":
			if thinking := jsonval.StringField(block, "thinking"); thinking != "" {
				ids = append(ids, dedup.GetOrCreate(cook.RoleThinking, thinking, nil, "", nil))
			}

		case "tool_use":
			toolCalls = append(toolCalls, cook.ToolCall{
				Name:      jsonval.StringField(block, "name"),
				Arguments: nonNilOrEmptyMap(jsonval.Field(block, "input")),
				ID:        jsonval.StringField(block, "id"),
			})

		case "tool_result":
			content := toolResultContent(jsonval.Field(block, "content"))
			toolUseID := jsonval.StringField(block, "tool_use_id")

			var isError *bool
			if v, ok := jsonval.BoolField(block, "is_error"); ok {
				isError = &v
			}

			ids = append(ids, dedup.GetOrCreate(cook.RoleToolResult, content, nil, toolUseID, isError))

		case "image":
			ids = append(ids, dedup.GetOrCreate(role, "[image]", nil, "", nil))

		default:
			ids = append(ids, dedup.GetOrCreate(role, jsonval.Jsonify(block), nil, "", nil))
		}
	}

	if len(toolCalls) > 0 {
		ids = append(ids, dedup.GetOrCreate(cook.RoleToolUse, "", toolCalls, "", nil))
	}

	return ids
}

// toolResultContent renders a tool_result block's content: a string passes
// through, a list has its text parts joined with newlines (non-text items
// are JSON-serialized, a bare string item passes through), anything else
// is JSON-serialized.
func toolResultContent(content any) string {
	switch c := content.(type) {
	case string:
		return c
	case []any:
		parts := make([]string, 0, len(c))
		for _, item := range c {
			if m := jsonval.AsMap(item); m != nil {
				if text, ok := m["text"]; ok {
					parts = append(parts, jsonval.AsString(text))
					continue
				}
				parts = append(parts, jsonify(m))
			} else {
				parts = append(parts, jsonify(item))
			}
		}

		return strings.Join(parts, "\n")
	case nil:
		return ""
	default:
		return jsonify(c)
	}
}

func jsonify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return jsonval.Jsonify(v)
}

func nonNilOrEmptyMap(v any) any {
	if v == nil {
		return map[string]any{}
	}

	return v
}

func (n *ClaudeNormalizer) processResponse(response map[string]any, errStr string, dedup *cook.MessageDeduplicator) []string {
	if errStr != "" {
		return []string{dedup.GetOrCreate(cook.RoleAssistant, "Error: "+errStr, nil, "", nil)}
	}

	if response == nil {
		return []string{dedup.GetOrCreate(cook.RoleAssistant, "", nil, "", nil)}
	}

	if streaming, _ := jsonval.BoolField(response, "stream"); streaming {
		if lines := stringSlice(jsonval.Field(response, "sse_lines")); lines != nil {
			response = reassembleClaudeStream(lines)
		}
	}

	content := jsonval.AsSlice(jsonval.Field(response, "content"))
	if len(content) == 0 {
		return []string{dedup.GetOrCreate(cook.RoleAssistant, "", nil, "", nil)}
	}

	var ids []string

	var textParts []string

	var toolCalls []cook.ToolCall

	for _, raw := range content {
		block := jsonval.AsMap(raw)
		if block == nil {
			textParts = append(textParts, jsonval.AsString(raw))
			continue
		}

		switch jsonval.StringField(block, "type") {
		case "text":
			textParts = append(textParts, jsonval.StringField(block, "text"))

		case "thinking":
			if thinking := jsonval.StringField(block, "thinking"); thinking != "" {
				ids = append(ids, dedup.GetOrCreate(cook.RoleThinking, thinking, nil, "", nil))
			}

		case "tool_use":
			toolCalls = append(toolCalls, cook.ToolCall{
				Name:      jsonval.StringField(block, "name"),
				Arguments: nonNilOrEmptyMap(jsonval.Field(block, "input")),
				ID:        jsonval.StringField(block, "id"),
			})
		}
	}

	// Text and tool_calls always split into separate Messages on the
	// response side, unlike OpenAI's non-streaming request/response path.
	if combined := strings.Join(textParts, ""); combined != "" {
		ids = append(ids, dedup.GetOrCreate(cook.RoleAssistant, combined, nil, "", nil))
	}
	if len(toolCalls) > 0 {
		ids = append(ids, dedup.GetOrCreate(cook.RoleToolUse, "", toolCalls, "", nil))
	}
	if len(ids) == 0 {
		ids = append(ids, dedup.GetOrCreate(cook.RoleAssistant, "", nil, "", nil))
	}

	return ids
}

func (n *ClaudeNormalizer) processTools(rawTools []any, dedup *cook.ToolDeduplicator) []string {
	var ids []string

	for _, raw := range rawTools {
		tool := jsonval.AsMap(raw)
		ids = append(ids, dedup.GetOrCreate(
			jsonval.StringField(tool, "name"),
			jsonval.StringField(tool, "description"),
			jsonval.Field(tool, "input_schema"),
			false,
		))
	}

	return ids
}

// reassembleClaudeStream replays a Claude SSE event stream into the same
// shape as a non-streaming response, keying content blocks by their
// server-provided index: text_delta/thinking_delta append to the block's
// text buffer, input_json_delta accumulates a JSON fragment that is parsed
// once the stream ends.
func reassembleClaudeStream(lines []string) map[string]any {
	type blockAccum struct {
		blockType string
		text      string
		name      string
		id        string
		input     strings.Builder
	}

	var id, model string

	blocks := map[int64]*blockAccum{}

	var order []int64

	getOrInit := func(idx int64) *blockAccum {
		b, ok := blocks[idx]
		if !ok {
			b = &blockAccum{blockType: "text"}
			blocks[idx] = b
			order = append(order, idx)
		}

		return b
	}

	for _, chunk := range sseDataChunks(lines) {
		switch jsonval.StringField(chunk, "type") {
		case "message_start":
			message := jsonval.AsMap(jsonval.Field(chunk, "message"))
			id = jsonval.StringField(message, "id")
			model = jsonval.StringField(message, "model")

		case "content_block_start":
			idx := jsonval.Int64Field(chunk, "index")
			block := jsonval.AsMap(jsonval.Field(chunk, "content_block"))
			b := getOrInit(idx)
			b.blockType = jsonval.StringField(block, "type")
			b.text = jsonval.StringField(block, "text")
			b.name = jsonval.StringField(block, "name")
			b.id = jsonval.StringField(block, "id")

		case "content_block_delta":
			idx := jsonval.Int64Field(chunk, "index")
			delta := jsonval.AsMap(jsonval.Field(chunk, "delta"))
			b := getOrInit(idx)

			switch jsonval.StringField(delta, "type") {
			case "text_delta":
				b.text += jsonval.StringField(delta, "text")
			case "thinking_delta":
				b.text += jsonval.StringField(delta, "thinking")
			case "input_json_delta":
				b.input.WriteString(jsonval.StringField(delta, "partial_json"))
			}

		case "message_delta", "message_stop":
			// stop_reason is not needed by any downstream consumer of the
			// cooked output; only id/model and content blocks are.
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	content := make([]any, 0, len(order))

	for _, idx := range order {
		b := blocks[idx]

		switch b.blockType {
		case "text":
			content = append(content, map[string]any{"type": "text", "text": b.text})
		case "thinking":
			content = append(content, map[string]any{"type": "thinking", "thinking": b.text})
		case "tool_use":
			block := map[string]any{
				"type":  "tool_use",
				"name":  b.name,
				"input": jsonval.DecodeStringOrRaw(b.input.String()),
			}
			if b.id != "" {
				block["id"] = b.id
			}

			content = append(content, block)
		}
	}

	return map[string]any{
		"id":      id,
		"model":   model,
		"content": content,
	}
}
