package providers

import (
	"sort"
	"strings"

	"github.com/tracecook/llmtrace/internal/cook"
	"github.com/tracecook/llmtrace/internal/jsonval"
)

// OpenAINormalizer handles the OpenAI chat-completions wire format. It is
// the unconditional fallback: Detect only ever returns false for records a
// more specific normalizer should own, so the registry always has
// something to fall back to.
type OpenAINormalizer struct{}

func NewOpenAINormalizer() *OpenAINormalizer { return &OpenAINormalizer{} }

func (n *OpenAINormalizer) Name() cook.Format { return cook.FormatOpenAI }

func (n *OpenAINormalizer) Detect(record map[string]any) bool {
	request := jsonval.AsMap(jsonval.Field(record, "request"))
	response := jsonval.AsMap(jsonval.Field(record, "response"))

	if response != nil {
		if streaming, _ := jsonval.BoolField(response, "stream"); streaming {
			if lines := stringSlice(jsonval.Field(response, "sse_lines")); lines != nil {
				for _, chunk := range sseDataChunks(lines) {
					if isClaudeEventType(jsonval.StringField(chunk, "type")) {
						return false
					}
					if _, ok := chunk["choices"]; ok {
						return true
					}
				}
			}
		}
	}

	if _, ok := jsonval.Field(request, "system").([]any); ok {
		return false
	}

	if tools := jsonval.AsSlice(jsonval.Field(request, "tools")); len(tools) > 0 {
		if first := jsonval.AsMap(tools[0]); first != nil {
			if _, ok := first["input_schema"]; ok {
				return false
			}
		}
	}

	for _, msg := range jsonval.AsSlice(jsonval.Field(request, "messages")) {
		msgMap := jsonval.AsMap(msg)
		for _, block := range jsonval.AsSlice(jsonval.Field(msgMap, "content")) {
			blockMap := jsonval.AsMap(block)
			if isClaudeContentBlockType(jsonval.StringField(blockMap, "type")) {
				return false
			}
		}
	}

	return true
}

func (n *OpenAINormalizer) Process(record map[string]any, messages *cook.MessageDeduplicator, tools *cook.ToolDeduplicator) cook.Request {
	request := jsonval.AsMap(jsonval.Field(record, "request"))
	response := jsonval.AsMap(jsonval.Field(record, "response"))
	errStr := jsonval.StringField(record, "error")

	requestMsgIDs := n.processRequestMessages(jsonval.AsSlice(jsonval.Field(request, "messages")), messages)
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

// processRequestMessages handles content that is either a string or an
// array. When content is an array, each element becomes its own Message to
// preserve intra-turn granularity; any tool_calls on the source message are
// collected into one trailing tool_use Message.
func (n *OpenAINormalizer) processRequestMessages(msgs []any, dedup *cook.MessageDeduplicator) []string {
	var ids []string

	for _, raw := range msgs {
		msg := jsonval.AsMap(raw)
		role := jsonval.StringField(msg, "role")
		content := jsonval.Field(msg, "content")
		toolCallsRaw := jsonval.AsSlice(jsonval.Field(msg, "tool_calls"))
		toolCallID := jsonval.StringField(msg, "tool_call_id")

		if items := jsonval.AsSlice(content); items != nil {
			for _, item := range items {
				ids = append(ids, dedup.GetOrCreate(role, extractContentItem(item), nil, "", nil))
			}
			if len(toolCallsRaw) > 0 {
				mappedRole := mapRole(role, toolCallsRaw)
				ids = append(ids, dedup.GetOrCreate(mappedRole, "", parseToolCalls(toolCallsRaw), "", nil))
			}
			continue
		}

		contentStr := jsonval.AsString(content)
		mappedRole := mapRole(role, toolCallsRaw)
		ids = append(ids, dedup.GetOrCreate(mappedRole, contentStr, parseToolCalls(toolCallsRaw), toolCallID, nil))
	}

	return ids
}

func (n *OpenAINormalizer) processResponse(response map[string]any, errStr string, dedup *cook.MessageDeduplicator) []string {
	if errStr != "" {
		return []string{dedup.GetOrCreate(cook.RoleAssistant, "Error: "+errStr, nil, "", nil)}
	}

	if response == nil {
		return []string{dedup.GetOrCreate(cook.RoleAssistant, "", nil, "", nil)}
	}

	streamed := false
	if streaming, _ := jsonval.BoolField(response, "stream"); streaming {
		if lines := stringSlice(jsonval.Field(response, "sse_lines")); lines != nil {
			response = reassembleOpenAIStream(lines)
			streamed = true
		}
	}

	choices := jsonval.AsSlice(jsonval.Field(response, "choices"))
	if len(choices) == 0 {
		return []string{dedup.GetOrCreate(cook.RoleAssistant, "", nil, "", nil)}
	}

	message := jsonval.AsMap(jsonval.Field(jsonval.AsMap(choices[0]), "message"))
	role := jsonval.StringField(message, "role")
	if role == "" {
		role = cook.RoleAssistant
	}

	content := jsonval.AsString(jsonval.Field(message, "content"))
	toolCallsRaw := jsonval.AsSlice(jsonval.Field(message, "tool_calls"))

	// The non-streaming path emits a single Message carrying both content
	// and tool_calls when both are present; the streaming/Claude paths
	// split them into a text Message followed by a tool_use Message.
	if streamed && content != "" && len(toolCallsRaw) > 0 {
		return []string{
			dedup.GetOrCreate(role, content, nil, "", nil),
			dedup.GetOrCreate(cook.RoleToolUse, "", parseToolCalls(toolCallsRaw), "", nil),
		}
	}

	mappedRole := mapRole(role, toolCallsRaw)

	return []string{dedup.GetOrCreate(mappedRole, content, parseToolCalls(toolCallsRaw), "", nil)}
}

func (n *OpenAINormalizer) processTools(rawTools []any, dedup *cook.ToolDeduplicator) []string {
	var ids []string

	for _, raw := range rawTools {
		tool := jsonval.AsMap(raw)
		if jsonval.StringField(tool, "type") != "function" {
			continue
		}

		fn := jsonval.AsMap(jsonval.Field(tool, "function"))
		ids = append(ids, dedup.GetOrCreate(
			jsonval.StringField(fn, "name"),
			jsonval.StringField(fn, "description"),
			jsonval.Field(fn, "parameters"),
			false,
		))
	}

	return ids
}

// mapRole maps an OpenAI source role to a canonical role: assistant with
// tool calls and no bearing on text becomes tool_use, tool becomes
// tool_result, everything else passes through.
func mapRole(role string, toolCalls []any) string {
	if role == cook.RoleAssistant && len(toolCalls) > 0 {
		return cook.RoleToolUse
	}
	if role == "tool" {
		return cook.RoleToolResult
	}

	return role
}

func parseToolCalls(raw []any) []cook.ToolCall {
	if len(raw) == 0 {
		return nil
	}

	calls := make([]cook.ToolCall, 0, len(raw))
	for _, item := range raw {
		tc := jsonval.AsMap(item)
		fn := jsonval.AsMap(jsonval.Field(tc, "function"))
		if fn == nil {
			continue
		}

		arguments := jsonval.Field(fn, "arguments")
		var decoded any
		switch a := arguments.(type) {
		case string:
			decoded = jsonval.DecodeStringOrRaw(a)
		case nil:
			decoded = map[string]any{}
		default:
			decoded = a
		}

		calls = append(calls, cook.ToolCall{
			Name:      jsonval.StringField(fn, "name"),
			Arguments: decoded,
			ID:        jsonval.StringField(tc, "id"),
		})
	}

	return calls
}

// extractContentItem renders one element of an OpenAI content array as
// display text: a plain string passes through, text/image_url blocks are
// rendered per §4 of the spec, anything else is JSON-serialized verbatim.
func extractContentItem(item any) string {
	if s, ok := item.(string); ok {
		return s
	}

	block := jsonval.AsMap(item)
	if block == nil {
		return jsonval.Jsonify(item)
	}

	switch jsonval.StringField(block, "type") {
	case "text":
		return jsonval.StringField(block, "text")
	case "image_url":
		imageURL := jsonval.Field(block, "image_url")
		url := ""
		if m := jsonval.AsMap(imageURL); m != nil {
			url = jsonval.StringField(m, "url")
		} else {
			url = jsonval.AsString(imageURL)
		}

		if strings.HasPrefix(url, "data:") {
			return "[image: base64 data]"
		}
		if url == "" {
			return "[image]"
		}

		return "[image: " + url + "]"
	default:
		return jsonval.Jsonify(block)
	}
}

func stringSlice(v any) []string {
	items := jsonval.AsSlice(v)
	if items == nil {
		return nil
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, jsonval.AsString(item))
	}

	return out
}

func isClaudeEventType(t string) bool {
	switch t {
	case "message_start", "content_block_start", "content_block_delta", "message_delta", "message_stop":
		return true
	default:
		return false
	}
}

func isClaudeContentBlockType(t string) bool {
	switch t {
	case "tool_use", "tool_result", "thinking":
		return true
	default:
		return false
	}
}

// reassembleOpenAIStream replays an OpenAI SSE event stream into the same
// shape as a non-streaming response: text deltas concatenate in arrival
// order, tool-call fragments accumulate per server-provided index, and the
// first non-null id/model win.
func reassembleOpenAIStream(lines []string) map[string]any {
	var id, model string

	var textBuilder strings.Builder

	type toolAccum struct {
		id        string
		name      string
		arguments strings.Builder
	}

	toolCallsByIndex := map[int64]*toolAccum{}
	var order []int64

	for _, chunk := range sseDataChunks(lines) {
		if id == "" {
			id = jsonval.StringField(chunk, "id")
		}
		if model == "" {
			model = jsonval.StringField(chunk, "model")
		}

		choices := jsonval.AsSlice(jsonval.Field(chunk, "choices"))
		if len(choices) == 0 {
			continue
		}

		delta := jsonval.AsMap(jsonval.Field(jsonval.AsMap(choices[0]), "delta"))
		if content := jsonval.StringField(delta, "content"); content != "" {
			textBuilder.WriteString(content)
		}

		for _, raw := range jsonval.AsSlice(jsonval.Field(delta, "tool_calls")) {
			tc := jsonval.AsMap(raw)
			idx := jsonval.Int64Field(tc, "index")

			acc, ok := toolCallsByIndex[idx]
			if !ok {
				acc = &toolAccum{}
				toolCallsByIndex[idx] = acc
				order = append(order, idx)
			}

			if tcID := jsonval.StringField(tc, "id"); tcID != "" {
				acc.id = tcID
			}

			if fn := jsonval.AsMap(jsonval.Field(tc, "function")); fn != nil {
				if name := jsonval.StringField(fn, "name"); name != "" {
					acc.name = name
				}
				acc.arguments.WriteString(jsonval.StringField(fn, "arguments"))
			}
		}
	}

	message := map[string]any{
		"role":    cook.RoleAssistant,
		"content": textBuilder.String(),
	}

	if len(order) > 0 {
		accs := make([]*toolAccum, 0, len(order))
		for _, idx := range order {
			accs = append(accs, toolCallsByIndex[idx])
		}
		// The source reassembler sorts completed tool calls by their
		// (possibly empty) id rather than by arrival index.
		sort.Slice(accs, func(i, j int) bool { return accs[i].id < accs[j].id })

		toolCalls := make([]any, 0, len(accs))
		for _, acc := range accs {
			toolCalls = append(toolCalls, map[string]any{
				"id":   acc.id,
				"type": "function",
				"function": map[string]any{
					"name":      acc.name,
					"arguments": acc.arguments.String(),
				},
			})
		}
		message["tool_calls"] = toolCalls
	}

	return map[string]any{
		"id":      id,
		"model":   model,
		"choices": []any{map[string]any{"message": message}},
	}
}
