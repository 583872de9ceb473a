package providers

import (
	"strings"

	"github.com/tracecook/llmtrace/internal/cook"
	"github.com/tracecook/llmtrace/internal/jsonval"
)

// GeminiNormalizer handles the Gemini generateContent wire format. Unlike
// OpenAI/Claude, no streaming SSE shape is defined for it here: Gemini
// trace records are always captured non-streaming.
type GeminiNormalizer struct{}

func NewGeminiNormalizer() *GeminiNormalizer { return &GeminiNormalizer{} }

func (n *GeminiNormalizer) Name() cook.Format { return cook.FormatGemini }

func (n *GeminiNormalizer) Detect(record map[string]any) bool {
	request := jsonval.AsMap(jsonval.Field(record, "request"))
	response := jsonval.AsMap(jsonval.Field(record, "response"))

	if _, ok := jsonval.Field(request, "contents").([]any); ok {
		return true
	}

	if _, ok := jsonval.Field(request, "system_instruction").(map[string]any); ok {
		return true
	}

	if tools := jsonval.AsSlice(jsonval.Field(request, "tools")); len(tools) > 0 {
		if first := jsonval.AsMap(tools[0]); first != nil {
			if _, ok := first["function_declarations"]; ok {
				return true
			}
		}
	}

	if candidates := jsonval.AsSlice(jsonval.Field(response, "candidates")); len(candidates) > 0 {
		if first := jsonval.AsMap(candidates[0]); first != nil {
			content := jsonval.AsMap(jsonval.Field(first, "content"))
			if content != nil {
				_, hasParts := content["parts"]
				_, hasRole := content["role"]
				if hasParts && hasRole {
					return true
				}
			}
		}
	}

	if _, ok := response["modelVersion"]; ok {
		return true
	}

	return false
}

func (n *GeminiNormalizer) Process(record map[string]any, messages *cook.MessageDeduplicator, tools *cook.ToolDeduplicator) cook.Request {
	request := jsonval.AsMap(jsonval.Field(record, "request"))
	response := jsonval.AsMap(jsonval.Field(record, "response"))
	errStr := jsonval.StringField(record, "error")

	systemIDs := n.processSystemInstruction(jsonval.AsMap(jsonval.Field(request, "system_instruction")), messages)
	contentIDs := n.processContents(jsonval.AsSlice(jsonval.Field(request, "contents")), messages)
	requestMsgIDs := append(systemIDs, contentIDs...)

	responseMsgIDs := n.processResponse(response, errStr, messages)
	toolIDs := n.processTools(jsonval.AsSlice(jsonval.Field(request, "tools")), tools)

	model := jsonval.StringField(response, "modelVersion")
	if model == "" {
		model = jsonval.StringField(request, "model")
	}

	return cook.Request{
		ID:               jsonval.StringField(record, "id"),
		ParentID:         nil,
		Timestamp:        cook.ParseTimestamp(jsonval.StringField(record, "timestamp")),
		RequestMessages:  requestMsgIDs,
		ResponseMessages: responseMsgIDs,
		Model:            model,
		Tools:            toolIDs,
		DurationMs:       jsonval.Int64Field(record, "duration_ms"),
	}
}

func (n *GeminiNormalizer) processSystemInstruction(systemInstruction map[string]any, dedup *cook.MessageDeduplicator) []string {
	if systemInstruction == nil {
		return nil
	}

	var ids []string

	for _, raw := range jsonval.AsSlice(jsonval.Field(systemInstruction, "parts")) {
		if part := jsonval.AsMap(raw); part != nil {
			if text, ok := part["text"]; ok {
				if s := jsonval.AsString(text); s != "" {
					ids = append(ids, dedup.GetOrCreate(cook.RoleSystem, s, nil, "", nil))
				}
			}
			continue
		}

		if s, ok := raw.(string); ok {
			ids = append(ids, dedup.GetOrCreate(cook.RoleSystem, s, nil, "", nil))
		}
	}

	return ids
}

func (n *GeminiNormalizer) processContents(contents []any, dedup *cook.MessageDeduplicator) []string {
	var ids []string

	for _, raw := range contents {
		content := jsonval.AsMap(raw)
		role := mapGeminiRole(jsonval.StringField(content, "role"))
		parts := jsonval.AsSlice(jsonval.Field(content, "parts"))
		ids = append(ids, n.processParts(parts, role, dedup)...)
	}

	return ids
}

// mapGeminiRole maps model to assistant and passes user through; an absent
// role (typical of function-response turns) defaults to user.
func mapGeminiRole(role string) string {
	switch role {
	case "model":
		return cook.RoleAssistant
	case "user":
		return cook.RoleUser
	default:
		return cook.RoleUser
	}
}

// processParts walks a Gemini parts array. Text parts concatenate into one
// trailing Message under baseRole; function_call parts (checked under both
// snake_case and camelCase keys) collect into one trailing tool_use
// Message; function_response parts each become their own tool_result
// Message, keyed back by function name rather than a call id since Gemini
// has no call-id concept. thoughtSignature carries no visible content and
// is not represented.
func (n *GeminiNormalizer) processParts(parts []any, baseRole string, dedup *cook.MessageDeduplicator) []string {
	var ids []string

	var textParts []string

	var toolCalls []cook.ToolCall

	for _, raw := range parts {
		part := jsonval.AsMap(raw)
		if part == nil {
			continue
		}

		if text, ok := part["text"]; ok {
			if s := jsonval.AsString(text); s != "" {
				textParts = append(textParts, s)
			}
		}

		funcCall := firstNonNilMap(jsonval.Field(part, "function_call"), jsonval.Field(part, "functionCall"))
		if funcCall != nil {
			toolCalls = append(toolCalls, cook.ToolCall{
				Name:      jsonval.StringField(funcCall, "name"),
				Arguments: nonNilOrEmptyMap(jsonval.Field(funcCall, "args")),
			})
		}

		funcResponse := firstNonNilMap(jsonval.Field(part, "function_response"), jsonval.Field(part, "functionResponse"))
		if funcResponse != nil {
			name := jsonval.StringField(funcResponse, "name")
			responseData := jsonval.Field(funcResponse, "response")

			var resultContent string
			if m := jsonval.AsMap(responseData); m != nil {
				if content, ok := m["content"]; ok {
					resultContent = jsonval.AsString(content)
				} else {
					resultContent = jsonval.Jsonify(m)
				}
			} else {
				resultContent = jsonify(responseData)
			}

			ids = append(ids, dedup.GetOrCreate(cook.RoleToolResult, resultContent, nil, name, nil))
		}
	}

	if len(textParts) > 0 {
		ids = append(ids, dedup.GetOrCreate(baseRole, strings.Join(textParts, ""), nil, "", nil))
	}

	if len(toolCalls) > 0 {
		ids = append(ids, dedup.GetOrCreate(cook.RoleToolUse, "", toolCalls, "", nil))
	}

	return ids
}

func firstNonNilMap(values ...any) map[string]any {
	for _, v := range values {
		if m := jsonval.AsMap(v); m != nil {
			return m
		}
	}

	return nil
}

func (n *GeminiNormalizer) processResponse(response map[string]any, errStr string, dedup *cook.MessageDeduplicator) []string {
	if errStr != "" {
		return []string{dedup.GetOrCreate(cook.RoleAssistant, "Error: "+errStr, nil, "", nil)}
	}

	if response == nil {
		return []string{dedup.GetOrCreate(cook.RoleAssistant, "", nil, "", nil)}
	}

	candidates := jsonval.AsSlice(jsonval.Field(response, "candidates"))
	if len(candidates) == 0 {
		return []string{dedup.GetOrCreate(cook.RoleAssistant, "", nil, "", nil)}
	}

	firstCandidate := jsonval.AsMap(candidates[0])
	content := jsonval.AsMap(jsonval.Field(firstCandidate, "content"))
	parts := jsonval.AsSlice(jsonval.Field(content, "parts"))

	if len(parts) == 0 {
		return []string{dedup.GetOrCreate(cook.RoleAssistant, "", nil, "", nil)}
	}

	return n.processParts(parts, cook.RoleAssistant, dedup)
}

// processTools flattens Gemini's function_declarations wrapping: each
// top-level tool entry contributes zero or more declarations, each of
// which becomes its own canonical Tool.
func (n *GeminiNormalizer) processTools(rawTools []any, dedup *cook.ToolDeduplicator) []string {
	var ids []string

	for _, raw := range rawTools {
		tool := jsonval.AsMap(raw)
		for _, declRaw := range jsonval.AsSlice(jsonval.Field(tool, "function_declarations")) {
			decl := jsonval.AsMap(declRaw)
			ids = append(ids, dedup.GetOrCreate(
				jsonval.StringField(decl, "name"),
				jsonval.StringField(decl, "description"),
				jsonval.Field(decl, "parameters"),
				false,
			))
		}
	}

	return ids
}
