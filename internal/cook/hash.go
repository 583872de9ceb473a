package cook

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashTruncateLen is the number of hex characters kept from the full SHA-256
// digest. 64 bits is ample for the expected cardinality of a single batch
// (<=10^5 entries): the truncation only affects the in-memory keying, never
// the IDs visible in the cooked output.
const hashTruncateLen = 16

// canonicalHash returns a stable content hash for v. encoding/json sorts the
// keys of any map[string]any it marshals, which is what gives us "canonical
// JSON" here without a bespoke encoder: as long as every value we hash is
// built from maps/slices/primitives (never struct field order we don't
// control), two semantically-equal values always marshal identically.
func canonicalHash(v any) string {
	// json.Marshal never fails for the map/slice/primitive shapes this
	// package hashes; a failure here would mean a caller passed something
	// unencodable, which is a programming error, not a data error.
	data, err := json.Marshal(v)
	if err != nil {
		panic("cook: canonicalHash: " + err.Error())
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:hashTruncateLen]
}

func messageHash(role, content string, toolCalls []ToolCall, toolUseID string, isError *bool) string {
	return canonicalHash(map[string]any{
		"role":        role,
		"content":     content,
		"tool_calls":  toolCallsForHash(toolCalls),
		"tool_use_id": nullableString(toolUseID),
		"is_error":    isError,
	})
}

func toolHash(name, description string, parameters any, isServerSide bool) string {
	return canonicalHash(map[string]any{
		"name":           name,
		"description":    description,
		"parameters":     parameters,
		"is_server_side": isServerSide,
	})
}

// toolCallsForHash normalizes an empty slice to nil so that "no tool calls"
// hashes identically whether the caller passed nil or []ToolCall{}.
func toolCallsForHash(toolCalls []ToolCall) any {
	if len(toolCalls) == 0 {
		return nil
	}

	out := make([]map[string]any, len(toolCalls))
	for i, tc := range toolCalls {
		out[i] = map[string]any{
			"name":      tc.Name,
			"arguments": tc.Arguments,
			"id":        nullableString(tc.ID),
		}
	}

	return out
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}

	return s
}
