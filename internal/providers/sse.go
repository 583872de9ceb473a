package providers

import (
	"encoding/json"
	"strings"
)

// sseDataChunks decodes every "data: <json>" line in lines into a
// map[string]any, silently dropping the terminal "[DONE]" sentinel and any
// line that fails to parse as JSON - an undecodable SSE line is a
// recoverable parse-level error (§7) and is simply skipped.
func sseDataChunks(lines []string) []map[string]any {
	chunks := make([]map[string]any, 0, len(lines))

	for _, line := range lines {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			continue
		}

		var chunk map[string]any
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}

		chunks = append(chunks, chunk)
	}

	return chunks
}
