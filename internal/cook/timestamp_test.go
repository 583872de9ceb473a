package cook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int64
	}{
		{name: "Z suffix", input: "2024-01-15T10:30:00Z", expected: 1705314600000},
		{name: "explicit offset", input: "2024-01-15T10:30:00+00:00", expected: 1705314600000},
		{name: "fractional seconds with Z", input: "2024-01-15T10:30:00.500Z", expected: 1705314600500},
		{name: "malformed input", input: "not-a-timestamp", expected: 0},
		{name: "empty string", input: "", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseTimestamp(tt.input))
		})
	}
}
