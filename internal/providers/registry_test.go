package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracecook/llmtrace/internal/cook"
)

func TestRegistry_FixedDetectionOrder(t *testing.T) {
	normalizers := Registry()

	require.Len(t, normalizers, 3)
	assert.Equal(t, cook.FormatGemini, normalizers[0].Name())
	assert.Equal(t, cook.FormatClaude, normalizers[1].Name())
	assert.Equal(t, cook.FormatOpenAI, normalizers[2].Name())
}

func TestRegistry_OpenAIIsThePermissiveFallback(t *testing.T) {
	normalizers := Registry()

	record := map[string]any{"request": map[string]any{"messages": []any{}}}

	var matched cook.Format

	for _, n := range normalizers {
		if n.Detect(record) {
			matched = n.Name()
			break
		}
	}

	assert.Equal(t, cook.FormatOpenAI, matched)
}
