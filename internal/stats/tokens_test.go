package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracecook/llmtrace/internal/cook"
)

func TestCount_AggregatesTokensPerModel(t *testing.T) {
	out := cook.Output{
		Messages: []cook.Message{
			{ID: "m0", Role: cook.RoleUser, Content: "hello there"},
			{ID: "m1", Role: cook.RoleAssistant, Content: "hi"},
		},
		Requests: []cook.Request{
			{ID: "r1", Model: "gpt-4", RequestMessages: []string{"m0"}, ResponseMessages: []string{"m1"}},
		},
	}

	report, err := Count(out, "cl100k_base")
	require.NoError(t, err)

	assert.Equal(t, "cl100k_base", report.Encoding)
	require.Len(t, report.ByModel, 1)
	assert.Equal(t, "gpt-4", report.ByModel[0].Model)
	assert.Equal(t, 1, report.ByModel[0].Requests)
	assert.Positive(t, report.ByModel[0].RequestTokens)
	assert.Positive(t, report.ByModel[0].ResponseTokens)
	assert.Equal(t, report.ByModel[0].RequestTokens+report.ByModel[0].ResponseTokens, report.TotalTokens)
}

func TestCount_UnknownEncodingReturnsError(t *testing.T) {
	_, err := Count(cook.Output{}, "not-a-real-encoding")
	assert.Error(t, err)
}
