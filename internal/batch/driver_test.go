package batch

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracecook/llmtrace/internal/cook"
)

func TestParseRecords_JSONArray(t *testing.T) {
	data := []byte(`[{"id":"r1"},{"id":"r2"}]`)

	records, err := ParseRecords(data)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "r1", records[0]["id"])
}

func TestParseRecords_SingleObject(t *testing.T) {
	data := []byte(`{"id":"r1"}`)

	records, err := ParseRecords(data)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "r1", records[0]["id"])
}

func TestParseRecords_JSONL(t *testing.T) {
	data := []byte("{\"id\":\"r1\"}\n{\"id\":\"r2\"}\n\n")

	records, err := ParseRecords(data)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "r2", records[1]["id"])
}

func TestParseRecords_InvalidJSONLLine(t *testing.T) {
	data := []byte("{\"id\":\"r1\"}\nnot json\n")

	_, err := ParseRecords(data)
	assert.Error(t, err)
}

func TestTransformRecords_MintsIDForBlankRecordID(t *testing.T) {
	records := []map[string]any{
		{
			"request": map[string]any{
				"model":    "gpt-4",
				"messages": []any{map[string]any{"role": "user", "content": "hi"}},
			},
		},
	}

	out := TransformRecords(records, cook.FormatOpenAI)

	require.Len(t, out.Requests, 1)
	assert.NotEmpty(t, out.Requests[0].ID)
}

func TestTransformFile_ReadsWritesAndDecompressesGzip(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "trace.jsonl.gz")
	outputPath := filepath.Join(dir, "out.json")

	raw := `{"id":"r1","timestamp":"2024-01-15T10:00:00Z","request":{"model":"gpt-4","messages":[{"role":"user","content":"hi"}]},"response":{"choices":[{"message":{"role":"assistant","content":"hello"}}]}}` + "\n"

	f, err := os.Create(inputPath)
	require.NoError(t, err)

	gw := gzip.NewWriter(f)
	_, err = gw.Write([]byte(raw))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	require.NoError(t, f.Close())

	result, err := TransformFile(inputPath, outputPath, cook.FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, 1, result.RecordCount)

	written, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(written), "hello")
}

func TestTransformFile_MissingInputReturnsInputError(t *testing.T) {
	dir := t.TempDir()

	_, err := TransformFile(filepath.Join(dir, "missing.json"), filepath.Join(dir, "out.json"), cook.FormatAuto)

	require.Error(t, err)

	var inputErr *cook.InputError
	assert.ErrorAs(t, err, &inputErr)
}
