// Package batch implements the two external interfaces the core exposes
// to collaborators (§6): a batch-file transformer that reads a trace file
// from disk and writes the cooked artifact, and an in-memory transformer
// over already-decoded records. Everything file-format-specific (JSON vs.
// JSONL discrimination, gzip/brotli transport compression, minting an ID
// for a record that arrived without one) lives here, upstream of the pure
// cook.Cooker transform.
package batch

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/google/uuid"

	"github.com/tracecook/llmtrace/internal/cook"
	"github.com/tracecook/llmtrace/internal/providers"
)

// Result summarizes one batch run for the CLI/observability layer.
type Result struct {
	RecordCount int
	Output      cook.Output
}

// TransformFile reads inputPath (optionally .gz/.br compressed), cooks its
// records under format, and writes the pretty-printed JSON artifact to
// outputPath.
func TransformFile(inputPath, outputPath string, format cook.Format) (Result, error) {
	data, err := readFile(inputPath)
	if err != nil {
		return Result{}, &cook.InputError{Path: inputPath, Err: err}
	}

	records, err := ParseRecords(data)
	if err != nil {
		return Result{}, &cook.InputError{Path: inputPath, Err: err}
	}

	out := TransformRecords(records, format)

	encoded, err := cook.Marshal(out)
	if err != nil {
		return Result{}, fmt.Errorf("marshal cooked output: %w", err)
	}

	if err := os.WriteFile(outputPath, encoded, 0o644); err != nil {
		return Result{}, fmt.Errorf("write output file %s: %w", outputPath, err)
	}

	return Result{RecordCount: len(records), Output: out}, nil
}

// TransformRecords is the in-memory transformer: it mints a Cooker wired
// with the fixed Gemini/Claude/OpenAI registry, backfills any record
// missing an id, and returns the canonical Output.
func TransformRecords(records []map[string]any, format cook.Format) cook.Output {
	for _, record := range records {
		if id, _ := record["id"].(string); id == "" {
			record["id"] = uuid.NewString()
		}
	}

	cooker := cook.NewCooker(providers.Registry()...)

	return cooker.Cook(records, format)
}

// readFile loads inputPath, transparently decompressing a .gz or .br
// suffix before returning the raw bytes.
func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f

	switch {
	case strings.HasSuffix(path, ".gz"):
		gzipReader, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gzipReader.Close()

		reader = gzipReader
	case strings.HasSuffix(path, ".br"):
		reader = brotli.NewReader(f)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}

	return data, nil
}

// ParseRecords auto-discriminates the input per §6: a JSON array is taken
// as-is, a single JSON object becomes a one-element batch, and anything
// that fails to parse as JSON at all is treated as JSONL - one record per
// non-blank line.
func ParseRecords(data []byte) ([]map[string]any, error) {
	var asAny any
	if err := json.Unmarshal(data, &asAny); err == nil {
		switch v := asAny.(type) {
		case []any:
			records := make([]map[string]any, 0, len(v))
			for _, item := range v {
				if m, ok := item.(map[string]any); ok {
					records = append(records, m)
				}
			}

			return records, nil
		case map[string]any:
			return []map[string]any{v}, nil
		}
	}

	var records []map[string]any

	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var record map[string]any
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("parse JSONL line: %w", err)
		}

		records = append(records, record)
	}

	return records, nil
}
