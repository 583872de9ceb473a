package cook

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Normalizer is the narrow capability every format handler implements: it
// can recognize its own records and turn one into a Request, appending any
// new Messages/Tools it needs to the shared deduplicators. ParentID is
// always left nil; dependency reconstruction happens once, after every
// Request in the batch exists.
type Normalizer interface {
	Name() Format
	Detect(record map[string]any) bool
	Process(record map[string]any, messages *MessageDeduplicator, tools *ToolDeduplicator) Request
}

// Cooker coordinates normalizer selection, deduplication, and dependency
// analysis for a single batch. It does not know any format-specific
// details itself - that is entirely delegated to the registered
// Normalizers.
type Cooker struct {
	normalizers []Normalizer
	messages    *MessageDeduplicator
	tools       *ToolDeduplicator
}

// NewCooker builds a Cooker with normalizers tried, in order, during
// auto-detection. Order matters: the first Normalizer whose Detect matches
// wins, so the most distinctive formats must be registered first.
func NewCooker(normalizers ...Normalizer) *Cooker {
	return &Cooker{
		normalizers: normalizers,
		messages:    NewMessageDeduplicator(),
		tools:       NewToolDeduplicator(),
	}
}

// Cook processes every record in records under the given format hint and
// returns the deduplicated, dependency-resolved Output. It is a pure
// function of its inputs: no state survives past the returned Output.
func (c *Cooker) Cook(records []map[string]any, format Format) Output {
	c.messages = NewMessageDeduplicator()
	c.tools = NewToolDeduplicator()

	requests := make([]Request, 0, len(records))

	for _, record := range records {
		n := c.selectNormalizer(format, record)
		requests = append(requests, n.Process(record, c.messages, c.tools))
	}

	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].Timestamp < requests[j].Timestamp
	})

	AnalyzeDependencies(requests)

	return Output{
		Messages: c.messages.Messages(),
		Tools:    c.tools.Tools(),
		Requests: requests,
	}
}

func (c *Cooker) selectNormalizer(format Format, record map[string]any) Normalizer {
	if format != FormatAuto {
		for _, n := range c.normalizers {
			if n.Name() == format {
				return n
			}
		}
	}

	for _, n := range c.normalizers {
		if n.Detect(record) {
			return n
		}
	}

	// Fallback: the last registered normalizer is the permissive default
	// (OpenAI, per the fixed Gemini/Claude/OpenAI registration order).
	return c.normalizers[len(c.normalizers)-1]
}

// Marshal renders an Output as the pretty-printed, non-ASCII-preserving
// JSON document the visualizer reads.
func Marshal(out Output) ([]byte, error) {
	if out.Messages == nil {
		out.Messages = []Message{}
	}
	if out.Tools == nil {
		out.Tools = []Tool{}
	}
	if out.Requests == nil {
		out.Requests = []Request{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(out); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
