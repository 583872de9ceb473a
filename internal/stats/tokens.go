// Package stats implements the optional token-usage report (§10.1): a
// tiktoken-go encoding counted over the cooked output's Message content,
// the same encoding the teacher uses to estimate tokens for routing
// decisions, repurposed here to summarize a cooked batch rather than gate
// a live request.
package stats

import (
	"sort"

	"github.com/pkoukk/tiktoken-go"

	"github.com/tracecook/llmtrace/internal/cook"
)

// ModelTokens is one model's aggregate token counts across a cooked batch.
type ModelTokens struct {
	Model          string
	Requests       int
	RequestTokens  int
	ResponseTokens int
}

// Report is the full token-usage summary for one cooked Output.
type Report struct {
	Encoding    string
	TotalTokens int
	ByModel     []ModelTokens
}

// Count builds a Report over out using the named tiktoken encoding (e.g.
// "cl100k_base"). A message referenced by both request and response lists
// of different requests is counted once per reference, matching how the
// teacher counts tokens per call rather than per unique message.
func Count(out cook.Output, encodingName string) (Report, error) {
	tke, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return Report{}, err
	}

	content := make(map[string]string, len(out.Messages))
	for _, m := range out.Messages {
		content[m.ID] = m.Content
	}

	sum := func(ids []string) int {
		total := 0
		for _, id := range ids {
			total += len(tke.Encode(content[id], nil, nil))
		}

		return total
	}

	byModel := map[string]*ModelTokens{}

	var order []string

	total := 0

	for _, req := range out.Requests {
		mt, ok := byModel[req.Model]
		if !ok {
			mt = &ModelTokens{Model: req.Model}
			byModel[req.Model] = mt
			order = append(order, req.Model)
		}

		reqTokens := sum(req.RequestMessages)
		respTokens := sum(req.ResponseMessages)

		mt.Requests++
		mt.RequestTokens += reqTokens
		mt.ResponseTokens += respTokens
		total += reqTokens + respTokens
	}

	sort.Strings(order)

	report := Report{Encoding: encodingName, TotalTokens: total}
	for _, model := range order {
		report.ByModel = append(report.ByModel, *byModel[model])
	}

	return report, nil
}
