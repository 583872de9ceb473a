package cook

// Dependency analysis parameters, named the way the source system names
// them: a per-different-tool penalty and the relative edit-distance
// threshold that decides when a request becomes a new root.
const (
	toolDiffPenalty   = 0.5
	relativeThreshold = 0.5
)

// AnalyzeDependencies sets ParentID on every Request in requests, which must
// already be sorted ascending by Timestamp. It recovers parent/child
// relationships purely from message-sequence and tool-set similarity,
// producing a forest rather than a single chain: a request becomes a new
// root whenever no earlier same-model request scores at or above threshold.
func AnalyzeDependencies(requests []Request) {
	for i := range requests {
		if i == 0 {
			requests[i].ParentID = nil
			continue
		}

		requests[i].ParentID = findParent(&requests[i], requests[:i])
	}
}

func findParent(curr *Request, candidates []Request) *string {
	bestScore := negInf
	var bestParentID *string

	// Most-recent-to-oldest: ties are broken in favor of the later
	// candidate, which matches "last turn wins" conversational behavior.
	for i := len(candidates) - 1; i >= 0; i-- {
		c := &candidates[i]
		if c.Model != curr.Model {
			continue
		}

		score := matchScore(curr, c)
		if score > bestScore {
			bestScore = score
			id := c.ID
			bestParentID = &id
		}
	}

	if bestParentID == nil {
		return nil
	}

	threshold := -float64(len(curr.RequestMessages)) * relativeThreshold
	if bestScore < threshold {
		return nil
	}

	return bestParentID
}

const negInf float64 = -1 << 62

// expectedContinuation is the hypothetical prefix a direct child of
// candidate would send: its own request messages followed by its response.
func expectedContinuation(candidate *Request) []string {
	expected := make([]string, 0, len(candidate.RequestMessages)+len(candidate.ResponseMessages))
	expected = append(expected, candidate.RequestMessages...)
	expected = append(expected, candidate.ResponseMessages...)

	return expected
}

func matchScore(curr, candidate *Request) float64 {
	messageScore := -float64(levenshtein(expectedContinuation(candidate), curr.RequestMessages))

	toolDiff := symmetricDifferenceSize(candidate.Tools, curr.Tools)
	toolScore := -toolDiffPenalty * float64(toolDiff)

	return messageScore + toolScore
}

func symmetricDifferenceSize(a, b []string) int {
	inA := make(map[string]struct{}, len(a))
	for _, id := range a {
		inA[id] = struct{}{}
	}

	inB := make(map[string]struct{}, len(b))
	for _, id := range b {
		inB[id] = struct{}{}
	}

	diff := 0
	for id := range inA {
		if _, ok := inB[id]; !ok {
			diff++
		}
	}
	for id := range inB {
		if _, ok := inA[id]; !ok {
			diff++
		}
	}

	return diff
}

// levenshtein computes the standard edit distance between two ID sequences
// with unit insertion/deletion/substitution cost.
func levenshtein(a, b []string) int {
	m, n := len(a), len(b)

	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i

		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = 1 + min3(prev[j], curr[j-1], prev[j-1])
			}
		}

		prev, curr = curr, prev
	}

	return prev[n]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}

	return m
}
