package cook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalHash_KeyOrderDoesNotAffectHash(t *testing.T) {
	a := canonicalHash(map[string]any{"role": "user", "content": "hi"})
	b := canonicalHash(map[string]any{"content": "hi", "role": "user"})

	assert.Equal(t, a, b, "map key order must not affect the content hash")
}

func TestCanonicalHash_IsTruncatedToConfiguredLength(t *testing.T) {
	h := canonicalHash(map[string]any{"x": 1})
	assert.Len(t, h, hashTruncateLen)
}

func TestMessageHash_EmptyAndNilToolCallSliceHashIdentically(t *testing.T) {
	a := messageHash(RoleUser, "hi", nil, "", nil)
	b := messageHash(RoleUser, "hi", []ToolCall{}, "", nil)

	assert.Equal(t, a, b)
}

func TestMessageHash_DiffersOnIsError(t *testing.T) {
	isErrTrue := true
	isErrFalse := false

	a := messageHash(RoleToolResult, "fail", nil, "t1", &isErrTrue)
	b := messageHash(RoleToolResult, "fail", nil, "t1", &isErrFalse)
	c := messageHash(RoleToolResult, "fail", nil, "t1", nil)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, b, c)
}

func TestToolHash_DiffersOnServerSide(t *testing.T) {
	a := toolHash("search", "desc", map[string]any{}, false)
	b := toolHash("search", "desc", map[string]any{}, true)

	assert.NotEqual(t, a, b)
}
