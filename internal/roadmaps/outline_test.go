package roadmaps

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutline(t *testing.T) {
	adapter, _ := AdapterFor(SchemaV3)
	tree, err := adapter.Adapt(json.RawMessage(v3Sample))
	require.NoError(t, err)

	want := "Backend Engineer Path\n" +
		"From fundamentals to production Go services.\n" +
		"\n1. Foundations [foundation]\n" +
		"   Core CS\n" +
		"   - Data structures: Lists, maps, trees\n" +
		"     * CLRS (traditional)\n" +
		"     * AI tutor drills (ai_first) https://example.com/drills\n" +
		"\n2. Go services [skills]\n"
	assert.Equal(t, want, Outline(tree))
}
