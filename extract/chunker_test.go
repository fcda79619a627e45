package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitText_SingleSmallChunk(t *testing.T) {
	chunks := splitText("a short paragraph of text", 400, 50, 5)
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short paragraph of text", chunks[0])
}

func TestSplitText_RespectsTarget(t *testing.T) {
	// 60 lines of ~30 chars = ~10 tokens each; target 100 tokens
	// should yield roughly 6 chunks.
	var lines []string
	for i := 0; i < 60; i++ {
		lines = append(lines, strings.Repeat("word himself ", 2)+"line ending here")
	}
	text := strings.Join(lines, "\n")

	chunks := splitText(text, 100, 0, 5)
	require.Greater(t, len(chunks), 3)

	for _, chunk := range chunks {
		// Each chunk may overshoot by at most one line.
		assert.LessOrEqual(t, approxTokens(chunk), 100+approxTokens(lines[0]))
	}
}

func TestSplitText_Overlap(t *testing.T) {
	var lines []string
	for i := 0; i < 40; i++ {
		lines = append(lines, strings.Repeat("overlap-test-line ", 3))
	}
	text := strings.Join(lines, "\n")

	chunks := splitText(text, 100, 30, 5)
	require.Greater(t, len(chunks), 1)

	// The tail of each chunk must reappear at the head of the next.
	for i := 1; i < len(chunks); i++ {
		prevLines := strings.Split(chunks[i-1], "\n")
		lastLine := prevLines[len(prevLines)-1]
		assert.True(t, strings.HasPrefix(chunks[i], lastLine),
			"chunk %d should start with the overlap tail of chunk %d", i, i-1)
	}
}

func TestSplitText_OversizedLineOverlapIsBounded(t *testing.T) {
	// One unbroken line far beyond the overlap budget, then normal lines.
	huge := strings.Repeat("A", 9000)
	var lines []string
	lines = append(lines, huge)
	for i := 0; i < 30; i++ {
		lines = append(lines, strings.Repeat("ordinary follow-up line ", 3))
	}
	text := strings.Join(lines, "\n")

	chunks := splitText(text, 100, 30, 5)
	require.Greater(t, len(chunks), 2)

	assert.Contains(t, chunks[0], huge)
	for i := 1; i < len(chunks); i++ {
		assert.NotContains(t, chunks[i], huge,
			"an oversized line must not replicate into chunk %d", i)
		// Overlap contributes at most ~overlapTokens worth of characters
		// per boundary, so later chunks stay near the target size.
		assert.Less(t, approxTokens(chunks[i]), 200)
	}
	// The truncated tail of the oversized line still seeds the next chunk.
	assert.True(t, strings.HasPrefix(chunks[1], strings.Repeat("A", 90)))
}

func TestSplitText_SkipsBlankLines(t *testing.T) {
	chunks := splitText("first line\n\n\n   \nsecond line", 400, 0, 5)
	require.Len(t, chunks, 1)
	assert.Equal(t, "first line\nsecond line", chunks[0])
}

func TestSplitText_Empty(t *testing.T) {
	assert.Empty(t, splitText("", 400, 50, 5))
	assert.Empty(t, splitText("\n\n  \n", 400, 50, 5))
}

func TestApproxTokens(t *testing.T) {
	assert.Equal(t, 0, approxTokens(""))
	assert.Equal(t, 1, approxTokens("ab"))
	assert.Equal(t, 1000, approxTokens(strings.Repeat("x", 3000)))
}
