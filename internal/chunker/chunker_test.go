package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beacon-labs/wikimind/internal/config"
	"github.com/beacon-labs/wikimind/internal/types"
)

func newTestChunker() *Chunker {
	return New(&config.ChunkerConfig{MaxChunkSize: 1000, MinChunkSize: 100, Overlap: 100})
}

func TestChunkEmptyInput(t *testing.T) {
	chunks, err := newTestChunker().Chunk("   \n\t ", "p1", "Title")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkHeadingsAndText(t *testing.T) {
	markup := `<html><body>
		<h1>Top</h1>
		<p>` + strings.Repeat("word ", 40) + `</p>
		<h2>Sub</h2>
		<p>` + strings.Repeat("more ", 40) + `</p>
	</body></html>`
	chunks, err := newTestChunker().Chunk(markup, "p1", "Title")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, []string{"Top"}, chunks[0].ParentHeaders)
	assert.Equal(t, []string{"Top", "Sub"}, chunks[1].ParentHeaders)
	for i, c := range chunks {
		assert.Equal(t, "p1_"+itoa(i), c.ChunkID)
		assert.Equal(t, types.ChunkTypeText, c.ChunkType)
	}
}

func TestChunkCodeBlockNeverDropped(t *testing.T) {
	markup := `<html><body><pre><code class="language-go">x</code></pre></body></html>`
	chunks, err := newTestChunker().Chunk(markup, "p1", "Title")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, types.ChunkTypeCode, chunks[0].ChunkType)
	assert.Contains(t, chunks[0].Content, "```go")
}

func TestChunkListSerialization(t *testing.T) {
	markup := `<html><body><ul><li>first</li><li>second</li></ul></body></html>`
	chunks, err := newTestChunker().Chunk(markup, "p1", "Title")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, types.ChunkTypeList, chunks[0].ChunkType)
	assert.Contains(t, chunks[0].Content, "- first")
	assert.Contains(t, chunks[0].Content, "- second")
}

func TestChunkShortTextDropped(t *testing.T) {
	markup := `<html><body><p>too short</p></body></html>`
	chunks, err := newTestChunker().Chunk(markup, "p1", "Title")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkTableKeepsHeaderPerSection(t *testing.T) {
	markup := `<html><body><table>
		<thead><tr><th>Name</th><th>Value</th></tr></thead>
		<tbody><tr><td>a</td><td>1</td></tr></tbody>
	</table></body></html>`
	chunks, err := newTestChunker().Chunk(markup, "p1", "Title")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, types.ChunkTypeTable, chunks[0].ChunkType)
	assert.Contains(t, chunks[0].Content, "Name | Value")
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}
