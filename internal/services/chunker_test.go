package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestChunkTextKeepsShortTextWhole(t *testing.T) {
	chunks := NewTextChunker().ChunkText("first paragraph\n\nsecond paragraph", 100, 10)
	assert.Equal(t, []string{"first paragraph\n\nsecond paragraph"}, chunks)
}

func TestChunkTextSplitsWithOverlap(t *testing.T) {
	text := strings.Repeat("a", 40) + "\n\n" + strings.Repeat("b", 40) + "\n\n" + strings.Repeat("c", 40)
	chunks := NewTextChunker().ChunkText(text, 60, 5)

	assert.Len(t, chunks, 3)
	assert.True(t, strings.HasPrefix(chunks[1], "aaaaa\n\nbbb"))
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 60)
	}
}

func TestChunkTextFallsBackToSentences(t *testing.T) {
	para := "One sentence here. Another one follows! And a question?"
	chunks := NewTextChunker().ChunkText(para, 25, 0)
	assert.Equal(t, []string{"One sentence here", "Another one follows", "And a question"}, chunks)
}

func TestChunkTextEmpty(t *testing.T) {
	assert.Empty(t, NewTextChunker().ChunkText("  \n\n ", 100, 0))
}
