package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Words
// ---------------------------------------------------------------------------

func TestWords_Empty(t *testing.T) {
	assert.Empty(t, Collect(Words("", 100)))
	assert.Empty(t, Collect(Words("   \n\t ", 100)))
}

func TestWords_PacksUpToLimit(t *testing.T) {
	// "aaaa " counts five characters; two fit in ten, the third starts a new chunk.
	got := Collect(Words("aaaa bbbb cccc dddd eeee", 10))
	assert.Equal(t, []string{"aaaa bbbb", "cccc dddd", "eeee"}, got)
}

func TestWords_LongWordStandsAlone(t *testing.T) {
	got := Collect(Words("a "+strings.Repeat("x", 20)+" b", 5))
	assert.Equal(t, []string{"a", strings.Repeat("x", 20), "b"}, got)
}

func TestWords_NoOverlapAndLossless(t *testing.T) {
	text := strings.Repeat("gratuity payable after five years ", 200)
	chunks := Collect(Words(text, 1000))
	require.NotEmpty(t, chunks)
	assert.Equal(t, strings.Join(strings.Fields(text), " "), strings.Join(chunks, " "))
	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 1000, "chunk %d too long", i)
	}
}

func TestWords_Restartable(t *testing.T) {
	seq := Words("one two three four five six", 8)
	assert.Equal(t, Collect(seq), Collect(seq))
}

// ---------------------------------------------------------------------------
// Chars
// ---------------------------------------------------------------------------

func TestChars_Empty(t *testing.T) {
	assert.Empty(t, Collect(Chars("", 3000, 300)))
}

func TestChars_ShortTextSingleChunk(t *testing.T) {
	assert.Equal(t, []string{"short text"}, Collect(Chars("short text", 3000, 300)))
}

func TestChars_TenThousandCharacters(t *testing.T) {
	text := strings.Repeat("abcdefghij", 1000)
	chunks := Collect(Chars(text, 3000, 300))

	require.Len(t, chunks, 4)
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c), 3000, "chunk %d too long", i)
	}
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		assert.True(t, strings.HasPrefix(chunks[i], prev[len(prev)-300:]), "chunk %d does not overlap its predecessor", i)
	}
	assert.Equal(t, text[len(text)-100:], chunks[3][len(chunks[3])-100:])
}

func TestChars_PrefersParagraphBoundary(t *testing.T) {
	para := strings.Repeat("w", 1998)
	text := strings.Join([]string{para, para, para, para, para}, "\n\n")
	chunks := Collect(Chars(text, 3000, 300))

	require.NotEmpty(t, chunks)
	assert.True(t, strings.HasSuffix(chunks[0], "\n\n"), "first chunk should end at a paragraph break")
	assert.Len(t, chunks[0], 2000)
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c), 3000, "chunk %d too long", i)
	}
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev[len(prev)-min(300, len(prev)):]
		assert.True(t, strings.HasPrefix(chunks[i], tail), "chunk %d overlap mismatch", i)
	}
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1], para))
}

func TestChars_IgnoresEarlyParagraphBreak(t *testing.T) {
	// A break in the first half of the window would make a tiny chunk; it is skipped.
	text := "intro\n\n" + strings.Repeat("z", 5000)
	chunks := Collect(Chars(text, 3000, 300))
	assert.Len(t, chunks[0], 3000)
}

func TestChars_CountsRunes(t *testing.T) {
	text := strings.Repeat("श्र", 2000) // 3 runes each
	for _, c := range Collect(Chars(text, 1000, 100)) {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 1000)
	}
}

func TestChars_Restartable(t *testing.T) {
	seq := Chars(strings.Repeat("x", 7000), 3000, 300)
	assert.Equal(t, Collect(seq), Collect(seq))
}

func TestChars_EarlyStop(t *testing.T) {
	count := 0
	for range Chars(strings.Repeat("y", 10000), 1000, 0) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}
