package chunker

import (
	"errors"
	"strings"
	"testing"

	"scholarag/internal/domain"
)

func mustNew(t *testing.T, size, overlap int) *Chunker {
	t.Helper()
	c, err := New(size, overlap)
	if err != nil {
		t.Fatalf("New(%d, %d): %v", size, overlap, err)
	}
	return c
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name          string
		size, overlap int
	}{
		{"zero size", 0, 0},
		{"negative overlap", 100, -1},
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.size, tc.overlap); !errors.Is(err, domain.ErrChunking) {
				t.Fatalf("expected ErrChunking, got %v", err)
			}
		})
	}
}

func TestSplit_EmptyDocument(t *testing.T) {
	c := mustNew(t, 100, 20)

	if chunks := c.Split("doc.pdf", "", nil); len(chunks) != 0 {
		t.Fatalf("expected no chunks for empty text, got %d", len(chunks))
	}
	// Whitespace-only input cleans down to nothing.
	if chunks := c.Split("doc.pdf", "   \n\t\n  ", nil); len(chunks) != 0 {
		t.Fatalf("expected no chunks for blank text, got %d", len(chunks))
	}
}

func TestClean_DropsShortLinesAndControlChars(t *testing.T) {
	in := "Hi\nThis is a longer meaningful line\x00\x08\nok\nAnother line that survives cleaning"
	got := Clean(in)
	want := "This is a longer meaningful line\nAnother line that survives cleaning"
	if got != want {
		t.Fatalf("Clean:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestClean_CollapsesBlankRuns(t *testing.T) {
	got := Clean("several   words\t\tseparated by   runs of blanks")
	want := "several words separated by runs of blanks"
	if got != want {
		t.Fatalf("Clean:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestSplit_SizeBoundAndOverlap(t *testing.T) {
	const (
		size    = 20
		overlap = 6
	)
	c := mustNew(t, size, overlap)
	text := "alpha bravo charlie delta echo foxtrot golf hotel india juliet"

	chunks := c.Split("doc.pdf", text, nil)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i, ch := range chunks {
		if len(ch.Text) > size {
			t.Errorf("chunk %d length %d exceeds chunk size %d", i, len(ch.Text), size)
		}
		if ch.ChunkIndex != i {
			t.Errorf("chunk %d has index %d, want contiguous from 0", i, ch.ChunkIndex)
		}
		if ch.CharLength != len(ch.Text) {
			t.Errorf("chunk %d CharLength %d != len(text) %d", i, ch.CharLength, len(ch.Text))
		}
		if ch.SourceDocument != "doc.pdf" {
			t.Errorf("chunk %d source %q", i, ch.SourceDocument)
		}
	}

	// Each chunk begins with the last `overlap` characters of its
	// predecessor (pieces here are short enough that the overlap is
	// never trimmed).
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Text
		tail := prev[len(prev)-overlap:]
		if !strings.HasPrefix(chunks[i].Text, tail) {
			t.Errorf("chunk %d %q does not start with tail %q of chunk %d", i, chunks[i].Text, tail, i-1)
		}
	}

	// Stripping the overlap prefix from every chunk after the first
	// reconstructs the cleaned text exactly.
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0].Text)
	for i := 1; i < len(chunks); i++ {
		rebuilt.WriteString(chunks[i].Text[overlap:])
	}
	if rebuilt.String() != text {
		t.Fatalf("reconstruction mismatch:\ngot:  %q\nwant: %q", rebuilt.String(), text)
	}
}

func TestSplit_PrefersLineBreaks(t *testing.T) {
	c := mustNew(t, 45, 0)
	line1 := "first line with twenty" // 22 chars
	line2 := "second line of twenty"  // 21 chars
	line3 := "third line also twenty" // 22 chars
	text := line1 + "\n" + line2 + "\n" + line3

	chunks := c.Split("doc.pdf", text, nil)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %#v", len(chunks), chunks)
	}
	if chunks[0].Text != line1+"\n"+line2+"\n" {
		t.Errorf("chunk 0 not split at line boundary: %q", chunks[0].Text)
	}
	if chunks[1].Text != line3 {
		t.Errorf("chunk 1 = %q, want %q", chunks[1].Text, line3)
	}
}

func TestSplit_CharacterCutFallback(t *testing.T) {
	c := mustNew(t, 10, 3)
	text := "abcdefghijklmnopqrstuvwxyz0123456789"

	chunks := c.Split("doc.pdf", text, nil)
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if len(ch.Text) > 10 {
			t.Errorf("chunk %d length %d exceeds size", i, len(ch.Text))
		}
	}

	// Full-size pieces leave no room for the overlap, so the first cuts
	// tile the text. The short final piece does have room and starts
	// with the last 3 characters of its predecessor.
	last := len(chunks) - 1
	prev := chunks[last-1].Text
	wantPrefix := prev[len(prev)-3:]
	if !strings.HasPrefix(chunks[last].Text, wantPrefix) {
		t.Fatalf("final chunk %q missing overlap prefix %q", chunks[last].Text, wantPrefix)
	}

	var rebuilt strings.Builder
	for i, ch := range chunks {
		txt := ch.Text
		if i == last {
			txt = txt[3:]
		}
		rebuilt.WriteString(txt)
	}
	if rebuilt.String() != text {
		t.Fatalf("rebuilt text = %q, want original", rebuilt.String())
	}
}

func TestSplit_PageAttribution(t *testing.T) {
	page1 := "photosynthesis converts light to energy in plants"
	page2 := "chlorophyll absorbs red and blue light efficiently"
	pages := []PageText{{Number: 1, Text: page1}, {Number: 3, Text: page2}}

	c := mustNew(t, 55, 0)
	chunks := c.Split("bio.pdf", page1+"\n"+page2, pages)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].ApproxPage != 1 {
		t.Errorf("chunk 0 attributed to page %d, want 1", chunks[0].ApproxPage)
	}
	if chunks[1].ApproxPage != 3 {
		t.Errorf("chunk 1 attributed to page %d, want 3", chunks[1].ApproxPage)
	}
}

func TestSplit_PageAttributionTieKeepsFirst(t *testing.T) {
	shared := "identical opening words on both pages of this file"
	pages := []PageText{{Number: 2, Text: shared}, {Number: 5, Text: shared}}

	c := mustNew(t, 200, 0)
	chunks := c.Split("doc.pdf", shared, pages)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].ApproxPage != 2 {
		t.Errorf("tie broke to page %d, want first page 2", chunks[0].ApproxPage)
	}
}

func TestSplit_NoPagesDefaultsToPageOne(t *testing.T) {
	c := mustNew(t, 200, 0)
	chunks := c.Split("doc.pdf", "a single meaningful line of text", nil)
	if len(chunks) != 1 || chunks[0].ApproxPage != 1 {
		t.Fatalf("expected one chunk on page 1, got %#v", chunks)
	}
}
