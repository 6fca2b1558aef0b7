package rag

import (
	"strings"
	"testing"
	"unicode/utf8"
)

const splitterSample = `Go is an open source programming language that makes it easy to build simple, reliable, and efficient software.

Concurrency is a property of systems in which several computations are executing simultaneously, and potentially interacting with each other.

The Go memory model specifies the conditions under which reads of a variable in one goroutine can be guaranteed to observe values produced by writes to the same variable in a different goroutine.`

func TestRecursiveSplitterRespectsChunkSize(t *testing.T) {
	splitter := NewRecursiveSplitter(50, 0)
	chunks := splitter.SplitText(splitterSample)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 50 {
			t.Errorf("chunk %d too large: %d > 50", i, n)
		}
	}
}

func TestRecursiveSplitterKeepsParagraphsTogether(t *testing.T) {
	// the first paragraph is ~110 chars and must survive intact at
	// chunk size 150
	splitter := NewRecursiveSplitter(150, 20)
	chunks := splitter.SplitText(splitterSample)

	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}
	if !strings.Contains(chunks[0], "build simple, reliable") {
		t.Errorf("splitter broke the first paragraph: %q", chunks[0])
	}
}

func TestRecursiveSplitterOverlap(t *testing.T) {
	// 5 words of 5 chars each. Chunk size 17 fits three words plus
	// two spaces; overlap 6 should carry the last word forward.
	text := "word1 word2 word3 word4 word5"

	splitter := NewRecursiveSplitter(17, 6)
	chunks := splitter.SplitText(text)

	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if !strings.Contains(chunks[1], "word3") {
		t.Errorf("overlap failed: %q should carry 'word3'", chunks[1])
	}
}

func TestMarkdownSplitterCutsAtHeaders(t *testing.T) {
	text := "## Alpha\nfirst section body text here\n## Beta\nsecond section body text here"

	splitter := NewMarkdownSplitter(40, 0)
	chunks := splitter.SplitText(text)

	if len(chunks) < 2 {
		t.Fatalf("expected a cut at the header, got %d chunks", len(chunks))
	}
	for _, c := range chunks {
		if strings.Contains(c, "first section") && strings.Contains(c, "second section") {
			t.Errorf("sections were not separated: %q", c)
		}
	}
}
