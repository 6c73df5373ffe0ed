package services

import (
	"strings"
	"testing"
)

func TestChunkTextEmptyInput(t *testing.T) {
	cs := NewChunkingService(1000, 200)
	if chunks := cs.ChunkText("   \n\n  "); len(chunks) != 0 {
		t.Fatalf("whitespace input produced %d chunks", len(chunks))
	}
}

func TestChunkTextShortInputSingleChunk(t *testing.T) {
	cs := NewChunkingService(1000, 200)
	chunks := cs.ChunkText("A short paragraph that fits comfortably.")
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
}

func TestChunkTextRespectsMaxSize(t *testing.T) {
	cs := NewChunkingService(100, 20)

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("This sentence pads the document with content. ")
	}

	chunks := cs.ChunkText(b.String())
	if len(chunks) < 2 {
		t.Fatalf("long input produced only %d chunks", len(chunks))
	}
	for i, c := range chunks {
		// Overlap carried from the previous chunk may add up to one window.
		if len(c) > 100+20+2 {
			t.Fatalf("chunk %d is %d chars, exceeds budget", i, len(c))
		}
	}
}

func TestChunkTextCarriesOverlap(t *testing.T) {
	cs := NewChunkingService(80, 30)

	text := strings.Repeat("alpha beta gamma delta epsilon. ", 20)
	chunks := cs.ChunkText(text)
	if len(chunks) < 2 {
		t.Fatalf("need at least 2 chunks, got %d", len(chunks))
	}

	tail := overlapTail(chunks[0], 30)
	if tail == "" {
		t.Fatal("no overlap tail computed")
	}
	if !strings.Contains(chunks[1], strings.TrimSpace(tail)) {
		t.Fatalf("chunk 1 does not carry overlap %q", tail)
	}
}

func TestChunkTextPrefersParagraphBoundaries(t *testing.T) {
	cs := NewChunkingService(100, 0)

	chunks := cs.ChunkText("First paragraph here.\n\nSecond paragraph here.")
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if !strings.Contains(chunks[0], "First paragraph") || !strings.Contains(chunks[0], "Second paragraph") {
		t.Fatalf("paragraphs not packed together: %q", chunks[0])
	}
}

func TestOverlapTailShorterThanSize(t *testing.T) {
	if got := overlapTail("tiny", 100); got != "tiny" {
		t.Fatalf("got %q, want full text", got)
	}
	if got := overlapTail("anything", 0); got != "" {
		t.Fatalf("got %q, want empty for zero size", got)
	}
}
