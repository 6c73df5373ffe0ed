package services

import (
	"regexp"
	"strings"
)

// ChunkingService splits extracted text into overlapping windows sized for
// the embedding model. Splitting prefers paragraph boundaries and falls
// back to sentence boundaries for oversized paragraphs.
type ChunkingService struct {
	maxChunkSize   int
	overlap        int
	sentenceRegex  *regexp.Regexp
	paragraphRegex *regexp.Regexp
}

func NewChunkingService(maxChunkSize, overlap int) *ChunkingService {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	if overlap < 0 || overlap >= maxChunkSize {
		overlap = maxChunkSize / 5
	}
	return &ChunkingService{
		maxChunkSize:   maxChunkSize,
		overlap:        overlap,
		sentenceRegex:  regexp.MustCompile(`[.!?]+[\s]+`),
		paragraphRegex: regexp.MustCompile(`\n\n+`),
	}
}

// ChunkText splits text into chunks of at most maxChunkSize characters,
// carrying overlap characters of trailing context into each next chunk.
// Whitespace-only input yields no chunks.
func (cs *ChunkingService) ChunkText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var pieces []string
	for _, paragraph := range cs.paragraphRegex.Split(text, -1) {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		if len(paragraph) <= cs.maxChunkSize {
			pieces = append(pieces, paragraph)
			continue
		}
		pieces = append(pieces, cs.splitOversized(paragraph)...)
	}

	var chunks []string
	current := new(strings.Builder)

	for _, piece := range pieces {
		if current.Len() > 0 && current.Len()+len(piece)+2 > cs.maxChunkSize {
			chunks = append(chunks, current.String())
			tail := overlapTail(current.String(), cs.overlap)
			current = new(strings.Builder)
			current.WriteString(tail)
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(piece)
	}
	if strings.TrimSpace(current.String()) != "" {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// splitOversized breaks a paragraph longer than maxChunkSize on sentence
// boundaries, hard-splitting any single sentence that is still too long.
func (cs *ChunkingService) splitOversized(paragraph string) []string {
	boundaries := cs.sentenceRegex.FindAllStringIndex(paragraph, -1)

	var sentences []string
	start := 0
	for _, b := range boundaries {
		sentences = append(sentences, paragraph[start:b[1]])
		start = b[1]
	}
	if start < len(paragraph) {
		sentences = append(sentences, paragraph[start:])
	}

	var pieces []string
	current := new(strings.Builder)
	for _, sentence := range sentences {
		for len(sentence) > cs.maxChunkSize {
			if current.Len() > 0 {
				pieces = append(pieces, current.String())
				current = new(strings.Builder)
			}
			pieces = append(pieces, sentence[:cs.maxChunkSize])
			sentence = sentence[cs.maxChunkSize:]
		}
		if current.Len()+len(sentence) > cs.maxChunkSize && current.Len() > 0 {
			pieces = append(pieces, current.String())
			current = new(strings.Builder)
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		pieces = append(pieces, current.String())
	}
	return pieces
}

// overlapTail returns up to size trailing characters, extended left to the
// nearest word boundary so the carried context stays readable.
func overlapTail(text string, size int) string {
	if size <= 0 || len(text) <= size {
		if size <= 0 {
			return ""
		}
		return text
	}
	tail := text[len(text)-size:]
	if i := strings.IndexAny(tail, " \n\t"); i >= 0 && i < len(tail)-1 {
		tail = tail[i+1:]
	}
	return tail
}
