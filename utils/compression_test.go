package utils

import (
	"strings"
	"testing"
)

func TestCompressTextRoundTrip(t *testing.T) {
	original := strings.Repeat("Chunk text destined for storage at rest. ", 50)

	compressed, algorithm, err := CompressText(original)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if algorithm != CompressionGzip {
		t.Fatalf("large text should pick gzip, got %s", algorithm)
	}
	if len(compressed) >= len(original) {
		t.Fatalf("compression grew the payload: %d >= %d", len(compressed), len(original))
	}

	restored, err := DecompressText(compressed, algorithm)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if restored != original {
		t.Fatal("round trip lost data")
	}
}

func TestSmallTextStaysUncompressed(t *testing.T) {
	original := "short chunk"

	compressed, algorithm, err := CompressText(original)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if algorithm != CompressionNone {
		t.Fatalf("small text should skip compression, got %s", algorithm)
	}
	if string(compressed) != original {
		t.Fatal("uncompressed payload altered")
	}
}
