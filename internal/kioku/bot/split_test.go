package bot

import (
	"strings"
	"testing"
)

func TestSplit_ShortTextPassesThrough(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
	}{
		{"empty", "", 2000},
		{"short", "hello world", 2000},
		{"exactly at limit", strings.Repeat("a", 10), 10},
		{"internal whitespace preserved", "two  spaces\nand a newline", 2000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.text, tt.max)
			if len(got) != 1 || got[0] != tt.text {
				t.Fatalf("Split(%q, %d) = %q, want the text unchanged", tt.text, tt.max, got)
			}
		})
	}
}

func TestSplit_LongTextChunksOnWordBoundaries(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("word ", 1000))
	chunks := Split(text, 2000)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk == "" {
			t.Fatalf("chunk %d is empty", i)
		}
		if len(chunk) > 2000 {
			t.Fatalf("chunk %d has %d characters, limit is 2000", i, len(chunk))
		}
		if strings.HasPrefix(chunk, " ") || strings.HasSuffix(chunk, " ") {
			t.Fatalf("chunk %d has boundary whitespace: %q", i, chunk)
		}
		for _, word := range strings.Fields(chunk) {
			if word != "word" {
				t.Fatalf("chunk %d split a word: found %q", i, word)
			}
		}
	}
	if joined := strings.Join(chunks, " "); joined != text {
		t.Fatal("joining chunks with single spaces must reconstruct the text")
	}
}

func TestSplit_CollapsesWhitespaceWhenChunking(t *testing.T) {
	// Repeated whitespace collapses once the text has to be re-joined from
	// words.
	text := strings.Repeat("alpha  beta\n", 30)
	chunks := Split(text, 40)
	for i, chunk := range chunks {
		if strings.Contains(chunk, "  ") || strings.Contains(chunk, "\n") {
			t.Fatalf("chunk %d retains raw whitespace: %q", i, chunk)
		}
	}
}

func TestSplit_OverlongWordBecomesItsOwnChunk(t *testing.T) {
	long := strings.Repeat("x", 50)
	chunks := Split("before "+long+" after", 20)

	found := false
	for _, chunk := range chunks {
		if chunk == long {
			found = true
		}
		if chunk == "" {
			t.Fatal("no chunk may be empty")
		}
	}
	if !found {
		t.Fatalf("the over-length word must be emitted whole, got %q", chunks)
	}
}

func TestSplit_WordFillingTheLimitExactly(t *testing.T) {
	word := strings.Repeat("y", 10)
	chunks := Split(word+" "+word+" tail", 10)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %q", chunks)
	}
	if chunks[0] != word || chunks[1] != word || chunks[2] != "tail" {
		t.Fatalf("unexpected chunks %q", chunks)
	}
}
