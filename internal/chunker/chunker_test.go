// ABOUTME: Tests for the recursive text splitter
// ABOUTME: Covers size bounds, overlap, boundary preference and reconstruction
package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNew_Normalisation(t *testing.T) {
	tests := []struct {
		name        string
		size        int
		overlap     int
		wantSize    int
		wantOverlap int
	}{
		{"defaults kept", 800, 100, 800, 100},
		{"zero size", 0, 100, DefaultSize, 100},
		{"overlap equals size", 100, 100, 100, 25},
		{"overlap exceeds size", 100, 300, 100, 25},
		{"negative overlap", 100, -5, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.size, tt.overlap)
			if s.Size() != tt.wantSize {
				t.Errorf("Size() = %d, want %d", s.Size(), tt.wantSize)
			}
			if s.Overlap() != tt.wantOverlap {
				t.Errorf("Overlap() = %d, want %d", s.Overlap(), tt.wantOverlap)
			}
		})
	}
}

func TestSplit_EmptyAndWhitespace(t *testing.T) {
	s := New(800, 100)
	for _, text := range []string{"", "   ", "\n\n\t\n"} {
		if got := s.Split(text); len(got) != 0 {
			t.Errorf("Split(%q) = %d chunks, want 0", text, len(got))
		}
	}
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	s := New(800, 100)
	got := s.Split("Hello world.")
	if len(got) != 1 || got[0] != "Hello world." {
		t.Errorf("Split() = %q, want single chunk", got)
	}
}

func TestSplit_RepeatedCharacter(t *testing.T) {
	s := New(800, 100)
	got := s.Split(strings.Repeat("A", 1000))

	if len(got) != 2 {
		t.Fatalf("Split() produced %d chunks, want 2", len(got))
	}
	if len(got[0]) != 800 {
		t.Errorf("chunk 0 length = %d, want 800", len(got[0]))
	}
	if len(got[1]) != 300 {
		t.Errorf("chunk 1 length = %d, want 300", len(got[1]))
	}
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	para := strings.Repeat("word ", 30) // 150 runes
	text := para + "\n\n" + para + "\n\n" + para

	s := New(200, 0)
	got := s.Split(text)

	if len(got) != 3 {
		t.Fatalf("Split() produced %d chunks, want 3: %q", len(got), got)
	}
	for i, c := range got[:2] {
		if !strings.HasSuffix(c, "\n\n") {
			t.Errorf("chunk %d should end at the paragraph break: %q", i, c[len(c)-10:])
		}
	}
}

func TestSplit_FallsBackToWords(t *testing.T) {
	text := strings.Repeat("alpha beta gamma ", 40)

	s := New(50, 10)
	for i, c := range s.Split(text) {
		if n := utf8.RuneCountInString(c); n > 50 {
			t.Errorf("chunk %d has %d runes, want <= 50", i, n)
		}
		if strings.HasPrefix(c, "lpha") || strings.HasPrefix(c, "eta") {
			t.Errorf("chunk %d starts mid-word: %q", i, c)
		}
	}
}

func TestSplitSpans_Properties(t *testing.T) {
	texts := map[string]string{
		"prose": strings.Repeat("The quick brown fox jumps over the lazy dog. ", 60) +
			"\n\nSecond paragraph here.\nWith lines.\n\n" +
			strings.Repeat("Lorem ipsum dolor sit amet. ", 50),
		"unicode":  strings.Repeat("héllo wörld ünïcode ", 80),
		"no space": strings.Repeat("abcdefghij", 250),
	}

	for name, text := range texts {
		t.Run(name, func(t *testing.T) {
			s := New(120, 30)
			spans := s.SplitSpans(text)
			if len(spans) < 2 {
				t.Fatalf("expected several chunks, got %d", len(spans))
			}

			var rebuilt strings.Builder
			prevEnd := 0
			for i, sp := range spans {
				if n := utf8.RuneCountInString(sp.Text); n > 120 {
					t.Errorf("chunk %d has %d runes, want <= 120", i, n)
				}
				if text[sp.Start:sp.End] != sp.Text {
					t.Fatalf("chunk %d offsets do not match text", i)
				}
				if i > 0 {
					if sp.Start > prevEnd {
						t.Fatalf("gap between chunk %d and %d", i-1, i)
					}
					if sp.Start < spans[i-1].Start {
						t.Fatalf("chunk %d out of order", i)
					}
					if shared := utf8.RuneCountInString(text[sp.Start:prevEnd]); shared > 30 {
						t.Errorf("chunk %d overlaps previous by %d runes, want <= 30", i, shared)
					}
				}
				rebuilt.WriteString(text[max(prevEnd, sp.Start):sp.End])
				prevEnd = sp.End
			}

			if rebuilt.String() != text {
				t.Error("concatenating non-overlapping suffixes did not reconstruct the text")
			}
		})
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("Sentence number one. Another line\n", 100)
	s := New(200, 40)

	a := s.Split(text)
	b := s.Split(text)
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}
