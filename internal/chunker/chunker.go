// ABOUTME: Boundary-aware recursive text splitter producing overlapping chunks
// ABOUTME: Prefers paragraph, then line, sentence and word boundaries before single characters
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultSize is the maximum chunk length in characters
	DefaultSize = 800
	// DefaultOverlap is the number of trailing characters shared with the next chunk
	DefaultOverlap = 100
)

// Separators are tried in priority order. A separator stays attached to the
// piece it ends, so pieces always tile the input.
var Separators = []string{"\n\n", "\n", ". ", " "}

// Span is a chunk with its byte offsets in the original text
type Span struct {
	Start int
	End   int
	Text  string
}

// Splitter splits text into chunks of at most Size runes sharing up to Overlap runes
type Splitter struct {
	size    int
	overlap int
}

// New creates a Splitter. A non-positive size falls back to DefaultSize and an
// overlap that is negative or not smaller than size is normalised.
func New(size, overlap int) *Splitter {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}
	return &Splitter{size: size, overlap: overlap}
}

// Size returns the configured maximum chunk length
func (s *Splitter) Size() int {
	return s.size
}

// Overlap returns the configured overlap
func (s *Splitter) Overlap() int {
	return s.overlap
}

// Split returns chunk texts in source order
func (s *Splitter) Split(text string) []string {
	spans := s.SplitSpans(text)
	out := make([]string, len(spans))
	for i, sp := range spans {
		out[i] = sp.Text
	}
	return out
}

// SplitSpans returns chunks with byte offsets into text. Whitespace-only
// input yields no chunks.
func (s *Splitter) SplitSpans(text string) []Span {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	pieces := s.pieces(text, 0, Separators)
	return s.merge(text, pieces)
}

type piece struct {
	start int
	end   int
	runes int
}

// pieces breaks text into spans no longer than the chunk size, using the
// coarsest separator that works and recursing into anything still too long.
func (s *Splitter) pieces(text string, offset int, seps []string) []piece {
	n := utf8.RuneCountInString(text)
	if n <= s.size {
		return []piece{{start: offset, end: offset + len(text), runes: n}}
	}

	if len(seps) == 0 {
		out := make([]piece, 0, n)
		for i, r := range text {
			w := utf8.RuneLen(r)
			if w < 0 {
				w = 1
			}
			out = append(out, piece{start: offset + i, end: offset + i + w, runes: 1})
		}
		return out
	}

	sep := seps[0]
	if !strings.Contains(text, sep) {
		return s.pieces(text, offset, seps[1:])
	}

	var out []piece
	pos := 0
	for pos < len(text) {
		idx := strings.Index(text[pos:], sep)
		end := len(text)
		if idx >= 0 {
			end = pos + idx + len(sep)
		}
		out = append(out, s.pieces(text[pos:end], offset+pos, seps[1:])...)
		pos = end
	}
	return out
}

// merge greedily packs consecutive pieces into chunks, carrying a tail of at
// most overlap runes into the next chunk.
func (s *Splitter) merge(text string, pieces []piece) []Span {
	var spans []Span
	var current []piece
	total := 0

	emit := func() {
		if len(current) == 0 {
			return
		}
		start, end := current[0].start, current[len(current)-1].end
		chunk := text[start:end]
		if strings.TrimFunc(chunk, unicode.IsSpace) == "" {
			return
		}
		spans = append(spans, Span{Start: start, End: end, Text: chunk})
	}

	for _, p := range pieces {
		if total+p.runes > s.size && len(current) > 0 {
			emit()
			for len(current) > 0 && (total > s.overlap || total+p.runes > s.size) {
				total -= current[0].runes
				current = current[1:]
			}
		}
		current = append(current, p)
		total += p.runes
	}
	emit()

	return spans
}
