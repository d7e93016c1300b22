package document

import (
	"strings"
	"unicode/utf8"
)

// Default chunking parameters, matching the ingestion pipeline's embedding
// window.
const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 20
)

// MinChunkSize is the smallest usable chunk size. A chunk must hold at least
// one complete rune or a hard split cannot make progress.
const MinChunkSize = utf8.UTFMax

// LatexSeparators split LaTeX content at structural boundaries first, falling
// back to math delimiters, then whitespace.
var LatexSeparators = []string{
	"\n\\chapter{",
	"\n\\section{",
	"\n\\subsection{",
	"\n\\subsubsection{",
	"\n\\begin{",
	"\n\n",
	"\n",
	"$$",
	"$",
	" ",
	"",
}

// PlainSeparators split prose at paragraph, line, and word boundaries.
var PlainSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter divides text into bounded chunks by recursively splitting on an
// ordered list of separators and re-merging the pieces with overlap.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// NewLatexSplitter returns a splitter tuned for LaTeX documents. Sizes below
// MinChunkSize are raised to it.
func NewLatexSplitter(size, overlap int) *Splitter {
	return &Splitter{ChunkSize: boundSize(size), ChunkOverlap: overlap, Separators: LatexSeparators}
}

// NewPlainSplitter returns a splitter for plain prose such as notes. Sizes
// below MinChunkSize are raised to it.
func NewPlainSplitter(size, overlap int) *Splitter {
	return &Splitter{ChunkSize: boundSize(size), ChunkOverlap: overlap, Separators: PlainSeparators}
}

func boundSize(size int) int {
	if size < MinChunkSize {
		return MinChunkSize
	}
	return size
}

// Split divides text into chunks of at most ChunkSize characters. Adjacent
// chunks share up to ChunkOverlap characters of trailing context. Empty input
// yields no chunks.
func (sp *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	pieces := sp.splitRecursive(text, sp.Separators)
	return sp.merge(pieces)
}

// splitRecursive breaks text on the first separator that appears in it,
// recursing into any piece still longer than ChunkSize with the remaining
// separators.
func (sp *Splitter) splitRecursive(text string, separators []string) []string {
	if len(text) <= sp.ChunkSize {
		return []string{text}
	}
	if len(separators) == 0 {
		return sp.hardSplit(text)
	}

	sep := separators[0]
	rest := separators[1:]

	if sep == "" {
		return sp.hardSplit(text)
	}

	parts := strings.Split(text, sep)
	if len(parts) == 1 {
		return sp.splitRecursive(text, rest)
	}

	// Re-attach the separator to the piece it introduced so no content is
	// lost, then recurse into oversized pieces.
	var out []string
	for i, part := range parts {
		if i > 0 {
			part = sep + part
		}
		if part == "" {
			continue
		}
		if len(part) > sp.ChunkSize {
			out = append(out, sp.splitRecursive(part, rest)...)
		} else {
			out = append(out, part)
		}
	}
	return out
}

// hardSplit cuts text at fixed offsets when no separator can help.
func (sp *Splitter) hardSplit(text string) []string {
	var out []string
	for len(text) > sp.ChunkSize {
		cut := Truncate(text, sp.ChunkSize)
		out = append(out, cut)
		text = text[len(cut):]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

// merge greedily packs consecutive pieces into chunks of at most ChunkSize,
// carrying ChunkOverlap trailing characters into the next chunk.
func (sp *Splitter) merge(pieces []string) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
	}

	for _, piece := range pieces {
		if current.Len() > 0 && current.Len()+len(piece) > sp.ChunkSize {
			tail := overlapTail(current.String(), sp.ChunkOverlap)
			flush()
			if len(tail)+len(piece) <= sp.ChunkSize {
				current.WriteString(tail)
			}
		}
		current.WriteString(piece)
	}
	flush()

	return chunks
}

// overlapTail returns the last n characters of s, trimmed to a rune boundary.
func overlapTail(s string, n int) string {
	if n <= 0 || len(s) == 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	tail := s[len(s)-n:]
	for len(tail) > 0 && tail[0]&0xC0 == 0x80 {
		tail = tail[1:]
	}
	return tail
}
