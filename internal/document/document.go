// Package document defines the core record for extracted papers and the
// text-processing helpers shared by conversion and ingestion.
package document

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Document represents one extracted paper, as written to the converted tree.
type Document struct {
	Title    string   `json:"title"`
	Date     string   `json:"date,omitempty"`
	Authors  []string `json:"authors"`
	Abstract string   `json:"abstract,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	LatexDoc string   `json:"latex_doc"`
}

// Field length caps for the vector store schema. Values above the clean
// threshold are scrubbed before truncation.
const (
	MaxTitleLen    = 900
	MaxDateLen     = 250
	MaxAuthorsLen  = 1000
	MaxAbstractLen = 4000
	MaxKeywordsLen = 1004
	MaxCategoryLen = 250
	MaxChunkLen    = 1024

	// cleanThreshold is the length past which a field is scrubbed of URLs
	// and non-text noise before truncation.
	cleanThreshold = 1000
)

var (
	urlPattern       = regexp.MustCompile(`http\S+|www\.\S+`)
	timestampPattern = regexp.MustCompile(`\d+:\d+:\d+|\d+:\d+`)
	longRunPattern   = regexp.MustCompile(`\S{30,}`)
	specialPattern   = regexp.MustCompile(`[^a-zA-Z0-9 \n.]`)
	newlinesPattern  = regexp.MustCompile(`\n+`)
	spacesPattern    = regexp.MustCompile(` +`)
	nonASCIIPattern  = regexp.MustCompile(`[^\x00-\x7F]+`)
)

// CleanDescription strips URLs, timestamps, overly long runs, and special
// characters from free text, collapsing whitespace.
func CleanDescription(s string) string {
	s = urlPattern.ReplaceAllString(s, "")
	s = timestampPattern.ReplaceAllString(s, "")
	s = longRunPattern.ReplaceAllString(s, "")
	s = specialPattern.ReplaceAllString(s, "")
	s = newlinesPattern.ReplaceAllString(s, "\n")
	s = spacesPattern.ReplaceAllString(s, " ")
	return s
}

// CleanLatex strips non-ASCII characters from LaTeX content and collapses
// runs of spaces, leaving markup intact.
func CleanLatex(s string) string {
	s = nonASCIIPattern.ReplaceAllString(s, "")
	s = spacesPattern.ReplaceAllString(s, " ")
	return s
}

// BoundField cleans a field if it exceeds the scrub threshold and truncates
// it to max runes. Empty input degrades to "Unknown" so every stored row has
// a value for each metadata field.
func BoundField(s string, max int) string {
	if s == "" {
		return "Unknown"
	}
	if len(s) > cleanThreshold {
		s = CleanDescription(s)
	}
	return Truncate(s, max)
}

// Truncate limits s to max bytes without splitting the string mid-rune.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	// Back off to a rune boundary.
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// ID derives the stable document identifier from title, joined authors, and
// date. Chunks of the same paper share this identifier in the vector store.
func ID(title, authors, date string) string {
	combined := fmt.Sprintf("%s-%s-%s", title, authors, date)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(combined)))
}

// JoinAuthors renders the ordered author list the way it is stored in the
// vector store's authors field.
func JoinAuthors(authors []string) string {
	return strings.Join(authors, ", ")
}
