package grobid

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DOI pattern: 10.XXXX/... where XXXX is 4+ digits.
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// PDFInfo is the result of a pre-upload sanity check.
type PDFInfo struct {
	Pages int    `json:"pages"`
	DOI   string `json:"doi,omitempty"`
}

// CheckPDF verifies a file parses as a PDF with at least one page and sniffs
// a DOI from the first pages. An unreadable or empty PDF is rejected here
// rather than wasting a GROBID round trip.
func CheckPDF(path string) (*PDFInfo, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("not a readable PDF: %w", err)
	}
	defer f.Close()

	pages := r.NumPage()
	if pages < 1 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	info := &PDFInfo{Pages: pages}

	// DOI is usually on the first page; search the first three.
	maxPages := 3
	if pages < maxPages {
		maxPages = pages
	}
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if doi := findDOI(text); doi != "" {
			info.DOI = doi
			break
		}
	}

	return info, nil
}

// findDOI finds the first valid DOI in text.
func findDOI(text string) string {
	for _, match := range doiPattern.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:)")
		if isValidDOI(match) {
			return match
		}
	}
	return ""
}

// isValidDOI performs basic validation on a DOI.
func isValidDOI(doi string) bool {
	if len(doi) < 10 || !strings.HasPrefix(doi, "10.") {
		return false
	}
	slashIdx := strings.Index(doi, "/")
	return slashIdx != -1 && slashIdx < len(doi)-1
}
