// Package tei extracts structured document records from GROBID-produced
// TEI-XML.
package tei

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/qgr-lab/qgr/internal/document"
)

// ErrMissingTitle indicates the document has no usable title. The title is
// the one mandatory field; callers batch-processing files should skip the
// offending file and continue.
var ErrMissingTitle = errors.New("document has no title")

// MaxTitleChars caps the extracted title to fit the downstream fixed-width
// storage field.
const MaxTitleChars = 1000

// Extract parses one TEI-XML document into a Document record. All fields
// except the title are best-effort: a missing abstract, date, or keyword set
// yields an absent field, not an error.
func Extract(r io.Reader) (*document.Document, error) {
	root, err := parse(r)
	if err != nil {
		return nil, err
	}

	header := root.child("teiHeader")
	if header == nil {
		return nil, ErrMissingTitle
	}

	title := extractTitle(header)
	if title == "" {
		return nil, ErrMissingTitle
	}
	title = document.Truncate(title, MaxTitleChars)

	doc := &document.Document{
		Title:    title,
		Date:     extractDate(header),
		Authors:  extractAuthors(header),
		Abstract: extractAbstract(header),
		Keywords: extractKeywords(header),
	}
	doc.LatexDoc = buildLatexDoc(doc, root)

	return doc, nil
}

// extractTitle reads fileDesc/titleStmt/title.
func extractTitle(header *element) string {
	el := header.find("fileDesc", "titleStmt", "title")
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.text())
}

// extractDate reads the publication date, preferring the machine-readable
// "when" attribute over element text.
func extractDate(header *element) string {
	el := header.find("fileDesc", "publicationStmt", "date")
	if el == nil {
		return ""
	}
	if when := el.attr("when"); when != "" {
		return when
	}
	return strings.TrimSpace(el.text())
}

// extractAuthors reads the ordered author list from the source description.
func extractAuthors(header *element) []string {
	src := header.find("fileDesc", "sourceDesc", "biblStruct")
	if src == nil {
		return nil
	}

	var authors []string
	for _, author := range src.descendants("author") {
		name := personName(author)
		if name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}

// personName renders an author's persName as "Forename Surname".
func personName(author *element) string {
	pers := author.child("persName")
	if pers == nil {
		return ""
	}

	var parts []string
	for _, c := range pers.Children {
		switch c.Name {
		case "forename", "surname":
			if t := strings.TrimSpace(c.text()); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " ")
}

// extractAbstract concatenates all paragraph text in the profile abstract.
func extractAbstract(header *element) string {
	abs := header.find("profileDesc", "abstract")
	if abs == nil {
		return ""
	}
	return strings.TrimSpace(abs.text())
}

// extractKeywords reads profileDesc/textClass/keywords terms. A keywords
// block without term children contributes its raw text as one keyword.
func extractKeywords(header *element) []string {
	kw := header.find("profileDesc", "textClass", "keywords")
	if kw == nil {
		return nil
	}

	terms := kw.descendants("term")
	if len(terms) == 0 {
		if t := strings.TrimSpace(kw.text()); t != "" {
			return []string{t}
		}
		return nil
	}

	var out []string
	for _, term := range terms {
		if t := strings.TrimSpace(term.text()); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// buildLatexDoc synthesizes a LaTeX-style document from the extracted
// metadata, body sections, formulas, and bibliography.
func buildLatexDoc(doc *document.Document, root *element) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\\title{%s}\n", doc.Title)
	if len(doc.Authors) > 0 {
		fmt.Fprintf(&b, "\\author{%s}\n", document.JoinAuthors(doc.Authors))
	}
	if doc.Date != "" {
		fmt.Fprintf(&b, "\\date{%s}\n", doc.Date)
	}

	if doc.Abstract != "" {
		b.WriteString("\\begin{abstract}\n")
		b.WriteString(doc.Abstract)
		b.WriteString("\n\\end{abstract}\n")
	}

	if body := root.find("text", "body"); body != nil {
		writeBody(&b, body)
	}

	if back := root.find("text", "back"); back != nil {
		writeBibliography(&b, back)
	}

	return b.String()
}

// writeBody renders each body division as a section heading followed by its
// paragraphs, with an equation block per formula, preserving document order.
func writeBody(b *strings.Builder, body *element) {
	for _, div := range body.childrenNamed("div") {
		for _, c := range div.Children {
			switch c.Name {
			case "head":
				if t := strings.TrimSpace(c.text()); t != "" {
					fmt.Fprintf(b, "\\section{%s}\n", t)
				}
			case "p":
				if t := strings.TrimSpace(c.text()); t != "" {
					b.WriteString(t)
					b.WriteString("\n")
				}
			case "formula":
				if t := strings.TrimSpace(c.text()); t != "" {
					fmt.Fprintf(b, "\\begin{equation}\n%s\n\\end{equation}\n", t)
				}
			}
		}
	}
}

// writeBibliography renders each reference as a bibitem concatenating
// authors, title, year, publisher or journal, volume, and page, omitting
// absent fields and terminating with a period.
func writeBibliography(b *strings.Builder, back *element) {
	bibs := back.descendants("biblStruct")
	if len(bibs) == 0 {
		return
	}

	b.WriteString("\\begin{thebibliography}{99}\n")
	for i, bib := range bibs {
		entry := formatReference(bib)
		if entry == "" {
			continue
		}
		fmt.Fprintf(b, "\\bibitem{ref%d} %s.\n", i+1, entry)
	}
	b.WriteString("\\end{thebibliography}\n")
}

// formatReference joins the available fields of one biblStruct.
func formatReference(bib *element) string {
	var parts []string

	var authors []string
	for _, author := range bib.descendants("author") {
		if name := personName(author); name != "" {
			authors = append(authors, name)
		}
	}
	if len(authors) > 0 {
		parts = append(parts, strings.Join(authors, ", "))
	}

	if title := referenceTitle(bib); title != "" {
		parts = append(parts, title)
	}

	if year := referenceYear(bib); year != "" {
		parts = append(parts, year)
	}

	if venue := referenceVenue(bib); venue != "" {
		parts = append(parts, venue)
	}

	for _, scope := range bib.descendants("biblScope") {
		val := strings.TrimSpace(scope.text())
		if val == "" {
			val = scope.attr("from")
		}
		if val == "" {
			continue
		}
		switch scope.attr("unit") {
		case "volume":
			parts = append(parts, "vol. "+val)
		case "page":
			parts = append(parts, "p. "+val)
		}
	}

	return strings.Join(parts, ". ")
}

// referenceTitle prefers the analytic (article) title over the monograph
// title.
func referenceTitle(bib *element) string {
	if t := bib.find("analytic", "title"); t != nil {
		if s := strings.TrimSpace(t.text()); s != "" {
			return s
		}
	}
	if t := bib.find("monogr", "title"); t != nil {
		return strings.TrimSpace(t.text())
	}
	return ""
}

// referenceYear reads the imprint date, preferring the "when" attribute.
func referenceYear(bib *element) string {
	date := bib.find("monogr", "imprint", "date")
	if date == nil {
		return ""
	}
	when := date.attr("when")
	if when == "" {
		when = strings.TrimSpace(date.text())
	}
	if len(when) >= 4 {
		return when[:4]
	}
	return when
}

// referenceVenue returns the publisher, or the journal title when the
// reference is an article (its monograph title differs from the analytic
// one).
func referenceVenue(bib *element) string {
	if pub := bib.find("monogr", "imprint", "publisher"); pub != nil {
		if s := strings.TrimSpace(pub.text()); s != "" {
			return s
		}
	}
	if bib.find("analytic", "title") != nil {
		if t := bib.find("monogr", "title"); t != nil {
			return strings.TrimSpace(t.text())
		}
	}
	return ""
}
