package tei

import (
	"errors"
	"strings"
	"testing"
)

const sampleTEI = `<?xml version="1.0" encoding="UTF-8"?>
<TEI xmlns="http://www.tei-c.org/ns/1.0">
  <teiHeader>
    <fileDesc>
      <titleStmt>
        <title level="a" type="main">Attention Mechanisms in Sequence Models</title>
      </titleStmt>
      <publicationStmt>
        <date type="published" when="2023-05-01">1 May 2023</date>
      </publicationStmt>
      <sourceDesc>
        <biblStruct>
          <analytic>
            <author>
              <persName><forename type="first">Ada</forename><surname>Lovelace</surname></persName>
            </author>
            <author>
              <persName><forename type="first">Alan</forename><surname>Turing</surname></persName>
            </author>
          </analytic>
        </biblStruct>
      </sourceDesc>
    </fileDesc>
    <profileDesc>
      <abstract>
        <p>We study attention.</p>
      </abstract>
      <textClass>
        <keywords>
          <term>attention</term>
          <term>transformers</term>
        </keywords>
      </textClass>
    </profileDesc>
  </teiHeader>
  <text>
    <body>
      <div>
        <head>Introduction</head>
        <p>Sequence models benefit from attention.</p>
        <formula>y = softmax(QK)V</formula>
      </div>
      <div>
        <head>Methods</head>
        <p>We compare three variants.</p>
      </div>
    </body>
    <back>
      <div type="references">
        <listBibl>
          <biblStruct>
            <analytic>
              <title level="a">Neural Machine Translation</title>
              <author>
                <persName><forename type="first">D</forename><surname>Bahdanau</surname></persName>
              </author>
            </analytic>
            <monogr>
              <title level="j">ICLR</title>
              <imprint>
                <date type="published" when="2015"/>
              </imprint>
            </monogr>
          </biblStruct>
        </listBibl>
      </div>
    </back>
  </text>
</TEI>`

func TestExtract(t *testing.T) {
	doc, err := Extract(strings.NewReader(sampleTEI))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if doc.Title != "Attention Mechanisms in Sequence Models" {
		t.Errorf("Title = %q", doc.Title)
	}
	if doc.Date != "2023-05-01" {
		t.Errorf("Date = %q, want the when attribute", doc.Date)
	}

	wantAuthors := []string{"Ada Lovelace", "Alan Turing"}
	if len(doc.Authors) != len(wantAuthors) {
		t.Fatalf("Authors = %v, want %v", doc.Authors, wantAuthors)
	}
	for i, want := range wantAuthors {
		if doc.Authors[i] != want {
			t.Errorf("Authors[%d] = %q, want %q", i, doc.Authors[i], want)
		}
	}

	if doc.Abstract != "We study attention." {
		t.Errorf("Abstract = %q", doc.Abstract)
	}

	wantKeywords := []string{"attention", "transformers"}
	if len(doc.Keywords) != len(wantKeywords) {
		t.Fatalf("Keywords = %v, want %v", doc.Keywords, wantKeywords)
	}
}

func TestExtractLatexDoc(t *testing.T) {
	doc, err := Extract(strings.NewReader(sampleTEI))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	// Pieces must appear in document order.
	ordered := []string{
		"\\title{Attention Mechanisms in Sequence Models}",
		"\\author{Ada Lovelace, Alan Turing}",
		"\\date{2023-05-01}",
		"\\begin{abstract}",
		"We study attention.",
		"\\end{abstract}",
		"\\section{Introduction}",
		"Sequence models benefit from attention.",
		"\\begin{equation}",
		"y = softmax(QK)V",
		"\\end{equation}",
		"\\section{Methods}",
		"We compare three variants.",
		"\\begin{thebibliography}{99}",
		"\\bibitem{ref1} D Bahdanau. Neural Machine Translation. 2015. ICLR.",
		"\\end{thebibliography}",
	}

	pos := 0
	for _, piece := range ordered {
		idx := strings.Index(doc.LatexDoc[pos:], piece)
		if idx < 0 {
			t.Fatalf("latex doc missing %q after offset %d:\n%s", piece, pos, doc.LatexDoc)
		}
		pos += idx + len(piece)
	}
}

func TestExtractMissingTitle(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{
			name: "no teiHeader",
			xml:  `<TEI><text><body/></text></TEI>`,
		},
		{
			name: "empty title element",
			xml:  `<TEI><teiHeader><fileDesc><titleStmt><title>  </title></titleStmt></fileDesc></teiHeader></TEI>`,
		},
		{
			name: "no title element",
			xml:  `<TEI><teiHeader><fileDesc><titleStmt/></fileDesc></teiHeader></TEI>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(strings.NewReader(tt.xml))
			if !errors.Is(err, ErrMissingTitle) {
				t.Errorf("Extract error = %v, want ErrMissingTitle", err)
			}
		})
	}
}

func TestExtractOptionalFieldsAbsent(t *testing.T) {
	xml := `<TEI><teiHeader><fileDesc><titleStmt><title>Bare Title</title></titleStmt></fileDesc></teiHeader></TEI>`

	doc, err := Extract(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if doc.Title != "Bare Title" {
		t.Errorf("Title = %q", doc.Title)
	}
	if doc.Date != "" || doc.Abstract != "" || len(doc.Authors) != 0 || len(doc.Keywords) != 0 {
		t.Errorf("optional fields should be absent: %+v", doc)
	}
	if !strings.Contains(doc.LatexDoc, "\\title{Bare Title}") {
		t.Errorf("latex doc missing title: %q", doc.LatexDoc)
	}
}

func TestExtractMalformedXML(t *testing.T) {
	_, err := Extract(strings.NewReader("<TEI><unclosed>"))
	if err == nil {
		t.Fatal("expected error for malformed XML")
	}
}

func TestExtractDateFallsBackToText(t *testing.T) {
	xml := `<TEI><teiHeader><fileDesc>
	  <titleStmt><title>T</title></titleStmt>
	  <publicationStmt><date>March 2020</date></publicationStmt>
	</fileDesc></teiHeader></TEI>`

	doc, err := Extract(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if doc.Date != "March 2020" {
		t.Errorf("Date = %q, want element text fallback", doc.Date)
	}
}

func TestElementTextInterleaved(t *testing.T) {
	// Inline markup must not lose the prose around it.
	root, err := parse(strings.NewReader(`<p>before <ref>middle</ref> after</p>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := root.text(); got != "before middle after" {
		t.Errorf("text() = %q, want interleaved prose", got)
	}
}
