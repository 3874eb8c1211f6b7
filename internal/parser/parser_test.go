package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		want     string
		wantErr  bool
	}{
		{"cv.pdf", "*parser.PDFParser", false},
		{"CV.PDF", "*parser.PDFParser", false},
		{"cv.docx", "*parser.DOCXParser", false},
		{"cv.txt", "*parser.TextParser", false},
		{"cv.md", "*parser.MarkdownParser", false},
		{"cv.markdown", "*parser.MarkdownParser", false},
		{"cv.html", "*parser.HTMLParser", false},
		{"cv.htm", "*parser.HTMLParser", false},
		{"cv.csv", "", true},
		{"cv", "", true},
	}
	for _, tt := range tests {
		p, err := ForFile(tt.filename, Options{})
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("%s: expected ErrUnsupportedFormat, got %v", tt.filename, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.filename, err)
			continue
		}
		if got := typeName(p); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.filename, got, tt.want)
		}
		if !IsSupportedExtension(tt.filename) {
			t.Errorf("%s: expected supported", tt.filename)
		}
	}
}

func TestForFile_PDFFallbackOption(t *testing.T) {
	p, err := ForFile("cv.pdf", Options{PDFFallbackPdftotext: true})
	if err != nil {
		t.Fatal(err)
	}
	if !p.(*PDFParser).FallbackPdftotext {
		t.Error("expected fallback to be enabled")
	}
}

func TestPDFParser_RejectsGarbage(t *testing.T) {
	p := &PDFParser{}
	if _, err := p.Parse(stringsReader("not a pdf"), "cv.pdf"); err == nil {
		t.Error("expected error for non-PDF input")
	}
}

func TestSections(t *testing.T) {
	sec := newSections("t")
	sec.paragraph("  preamble ")
	sec.heading("Education")
	sec.paragraph("BSc, MIT, 2019")
	sec.paragraph("   ")
	sec.heading("")
	sec.heading("Skills")
	doc := sec.done()

	want := []string{"preamble", "Education\n\nBSc, MIT, 2019", "Skills"}
	if len(doc.Pages) != len(want) {
		t.Fatalf("expected %d pages, got %+v", len(want), doc.Pages)
	}
	for i, w := range want {
		if doc.Pages[i].Text != w {
			t.Errorf("page %d: expected %q, got %q", i+1, w, doc.Pages[i].Text)
		}
	}
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}
