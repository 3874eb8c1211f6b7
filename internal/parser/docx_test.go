package parser

import (
	"bytes"
	"testing"

	"github.com/fumiama/go-docx"
)

func TestDocxHeadingLevel(t *testing.T) {
	tests := []struct {
		style string
		want  int
	}{
		{"Title", 1},
		{"title", 1},
		{"Heading1", 1},
		{"heading 3", 3},
		{"Heading6", 6},
		{"Heading7", 0},
		{"Heading10", 0},
		{"Heading", 0},
		{"BodyText", 0},
		{"", 0},
	}
	for _, tt := range tests {
		para := &docx.Paragraph{}
		if tt.style != "" {
			para.Properties = &docx.ParagraphProperties{Style: &docx.Style{Val: tt.style}}
		}
		if got := docxHeadingLevel(para); got != tt.want {
			t.Errorf("docxHeadingLevel(%q) = %d, want %d", tt.style, got, tt.want)
		}
	}

	if got := docxHeadingLevel(&docx.Paragraph{Properties: &docx.ParagraphProperties{}}); got != 0 {
		t.Errorf("no style: got %d", got)
	}
}

func buildDOCX(t *testing.T) []byte {
	t.Helper()
	w := docx.New().WithDefaultTheme()
	w.AddParagraph().AddText("Jane Doe")
	w.AddParagraph().AddText("jane@example.com")
	w.AddParagraph().Style("Heading1").AddText("Education")
	w.AddParagraph().AddText("BSc, MIT, 2019")
	w.AddParagraph().Style("Heading2").AddText("Skills")
	w.AddParagraph().AddText("Go, SQL")
	w.AddParagraph().AddText("   ")

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}
	return buf.Bytes()
}

func TestDOCXParser(t *testing.T) {
	p := &DOCXParser{}
	doc, err := p.Parse(bytes.NewReader(buildDOCX(t)), "jane_cv.docx")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if doc.Title != "jane_cv" {
		t.Errorf("title = %q", doc.Title)
	}
	want := []string{
		"Jane Doe\n\njane@example.com",
		"Education\n\nBSc, MIT, 2019",
		"Skills\n\nGo, SQL",
	}
	if len(doc.Pages) != len(want) {
		t.Fatalf("expected %d pages, got %+v", len(want), doc.Pages)
	}
	for i, w := range want {
		if doc.Pages[i].Text != w {
			t.Errorf("page %d: got %q, want %q", i+1, doc.Pages[i].Text, w)
		}
		if doc.Pages[i].Number != i+1 {
			t.Errorf("page %d numbered %d", i+1, doc.Pages[i].Number)
		}
	}
}

func TestDOCXParser_Invalid(t *testing.T) {
	p := &DOCXParser{}
	if _, err := p.Parse(bytes.NewReader([]byte("not a zip")), "cv.docx"); err == nil {
		t.Error("expected error for non-docx input")
	}
}
