package parser

import (
	"strings"
	"testing"
)

func TestTextParser_ParagraphsStayOnOnePage(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", doc.Title)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(doc.Pages))
	}
	if doc.Pages[0].Text != input {
		t.Errorf("expected %q, got %q", input, doc.Pages[0].Text)
	}
}

func TestTextParser_FormFeedSplitsPages(t *testing.T) {
	input := "Jane Doe\njane@example.com\fExperience\n\nEngineer at Acme\f\f"
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "cv.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(doc.Pages))
	}
	if doc.Pages[0].Text != "Jane Doe\njane@example.com" {
		t.Errorf("page 1: got %q", doc.Pages[0].Text)
	}
	if doc.Pages[1].Text != "Experience\n\nEngineer at Acme" {
		t.Errorf("page 2: got %q", doc.Pages[1].Text)
	}
	if doc.Pages[1].Number != 2 {
		t.Errorf("expected page number 2, got %d", doc.Pages[1].Number)
	}
	if got := doc.Text(); got != "Jane Doe\njane@example.com Experience\n\nEngineer at Acme" {
		t.Errorf("Text() = %q", got)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "empty" {
		t.Errorf("expected title %q, got %q", "empty", doc.Title)
	}
	if len(doc.Pages) != 0 {
		t.Errorf("expected 0 pages for empty input, got %d", len(doc.Pages))
	}
	if doc.Text() != "" {
		t.Errorf("expected empty text, got %q", doc.Text())
	}
}

func TestTextParser_MultipleBlankLines(t *testing.T) {
	input := "Para one.\n\n\n\nPara two.\n   \nPara three.\r\n"
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "gaps.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Para one.\n\nPara two.\n\nPara three."
	if len(doc.Pages) != 1 || doc.Pages[0].Text != want {
		t.Fatalf("expected single page %q, got %+v", want, doc.Pages)
	}
}
