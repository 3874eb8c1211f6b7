package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/cvparse/internal/document"
)

// Parser converts raw document bytes into a paged Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*document.Document, error)
}

// ErrUnsupportedFormat is returned by ForFile for unknown extensions.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Options tune format-specific behavior.
type Options struct {
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".docx":     true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// sections turns a stream of headings and paragraphs into pages: every
// heading closes the current page and opens a new one that starts with the
// heading line. Paragraphs are separated by blank lines.
type sections struct {
	doc     *document.Document
	current strings.Builder
}

func newSections(title string) *sections {
	return &sections{doc: &document.Document{Title: title}}
}

func (s *sections) heading(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	s.flush()
	s.current.WriteString(text)
}

func (s *sections) paragraph(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if s.current.Len() > 0 {
		s.current.WriteString("\n\n")
	}
	s.current.WriteString(text)
}

func (s *sections) flush() {
	s.doc.AddPage(s.current.String())
	s.current.Reset()
}

func (s *sections) done() *document.Document {
	s.flush()
	return s.doc
}
