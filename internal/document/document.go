package document

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Document is the text extracted from one uploaded file.
type Document struct {
	Title string // From metadata or filename
	Pages []Page // In source order
}

// Page is the text of one source page or top-level section.
type Page struct {
	Number int    // 1-based
	Text   string // Raw page text
}

// Text concatenates the non-empty page texts, joined by a single space.
func (d *Document) Text() string {
	if d == nil {
		return ""
	}
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		if p.Text == "" {
			continue
		}
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, " ")
}

// ContentHash is the SHA-256 hex digest of Text.
func (d *Document) ContentHash() string {
	return HashHex([]byte(d.Text()))
}

// AddPage appends a page numbered after the last one. Blank text is skipped.
func (d *Document) AddPage(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	d.Pages = append(d.Pages, Page{Number: len(d.Pages) + 1, Text: text})
}

// HashHex computes SHA-256 of data and returns the hex string.
func HashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
