package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/cvparse/internal/document"
)

// TextParser handles plain text files. Form feeds separate pages; runs of
// blank lines collapse into a single paragraph break.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := &document.Document{Title: titleFromFilename(filename)}

	var page, para strings.Builder
	flushPara := func() {
		if para.Len() == 0 {
			return
		}
		if page.Len() > 0 {
			page.WriteString("\n\n")
		}
		page.WriteString(para.String())
		para.Reset()
	}
	flushPage := func() {
		flushPara()
		doc.AddPage(page.String())
		page.Reset()
	}

	for scanner.Scan() {
		segments := strings.Split(scanner.Text(), "\f")
		for i, line := range segments {
			if i > 0 {
				flushPage()
			}
			line = strings.TrimRight(line, "\r")
			if strings.TrimSpace(line) == "" {
				flushPara()
				continue
			}
			if para.Len() > 0 {
				para.WriteString("\n")
			}
			para.WriteString(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flushPage()

	return doc, nil
}
