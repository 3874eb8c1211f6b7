package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/cvparse/internal/document"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. h1-h6 start a new page; block elements
// become paragraphs.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := titleFromFilename(filename)
	if t := findTitle(root); t != "" {
		title = t
	}
	sec := newSections(title)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if headingLevel(n.Data) > 0 {
				sec.heading(textContent(n))
				return
			}
			switch n.Data {
			case "script", "style", "noscript", "template", "title":
				return
			case "p", "li", "td", "th", "dt", "dd", "blockquote", "pre", "address":
				sec.paragraph(textContent(n))
				return
			}
			if n.Data != "body" && !hasBlockChild(n) {
				sec.paragraph(textContent(n))
				return
			}
		}
		if n.Type == html.TextNode {
			sec.paragraph(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(root); body != nil {
		walk(body)
	} else {
		walk(root)
	}
	return sec.done(), nil
}

// hasBlockChild reports whether n contains block-level elements. Leaf
// containers such as <div>Jane <b>Doe</b></div> are read as one paragraph.
func hasBlockChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if headingLevel(c.Data) > 0 || blockTags[c.Data] || hasBlockChild(c) {
			return true
		}
	}
	return false
}

var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "header": true,
	"footer": true, "main": true, "aside": true, "nav": true, "ul": true,
	"ol": true, "li": true, "table": true, "tr": true, "td": true, "th": true,
	"dl": true, "dt": true, "dd": true, "blockquote": true, "pre": true,
	"address": true, "form": true,
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			buf.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			buf.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
