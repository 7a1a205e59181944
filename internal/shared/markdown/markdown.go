// Package markdown holds the small amount of markdown handling shared by the
// persona and knowledgebase loaders: frontmatter splitting and title
// extraction.
package markdown

import (
	"errors"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const fence = "---"

var (
	ErrNoFrontmatter       = errors.New("no YAML frontmatter found")
	ErrUnclosedFrontmatter = errors.New("unclosed frontmatter")
)

var (
	parserInstance goldmark.Markdown
	parserOnce     sync.Once
)

func parser() goldmark.Markdown {
	parserOnce.Do(func() {
		parserInstance = goldmark.New()
	})
	return parserInstance
}

// SplitFrontmatter returns the text between the leading "---" fences and the
// remainder of the document after the closing fence.
func SplitFrontmatter(content string) (front, body string, err error) {
	content = strings.TrimLeft(content, " \t\r\n")
	if !strings.HasPrefix(content, fence) {
		return "", content, ErrNoFrontmatter
	}
	rest := content[len(fence):]
	end := strings.Index(rest, fence)
	if end < 0 {
		return "", content, ErrUnclosedFrontmatter
	}
	return rest[:end], rest[end+len(fence):], nil
}

// FirstHeading returns the text of the first level-1 heading.
func FirstHeading(src []byte) (string, bool) {
	doc := parser().Parser().Parse(text.NewReader(src))

	var title string
	found := false
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 {
			return ast.WalkContinue, nil
		}
		title = strings.TrimSpace(inlineText(h, src))
		found = title != ""
		if found {
			return ast.WalkStop, nil
		}
		return ast.WalkSkipChildren, nil
	})
	return title, found
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// TitleFromStem turns a file stem like "data-scientist" into "Data Scientist".
// Each rune in seps is treated as a word separator.
func TitleFromStem(stem, seps string) string {
	words := strings.FieldsFunc(stem, func(r rune) bool {
		return r == ' ' || r == '\t' || strings.ContainsRune(seps, r)
	})
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}
