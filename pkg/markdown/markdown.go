package markdown

import (
	"bytes"
	"html"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

const (
	MaxTitleLength   = 255
	MaxPreviewLength = 200
)

var (
	md     = goldmark.New(goldmark.WithExtensions(extension.GFM))
	strict = bluemonday.StrictPolicy()
)

// Title returns the text of the first level one heading in content, falling
// back to the file name without its .md extension.
func Title(filePath string, content []byte) string {
	title := firstHeading(content)
	if title == "" {
		title = strings.TrimSuffix(path.Base(filePath), ".md")
	}
	return truncate(title, MaxTitleLength)
}

// Preview renders content and reduces it to plain text with whitespace
// collapsed, cut to MaxPreviewLength characters. Content with no text yields
// nil.
func Preview(content []byte) (*string, error) {
	var buf bytes.Buffer
	if err := md.Convert(content, &buf); err != nil {
		return nil, errors.WithStack(err)
	}
	plain := html.UnescapeString(strict.Sanitize(buf.String()))
	plain = strings.Join(strings.Fields(plain), " ")
	if plain == "" {
		return nil, nil
	}
	plain = truncate(plain, MaxPreviewLength)
	return &plain, nil
}

func firstHeading(content []byte) string {
	doc := md.Parser().Parse(text.NewReader(content))

	var heading *ast.Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			heading = h
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if heading == nil {
		return ""
	}

	var sb strings.Builder
	_ = ast.Walk(heading, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			sb.Write(node.Segment.Value(content))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(node.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(sb.String()), " ")
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max]))
}
