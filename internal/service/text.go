package service

import (
	"bytes"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	ugcPolicy    = bluemonday.UGCPolicy()

	markdownParser = goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()
)

// cleanText 去掉所有 HTML 标签，返回纯文本。
func cleanText(input string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(input)))
}

// cleanHTML 按 UGC 策略清洗富文本。
func cleanHTML(input string) string {
	return strings.TrimSpace(ugcPolicy.Sanitize(input))
}

// MarkdownExcerpt 提取 Markdown 的纯文本，用于列表摘要；超过 limit 个字符时截断并追加省略号。
func MarkdownExcerpt(source string, limit int) string {
	src := []byte(source)
	doc := markdownParser.Parse(text.NewReader(src))

	var buf bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && buf.Len() > 0 {
				buf.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	excerpt := strings.Join(strings.Fields(buf.String()), " ")
	if limit > 0 && utf8.RuneCountInString(excerpt) > limit {
		runes := []rune(excerpt)
		excerpt = strings.TrimSpace(string(runes[:limit])) + "…"
	}
	return excerpt
}
