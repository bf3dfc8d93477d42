// Package page 将生成的 Markdown 落库为章节页面
package page

import (
	"bytes"
	stdhtml "html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Renderer Markdown → HTML → 纯文本
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewRenderer() *Renderer {
	return &Renderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: bluemonday.StrictPolicy(),
	}
}

// HTML 渲染 Markdown
func (r *Renderer) HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// PlainText 去掉全部标签、还原实体并压缩空白
func (r *Renderer) PlainText(html string) string {
	text := stdhtml.UnescapeString(r.policy.Sanitize(html))
	return strings.Join(strings.Fields(text), " ")
}

// WordCount 中日韩字符逐字计数，其余按空白分词
func WordCount(text string) int {
	n := 0
	inWord := false
	for _, r := range text {
		switch {
		case unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul):
			n++
			inWord = false
		case unicode.IsSpace(r) || unicode.IsPunct(r):
			inWord = false
		default:
			if !inWord {
				n++
				inWord = true
			}
		}
	}
	return n
}
