package retrieval

import (
	"fmt"
	"strings"

	"z-novel-assistant/internal/workflow/node"
)

const maxContextRunesPerDoc = 1200

// BuildContextText 将保留下来的文档格式化为提示词中的参考资料块
func BuildContextText(docs []Document) string {
	if len(docs) == 0 {
		return ""
	}
	lines := make([]string, 0, len(docs))
	for i, d := range docs {
		txt := node.TruncateByRunes(strings.TrimSpace(d.Text), maxContextRunesPerDoc)
		if txt == "" {
			continue
		}
		ref := d.SourceRef
		if ref == "" {
			ref = d.ID
		}
		lines = append(lines, fmt.Sprintf("[%d] (%s)\n%s", i+1, ref, txt))
	}
	return strings.Join(lines, "\n\n")
}
