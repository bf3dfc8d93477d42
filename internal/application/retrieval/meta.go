package retrieval

import (
	"encoding/json"
	"fmt"
	"strings"
)

const segmentMetaPrefix = "@@meta:"

// SegmentMeta 随分片正文写入的来源信息，用于还原 sourceRef
type SegmentMeta struct {
	BookID    string `json:"book_id,omitempty"`
	ChapterID string `json:"chapter_id,omitempty"`
	PageID    string `json:"page_id,omitempty"`
	PageTitle string `json:"page_title,omitempty"`
}

// SourceRef 形如 book/<id>/chapter/<id>/page/<id>
func (m SegmentMeta) SourceRef() string {
	if m.PageID == "" {
		return ""
	}
	return fmt.Sprintf("book/%s/chapter/%s/page/%s", m.BookID, m.ChapterID, m.PageID)
}

func encodeSegmentText(meta SegmentMeta, text string) string {
	b, _ := json.Marshal(meta)
	var sb strings.Builder
	sb.Grow(len(segmentMetaPrefix) + len(b) + 1 + len(text))
	sb.WriteString(segmentMetaPrefix)
	sb.Write(b)
	sb.WriteByte('\n')
	sb.WriteString(text)
	return sb.String()
}

// decodeSegmentText 没有元信息前缀时原样返回正文
func decodeSegmentText(textContent string) (SegmentMeta, string) {
	raw := strings.TrimSpace(textContent)
	rest, ok := strings.CutPrefix(raw, segmentMetaPrefix)
	if !ok {
		return SegmentMeta{}, raw
	}
	line, body, ok := strings.Cut(rest, "\n")
	if !ok {
		return SegmentMeta{}, raw
	}
	var meta SegmentMeta
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &meta); err != nil {
		return SegmentMeta{}, strings.TrimSpace(body)
	}
	return meta, strings.TrimSpace(body)
}
