package chapter

import (
	"context"
	"encoding/json"
	"strings"

	"z-novel-assistant/internal/application/stream"
	"z-novel-assistant/internal/domain/entity"
	"z-novel-assistant/internal/domain/service"
	"z-novel-assistant/internal/workflow/node"
	"z-novel-assistant/internal/workflow/prompt"
	"z-novel-assistant/pkg/logger"
	"z-novel-assistant/pkg/metrics"
)

// DefaultMaxOutlinePages 大纲页数上限
const DefaultMaxOutlinePages = 8

const untitledChapter = "Untitled chapter"

type outlineEnvelope struct {
	Pages []stream.OutlinePage `json:"pages"`
}

// ParseOutline 接受 {"pages": [...]} 或裸数组；丢弃空标题并截断到 maxPages
func ParseOutline(raw string, maxPages int) ([]stream.OutlinePage, error) {
	body := node.ExtractJSONObject(raw)

	var pages []stream.OutlinePage
	if strings.HasPrefix(body, "[") {
		if err := json.Unmarshal([]byte(body), &pages); err != nil {
			return nil, err
		}
	} else {
		var env outlineEnvelope
		if err := json.Unmarshal([]byte(body), &env); err != nil {
			return nil, err
		}
		pages = env.Pages
	}

	out := make([]stream.OutlinePage, 0, len(pages))
	for _, p := range pages {
		title := strings.TrimSpace(p.Title)
		if title == "" {
			continue
		}
		keyPoints := make([]string, 0, len(p.KeyPoints))
		for _, k := range p.KeyPoints {
			if k = strings.TrimSpace(k); k != "" {
				keyPoints = append(keyPoints, k)
			}
		}
		out = append(out, stream.OutlinePage{
			Title:     title,
			Summary:   strings.TrimSpace(p.Summary),
			KeyPoints: keyPoints,
		})
		if maxPages > 0 && len(out) == maxPages {
			break
		}
	}
	return out, nil
}

// FallbackOutline 规划失败时的单页大纲
func FallbackOutline(ch *entity.Chapter) []stream.OutlinePage {
	title := strings.TrimSpace(ch.Title)
	if title == "" {
		title = untitledChapter
	}
	return []stream.OutlinePage{{
		Title:     title,
		Summary:   strings.TrimSpace(ch.Summary),
		KeyPoints: []string{},
	}}
}

// planOutline 失败与空结果都回落到 FallbackOutline
func (w *Writer) planOutline(ctx context.Context, book *entity.Book, ch *entity.Chapter, transcript string) []stream.OutlinePage {
	ctx = service.WithWorkflow(ctx, service.WorkflowOutline)

	msgs, err := w.prompts.Render(ctx, prompt.PromptChapterOutlineV1, map[string]any{
		"max_pages":       w.maxPages,
		"book_title":      book.Title,
		"chapter_title":   ch.Title,
		"chapter_summary": ch.Summary,
		"transcript":      transcript,
	})
	if err != nil {
		logger.Warn(ctx, "render outline prompt failed", "error", err.Error())
		return w.fallback(ch)
	}

	out, err := w.gen.Generate(ctx, msgs)
	if err != nil {
		logger.Warn(ctx, "outline planning failed", "error", err.Error())
		return w.fallback(ch)
	}

	pages, err := ParseOutline(out, w.maxPages)
	if err != nil || len(pages) == 0 {
		logger.Warn(ctx, "outline planning returned no usable pages", "chapter_id", ch.ID)
		return w.fallback(ch)
	}
	return pages
}

func (w *Writer) fallback(ch *entity.Chapter) []stream.OutlinePage {
	metrics.OutlineFallbackTotal.Inc()
	return FallbackOutline(ch)
}
