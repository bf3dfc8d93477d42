// Package chapter 实现按大纲逐页生成并落库的章节写作流
package chapter

import (
	"context"
	"errors"
	"io"
	"strings"

	"z-novel-assistant/internal/application/page"
	"z-novel-assistant/internal/application/stream"
	"z-novel-assistant/internal/domain/entity"
	"z-novel-assistant/internal/domain/repository"
	"z-novel-assistant/internal/domain/service"
	"z-novel-assistant/internal/workflow/node"
	"z-novel-assistant/internal/workflow/port"
	"z-novel-assistant/internal/workflow/prompt"
	apperrors "z-novel-assistant/pkg/errors"
	"z-novel-assistant/pkg/logger"
	"z-novel-assistant/pkg/metrics"
	"z-novel-assistant/pkg/tracer"
)

const previousTailRunes = 600

// PagePersister 单页落库
type PagePersister interface {
	Persist(ctx context.Context, d page.Draft) (string, error)
}

// Request 章节生成输入
type Request struct {
	Messages  []entity.Message
	UserID    string
	BookID    string
	ChapterID string
}

// Writer 章节写作流：大纲 → 逐页流式生成 → 逐页落库
type Writer struct {
	gen       port.TextGenerator
	prompts   *prompt.Registry
	books     repository.BookRepository
	chapters  repository.ChapterRepository
	persister PagePersister
	maxPages  int
}

func NewWriter(
	gen port.TextGenerator,
	prompts *prompt.Registry,
	books repository.BookRepository,
	chapters repository.ChapterRepository,
	persister PagePersister,
	maxPages int,
) *Writer {
	if maxPages <= 0 {
		maxPages = DefaultMaxOutlinePages
	}
	return &Writer{
		gen:       gen,
		prompts:   prompts,
		books:     books,
		chapters:  chapters,
		persister: persister,
		maxPages:  maxPages,
	}
}

// BuildTranscript 每条消息一行，带角色前缀
func BuildTranscript(msgs []entity.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		lines = append(lines, m.Role.Label()+": "+content)
	}
	return strings.Join(lines, "\n")
}

// Stream 页面严格串行：第 N+1 页在第 N 页结束后才开始
// 单页失败时发送 page_error 并停止，已落库的页面保留
func (w *Writer) Stream(ctx context.Context, sink stream.Sink, req Request) (*stream.DonePayload, error) {
	if len(req.Messages) == 0 || !entity.LastUserAnchored(req.Messages) {
		return nil, apperrors.ErrInvalidParam.WithDetail("last message must be from the user")
	}
	ctx, span := tracer.Start(ctx, "chapter.Writer.Stream")
	defer span.End()
	ctx = logger.WithContext(ctx, logger.BookIDKey, req.BookID)

	book, ch, err := w.loadTarget(ctx, req)
	if err != nil {
		return nil, err
	}

	transcript := BuildTranscript(req.Messages)
	outline := w.planOutline(ctx, book, ch, transcript)
	if sink.Cancelled() {
		return nil, stream.ErrCancelled
	}

	total := len(outline)
	if err := stream.Emit(sink, stream.EventOutline, stream.OutlinePayload{Pages: outline, TotalPages: total}); err != nil {
		return nil, err
	}

	done := stream.NewDonePayload()
	texts := make([]string, 0, total)
	previous := ""
	for i, p := range outline {
		if err := stream.Emit(sink, stream.EventPageStart, stream.PageStartPayload{Index: i, TotalPages: total, Title: p.Title}); err != nil {
			return nil, err
		}

		body, err := w.draftPage(ctx, sink, i, total, p, book, ch, transcript, previous)
		if errors.Is(err, stream.ErrCancelled) {
			return nil, err
		}

		var pageID string
		if err == nil {
			pageID, err = w.persister.Persist(ctx, page.Draft{
				Book:      book,
				Chapter:   ch,
				Title:     p.Title,
				KeyPoints: p.KeyPoints,
				Markdown:  body,
				UserID:    req.UserID,
			})
		}
		if err != nil {
			metrics.PagesGeneratedTotal.WithLabelValues("failed").Inc()
			logger.Warn(ctx, "chapter page failed", "index", i, "chapter_id", ch.ID, "error", err.Error())
			msg := pageErrorMessage(err)
			if emitErr := stream.Emit(sink, stream.EventPageError, stream.PageErrorPayload{Index: i, Title: p.Title, Message: msg}); emitErr != nil {
				return nil, emitErr
			}
			done.PageError = msg
			break
		}

		metrics.PagesGeneratedTotal.WithLabelValues("persisted").Inc()
		done.CreatedPageIDs = append(done.CreatedPageIDs, pageID)
		texts = append(texts, body)
		previous = body
		if err := stream.Emit(sink, stream.EventPageDone, stream.PageDonePayload{Index: i, Title: p.Title, PageID: pageID}); err != nil {
			return nil, err
		}
	}

	done.Text = strings.Join(texts, "\n\n")
	return done, nil
}

// loadTarget 书籍存在且请求者为 owner 或协作者，章节属于该书
func (w *Writer) loadTarget(ctx context.Context, req Request) (*entity.Book, *entity.Chapter, error) {
	book, err := w.books.GetByID(ctx, req.BookID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, apperrors.ErrBookNotFound
	}
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "load book")
	}

	if !book.IsOwner(req.UserID) {
		member, err := w.books.IsMember(ctx, book.ID, req.UserID)
		if err != nil {
			return nil, nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "check book membership")
		}
		if !member {
			return nil, nil, apperrors.ErrForbidden.WithDetail("not a member of this book")
		}
	}

	ch, err := w.chapters.GetByID(ctx, req.ChapterID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && ch.BookID != book.ID) {
		return nil, nil, apperrors.ErrChapterNotFound
	}
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "load chapter")
	}
	return book, ch, nil
}

// draftPage 每段增量先发 page_chunk 再发 chunk；没有增量时使用流的完整文本
func (w *Writer) draftPage(
	ctx context.Context,
	sink stream.Sink,
	index, total int,
	p stream.OutlinePage,
	book *entity.Book,
	ch *entity.Chapter,
	transcript, previous string,
) (string, error) {
	ctx = service.WithWorkflow(ctx, service.WorkflowPageDraft)

	msgs, err := w.prompts.Render(ctx, prompt.PromptPageDraftV1, map[string]any{
		"book_title":    book.Title,
		"chapter_title": ch.Title,
		"page_number":   index + 1,
		"total_pages":   total,
		"page_title":    p.Title,
		"page_summary":  p.Summary,
		"key_points":    formatKeyPoints(p.KeyPoints),
		"previous_tail": node.TailByRunes(previous, previousTailRunes),
		"transcript":    transcript,
	})
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInternalError, "render page prompt")
	}

	ts, err := w.gen.Stream(ctx, msgs)
	if sink.Cancelled() {
		if ts != nil {
			ts.Close()
		}
		return "", stream.ErrCancelled
	}
	if err != nil {
		return "", err
	}
	defer ts.Close()

	var sb strings.Builder
	for {
		chunk, err := ts.Recv()
		if sink.Cancelled() {
			return "", stream.ErrCancelled
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if chunk == "" {
			continue
		}
		if err := stream.Emit(sink, stream.EventPageChunk, stream.PageChunkPayload{Index: index, Text: chunk}); err != nil {
			return "", err
		}
		if err := stream.Emit(sink, stream.EventChunk, stream.ChunkPayload{Text: chunk}); err != nil {
			return "", err
		}
		sb.WriteString(chunk)
	}

	body := sb.String()
	if body == "" {
		body = ts.Text()
	}
	if strings.TrimSpace(body) == "" {
		return "", apperrors.New(apperrors.CodeGenerationFailed, "page generation returned no text")
	}
	return body, nil
}

func formatKeyPoints(points []string) string {
	if len(points) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for i, p := range points {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("- ")
		sb.WriteString(p)
	}
	return sb.String()
}

func pageErrorMessage(err error) string {
	if apperrors.IsAppError(err) {
		return apperrors.AsAppError(err).PublicMessage()
	}
	return "page generation failed"
}
