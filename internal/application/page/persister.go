package page

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"z-novel-assistant/internal/application/retrieval"
	"z-novel-assistant/internal/domain/entity"
	"z-novel-assistant/internal/domain/repository"
	apperrors "z-novel-assistant/pkg/errors"
	"z-novel-assistant/pkg/logger"
	"z-novel-assistant/pkg/metrics"
	"z-novel-assistant/pkg/tracer"
)

// DefaultMaxPerChapter 单章页面上限
const DefaultMaxPerChapter = 50

// QuotaReserver 页面配额
type QuotaReserver interface {
	Reserve(ctx context.Context, userID string, n int) error
	Release(ctx context.Context, userID string, n int) error
}

// PageIndexer 页面向量索引
type PageIndexer interface {
	Prepare(ctx context.Context, ref retrieval.PageRef, plainText string) (*retrieval.PreparedPage, error)
	Write(ctx context.Context, p *retrieval.PreparedPage) error
}

// Draft 一页待落库的草稿
type Draft struct {
	Book      *entity.Book
	Chapter   *entity.Chapter
	Title     string
	KeyPoints []string
	Markdown  string
	UserID    string
}

// Persister 页面落库：渲染 → 上限检查 → 预留配额 → 向量化 → 写库 → 写索引
// 预留之后的任一步失败都会归还配额
type Persister struct {
	pages         repository.PageRepository
	quota         QuotaReserver
	indexer       PageIndexer
	renderer      *Renderer
	maxPerChapter int
}

// NewPersister indexer 可为 nil，此时不写向量索引
func NewPersister(pages repository.PageRepository, quota QuotaReserver, indexer PageIndexer, maxPerChapter int) *Persister {
	if maxPerChapter <= 0 {
		maxPerChapter = DefaultMaxPerChapter
	}
	return &Persister{
		pages:         pages,
		quota:         quota,
		indexer:       indexer,
		renderer:      NewRenderer(),
		maxPerChapter: maxPerChapter,
	}
}

// Persist 返回新页面 ID
func (p *Persister) Persist(ctx context.Context, d Draft) (id string, err error) {
	ctx, span := tracer.Start(ctx, "page.Persister.Persist")
	defer func() { tracer.End(span, err) }()

	if d.Book == nil || d.Chapter == nil {
		return "", apperrors.ErrInvalidParam.WithDetail("book and chapter are required")
	}

	htmlBody, err := p.renderer.HTML(d.Markdown)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeGenerationFailed, "render page markdown")
	}
	plain := p.renderer.PlainText(htmlBody)
	if plain == "" {
		return "", apperrors.New(apperrors.CodeGenerationFailed, "page body is empty")
	}

	count, err := p.pages.CountByChapter(ctx, d.Chapter.ID)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeDatabaseError, "count chapter pages")
	}
	if count >= int64(p.maxPerChapter) {
		return "", apperrors.ErrPageLimitReached
	}

	if err := p.quota.Reserve(ctx, d.UserID, 1); err != nil {
		return "", err
	}
	defer func() {
		if err == nil {
			return
		}
		if rerr := p.quota.Release(ctx, d.UserID, 1); rerr != nil {
			logger.Error(ctx, "release page quota failed", rerr, "user_id", d.UserID)
			return
		}
		metrics.QuotaCompensationsTotal.Inc()
	}()

	pageID := uuid.NewString()
	ref := retrieval.PageRef{
		OwnerID:   d.Book.OwnerID,
		BookID:    d.Book.ID,
		ChapterID: d.Chapter.ID,
		PageID:    pageID,
		Title:     d.Title,
	}

	var prepared *retrieval.PreparedPage
	if p.indexer != nil {
		prepared, err = p.indexer.Prepare(ctx, ref, plain)
		switch {
		case errors.Is(err, retrieval.ErrVectorDisabled):
			prepared, err = nil, nil
		case err != nil:
			return "", apperrors.ErrEmbeddingFailed.WithError(err)
		}
	}

	last, err := p.pages.LastOrderKey(ctx, d.Chapter.ID)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeDatabaseError, "load last order key")
	}
	orderKey, err := Midpoint(last, "")
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInternalError, "compute order key")
	}

	row := &entity.Page{
		ID:              pageID,
		BookID:          d.Book.ID,
		ChapterID:       d.Chapter.ID,
		OrderKey:        orderKey,
		Title:           strings.TrimSpace(d.Title),
		KeyPoints:       append([]string{}, d.KeyPoints...),
		ContentMarkdown: d.Markdown,
		ContentHTML:     htmlBody,
		PlainText:       plain,
		WordCount:       WordCount(plain),
		CreatedBy:       d.UserID,
	}
	if err := p.pages.Create(ctx, row); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeDatabaseError, "create page")
	}

	if prepared != nil {
		if werr := p.indexer.Write(ctx, prepared); werr != nil {
			logger.Warn(ctx, "write page vectors failed", "page_id", pageID, "error", werr.Error())
		}
	}
	return pageID, nil
}
