package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"z-novel-assistant/internal/domain/entity"
)

// PageRepository 页面仓储实现
type PageRepository struct {
	client *Client
}

// NewPageRepository 创建页面仓储
func NewPageRepository(client *Client) *PageRepository {
	return &PageRepository{client: client}
}

// Create 写入页面
func (r *PageRepository) Create(ctx context.Context, page *entity.Page) error {
	ctx, span := tracer.Start(ctx, "postgres.PageRepository.Create")
	defer span.End()

	if err := getDB(ctx, r.client.db).Create(page).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create page: %w", err)
	}
	return nil
}

// CountByChapter 章节页面数
func (r *PageRepository) CountByChapter(ctx context.Context, chapterID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.PageRepository.CountByChapter")
	defer span.End()

	var n int64
	if err := getDB(ctx, r.client.db).Model(&entity.Page{}).Where("chapter_id = ?", chapterID).Count(&n).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return n, nil
}

// LastOrderKey 章节内最大的排序键
func (r *PageRepository) LastOrderKey(ctx context.Context, chapterID string) (string, error) {
	ctx, span := tracer.Start(ctx, "postgres.PageRepository.LastOrderKey")
	defer span.End()

	var page entity.Page
	err := getDB(ctx, r.client.db).
		Select("order_key").
		Where("chapter_id = ?", chapterID).
		Order("order_key DESC").
		Take(&page).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to load last order key: %w", err)
	}
	return page.OrderKey, nil
}
