package repository

import (
	"context"

	"z-novel-assistant/internal/domain/entity"
)

// PageRepository 页面仓储接口
type PageRepository interface {
	// Create 写入新页面
	Create(ctx context.Context, page *entity.Page) error

	// CountByChapter 章节下的页面数
	CountByChapter(ctx context.Context, chapterID string) (int64, error)

	// LastOrderKey 章节内最大的排序键，章节为空时返回 ""
	LastOrderKey(ctx context.Context, chapterID string) (string, error)
}
