package repository

import (
	"context"

	"z-novel-assistant/internal/domain/entity"
)

// ChapterRepository 章节仓储接口
type ChapterRepository interface {
	// GetByID 不存在时返回 ErrNotFound
	GetByID(ctx context.Context, id string) (*entity.Chapter, error)
}
