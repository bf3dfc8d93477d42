package repository

import (
	"context"

	"z-novel-assistant/internal/domain/entity"
)

// BookRepository 书籍仓储接口
type BookRepository interface {
	// GetByID 不存在时返回 ErrNotFound
	GetByID(ctx context.Context, id string) (*entity.Book, error)

	// IsMember 是否为书籍协作者（不含 owner）
	IsMember(ctx context.Context, bookID, userID string) (bool, error)
}
