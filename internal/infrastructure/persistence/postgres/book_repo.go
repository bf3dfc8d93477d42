package postgres

import (
	"context"
	"fmt"

	"z-novel-assistant/internal/domain/entity"
)

// BookRepository 书籍仓储实现
type BookRepository struct {
	client *Client
}

// NewBookRepository 创建书籍仓储
func NewBookRepository(client *Client) *BookRepository {
	return &BookRepository{client: client}
}

// GetByID 根据 ID 获取书籍
func (r *BookRepository) GetByID(ctx context.Context, id string) (*entity.Book, error) {
	ctx, span := tracer.Start(ctx, "postgres.BookRepository.GetByID")
	defer span.End()

	var book entity.Book
	if err := getDB(ctx, r.client.db).First(&book, "id = ?", id).Error; err != nil {
		err = notFound(err)
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return &book, nil
}

// IsMember 是否为书籍协作者
func (r *BookRepository) IsMember(ctx context.Context, bookID, userID string) (bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.BookRepository.IsMember")
	defer span.End()

	var n int64
	err := getDB(ctx, r.client.db).Model(&entity.BookMember{}).
		Where("book_id = ? AND user_id = ?", bookID, userID).
		Count(&n).Error
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return n > 0, nil
}
