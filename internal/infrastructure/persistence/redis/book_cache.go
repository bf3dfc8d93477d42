package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"z-novel-assistant/internal/domain/entity"
	"z-novel-assistant/internal/domain/repository"
)

// DefaultBookCacheTTL 书籍元数据缓存时长
const DefaultBookCacheTTL = 5 * time.Minute

type readThrough interface {
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func() (any, error)) ([]byte, error)
}

// CachedBookRepository 缓存 GetByID；成员关系每次直查
type CachedBookRepository struct {
	next  repository.BookRepository
	cache readThrough
	ttl   time.Duration
}

func NewCachedBookRepository(next repository.BookRepository, cache *Cache) *CachedBookRepository {
	return &CachedBookRepository{next: next, cache: cache, ttl: DefaultBookCacheTTL}
}

func bookKey(id string) string {
	return fmt.Sprintf("book:%s", id)
}

// GetByID 不存在的书籍不缓存
func (r *CachedBookRepository) GetByID(ctx context.Context, id string) (*entity.Book, error) {
	raw, err := r.cache.GetOrLoad(ctx, bookKey(id), r.ttl, func() (any, error) {
		return r.next.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	var book entity.Book
	if err := json.Unmarshal(raw, &book); err != nil {
		return nil, fmt.Errorf("failed to decode cached book: %w", err)
	}
	return &book, nil
}

func (r *CachedBookRepository) IsMember(ctx context.Context, bookID, userID string) (bool, error) {
	return r.next.IsMember(ctx, bookID, userID)
}
