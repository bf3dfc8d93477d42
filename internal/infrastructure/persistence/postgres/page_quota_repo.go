package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"z-novel-assistant/internal/domain/entity"
)

// PageQuotaRepository 页面配额仓储实现
type PageQuotaRepository struct {
	client *Client
}

// NewPageQuotaRepository 创建页面配额仓储
func NewPageQuotaRepository(client *Client) *PageQuotaRepository {
	return &PageQuotaRepository{client: client}
}

// GetForUpdate 行锁读取；记录不存在时插入默认配额后再加锁读取
func (r *PageQuotaRepository) GetForUpdate(ctx context.Context, userID string, defaultMax int) (*entity.PageQuota, error) {
	ctx, span := tracer.Start(ctx, "postgres.PageQuotaRepository.GetForUpdate")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var q entity.PageQuota
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&q, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seed := &entity.PageQuota{UserID: userID, Max: defaultMax}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to create page quota: %w", err)
		}
		err = db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&q, "user_id = ?", userID).Error
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to lock page quota: %w", err)
	}
	return &q, nil
}

// AddUsed 调整已用量，不低于 0
func (r *PageQuotaRepository) AddUsed(ctx context.Context, userID string, delta int) error {
	ctx, span := tracer.Start(ctx, "postgres.PageQuotaRepository.AddUsed")
	defer span.End()

	err := getDB(ctx, r.client.db).Model(&entity.PageQuota{}).
		Where("user_id = ?", userID).
		Update("used", gorm.Expr("GREATEST(used + ?, 0)", delta)).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update page quota: %w", err)
	}
	return nil
}
