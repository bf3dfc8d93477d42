package repository

import (
	"context"

	"z-novel-assistant/internal/domain/entity"
)

// PageQuotaRepository 页面配额仓储接口
// 读改写必须在 Transactor 开启的事务内进行
type PageQuotaRepository interface {
	// GetForUpdate 加行锁读取配额，不存在时按 defaultMax 创建
	GetForUpdate(ctx context.Context, userID string, defaultMax int) (*entity.PageQuota, error)

	// AddUsed 调整已用量，结果不小于 0
	AddUsed(ctx context.Context, userID string, delta int) error
}
