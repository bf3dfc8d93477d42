package quota

import (
	"context"

	"z-novel-assistant/internal/domain/repository"
	apperrors "z-novel-assistant/pkg/errors"
)

// PageQuota 页面配额的预留与归还，读改写在同一事务内完成
type PageQuota struct {
	tx         repository.Transactor
	repo       repository.PageQuotaRepository
	defaultMax int
}

func NewPageQuota(tx repository.Transactor, repo repository.PageQuotaRepository, defaultMax int) *PageQuota {
	return &PageQuota{tx: tx, repo: repo, defaultMax: defaultMax}
}

// Reserve 预留 n 个单位；余量不足返回 ErrQuotaExceeded
func (q *PageQuota) Reserve(ctx context.Context, userID string, n int) error {
	return q.tx.WithTransaction(ctx, func(ctx context.Context) error {
		cur, err := q.repo.GetForUpdate(ctx, userID, q.defaultMax)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "load page quota")
		}
		if cur.Remaining() < n {
			return apperrors.ErrQuotaExceeded
		}
		if err := q.repo.AddUsed(ctx, userID, n); err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "reserve page quota")
		}
		return nil
	})
}

// Release 归还此前预留的 n 个单位
func (q *PageQuota) Release(ctx context.Context, userID string, n int) error {
	return q.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := q.repo.AddUsed(ctx, userID, -n); err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "release page quota")
		}
		return nil
	})
}
