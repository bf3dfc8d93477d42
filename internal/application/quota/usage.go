// Package quota 提供用量账本与页面配额
package quota

import (
	"context"
	"fmt"
	"time"

	apperrors "z-novel-assistant/pkg/errors"
	"z-novel-assistant/pkg/metrics"
)

// Limiter 滑动窗口计数
type Limiter interface {
	AllowN(ctx context.Context, key string, limit, n int, window time.Duration) (bool, error)
}

// UsageLedger 按用户计量助手请求，窗口内超过 limit 即拒绝
type UsageLedger struct {
	limiter Limiter
	limit   int
	window  time.Duration
}

func NewUsageLedger(limiter Limiter, limit int, window time.Duration) *UsageLedger {
	return &UsageLedger{limiter: limiter, limit: limit, window: window}
}

// UsageKey 用户的账本键
func UsageKey(userID string) string {
	return fmt.Sprintf("usage:assistant:%s", userID)
}

// Consume 扣减一次用量；用尽返回 ErrUsageExhausted，账本不可用返回 CodeCacheError
func (l *UsageLedger) Consume(ctx context.Context, userID string) error {
	ok, err := l.limiter.AllowN(ctx, UsageKey(userID), l.limit, 1, l.window)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeCacheError, "usage ledger unavailable")
	}
	if !ok {
		metrics.UsageRejectedTotal.Inc()
		return apperrors.ErrUsageExhausted
	}
	return nil
}
