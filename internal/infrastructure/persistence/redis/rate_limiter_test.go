package redis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// windowScripter 在内存中按脚本语义执行滑动窗口，整个调用持锁，等价于 Redis 单线程执行脚本
type windowScripter struct {
	redis.Scripter

	mu    sync.Mutex
	zsets map[string][]int64
	calls atomic.Int32
	err   error
}

func (s *windowScripter) EvalSha(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return s.eval(keys, args)
}

func (s *windowScripter) Eval(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return s.eval(keys, args)
}

func (s *windowScripter) eval(keys []string, args []interface{}) *redis.Cmd {
	s.calls.Add(1)
	if s.err != nil {
		return redis.NewCmdResult(nil, s.err)
	}

	now := args[0].(int64)
	windowStart := args[1].(int64)
	limit := int64(args[2].(int))
	n := int64(args[3].(int))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.zsets == nil {
		s.zsets = map[string][]int64{}
	}
	kept := s.zsets[keys[0]][:0]
	for _, score := range s.zsets[keys[0]] {
		if score > windowStart {
			kept = append(kept, score)
		}
	}
	count := int64(len(kept))
	if count+n > limit {
		s.zsets[keys[0]] = kept
		return redis.NewCmdResult([]interface{}{int64(0), count}, nil)
	}
	for i := int64(0); i < n; i++ {
		kept = append(kept, now)
	}
	s.zsets[keys[0]] = kept
	return redis.NewCmdResult([]interface{}{int64(1), count + n}, nil)
}

func TestRateLimiter_AllowN(t *testing.T) {
	fake := &windowScripter{}
	clock := time.UnixMilli(1_000_000)
	l := &RateLimiter{rdb: fake, now: func() time.Time { return clock }}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.AllowN(ctx, "usage:u1", 3, 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}
	ok, err := l.AllowN(ctx, "usage:u1", 3, 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.AllowN(ctx, "usage:u2", 3, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	clock = clock.Add(time.Minute + time.Millisecond)
	ok, err = l.AllowN(ctx, "usage:u1", 3, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, int32(6), fake.calls.Load())
}

func TestRateLimiter_AllowN_ConcurrentNeverExceedsLimit(t *testing.T) {
	fake := &windowScripter{}
	l := &RateLimiter{rdb: fake, now: time.Now}

	const limit = 10
	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.AllowN(context.Background(), "usage:race", limit, 1, time.Hour)
			assert.NoError(t, err)
			if ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(limit), allowed.Load())
	assert.Equal(t, int32(50), fake.calls.Load())
}

func TestRateLimiter_AllowN_Error(t *testing.T) {
	l := &RateLimiter{rdb: &windowScripter{err: errors.New("connection refused")}, now: time.Now}

	ok, err := l.AllowN(context.Background(), "usage:u1", 3, 1, time.Minute)
	require.Error(t, err)
	assert.False(t, ok)
}
