// Package sse 将 gin 响应包装为服务端事件流
package sse

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	ginsse "github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

// readyFrame 首帧注释，促使代理立即转发响应头
const readyFrame = ": ready\n\n"

var errNotStarted = errors.New("sse session not started")

// Session 单个请求的事件流。
// 写出串行化；连接关闭或写失败后 Cancelled 恒为 true
type Session struct {
	c *gin.Context

	mu      sync.Mutex
	started bool
	closed  atomic.Bool

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSession 创建事件流，Begin 之前不写出任何内容
func NewSession(c *gin.Context) *Session {
	return &Session{
		c:    c,
		stop: make(chan struct{}),
	}
}

// Begin 写出响应头与就绪帧，并开始监听客户端断开
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.started = true

	h := s.c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.c.Status(http.StatusOK)

	s.wg.Add(1)
	go s.watch(s.c.Request.Context().Done())

	if _, err := io.WriteString(s.c.Writer, readyFrame); err != nil {
		s.closed.Store(true)
		return err
	}
	s.c.Writer.Flush()
	return nil
}

func (s *Session) watch(done <-chan struct{}) {
	defer s.wg.Done()
	select {
	case <-done:
		s.closed.Store(true)
	case <-s.stop:
	}
}

// Send 写出一帧，载荷编码为 JSON
func (s *Session) Send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return errNotStarted
	}
	if s.closed.Load() {
		return io.ErrClosedPipe
	}
	if err := ginsse.Encode(s.c.Writer, ginsse.Event{Event: event, Data: string(data)}); err != nil {
		s.closed.Store(true)
		return err
	}
	s.c.Writer.Flush()
	return nil
}

// Cancelled 客户端是否已断开
func (s *Session) Cancelled() bool {
	return s.closed.Load()
}

// Finish 停止监听并等待监听协程退出，可重复调用
func (s *Session) Finish() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
}
