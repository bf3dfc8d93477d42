// Package porttest 提供 TextGenerator 的脚本化实现，供服务层测试使用
package porttest

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cloudwego/eino/schema"

	"z-novel-assistant/internal/workflow/port"
)

// Stream 按顺序吐出 Chunks，之后返回 Err（为空时 io.EOF）
type Stream struct {
	Chunks []string
	Err    error
	Full   string

	i      int
	closed atomic.Bool
}

// NewStream 由若干增量构造流
func NewStream(chunks ...string) *Stream {
	return &Stream{Chunks: chunks}
}

func (s *Stream) Recv() (string, error) {
	if s.i < len(s.Chunks) {
		c := s.Chunks[s.i]
		s.i++
		return c, nil
	}
	if s.Err != nil {
		return "", s.Err
	}
	return "", io.EOF
}

func (s *Stream) Text() string { return s.Full }

func (s *Stream) Close() { s.closed.Store(true) }

// Closed 是否已被调用方关闭
func (s *Stream) Closed() bool { return s.closed.Load() }

// Generator 以回调决定每次调用的返回值，并记录收到的提示词
type Generator struct {
	GenerateFunc func(msgs []*schema.Message) (string, error)
	StreamFunc   func(msgs []*schema.Message) (*Stream, error)

	mu            sync.Mutex
	generateCalls int
	streams       []*Stream
	prompts       [][]*schema.Message
}

var _ port.TextGenerator = (*Generator)(nil)

func (g *Generator) Generate(_ context.Context, msgs []*schema.Message) (string, error) {
	g.mu.Lock()
	g.generateCalls++
	g.prompts = append(g.prompts, msgs)
	g.mu.Unlock()

	if g.GenerateFunc == nil {
		return "", nil
	}
	return g.GenerateFunc(msgs)
}

func (g *Generator) Stream(_ context.Context, msgs []*schema.Message) (port.TextStream, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, msgs)
	g.mu.Unlock()

	if g.StreamFunc == nil {
		return NewStream(), nil
	}
	s, err := g.StreamFunc(msgs)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.streams = append(g.streams, s)
	g.mu.Unlock()
	return s, nil
}

// GenerateCalls Generate 调用次数
func (g *Generator) GenerateCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.generateCalls
}

// Streams 已发出的流
func (g *Generator) Streams() []*Stream {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Stream(nil), g.streams...)
}

// Calls 所有调用的总次数
func (g *Generator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

// UserText 提示词中最后一条用户消息
func UserText(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == schema.User {
			return msgs[i].Content
		}
	}
	return ""
}

// SystemText 提示词中的系统消息
func SystemText(msgs []*schema.Message) string {
	var sb strings.Builder
	for _, m := range msgs {
		if m.Role == schema.System {
			sb.WriteString(m.Content)
		}
	}
	return sb.String()
}
