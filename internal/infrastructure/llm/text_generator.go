package llm

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/cloudwego/eino/schema"

	"z-novel-assistant/internal/domain/service"
	"z-novel-assistant/internal/workflow/port"
	apperrors "z-novel-assistant/pkg/errors"
)

// TextGenerator 基于 ChatModel 的文本生成适配器
type TextGenerator struct {
	factory  port.ChatModelFactory
	provider string
}

var _ port.TextGenerator = (*TextGenerator)(nil)

// NewTextGenerator 创建文本生成器，provider 为空时使用工厂默认值
func NewTextGenerator(factory port.ChatModelFactory, provider string) *TextGenerator {
	return &TextGenerator{factory: factory, provider: provider}
}

// Generate 一次性生成
func (g *TextGenerator) Generate(ctx context.Context, msgs []*schema.Message) (string, error) {
	ctx = service.WithProvider(ctx, g.providerLabel())
	m, err := g.factory.Get(ctx, g.provider)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeLLMUnavailable, "chat model unavailable")
	}

	out, err := m.Generate(ctx, msgs)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeLLMUnavailable, "generate failed")
	}
	if out == nil {
		return "", nil
	}
	return out.Content, nil
}

// Stream 流式生成
func (g *TextGenerator) Stream(ctx context.Context, msgs []*schema.Message) (port.TextStream, error) {
	ctx = service.WithProvider(ctx, g.providerLabel())
	m, err := g.factory.Get(ctx, g.provider)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeLLMUnavailable, "chat model unavailable")
	}

	sr, err := m.Stream(ctx, msgs)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeLLMStreamFailed, "open stream failed")
	}
	return &textStream{sr: sr}, nil
}

func (g *TextGenerator) providerLabel() string {
	if g.provider != "" {
		return g.provider
	}
	if f, ok := g.factory.(interface{ DefaultProvider() string }); ok {
		return f.DefaultProvider()
	}
	return ""
}

// textStream 将 eino 消息流转换为增量文本
type textStream struct {
	sr   *schema.StreamReader[*schema.Message]
	full strings.Builder
}

func (s *textStream) Recv() (string, error) {
	for {
		msg, err := s.sr.Recv()
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if err != nil {
			return "", apperrors.Wrap(err, apperrors.CodeLLMStreamFailed, "stream recv failed")
		}
		if msg == nil || msg.Content == "" {
			continue
		}
		s.full.WriteString(msg.Content)
		return msg.Content, nil
	}
}

func (s *textStream) Text() string {
	return s.full.String()
}

func (s *textStream) Close() {
	s.sr.Close()
}
