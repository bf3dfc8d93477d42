package port

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// TextGenerator 文本生成能力：一次性生成与流式生成
type TextGenerator interface {
	Generate(ctx context.Context, msgs []*schema.Message) (string, error)
	Stream(ctx context.Context, msgs []*schema.Message) (TextStream, error)
}

// TextStream 增量文本序列，调用方负责 Close
type TextStream interface {
	// Recv 返回下一段增量文本，结束时返回 io.EOF
	Recv() (string, error)

	// Text 上游报告的完整文本，可能为空
	Text() string

	Close()
}
