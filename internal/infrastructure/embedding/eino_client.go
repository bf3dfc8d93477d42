// Package embedding 提供基于 Eino 的向量化客户端
package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"

	"z-novel-assistant/internal/config"
)

// NewEinoEmbedder 创建 OpenAI 兼容协议的 Embedder
func NewEinoEmbedder(ctx context.Context, cfg *config.EmbeddingConfig) (embedding.Embedder, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("embedding disabled")
	}
	if cfg.Endpoint == "" || cfg.Model == "" {
		return nil, fmt.Errorf("embedding endpoint and model are required")
	}

	ec := &openai.EmbeddingConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.Endpoint,
		Model:   cfg.Model,
		Timeout: 30 * time.Second,
	}
	if cfg.Dimension > 0 {
		dim := cfg.Dimension
		ec.Dimensions = &dim
	}

	embedder, err := openai.NewEmbedder(ctx, ec)
	if err != nil {
		return nil, fmt.Errorf("failed to create eino embedder: %w", err)
	}
	return embedder, nil
}
