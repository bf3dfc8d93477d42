// Package retrieval 提供按 owner 隔离的向量召回、LLM 重排与页面索引
package retrieval

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/components/embedding"

	"z-novel-assistant/pkg/logger"
	"z-novel-assistant/pkg/metrics"
	"z-novel-assistant/pkg/tracer"
)

const (
	defaultTopK = 8
	maxTopK     = 50
)

// Engine 召回 + 重排
type Engine struct {
	embedder embedding.Embedder
	vector   VectorRepository
	reranker *Reranker
	topK     int
}

// NewEngine embedder 或 vectorRepo 为 nil 时检索降级为空结果
func NewEngine(embedder embedding.Embedder, vectorRepo VectorRepository, reranker *Reranker, topK int) *Engine {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Engine{
		embedder: embedder,
		vector:   vectorRepo,
		reranker: reranker,
		topK:     min(topK, maxTopK),
	}
}

// Enabled 向量检索是否可用
func (e *Engine) Enabled() bool {
	return e != nil && e.embedder != nil && e.vector != nil
}

// Retrieve 召回 owner 的候选并重排；任何检索失败都降级为空上下文
func (e *Engine) Retrieve(ctx context.Context, ownerID, query string, cancelled func() bool) *ContextResult {
	ctx, span := tracer.Start(ctx, "retrieval.Engine.Retrieve")
	defer span.End()

	out := &ContextResult{Sources: []Document{}}

	candidates, err := e.Candidates(ctx, ownerID, query)
	if err != nil {
		reason := "search_failed"
		if errors.Is(err, ErrVectorDisabled) {
			reason = "disabled"
		}
		metrics.RetrievalDegradedTotal.WithLabelValues(reason).Inc()
		logger.Warn(ctx, "retrieval degraded to empty context", "error", err.Error())
		out.DisabledReason = err.Error()
		return out
	}
	metrics.RetrievalCandidates.Observe(float64(len(candidates)))
	if len(candidates) == 0 || (cancelled != nil && cancelled()) {
		return out
	}

	kept := e.reranker.Rerank(ctx, query, candidates, cancelled)
	if len(kept) == 0 {
		return out
	}
	out.Sources = kept
	out.ContextText = BuildContextText(kept)
	return out
}

// Candidates 只返回属于 ownerID 的命中
func (e *Engine) Candidates(ctx context.Context, ownerID, query string) ([]Document, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	if !e.Enabled() {
		return nil, ErrVectorDisabled
	}
	if err := e.vector.EnsureCollection(ctx); err != nil {
		return nil, err
	}

	vec, err := e.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := e.vector.Search(ctx, &VectorSearchParams{
		OwnerID:     ownerID,
		QueryVector: vec,
		TopK:        e.topK,
	})
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		if r.OwnerID != ownerID {
			logger.Error(ctx, "vector search returned foreign owner document", nil,
				"doc_id", r.ID, "doc_owner", r.OwnerID)
			continue
		}
		meta, text := decodeSegmentText(r.TextContent)
		if text == "" {
			continue
		}
		docs = append(docs, Document{
			ID:        strings.TrimSpace(r.ID),
			OwnerID:   r.OwnerID,
			Text:      text,
			SourceRef: meta.SourceRef(),
		})
	}
	return docs, nil
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, errors.New("query is empty")
	}
	vecs, err := embedBatch(ctx, e.embedder, []string{q}, 1)
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, errors.New("empty embedding result")
	}
	return vecs[0], nil
}

// embedBatch 分批调用 embedder 并转换为 float32
func embedBatch(ctx context.Context, embedder embedding.Embedder, texts []string, batchSize int) ([][]float32, error) {
	if embedder == nil {
		return nil, ErrVectorDisabled
	}
	batchSize = max(batchSize, 1)

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		v64, err := embedder.EmbedStrings(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		for _, vec := range v64 {
			f32 := make([]float32, len(vec))
			for i, x := range vec {
				f32[i] = float32(x)
			}
			out = append(out, f32)
		}
	}
	return out, nil
}
