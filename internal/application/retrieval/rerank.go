package retrieval

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"z-novel-assistant/internal/domain/service"
	"z-novel-assistant/internal/workflow/node"
	"z-novel-assistant/internal/workflow/port"
	"z-novel-assistant/internal/workflow/prompt"
	"z-novel-assistant/pkg/logger"
	"z-novel-assistant/pkg/metrics"
)

const (
	// RelevanceThreshold 只保留分数严格大于该值的文档
	RelevanceThreshold = 3.0

	// MaxContextDocs 当前策略最多保留一篇
	MaxContextDocs = 1

	maxPassageRunes = 1500
)

var scorePattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// Reranker 逐个候选调用模型打分（0-10）
type Reranker struct {
	gen         port.TextGenerator
	prompts     *prompt.Registry
	concurrency int
}

// NewReranker concurrency<=1 时严格串行
func NewReranker(gen port.TextGenerator, prompts *prompt.Registry, concurrency int) *Reranker {
	return &Reranker{gen: gen, prompts: prompts, concurrency: max(concurrency, 1)}
}

// Rerank 对每个候选单独打分，返回不超过 MaxContextDocs 篇且分数大于阈值的文档
// cancelled 在每次打分返回后轮询；取消后返回空集
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []Document, cancelled func() bool) []Document {
	if len(candidates) == 0 {
		return nil
	}
	ctx = service.WithWorkflow(ctx, service.WorkflowRerank)

	scores := make([]float64, len(candidates))
	scored := make([]bool, len(candidates))
	var aborted atomic.Bool

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i := range candidates {
		g.Go(func() error {
			if aborted.Load() {
				return nil
			}
			s, ok := r.score(ctx, query, candidates[i])
			if cancelled != nil && cancelled() {
				aborted.Store(true)
				return nil
			}
			scores[i], scored[i] = s, ok
			return nil
		})
	}
	_ = g.Wait()
	if aborted.Load() {
		return nil
	}

	ranked := make([]Document, 0, len(candidates))
	for i, d := range candidates {
		if !scored[i] {
			metrics.RerankDecisionsTotal.WithLabelValues("unscored").Inc()
			continue
		}
		d.Score = scores[i]
		ranked = append(ranked, d)
	}
	return SelectTop(ranked)
}

// SelectTop 按分数降序，保留前 MaxContextDocs 篇中分数大于阈值的文档
func SelectTop(docs []Document) []Document {
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Score > docs[j].Score })

	kept := make([]Document, 0, MaxContextDocs)
	for i, d := range docs {
		if i < MaxContextDocs && d.Score > RelevanceThreshold {
			kept = append(kept, d)
			metrics.RerankDecisionsTotal.WithLabelValues("kept").Inc()
			continue
		}
		metrics.RerankDecisionsTotal.WithLabelValues("dropped").Inc()
	}
	return kept
}

func (r *Reranker) score(ctx context.Context, query string, d Document) (float64, bool) {
	msgs, err := r.prompts.Render(ctx, prompt.PromptRerankScoreV1, map[string]any{
		"query":   query,
		"passage": node.TruncateByRunes(d.Text, maxPassageRunes),
	})
	if err != nil {
		logger.Warn(ctx, "render rerank prompt failed", "error", err.Error())
		return 0, false
	}
	out, err := r.gen.Generate(ctx, msgs)
	if err != nil {
		logger.Warn(ctx, "rerank scoring call failed", "doc_id", d.ID, "error", err.Error())
		return 0, false
	}
	return ParseScore(out)
}

// ParseScore 取模型输出中的第一个数字，不在 [0,10] 内视为无效
func ParseScore(s string) (float64, bool) {
	m := scorePattern.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || v < 0 || v > 10 {
		return 0, false
	}
	return v, true
}
