package retrieval

// Document 召回并打分后的候选文档，仅在单次请求内存活
type Document struct {
	ID        string
	OwnerID   string
	Text      string
	Score     float64 // 重排分数 [0,10]
	SourceRef string
}

// ContextResult 注入回答提示词的检索结果
type ContextResult struct {
	ContextText string
	Sources     []Document

	// DisabledReason 降级原因，正常时为空
	DisabledReason string
}

// Empty 无可用上下文
func (r *ContextResult) Empty() bool {
	return r == nil || len(r.Sources) == 0
}
