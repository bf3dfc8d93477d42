// Package service 定义跨层共享的领域服务约定
package service

import (
	"context"
	"strings"
)

// 工作流标签，用于 LLM 指标与追踪
const (
	WorkflowRAGAnswer      = "rag_answer"
	WorkflowRerank         = "rerank_score"
	WorkflowActionClassify = "action_classify"
	WorkflowSurprise       = "surprise"
	WorkflowOutline        = "chapter_outline"
	WorkflowPageDraft      = "page_draft"
)

type llmCtxKey string

const (
	llmCtxKeyWorkflow llmCtxKey = "llm_workflow"
	llmCtxKeyProvider llmCtxKey = "llm_provider"
)

// WithWorkflow 标记当前模型调用所属工作流
func WithWorkflow(ctx context.Context, workflow string) context.Context {
	return withLabel(ctx, llmCtxKeyWorkflow, workflow)
}

// WithProvider 标记当前模型调用的 provider
func WithProvider(ctx context.Context, provider string) context.Context {
	return withLabel(ctx, llmCtxKeyProvider, provider)
}

// WorkflowFromContext 未设置时返回 unknown
func WorkflowFromContext(ctx context.Context) string {
	return labelFrom(ctx, llmCtxKeyWorkflow)
}

// ProviderFromContext 未设置时返回 unknown
func ProviderFromContext(ctx context.Context) string {
	return labelFrom(ctx, llmCtxKeyProvider)
}

func withLabel(ctx context.Context, key llmCtxKey, value string) context.Context {
	if ctx == nil {
		return nil
	}
	v := strings.TrimSpace(value)
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func labelFrom(ctx context.Context, key llmCtxKey) string {
	if ctx == nil {
		return "unknown"
	}
	s, ok := ctx.Value(key).(string)
	if !ok || s == "" {
		return "unknown"
	}
	return s
}
