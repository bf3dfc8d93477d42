// Package chat 实现检索增强的流式问答
package chat

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/cloudwego/eino/schema"

	"z-novel-assistant/internal/application/retrieval"
	"z-novel-assistant/internal/application/stream"
	"z-novel-assistant/internal/domain/entity"
	"z-novel-assistant/internal/domain/service"
	"z-novel-assistant/internal/workflow/port"
	"z-novel-assistant/internal/workflow/prompt"
	apperrors "z-novel-assistant/pkg/errors"
	"z-novel-assistant/pkg/tracer"
)

// Retriever 检索重排能力
type Retriever interface {
	Retrieve(ctx context.Context, ownerID, query string, cancelled func() bool) *retrieval.ContextResult
}

// Request RAG 问答输入
type Request struct {
	Messages     []entity.Message
	UserID       string
	UseRetrieval bool
}

// Service RAG 问答服务
type Service struct {
	gen         port.TextGenerator
	retriever   Retriever
	prompts     *prompt.Registry
	answerChars int
}

// NewService answerChars<=0 时使用 DefaultAnswerChars
func NewService(gen port.TextGenerator, retriever Retriever, prompts *prompt.Registry, answerChars int) *Service {
	if answerChars <= 0 {
		answerChars = DefaultAnswerChars
	}
	return &Service{gen: gen, retriever: retriever, prompts: prompts, answerChars: answerChars}
}

// ValidateMessages 消息非空且最后一条来自用户
func ValidateMessages(msgs []entity.Message) error {
	if len(msgs) == 0 {
		return apperrors.ErrInvalidParam.WithDetail("messages must not be empty")
	}
	if !entity.LastUserAnchored(msgs) {
		return apperrors.ErrInvalidParam.WithDetail("last message must be from the user")
	}
	return nil
}

// Stream 检索（可选）→ 流式回答 → 动作分类
// 连接关闭时返回 stream.ErrCancelled，调用方不应再发送终止事件
func (s *Service) Stream(ctx context.Context, sink stream.Sink, req Request) (*stream.DonePayload, error) {
	if err := ValidateMessages(req.Messages); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "chat.Service.Stream")
	defer span.End()

	query := req.Messages[len(req.Messages)-1].Content
	done := stream.NewDonePayload()

	contextText := ""
	if req.UseRetrieval && s.retriever != nil {
		res := s.retriever.Retrieve(ctx, req.UserID, query, sink.Cancelled)
		if sink.Cancelled() {
			return nil, stream.ErrCancelled
		}
		contextText = res.ContextText
		for _, d := range res.Sources {
			done.Sources = append(done.Sources, stream.Source{ID: d.ID, SourceRef: d.SourceRef, Score: d.Score})
		}
	}

	msgs, err := s.prompts.Render(ctx, prompt.PromptRAGAnswerV1, map[string]any{
		"query":           query,
		"context_text":    contextText,
		prompt.HistoryKey: BuildHistory(req.Messages),
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "render answer prompt")
	}

	answer, err := s.streamText(service.WithWorkflow(ctx, service.WorkflowRAGAnswer), sink, msgs)
	if err != nil {
		return nil, err
	}
	done.Text = answer

	done.ActionPrompt, done.Actions = s.classify(ctx, query, answer)
	if sink.Cancelled() {
		return nil, stream.ErrCancelled
	}
	return done, nil
}

// Surprise 一次性的灵感流，不检索、不分类
func (s *Service) Surprise(ctx context.Context, sink stream.Sink, msgs []entity.Message) (*stream.DonePayload, error) {
	if err := ValidateMessages(msgs); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "chat.Service.Surprise")
	defer span.End()

	rendered, err := s.prompts.Render(ctx, prompt.PromptSurpriseV1, map[string]any{
		"query": msgs[len(msgs)-1].Content,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "render surprise prompt")
	}

	text, err := s.streamText(service.WithWorkflow(ctx, service.WorkflowSurprise), sink, rendered)
	if err != nil {
		return nil, err
	}
	done := stream.NewDonePayload()
	done.Text = text
	return done, nil
}

// streamText 逐段转发 chunk 事件；每次 Recv 返回后检查取消
func (s *Service) streamText(ctx context.Context, sink stream.Sink, msgs []*schema.Message) (string, error) {
	ts, err := s.gen.Stream(ctx, msgs)
	if sink.Cancelled() {
		if ts != nil {
			ts.Close()
		}
		return "", stream.ErrCancelled
	}
	if err != nil {
		return "", err
	}
	defer ts.Close()

	var sb strings.Builder
	for {
		chunk, err := ts.Recv()
		if sink.Cancelled() {
			return "", stream.ErrCancelled
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if chunk == "" {
			continue
		}
		if err := stream.Emit(sink, stream.EventChunk, stream.ChunkPayload{Text: chunk}); err != nil {
			return "", err
		}
		sb.WriteString(chunk)
	}

	if sb.Len() == 0 {
		return ts.Text(), nil
	}
	return sb.String(), nil
}
