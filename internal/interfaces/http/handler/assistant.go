// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"z-novel-assistant/internal/application/assistant"
	"z-novel-assistant/internal/application/chat"
	"z-novel-assistant/internal/application/story/chapter"
	"z-novel-assistant/internal/application/stream"
	"z-novel-assistant/internal/domain/entity"
	"z-novel-assistant/internal/interfaces/http/dto"
	"z-novel-assistant/internal/interfaces/http/middleware"
	"z-novel-assistant/internal/interfaces/http/sse"
	apperrors "z-novel-assistant/pkg/errors"
	"z-novel-assistant/pkg/logger"
	"z-novel-assistant/pkg/metrics"
)

// 终止结果标签
const (
	outcomeDone      = "done"
	outcomeCancelled = "cancelled"
	outcomeError     = "error"
)

// UsageLedger 请求级用量扣减
type UsageLedger interface {
	Consume(ctx context.Context, userID string) error
}

// ChatService 问答与随机灵感
type ChatService interface {
	Stream(ctx context.Context, sink stream.Sink, req chat.Request) (*stream.DonePayload, error)
	Surprise(ctx context.Context, sink stream.Sink, msgs []entity.Message) (*stream.DonePayload, error)
}

// ChapterService 章节写作
type ChapterService interface {
	Stream(ctx context.Context, sink stream.Sink, req chapter.Request) (*stream.DonePayload, error)
}

// AssistantHandler 流式助手入口
type AssistantHandler struct {
	ledger   UsageLedger
	chat     ChatService
	chapters ChapterService
}

// NewAssistantHandler 创建流式助手处理器
func NewAssistantHandler(ledger UsageLedger, chatSvc ChatService, chapters ChapterService) *AssistantHandler {
	return &AssistantHandler{
		ledger:   ledger,
		chat:     chatSvc,
		chapters: chapters,
	}
}

// Stream 流式助手
// @Summary 流式助手
// @Description 根据请求在问答、随机灵感与章节写作之间分派，通过 SSE 推送事件
// @Tags Assistant
// @Accept json
// @Produce text/event-stream
// @Param body body dto.AssistantStreamRequest true "请求体"
// @Success 200 "SSE stream"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /api/v1/assistant/stream [post]
func (h *AssistantHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := middleware.GetIdentity(c)
	if !ok {
		dto.AppError(c, apperrors.ErrUnauthorized)
		return
	}

	var req dto.AssistantStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	msgs, err := req.ToMessages()
	if err != nil {
		dto.AppError(c, err)
		return
	}
	if err := chat.ValidateMessages(msgs); err != nil {
		dto.AppError(c, err)
		return
	}

	if err := h.ledger.Consume(ctx, id.UID); err != nil {
		if !apperrors.HasCode(err, apperrors.CodeUsageExhausted) {
			logger.Error(ctx, "usage ledger unavailable", err)
		}
		dto.AppError(c, err)
		return
	}

	route := assistant.RouteSurprise
	if !req.IsSurprise {
		res := assistant.Resolve(req.Action, req.HasChapterContext())
		if res.Route == assistant.RouteError {
			dto.AppError(c, apperrors.ErrRouteInvalid.WithDetail(res.Error))
			return
		}
		route = res.Route
	}
	ctx = logger.WithContext(ctx, logger.RouteKey, string(route))

	session := sse.NewSession(c)
	defer session.Finish()
	if err := session.Begin(); err != nil {
		metrics.AssistantRequestsTotal.WithLabelValues(string(route), outcomeCancelled).Inc()
		return
	}
	start := time.Now()

	upstream := context.WithoutCancel(ctx)
	done, err := h.dispatch(upstream, session, route, req, msgs, id.UID)

	outcome := h.finalize(ctx, session, done, err)
	metrics.AssistantRequestsTotal.WithLabelValues(string(route), outcome).Inc()
	metrics.AssistantStreamDuration.WithLabelValues(string(route)).Observe(time.Since(start).Seconds())
	logger.Info(ctx, "assistant stream finished",
		"route", route,
		"outcome", outcome,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// dispatch 调用对应服务；服务内的 panic 转为错误
func (h *AssistantHandler) dispatch(
	ctx context.Context,
	sink stream.Sink,
	route assistant.Route,
	req dto.AssistantStreamRequest,
	msgs []entity.Message,
	userID string,
) (done *stream.DonePayload, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			done = nil
			err = fmt.Errorf("panic in %s route: %v", route, rec)
		}
	}()

	switch route {
	case assistant.RouteSurprise:
		return h.chat.Surprise(ctx, sink, msgs)
	case assistant.RouteChapter:
		return h.chapters.Stream(ctx, sink, chapter.Request{
			Messages:  msgs,
			UserID:    userID,
			BookID:    req.BookID,
			ChapterID: req.ChapterID,
		})
	default:
		return h.chat.Stream(ctx, sink, chat.Request{
			Messages:     msgs,
			UserID:       userID,
			UseRetrieval: assistant.UseRetrieval(req.Scope),
		})
	}
}

// finalize 写出唯一的终止帧；连接已关闭时不写
func (h *AssistantHandler) finalize(ctx context.Context, session *sse.Session, done *stream.DonePayload, err error) string {
	if errors.Is(err, stream.ErrCancelled) || session.Cancelled() {
		return outcomeCancelled
	}

	if err != nil {
		logger.Error(ctx, "assistant stream failed", err)
		if sendErr := session.Send(stream.EventError, stream.ErrorPayload{Message: streamErrorMessage(err)}); sendErr != nil {
			return outcomeCancelled
		}
		return outcomeError
	}

	if done == nil {
		done = stream.NewDonePayload()
	}
	if sendErr := session.Send(stream.EventDone, done); sendErr != nil {
		return outcomeCancelled
	}
	return outcomeDone
}

// streamErrorMessage 错误帧中的消息；非 AppError 不暴露内部细节
func streamErrorMessage(err error) string {
	if apperrors.IsAppError(err) {
		return apperrors.AsAppError(err).PublicMessage()
	}
	return apperrors.ErrInternalError.Message
}
