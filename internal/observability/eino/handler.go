// Package eino 通过 eino 全局回调采集模型调用的指标与追踪
package eino

import (
	"context"
	"errors"
	"io"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"z-novel-assistant/internal/domain/service"
	"z-novel-assistant/pkg/metrics"
)

// startTimeKey 调用开始时间，OnEnd/OnError 据此计算耗时
type startTimeKey struct{}

// callLabels 一次调用的指标标签
type callLabels struct {
	workflow string
	provider string
	model    string
}

func labelsFrom(ctx context.Context, modelName string) callLabels {
	if modelName == "" {
		modelName = "unknown"
	}
	return callLabels{
		workflow: service.WorkflowFromContext(ctx),
		provider: service.ProviderFromContext(ctx),
		model:    modelName,
	}
}

func newChatModelCallbackHandler() *cbtemplate.ModelCallbackHandler {
	return &cbtemplate.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			ctx = context.WithValue(ctx, startTimeKey{}, time.Now())

			l := labelsFrom(ctx, modelNameFromInput(input))
			attrs := []attribute.KeyValue{
				attribute.String("eino.workflow", l.workflow),
				attribute.String("llm.provider", l.provider),
				attribute.String("llm.model", l.model),
			}
			if info != nil {
				attrs = append(attrs,
					attribute.String("eino.node_name", info.Name),
					attribute.String("eino.type", info.Type),
				)
			}

			ctx, _ = otel.Tracer("eino").Start(ctx, "llm.generate", trace.WithAttributes(attrs...))
			return ctx
		},

		OnEnd: func(ctx context.Context, _ *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			var usage *model.TokenUsage
			name := ""
			if output != nil {
				usage = output.TokenUsage
				name = modelNameFromOutput(output)
			}
			finishCall(ctx, labelsFrom(ctx, name), usage, nil)
			return ctx
		},

		// 流式输出在后台读完副本后结算，不阻塞调用方
		OnEndWithStreamOutput: func(ctx context.Context, _ *einocb.RunInfo, output *schema.StreamReader[*model.CallbackOutput]) context.Context {
			go func() {
				defer output.Close()

				var usage *model.TokenUsage
				name := ""
				var streamErr error
				for {
					chunk, err := output.Recv()
					if errors.Is(err, io.EOF) {
						break
					}
					if err != nil {
						streamErr = err
						break
					}
					if chunk == nil {
						continue
					}
					if chunk.TokenUsage != nil {
						usage = chunk.TokenUsage
					}
					if n := modelNameFromOutput(chunk); n != "" {
						name = n
					}
				}
				finishCall(ctx, labelsFrom(ctx, name), usage, streamErr)
			}()
			return ctx
		},

		OnError: func(ctx context.Context, _ *einocb.RunInfo, err error) context.Context {
			finishCall(ctx, labelsFrom(ctx, ""), nil, err)
			return ctx
		},
	}
}

// finishCall 上报调用结果并结束 span
func finishCall(ctx context.Context, l callLabels, usage *model.TokenUsage, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.LLMCallTotal.WithLabelValues(l.workflow, l.provider, l.model, status).Inc()
	if d := elapsedSeconds(ctx); d > 0 {
		metrics.LLMCallDuration.WithLabelValues(l.workflow, l.provider, l.model).Observe(d)
	}
	if usage != nil {
		metrics.LLMTokensUsed.WithLabelValues(l.workflow, l.provider, l.model, "prompt").Add(float64(usage.PromptTokens))
		metrics.LLMTokensUsed.WithLabelValues(l.workflow, l.provider, l.model, "completion").Add(float64(usage.CompletionTokens))
	}

	span := trace.SpanFromContext(ctx)
	if usage != nil {
		span.SetAttributes(
			attribute.Int("llm.prompt_tokens", usage.PromptTokens),
			attribute.Int("llm.completion_tokens", usage.CompletionTokens),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func elapsedSeconds(ctx context.Context) float64 {
	start, ok := ctx.Value(startTimeKey{}).(time.Time)
	if !ok || start.IsZero() {
		return 0
	}
	return time.Since(start).Seconds()
}

func modelNameFromInput(in *model.CallbackInput) string {
	if in == nil || in.Config == nil {
		return ""
	}
	return in.Config.Model
}

func modelNameFromOutput(out *model.CallbackOutput) string {
	if out == nil || out.Config == nil {
		return ""
	}
	return out.Config.Model
}
