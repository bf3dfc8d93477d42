package eino

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"z-novel-assistant/internal/domain/service"
	"z-novel-assistant/pkg/metrics"
)

func TestChatModelCallbacks(t *testing.T) {
	h := newChatModelCallbackHandler()
	ctx := service.WithProvider(service.WithWorkflow(context.Background(), service.WorkflowRerank), "openai")

	success := metrics.LLMCallTotal.WithLabelValues(service.WorkflowRerank, "openai", "gpt-test", "success")
	prompt := metrics.LLMTokensUsed.WithLabelValues(service.WorkflowRerank, "openai", "gpt-test", "prompt")
	failed := metrics.LLMCallTotal.WithLabelValues(service.WorkflowRerank, "openai", "unknown", "error")
	beforeOK, beforePrompt, beforeErr := testutil.ToFloat64(success), testutil.ToFloat64(prompt), testutil.ToFloat64(failed)

	callCtx := h.OnStart(ctx, nil, &model.CallbackInput{Config: &model.Config{Model: "gpt-test"}})
	assert.NotNil(t, callCtx.Value(startTimeKey{}))
	h.OnEnd(callCtx, nil, &model.CallbackOutput{
		Config:     &model.Config{Model: "gpt-test"},
		TokenUsage: &model.TokenUsage{PromptTokens: 12, CompletionTokens: 3},
	})

	errCtx := h.OnStart(ctx, nil, nil)
	h.OnError(errCtx, nil, errors.New("timeout"))

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(success))
	assert.Equal(t, beforePrompt+12, testutil.ToFloat64(prompt))
	assert.Equal(t, beforeErr+1, testutil.ToFloat64(failed))
}

func TestInit_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Init()
		Init()
	})
}
