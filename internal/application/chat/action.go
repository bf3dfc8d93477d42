package chat

import (
	"context"
	"encoding/json"
	"strings"

	"z-novel-assistant/internal/application/stream"
	"z-novel-assistant/internal/domain/service"
	"z-novel-assistant/internal/workflow/node"
	"z-novel-assistant/internal/workflow/prompt"
	"z-novel-assistant/pkg/logger"
)

const (
	// DefaultAnswerChars 分类器只看回答的前若干字符
	DefaultAnswerChars = 1600

	defaultActionPrompt = "Would you like me to draft this into your chapter?"
)

// DefaultActions 分类器给出的动作不可用时的允许/拒绝组合
func DefaultActions() []stream.Action {
	return []stream.Action{
		{ID: "allow", Label: "Yes"},
		{ID: "deny", Label: "No"},
	}
}

type classification struct {
	Show    bool            `json:"show"`
	Prompt  string          `json:"prompt"`
	Actions json.RawMessage `json:"actions"`
}

// SanitizeActions 只保留 id 与 label 都是非空字符串的条目；为空或格式错误时返回 DefaultActions
func SanitizeActions(raw json.RawMessage) []stream.Action {
	var items []map[string]any
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return DefaultActions()
	}

	out := make([]stream.Action, 0, len(items))
	for _, it := range items {
		id, _ := it["id"].(string)
		label, _ := it["label"].(string)
		id, label = strings.TrimSpace(id), strings.TrimSpace(label)
		if id == "" || label == "" {
			continue
		}
		out = append(out, stream.Action{ID: id, Label: label})
	}
	if len(out) == 0 {
		return DefaultActions()
	}
	return out
}

// classify 失败不影响回答，只记录告警并返回空动作
func (s *Service) classify(ctx context.Context, query, answer string) (string, []stream.Action) {
	if strings.TrimSpace(answer) == "" {
		return "", []stream.Action{}
	}
	ctx = service.WithWorkflow(ctx, service.WorkflowActionClassify)

	msgs, err := s.prompts.Render(ctx, prompt.PromptActionClassifyV1, map[string]any{
		"query":  query,
		"answer": node.TruncateByRunes(answer, s.answerChars),
	})
	if err != nil {
		logger.Warn(ctx, "render classifier prompt failed", "error", err.Error())
		return "", []stream.Action{}
	}

	out, err := s.gen.Generate(ctx, msgs)
	if err != nil {
		logger.Warn(ctx, "action classifier failed", "error", err.Error())
		return "", []stream.Action{}
	}

	var c classification
	if err := node.DecodeJSON(out, &c); err != nil {
		logger.Warn(ctx, "action classifier returned invalid json", "error", err.Error())
		return "", []stream.Action{}
	}
	if !c.Show {
		return "", []stream.Action{}
	}

	promptText := strings.TrimSpace(c.Prompt)
	if promptText == "" {
		promptText = defaultActionPrompt
	}
	return promptText, SanitizeActions(c.Actions)
}
