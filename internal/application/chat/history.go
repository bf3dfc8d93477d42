package chat

import (
	"github.com/cloudwego/eino/schema"

	"z-novel-assistant/internal/domain/entity"
)

// BuildHistory 将请求消息转换为模型历史：
// 去掉最后一条（即当前提问），assistant 统一映射为模型角色，并裁掉第一条用户消息之前的内容
func BuildHistory(msgs []entity.Message) []*schema.Message {
	if len(msgs) <= 1 {
		return []*schema.Message{}
	}
	prior := msgs[:len(msgs)-1]

	first := -1
	for i, m := range prior {
		if m.Role == entity.RoleUser {
			first = i
			break
		}
	}
	if first < 0 {
		return []*schema.Message{}
	}

	out := make([]*schema.Message, 0, len(prior)-first)
	for _, m := range prior[first:] {
		switch m.Role {
		case entity.RoleAssistant:
			out = append(out, schema.AssistantMessage(m.Content, nil))
		case entity.RoleSystem:
			out = append(out, schema.SystemMessage(m.Content))
		default:
			out = append(out, schema.UserMessage(m.Content))
		}
	}
	return out
}
