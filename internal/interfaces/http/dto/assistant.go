package dto

import (
	"fmt"
	"strings"

	"z-novel-assistant/internal/domain/entity"
	apperrors "z-novel-assistant/pkg/errors"
)

// MessageDTO 对话消息
type MessageDTO struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content"`
}

// AssistantStreamRequest 流式助手请求
type AssistantStreamRequest struct {
	Messages   []MessageDTO `json:"messages" binding:"required,min=1,dive"`
	IsSurprise bool         `json:"isSurprise"`
	Action     string       `json:"action" binding:"max=64"`
	Scope      string       `json:"scope" binding:"max=32"`
	BookID     string       `json:"bookId" binding:"max=64"`
	ChapterID  string       `json:"chapterId" binding:"max=64"`
}

// ToMessages 转换为领域消息，角色标签归一化；未知角色视为请求体不合法
func (r *AssistantStreamRequest) ToMessages() ([]entity.Message, error) {
	out := make([]entity.Message, 0, len(r.Messages))
	for i, m := range r.Messages {
		role, ok := entity.ParseRole(m.Role)
		if !ok {
			return nil, apperrors.ErrInvalidParam.WithDetail(fmt.Sprintf("messages[%d]: unknown role %q", i, m.Role))
		}
		out = append(out, entity.Message{Role: role, Content: m.Content})
	}
	return out, nil
}

// HasChapterContext bookId 与 chapterId 均非空
func (r *AssistantStreamRequest) HasChapterContext() bool {
	return strings.TrimSpace(r.BookID) != "" && strings.TrimSpace(r.ChapterID) != ""
}
