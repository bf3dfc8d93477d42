// Package entity 定义领域实体
package entity

import "strings"

// Role 对话角色枚举
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole 归一化客户端传入的角色标签，无法识别时 ok 为 false
func ParseRole(s string) (role Role, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "human":
		return RoleUser, true
	case "assistant", "model", "ai", "bot":
		return RoleAssistant, true
	case "system":
		return RoleSystem, true
	default:
		return "", false
	}
}

// Label 转录文本中的角色前缀
func (r Role) Label() string {
	switch r {
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return "User"
	}
}

// Message 一条对话消息，仅在单次请求内存活
type Message struct {
	Role    Role
	Content string
}

// LastUserAnchored 消息列表非空且最后一条由用户发出
func LastUserAnchored(msgs []Message) bool {
	if len(msgs) == 0 {
		return false
	}
	return msgs[len(msgs)-1].Role == RoleUser
}
