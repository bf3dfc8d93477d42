// Package assistant 负责流式助手请求的模式选择
package assistant

import "strings"

// Route 请求被分派到的处理模式
type Route string

const (
	RouteChapter Route = "chapter"
	RouteRAG     Route = "rag"
	RouteError   Route = "error"

	// RouteSurprise 不经过 Resolve，由 isSurprise 直接选择
	RouteSurprise Route = "surprise"
)

// 触发章节生成的 action
const (
	ActionGenerateChapter = "generate_chapter"
	ActionChapter         = "chapter"
)

// ErrMsgChapterContext 缺少章节上下文时返回给用户的提示
const ErrMsgChapterContext = "chapter generation requires a book and chapter"

// Resolution 路由结果，Route 为 RouteError 时 Error 非空
type Resolution struct {
	Route Route
	Error string
}

// Resolve 纯函数：相同输入总是得到相同结果
func Resolve(action string, hasChapterContext bool) Resolution {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case ActionGenerateChapter, ActionChapter:
		if !hasChapterContext {
			return Resolution{Route: RouteError, Error: ErrMsgChapterContext}
		}
		return Resolution{Route: RouteChapter}
	default:
		return Resolution{Route: RouteRAG}
	}
}

// UseRetrieval scope 为 general 时不检索
func UseRetrieval(scope string) bool {
	return !strings.EqualFold(strings.TrimSpace(scope), "general")
}
