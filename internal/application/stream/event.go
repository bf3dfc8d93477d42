// Package stream 定义流式生成事件与输出端口
package stream

import "errors"

// 事件名，封闭集合
const (
	EventOutline   = "outline"
	EventPageStart = "page_start"
	EventPageChunk = "page_chunk"
	EventChunk     = "chunk"
	EventPageDone  = "page_done"
	EventPageError = "page_error"
	EventDone      = "done"
	EventError     = "error"
)

// ErrCancelled 客户端断开导致的提前结束，属于正常终止
var ErrCancelled = errors.New("cancelled by client")

// OutlinePage 大纲中的一页
type OutlinePage struct {
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"keyPoints"`
}

// OutlinePayload outline 事件
type OutlinePayload struct {
	Pages      []OutlinePage `json:"pages"`
	TotalPages int           `json:"totalPages"`
}

// PageStartPayload page_start 事件
type PageStartPayload struct {
	Index      int    `json:"index"`
	TotalPages int    `json:"totalPages"`
	Title      string `json:"title"`
}

// PageChunkPayload page_chunk 事件
type PageChunkPayload struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// ChunkPayload chunk 事件
type ChunkPayload struct {
	Text string `json:"text"`
}

// PageDonePayload page_done 事件
type PageDonePayload struct {
	Index  int    `json:"index"`
	Title  string `json:"title"`
	PageID string `json:"pageId"`
}

// PageErrorPayload page_error 事件
type PageErrorPayload struct {
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// ErrorPayload error 事件
type ErrorPayload struct {
	Message string `json:"message"`
}

// Source done 载荷中的引用来源
type Source struct {
	ID        string  `json:"id"`
	SourceRef string  `json:"sourceRef"`
	Score     float64 `json:"score"`
}

// Action 回答后可供用户选择的动作
type Action struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// DonePayload 所有路由共用的终止载荷
type DonePayload struct {
	Text           string   `json:"text"`
	Sources        []Source `json:"sources"`
	ActionPrompt   string   `json:"actionPrompt"`
	Actions        []Action `json:"actions"`
	CreatedPageIDs []string `json:"createdPageIds"`
	PageError      string   `json:"pageError"`
}

// NewDonePayload 返回各切片非 nil 的空载荷，序列化后字段齐全
func NewDonePayload() *DonePayload {
	return &DonePayload{
		Sources:        []Source{},
		Actions:        []Action{},
		CreatedPageIDs: []string{},
	}
}
