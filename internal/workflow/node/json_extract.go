// Package node 提供工作流节点共用的模型输出处理函数
package node

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONObject 从模型输出中截取第一个完整的 JSON 对象或数组
// 模型常在 JSON 前后夹杂说明文字或代码围栏；找不到时返回 trim 后的原文
func ExtractJSONObject(s string) string {
	raw := strings.TrimSpace(s)
	start := strings.IndexAny(raw, "{[")
	if start < 0 {
		return raw
	}
	if end := matchingClose(raw, start); end > start {
		return raw[start : end+1]
	}
	return raw
}

// matchingClose 返回与 start 处括号配对的下标，跳过字符串字面量；未闭合返回 -1
func matchingClose(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// DecodeJSON 容错提取后解码到 v
func DecodeJSON(s string, v any) error {
	raw := ExtractJSONObject(s)
	if raw == "" {
		return fmt.Errorf("empty model output")
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode model json: %w", err)
	}
	return nil
}
