package stream

import "fmt"

// Sink 服务层的事件输出端口，由传输层实现
type Sink interface {
	// Send 写出一帧事件
	Send(event string, payload any) error

	// Cancelled 连接关闭后恒为 true
	Cancelled() bool
}

// Emit 发送前后检查取消标记；连接已关闭时返回 ErrCancelled 且不写出
func Emit(s Sink, event string, payload any) error {
	if s.Cancelled() {
		return ErrCancelled
	}
	if err := s.Send(event, payload); err != nil {
		if s.Cancelled() {
			return ErrCancelled
		}
		return fmt.Errorf("send %s: %w", event, err)
	}
	return nil
}
