// Package streamtest 提供测试用的事件记录器
package streamtest

import (
	"sync"
	"sync/atomic"
)

// Event 记录下的一帧
type Event struct {
	Name    string
	Payload any
}

// Recorder 实现 stream.Sink，按顺序记录事件
type Recorder struct {
	mu     sync.Mutex
	events []Event
	closed atomic.Bool

	// CloseAfter 每次写出后调用，返回 true 时模拟连接关闭
	CloseAfter func(events []Event) bool
}

// Send 记录事件
func (r *Recorder) Send(event string, payload any) error {
	r.mu.Lock()
	r.events = append(r.events, Event{Name: event, Payload: payload})
	snapshot := append([]Event(nil), r.events...)
	r.mu.Unlock()

	if r.CloseAfter != nil && r.CloseAfter(snapshot) {
		r.closed.Store(true)
	}
	return nil
}

// Cancelled 是否已模拟关闭
func (r *Recorder) Cancelled() bool {
	return r.closed.Load()
}

// Close 立即模拟连接关闭
func (r *Recorder) Close() {
	r.closed.Store(true)
}

// Events 已记录事件的副本
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Names 已记录事件名序列
func (r *Recorder) Names() []string {
	events := r.Events()
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.Name)
	}
	return names
}

// Count 指定事件出现次数
func (r *Recorder) Count(name string) int {
	n := 0
	for _, e := range r.Events() {
		if e.Name == name {
			n++
		}
	}
	return n
}

// AfterCount 某事件累计达到 n 次后关闭
func AfterCount(name string, n int) func([]Event) bool {
	return func(events []Event) bool {
		seen := 0
		for _, e := range events {
			if e.Name == name {
				seen++
			}
		}
		return seen >= n
	}
}
