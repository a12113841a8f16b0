// Package eventsourced 定义事件溯源聚合根相关错误
package eventsourced

import "fmt"

// AggregateError 聚合根错误
type AggregateError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AggregateError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AggregateError) Unwrap() error {
	return e.Cause
}

// 常见聚合根错误
var (
	// ErrNilEvent 向 Raise/LoadFromHistory 传入了空事件（调用方缺陷，不可重试）
	ErrNilEvent = &AggregateError{Code: "NIL_EVENT", Message: "event cannot be nil"}

	// ErrNilApplier 构造聚合时未提供事件应用函数（致命配置错误）
	ErrNilApplier = &AggregateError{Code: "NIL_APPLIER", Message: "event applier cannot be nil"}

	// ErrNilDispatcher 分发缓冲事件时未提供分发器
	ErrNilDispatcher = &AggregateError{Code: "NIL_DISPATCHER", Message: "event dispatcher cannot be nil"}
)

// UnhandledEventError 事件类型未被聚合的应用函数覆盖
//
// 具体聚合的应用函数应对自身事件集合做穷举 type switch；
// 走到 default 分支意味着构造时遗漏了某个事件变体的处理——
// 这是致命的配置错误，应在测试阶段暴露，而非生产环境重试。
type UnhandledEventError struct {
	EventType string
}

func (e *UnhandledEventError) Error() string {
	return fmt.Sprintf("unhandled event type: %s", e.EventType)
}

// NewUnhandledEventError 创建未处理事件错误
func NewUnhandledEventError(eventType string) *UnhandledEventError {
	return &UnhandledEventError{EventType: eventType}
}
