package eventing

import (
	stdErrors "errors"
	"fmt"
)

// ConcurrencyError 乐观并发冲突
//
// 属于预期内的可恢复错误：调用方应重新加载聚合并重试业务操作。
type ConcurrencyError struct {
	AggregateID any
	Expected    uint64
	Actual      uint64
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("concurrency conflict on aggregate %v: expected version %d, actual %d",
		e.AggregateID, e.Expected, e.Actual)
}

// NewConcurrencyError 创建并发冲突错误
func NewConcurrencyError(aggregateID any, expected, actual uint64) *ConcurrencyError {
	return &ConcurrencyError{AggregateID: aggregateID, Expected: expected, Actual: actual}
}

// IsConcurrencyError 判断错误链中是否存在并发冲突
func IsConcurrencyError(err error) bool {
	var ce *ConcurrencyError
	return stdErrors.As(err, &ce)
}

// EventStoreError 事件存储操作错误
type EventStoreError struct {
	Op    string
	Cause error
}

func (e *EventStoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("event store %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("event store %s failed", e.Op)
}

func (e *EventStoreError) Unwrap() error {
	return e.Cause
}
