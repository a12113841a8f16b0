// Package bus 提供事件分发能力的抽象与同步内存实现
//
// 分发器是领域核心之外的协作者：聚合/仓储把缓冲的事件按顺序交给它，
// 投递语义（同步、异步、跨进程）由具体实现决定。本包只提供进程内的
// 同步实现；跨进程传输不在本库范围内。
package bus

import (
	"context"
	stdErrors "errors"
	"fmt"
	"sync"

	"domainkit/eventing"
	"domainkit/logging"
)

// IEventDispatcher 事件分发能力
//
// 每个缓冲事件按插入顺序调用一次 Dispatch；失败时由调用方决定
// 剩余事件的去留（见聚合的 DispatchEvents 文档）。
type IEventDispatcher[ID comparable] interface {
	Dispatch(ctx context.Context, evt eventing.IEvent[ID]) error
}

// DispatcherFunc 函数式分发器适配
type DispatcherFunc[ID comparable] func(ctx context.Context, evt eventing.IEvent[ID]) error

func (f DispatcherFunc[ID]) Dispatch(ctx context.Context, evt eventing.IEvent[ID]) error {
	return f(ctx, evt)
}

// HandlerFunc 事件处理器函数类型
type HandlerFunc[ID comparable] func(ctx context.Context, evt eventing.IEvent[ID]) error

// SyncDispatcher 同步内存分发器
//
// Dispatch 在调用方 goroutine 中依次调用所有匹配的处理器；
// 订阅 "*" 的处理器接收全部事件类型。
type SyncDispatcher[ID comparable] struct {
	mu       sync.RWMutex
	handlers map[string][]HandlerFunc[ID]
	logger   logging.Logger
}

// NewSyncDispatcher 创建同步分发器
func NewSyncDispatcher[ID comparable]() *SyncDispatcher[ID] {
	return &SyncDispatcher[ID]{
		handlers: make(map[string][]HandlerFunc[ID]),
		logger:   logging.ComponentLogger("eventing.bus"),
	}
}

// Subscribe 订阅指定事件类型；eventType 为 "*" 时接收全部事件
func (d *SyncDispatcher[ID]) Subscribe(eventType string, handler HandlerFunc[ID]) error {
	if eventType == "" {
		return fmt.Errorf("event type cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
	return nil
}

// Dispatch 同步分发单个事件
//
// 没有匹配处理器不是错误，只是无人监听；任一处理器失败不会中断
// 其余处理器，所有失败以 errors.Join 聚合返回。
func (d *SyncDispatcher[ID]) Dispatch(ctx context.Context, evt eventing.IEvent[ID]) error {
	if evt == nil {
		return fmt.Errorf("event cannot be nil")
	}

	d.mu.RLock()
	matched := make([]HandlerFunc[ID], 0, len(d.handlers[evt.GetType()])+len(d.handlers["*"]))
	matched = append(matched, d.handlers[evt.GetType()]...)
	matched = append(matched, d.handlers["*"]...)
	d.mu.RUnlock()

	if len(matched) == 0 {
		return nil
	}

	var errs []error
	for _, handler := range matched {
		if err := handler(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		joined := stdErrors.Join(errs...)
		d.logger.Warn(ctx, "event dispatch completed with errors",
			logging.String("event_type", evt.GetType()),
			logging.String("event_id", evt.GetID()),
			logging.Int("failed", len(errs)))
		return fmt.Errorf("dispatch event %s: %w", evt.GetType(), joined)
	}
	return nil
}

// DispatchAll 按顺序分发多个事件，遇到第一个失败即返回
func (d *SyncDispatcher[ID]) DispatchAll(ctx context.Context, events []eventing.IEvent[ID]) error {
	for _, evt := range events {
		if err := d.Dispatch(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}
