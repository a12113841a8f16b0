// Package store 定义事件存储的接口边界与内存参考实现
//
// 事件存储是聚合重建状态时的历史来源：一段有序、有限、可一次遍历的
// 事件序列。本库不关心该序列的物理来源（文件、追加日志、数据库），
// 只约定接口；内置的内存实现用于测试与示例。
package store

import (
	"context"

	"domainkit/eventing"
)

// IEventStore 事件存储核心接口（最小化设计）
type IEventStore[ID comparable] interface {
	// AppendEvents 追加事件到指定聚合的事件流
	//
	// expectedVersion 表示当前持久化事件流的"上一次已提交版本号"，
	// 0 表示新聚合（尚无任何事件被持久化）。实现应将其与存储中的
	// 当前版本做精确比较，用于乐观锁控制；冲突时返回 ConcurrencyError。
	//
	// 追加的事件版本必须从 expectedVersion+1 开始连续递增。
	AppendEvents(ctx context.Context, aggregateID ID, events []eventing.IStorableEvent[ID], expectedVersion uint64) error

	// LoadEvents 加载聚合的事件历史
	//
	// afterVersion 为起始版本号（不包含该版本），0 表示从头加载；
	// 返回的事件按版本号升序排列。
	LoadEvents(ctx context.Context, aggregateID ID, afterVersion uint64) ([]eventing.Event[ID], error)
}

// IAggregateInspector 聚合检查接口（可选扩展）
//
// 提供聚合存在性检查和版本查询，用于乐观锁预检和历史分页等场景。
type IAggregateInspector[ID comparable] interface {
	// HasAggregate 检查指定聚合是否存在
	HasAggregate(ctx context.Context, aggregateID ID) (bool, error)

	// GetAggregateVersion 获取聚合的当前版本号；聚合不存在时返回 (0, nil)
	GetAggregateVersion(ctx context.Context, aggregateID ID) (uint64, error)
}
