package store

import (
	"context"
	"fmt"
	"sync"

	"domainkit/eventing"
	"domainkit/logging"
)

// MemoryEventStore 事件存储的内存实现，用于测试与示例
//
// 每个聚合维护一条按版本号升序的事件流；追加时执行乐观锁检查与
// 版本连续性校验。并发安全。
type MemoryEventStore[ID comparable] struct {
	mu     sync.RWMutex
	events map[ID][]eventing.Event[ID]
	logger logging.Logger
}

// NewMemoryEventStore 创建内存事件存储
func NewMemoryEventStore[ID comparable]() *MemoryEventStore[ID] {
	return &MemoryEventStore[ID]{
		events: make(map[ID][]eventing.Event[ID]),
		logger: logging.ComponentLogger("eventing.store.memory"),
	}
}

// AppendEvents 实现 IEventStore 接口
func (m *MemoryEventStore[ID]) AppendEvents(ctx context.Context, aggregateID ID, events []eventing.IStorableEvent[ID], expectedVersion uint64) error {
	if len(events) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	currentVersion := m.versionLocked(aggregateID)
	if currentVersion != expectedVersion {
		return eventing.NewConcurrencyError(aggregateID, expectedVersion, currentVersion)
	}

	for i, e := range events {
		if err := e.Validate(); err != nil {
			return &eventing.EventStoreError{Op: "append", Cause: err}
		}
		want := expectedVersion + uint64(i) + 1
		if e.GetVersion() != want {
			return &eventing.EventStoreError{
				Op:    "append",
				Cause: fmt.Errorf("event version not sequential: expected %d, got %d", want, e.GetVersion()),
			}
		}
	}

	for _, e := range events {
		event, ok := e.(*eventing.Event[ID])
		if !ok {
			return &eventing.EventStoreError{Op: "append", Cause: fmt.Errorf("unsupported event type: %T", e)}
		}
		m.events[aggregateID] = append(m.events[aggregateID], *event)
	}

	m.logger.Debug(ctx, "appended events",
		logging.Any("aggregate_id", aggregateID),
		logging.Int("count", len(events)),
		logging.Uint64("from_version", expectedVersion+1))
	return nil
}

// LoadEvents 实现 IEventStore 接口
func (m *MemoryEventStore[ID]) LoadEvents(ctx context.Context, aggregateID ID, afterVersion uint64) ([]eventing.Event[ID], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stream := m.events[aggregateID]
	result := make([]eventing.Event[ID], 0, len(stream))
	for _, e := range stream {
		if e.Version > afterVersion {
			result = append(result, e)
		}
	}
	return result, nil
}

// HasAggregate 实现 IAggregateInspector 接口
func (m *MemoryEventStore[ID]) HasAggregate(ctx context.Context, aggregateID ID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events[aggregateID]) > 0, nil
}

// GetAggregateVersion 实现 IAggregateInspector 接口
func (m *MemoryEventStore[ID]) GetAggregateVersion(ctx context.Context, aggregateID ID) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.versionLocked(aggregateID), nil
}

// versionLocked 返回聚合当前版本；事件流按版本升序，取最后一个事件的版本
func (m *MemoryEventStore[ID]) versionLocked(aggregateID ID) uint64 {
	stream := m.events[aggregateID]
	if len(stream) == 0 {
		return 0
	}
	return stream[len(stream)-1].Version
}

// Ensure interface compliance
var (
	_ IEventStore[int64]         = (*MemoryEventStore[int64])(nil)
	_ IAggregateInspector[int64] = (*MemoryEventStore[int64])(nil)
)
