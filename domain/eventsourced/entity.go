// Package eventsourced 提供事件溯源聚合根的核心实现
//
// 聚合状态完全由确定性的、有序的领域事件重放导出：
//   - 在线修改通过 Raise 追加并应用事件；
//   - 冷启动重建通过 LoadFromHistory 重放历史（可先经快照恢复）；
//   - 版本计数器记录实例生命周期内应用过的事件总数，
//     用于乐观并发检查（CheckVersion）。
//
// 单实例默认按单写者模型使用；内部的读写锁只保证读操作
// （GetVersion、GetUncommittedEvents 等）在分发侧并发读取时无数据竞争，
// 并发的业务写入仍需上层（按聚合加锁、单线程 actor 或乐观重试）协调。
package eventsourced

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"domainkit/domain"
	"domainkit/eventing"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Applier 将领域事件应用到聚合状态（原地修改，无返回值语义）
//
// 具体聚合在构造时提供一个 Applier，内部对自身的事件集合做穷举
// type switch 分发；default 分支应返回 UnhandledEventError。
// 把"每个事件变体都有处理逻辑"的约束收敛到一个构造时必须提供的
// 函数上，而不是运行时逐个注册的查找表。
type Applier func(evt domain.IDomainEvent) error

// IDomainEventDispatcher 领域事件分发能力（由外部协作者实现）
type IDomainEventDispatcher interface {
	Dispatch(ctx context.Context, evt domain.IDomainEvent) error
}

// DomainEventDispatcherFunc 函数式分发器适配
type DomainEventDispatcherFunc func(ctx context.Context, evt domain.IDomainEvent) error

func (f DomainEventDispatcherFunc) Dispatch(ctx context.Context, evt domain.IDomainEvent) error {
	return f(ctx, evt)
}

// ISnapshotRestorer 具体聚合可实现该接口，以从快照数据恢复自身字段
//
// 快照的正向（序列化）由 CreateSnapshot 统一提供；逆向因字段形态
// 因聚合而异，必须由具体聚合实现。
type ISnapshotRestorer interface {
	RestoreSnapshotState(data []byte) error
}

// IEventSourcedAggregate 事件溯源聚合根接口
type IEventSourcedAggregate[T comparable] interface {
	domain.IEntity[T]

	// GetAggregateType 返回聚合根类型名称
	GetAggregateType() string

	// Raise 追加并立即应用一个新事件
	Raise(evt domain.IDomainEvent) error

	// LoadFromHistory 从事件历史重建状态（不进入未提交缓冲）
	LoadFromHistory(events []domain.IDomainEvent) error

	// RestoreFromSnapshot 以快照版本为起点，重放快照之后的事件
	RestoreFromSnapshot(snapshotVersion uint64, eventsAfterSnapshot []domain.IDomainEvent) error

	// CheckVersion 乐观并发检查（只读，无副作用）
	CheckVersion(expected uint64) error

	// GetUncommittedEvents 获取未提交的事件（按插入顺序）
	GetUncommittedEvents() []domain.IDomainEvent

	// MarkEventsAsCommitted 标记事件为已提交（清空缓冲，不影响版本）
	MarkEventsAsCommitted()
}

// Aggregate 事件溯源聚合根（泛型实现，用于嵌入）
//
// 组合标识核心（domain.Entity）、未提交事件缓冲与事件应用函数，
// 并维护版本计数器。
//
// 示例:
//
//	type Account struct {
//	    *eventsourced.Aggregate[string]
//	    Balance int
//	}
//
//	func NewAccount(id string) (*Account, error) {
//	    a := &Account{}
//	    base, err := eventsourced.NewAggregate(id, "Account", a.applyEvent)
//	    if err != nil {
//	        return nil, err
//	    }
//	    a.Aggregate = base
//	    return a, nil
//	}
//
//	func (a *Account) applyEvent(evt domain.IDomainEvent) error {
//	    switch e := evt.(type) {
//	    case *MoneyDeposited:
//	        a.Balance += e.Amount
//	    default:
//	        return eventsourced.NewUnhandledEventError(evt.EventType())
//	    }
//	    return nil
//	}
type Aggregate[T comparable] struct {
	domain.Entity[T]

	aggregateType string
	version       uint64
	uncommitted   []domain.IDomainEvent
	apply         Applier
	mu            sync.RWMutex
}

// NewAggregate 创建事件溯源聚合根
//
// applier 必须在此处提供并覆盖该聚合可能 Raise 或重放的全部事件变体；
// 这是一次性的构造契约，之后不可更换。
func NewAggregate[T comparable](id T, aggregateType string, applier Applier) (*Aggregate[T], error) {
	if applier == nil {
		return nil, ErrNilApplier
	}
	return &Aggregate[T]{
		Entity:        domain.NewEntity(id),
		aggregateType: aggregateType,
		uncommitted:   make([]domain.IDomainEvent, 0),
		apply:         applier,
	}, nil
}

// GetVersion 实现 IEntity 接口
//
// 版本恒等于实例生命周期内应用过的事件总数（在线 + 重放），
// 与缓冲中剩余多少未提交事件无关。
func (a *Aggregate[T]) GetVersion() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return int64(a.version)
}

// GetAggregateType 返回聚合根类型名称
func (a *Aggregate[T]) GetAggregateType() string {
	return a.aggregateType
}

// Raise 追加并立即应用一个新事件
//
// 执行顺序：缓冲追加 → 应用 → 版本+1。应用失败时回滚缓冲追加，
// 整个 Raise 视为失败，版本与缓冲保持不变。
func (a *Aggregate[T]) Raise(evt domain.IDomainEvent) error {
	if evt == nil {
		return ErrNilEvent
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.uncommitted = append(a.uncommitted, evt)
	if err := a.apply(evt); err != nil {
		a.uncommitted = a.uncommitted[:len(a.uncommitted)-1]
		return fmt.Errorf("apply event %s: %w", evt.EventType(), err)
	}
	a.version++
	return nil
}

// LoadFromHistory 从事件历史重建聚合状态
//
// 按给定顺序逐个应用事件并递增版本；历史事件视为已分发，
// 不进入未提交缓冲。通常只应在全新实例上调用，在已有在线事件的
// 实例上重放属于调用方责任，机制本身不做拦截。
func (a *Aggregate[T]) LoadFromHistory(events []domain.IDomainEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.replayLocked(events)
}

// RestoreFromSnapshot 从快照恢复版本计数并重放快照之后的事件
//
// 版本被直接设置为 snapshotVersion（绕过逐一递增语义），
// 前提是调用方已经（或正在通过 ISnapshotRestorer）把字段状态
// 恢复到与该快照一致。
func (a *Aggregate[T]) RestoreFromSnapshot(snapshotVersion uint64, eventsAfterSnapshot []domain.IDomainEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.version = snapshotVersion
	return a.replayLocked(eventsAfterSnapshot)
}

func (a *Aggregate[T]) replayLocked(events []domain.IDomainEvent) error {
	for _, evt := range events {
		if evt == nil {
			return ErrNilEvent
		}
		if err := a.apply(evt); err != nil {
			return fmt.Errorf("replay event %s at version %d: %w", evt.EventType(), a.version+1, err)
		}
		a.version++
	}
	return nil
}

// CheckVersion 乐观并发检查
//
// 版本不一致时返回 ConcurrencyError——这是预期内的可恢复错误，
// 调用方通常应重新加载聚合并重试业务操作。只读，无副作用。
func (a *Aggregate[T]) CheckVersion(expected uint64) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.version != expected {
		return eventing.NewConcurrencyError(a.GetID(), expected, a.version)
	}
	return nil
}

// GetUncommittedEvents 返回未提交事件的副本（按插入顺序）
func (a *Aggregate[T]) GetUncommittedEvents() []domain.IDomainEvent {
	a.mu.RLock()
	defer a.mu.RUnlock()
	events := make([]domain.IDomainEvent, len(a.uncommitted))
	copy(events, a.uncommitted)
	return events
}

// AddDomainEvent 直接追加事件到未提交缓冲（不应用、不改版本）
func (a *Aggregate[T]) AddDomainEvent(evt domain.IDomainEvent) {
	if evt == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.uncommitted = append(a.uncommitted, evt)
}

// RemoveDomainEvent 按值相等移除第一个匹配的缓冲事件；不存在时为空操作
func (a *Aggregate[T]) RemoveDomainEvent(evt domain.IDomainEvent) {
	if evt == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, buffered := range a.uncommitted {
		if reflect.DeepEqual(buffered, evt) {
			a.uncommitted = append(a.uncommitted[:i], a.uncommitted[i+1:]...)
			return
		}
	}
}

// ClearDomainEvents 清空未提交缓冲；不影响版本计数
func (a *Aggregate[T]) ClearDomainEvents() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.uncommitted = nil
}

// MarkEventsAsCommitted 标记事件为已提交（语义化别名，供仓储使用）
func (a *Aggregate[T]) MarkEventsAsCommitted() {
	a.ClearDomainEvents()
}

// DispatchEvents 将缓冲事件按插入顺序逐个交给分发器，全部成功后缓冲为空
//
// 失败语义为尽力而为（partial drain）：已成功分发的事件从缓冲移除，
// 分发失败的事件及其后续保留在缓冲中，错误包装后返回。重试
// DispatchEvents 不会重复投递本缓冲中已成功的事件；跨进程的投递保证
// 由分发器自身负责。
func (a *Aggregate[T]) DispatchEvents(ctx context.Context, dispatcher IDomainEventDispatcher) error {
	if dispatcher == nil {
		return ErrNilDispatcher
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for len(a.uncommitted) > 0 {
		evt := a.uncommitted[0]
		if err := dispatcher.Dispatch(ctx, evt); err != nil {
			return fmt.Errorf("dispatch event %s: %w", evt.EventType(), err)
		}
		a.uncommitted = a.uncommitted[1:]
	}
	return nil
}

// CreateSnapshot 序列化聚合当前状态，生成不透明的快照数据
//
// state 为具体聚合的公开状态（通常是聚合自身或其状态结构体），
// 不包含未提交缓冲与事件应用配置。若 state 实现
// interface{ SnapshotState() any }，则以其返回值作为快照内容。
// 逆向恢复见 ISnapshotRestorer。
func (a *Aggregate[T]) CreateSnapshot(state any) ([]byte, error) {
	if lightweight, ok := state.(interface{ SnapshotState() any }); ok {
		state = lightweight.SnapshotState()
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("serialize snapshot state: %w", err)
	}
	return data, nil
}

// Ensure interface compliance
var _ IEventSourcedAggregate[int64] = (*Aggregate[int64])(nil)
