package eventsourced

import (
	"context"
	"fmt"

	"domainkit/domain"
	"domainkit/eventing"
	"domainkit/eventing/store"
	"domainkit/eventing/store/snapshot"
	"domainkit/logging"
)

// IEventSourcedRepository 事件溯源仓储接口
//
// 仓储负责聚合与事件存储之间的转换：保存时把未提交的领域事件
// 包装为带版本号的信封追加到事件流，加载时重放历史（可经快照加速）。
type IEventSourcedRepository[T IEventSourcedAggregate[ID], ID comparable] interface {
	// Save 持久化聚合的未提交事件并清空缓冲
	Save(ctx context.Context, aggregate T) error

	// GetByID 从事件历史（及可选快照）重建聚合
	GetByID(ctx context.Context, id ID) (T, error)

	// Exists 检查聚合是否存在
	Exists(ctx context.Context, id ID) (bool, error)
}

// Repository 事件溯源仓储实现
//
// 依赖事件存储（必选）、快照管理器与事件分发器（均可选）。
// factory 负责构造空白聚合实例，供重建时使用。
type Repository[T IEventSourcedAggregate[ID], ID comparable] struct {
	store      store.IEventStore[ID]
	snapshots  *snapshot.Manager[ID]
	dispatcher IDomainEventDispatcher
	factory    func(id ID) (T, error)
	logger     logging.Logger
}

// RepositoryOption 仓储可选配置
type RepositoryOption[T IEventSourcedAggregate[ID], ID comparable] func(*Repository[T, ID])

// WithSnapshots 启用快照加速
func WithSnapshots[T IEventSourcedAggregate[ID], ID comparable](manager *snapshot.Manager[ID]) RepositoryOption[T, ID] {
	return func(r *Repository[T, ID]) {
		r.snapshots = manager
	}
}

// WithDispatcher 保存成功后自动分发领域事件
func WithDispatcher[T IEventSourcedAggregate[ID], ID comparable](dispatcher IDomainEventDispatcher) RepositoryOption[T, ID] {
	return func(r *Repository[T, ID]) {
		r.dispatcher = dispatcher
	}
}

// NewRepository 创建事件溯源仓储
func NewRepository[T IEventSourcedAggregate[ID], ID comparable](
	eventStore store.IEventStore[ID],
	factory func(id ID) (T, error),
	opts ...RepositoryOption[T, ID],
) *Repository[T, ID] {
	r := &Repository[T, ID]{
		store:   eventStore,
		factory: factory,
		logger:  logging.ComponentLogger("domain.eventsourced.repository"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Save 持久化聚合的未提交事件
//
// expectedVersion 由聚合自身推导：当前版本减去未提交事件数即为
// 上一次已提交版本。存储端版本冲突时原样返回 ConcurrencyError，
// 聚合缓冲保持不变，调用方可重新加载后重试。
func (r *Repository[T, ID]) Save(ctx context.Context, aggregate T) error {
	uncommitted := aggregate.GetUncommittedEvents()
	if len(uncommitted) == 0 {
		return nil
	}

	currentVersion := uint64(aggregate.GetVersion())
	expectedVersion := currentVersion - uint64(len(uncommitted))

	storable := make([]eventing.IStorableEvent[ID], 0, len(uncommitted))
	for i, evt := range uncommitted {
		env := eventing.FromDomainEvent(aggregate.GetID(), aggregate.GetAggregateType(), expectedVersion+uint64(i)+1, evt)
		storable = append(storable, env)
	}

	if err := r.store.AppendEvents(ctx, aggregate.GetID(), storable, expectedVersion); err != nil {
		return err
	}
	aggregate.MarkEventsAsCommitted()

	r.logger.Debug(ctx, "aggregate saved",
		logging.Any("aggregate_id", aggregate.GetID()),
		logging.String("aggregate_type", aggregate.GetAggregateType()),
		logging.Int("events", len(uncommitted)),
		logging.Uint64("version", currentVersion))

	if r.dispatcher != nil {
		for _, evt := range uncommitted {
			if err := r.dispatcher.Dispatch(ctx, evt); err != nil {
				// 事件已持久化，分发失败不回滚存储
				return fmt.Errorf("dispatch committed event %s: %w", evt.EventType(), err)
			}
		}
	}

	if r.snapshots != nil {
		should, err := r.snapshots.ShouldCreateSnapshot(ctx, aggregate)
		if err == nil && should {
			if err := r.snapshots.CreateSnapshot(ctx, aggregate, any(aggregate)); err != nil {
				// 快照只是加速手段，失败不影响保存结果
				r.logger.Warn(ctx, "create snapshot failed",
					logging.Any("aggregate_id", aggregate.GetID()),
					logging.Error(err))
			}
		}
	}
	return nil
}

// GetByID 从事件历史重建聚合
//
// 若配置了快照且聚合实现 ISnapshotRestorer，则先从最新快照恢复
// 字段与版本，再只重放快照之后的事件；两条路径重建出的状态等价。
// 聚合不存在（无快照且事件流为空）时返回 ErrEntityNotFound。
func (r *Repository[T, ID]) GetByID(ctx context.Context, id ID) (T, error) {
	var zero T

	aggregate, err := r.factory(id)
	if err != nil {
		return zero, fmt.Errorf("construct aggregate: %w", err)
	}

	var afterVersion uint64
	restoredFromSnapshot := false
	if r.snapshots != nil {
		snap, err := r.snapshots.Latest(ctx, aggregate.GetAggregateType(), id)
		if err != nil {
			return zero, err
		}
		if snap != nil {
			restorer, ok := any(aggregate).(ISnapshotRestorer)
			if ok {
				if err := restorer.RestoreSnapshotState(snap.Data); err != nil {
					return zero, fmt.Errorf("restore snapshot state: %w", err)
				}
				if err := aggregate.RestoreFromSnapshot(snap.Version, nil); err != nil {
					return zero, err
				}
				afterVersion = snap.Version
				restoredFromSnapshot = true
			} else {
				// 聚合未实现快照恢复，回退到全量重放
				r.logger.Debug(ctx, "aggregate does not implement ISnapshotRestorer, replaying full history",
					logging.String("aggregate_type", aggregate.GetAggregateType()))
			}
		}
	}

	envelopes, err := r.store.LoadEvents(ctx, id, afterVersion)
	if err != nil {
		return zero, err
	}
	if len(envelopes) == 0 && !restoredFromSnapshot {
		return zero, domain.NewNotFoundError(fmt.Sprintf("%v", id))
	}

	history := make([]domain.IDomainEvent, 0, len(envelopes))
	for i := range envelopes {
		evt, ok := eventing.UnwrapDomainEvent[ID](&envelopes[i])
		if !ok {
			return zero, fmt.Errorf("event %s at version %d does not carry a domain event payload",
				envelopes[i].GetType(), envelopes[i].GetVersion())
		}
		history = append(history, evt)
	}
	if err := aggregate.LoadFromHistory(history); err != nil {
		return zero, err
	}
	return aggregate, nil
}

// Exists 检查聚合是否存在
//
// 存储实现了 IAggregateInspector 时走快速路径，否则加载事件流判断。
func (r *Repository[T, ID]) Exists(ctx context.Context, id ID) (bool, error) {
	if inspector, ok := r.store.(store.IAggregateInspector[ID]); ok {
		return inspector.HasAggregate(ctx, id)
	}
	envelopes, err := r.store.LoadEvents(ctx, id, 0)
	if err != nil {
		return false, err
	}
	return len(envelopes) > 0, nil
}

// Ensure interface compliance
var _ IEventSourcedRepository[*Aggregate[int64], int64] = (*Repository[*Aggregate[int64], int64])(nil)
