package snapshot

import "context"

// ISnapshotAggregate 快照所需的最小聚合视图
// 避免对领域层的循环依赖
type ISnapshotAggregate[ID comparable] interface {
	GetID() ID
	GetVersion() int64
	GetAggregateType() string
}

// Strategy 快照策略接口
// 用于判断是否应该为聚合根创建快照
type Strategy[ID comparable] interface {
	ShouldCreateSnapshot(ctx context.Context, aggregate ISnapshotAggregate[ID]) (bool, error)
	GetName() string
}

// EventCountStrategy 基于事件数量的快照策略
// 当聚合版本达到频率的整数倍时创建快照
type EventCountStrategy[ID comparable] struct {
	Frequency int
}

// NewEventCountStrategy 创建事件计数策略
func NewEventCountStrategy[ID comparable](frequency int) *EventCountStrategy[ID] {
	if frequency <= 0 {
		frequency = 100
	}
	return &EventCountStrategy[ID]{Frequency: frequency}
}

// ShouldCreateSnapshot 实现 Strategy 接口
func (s *EventCountStrategy[ID]) ShouldCreateSnapshot(ctx context.Context, aggregate ISnapshotAggregate[ID]) (bool, error) {
	version := aggregate.GetVersion()
	return version > 0 && version%int64(s.Frequency) == 0, nil
}

// GetName 实现 Strategy 接口
func (s *EventCountStrategy[ID]) GetName() string {
	return "EventCountStrategy"
}
