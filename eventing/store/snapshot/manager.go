package snapshot

import (
	"context"
	stdErrors "errors"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"domainkit/errors"
	"domainkit/logging"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config 快照配置
type Config struct {
	// Frequency 每N个事件创建一次快照
	Frequency int `json:"frequency"`

	// Enabled 关闭后 Manager 的所有操作退化为空操作
	Enabled bool `json:"enabled"`
}

// DefaultConfig 默认快照配置
func DefaultConfig() *Config {
	return &Config{Frequency: 100, Enabled: true}
}

// Manager 快照管理器
//
// 负责快照的序列化、存储与读取；默认策略为按事件数量创建。
// 快照数据只是聚合公开状态的结构化转储，恢复字段值的逆向过程
// 由具体聚合负责（见 eventsourced.ISnapshotRestorer）。
type Manager[ID comparable] struct {
	store    ISnapshotStore[ID]
	config   *Config
	strategy Strategy[ID]
	mutex    sync.RWMutex
	logger   logging.Logger
}

// NewManager 创建快照管理器
func NewManager[ID comparable](store ISnapshotStore[ID], config *Config) *Manager[ID] {
	if config == nil {
		config = DefaultConfig()
	}
	return &Manager[ID]{
		store:    store,
		config:   config,
		strategy: NewEventCountStrategy[ID](config.Frequency),
		logger:   logging.ComponentLogger("eventing.store.snapshot"),
	}
}

// SetStrategy 设置快照策略
func (m *Manager[ID]) SetStrategy(strategy Strategy[ID]) {
	m.mutex.Lock()
	m.strategy = strategy
	m.mutex.Unlock()
}

// ShouldCreateSnapshot 判断是否应该为聚合创建快照
func (m *Manager[ID]) ShouldCreateSnapshot(ctx context.Context, aggregate ISnapshotAggregate[ID]) (bool, error) {
	if !m.config.Enabled || aggregate == nil {
		return false, nil
	}
	m.mutex.RLock()
	strategy := m.strategy
	m.mutex.RUnlock()
	if strategy == nil {
		return false, nil
	}
	return strategy.ShouldCreateSnapshot(ctx, aggregate)
}

// CreateSnapshot 序列化聚合状态并保存快照
//
// state 为具体聚合的公开状态；若 state 实现
// interface{ SnapshotState() any }，则以其返回值作为快照内容
// （轻量快照钩子，用于排除体积大或可重建的字段）。
func (m *Manager[ID]) CreateSnapshot(ctx context.Context, aggregate ISnapshotAggregate[ID], state any) error {
	if !m.config.Enabled {
		return nil
	}

	snapshotData := state
	if lightweight, ok := state.(interface{ SnapshotState() any }); ok {
		snapshotData = lightweight.SnapshotState()
	}

	serialized, err := json.Marshal(snapshotData)
	if err != nil {
		return errors.WrapError(err, errors.ErrCodeSerialization, "serialize snapshot data")
	}

	snap := Snapshot[ID]{
		SnapshotID:    uuid.NewString(),
		AggregateID:   aggregate.GetID(),
		AggregateType: aggregate.GetAggregateType(),
		Version:       uint64(aggregate.GetVersion()),
		Data:          serialized,
		Timestamp:     time.Now(),
		Metadata:      map[string]any{"data_size": len(serialized)},
	}
	if err := m.store.SaveSnapshot(ctx, snap); err != nil {
		return errors.WrapError(err, errors.ErrCodeInternal, "save snapshot")
	}

	m.logger.Info(ctx, "snapshot created",
		logging.Any("aggregate_id", snap.AggregateID),
		logging.Uint64("version", snap.Version),
		logging.Int("data_size", len(serialized)))
	return nil
}

// Latest 获取聚合的最新快照；无快照时返回 (nil, nil)
func (m *Manager[ID]) Latest(ctx context.Context, aggregateType string, aggregateID ID) (*Snapshot[ID], error) {
	if !m.config.Enabled {
		return nil, nil
	}
	snap, err := m.store.GetSnapshot(ctx, aggregateType, aggregateID)
	if err != nil {
		if stdErrors.Is(err, ErrSnapshotNotFound) {
			return nil, nil
		}
		return nil, errors.WrapError(err, errors.ErrCodeInternal, "load snapshot")
	}
	return snap, nil
}

// RestoreInto 将快照数据反序列化到目标状态
func (m *Manager[ID]) RestoreInto(snap *Snapshot[ID], target any) error {
	if snap == nil {
		return errors.NewError(errors.ErrCodeInvalidInput, "snapshot cannot be nil")
	}
	if !json.Valid(snap.Data) {
		return errors.NewError(errors.ErrCodeSerialization, "snapshot data is not valid JSON")
	}
	if err := json.Unmarshal(snap.Data, target); err != nil {
		return errors.WrapError(err, errors.ErrCodeSerialization, "deserialize snapshot data")
	}
	return nil
}
