// Package snapshot 提供聚合快照的存储边界与管理器
//
// 快照是聚合在某一版本的状态检查点，用于避免全量事件重放；
// 快照数据是不透明的序列化状态，不包含未提交事件缓冲与事件分发配置。
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrSnapshotNotFound 指定聚合没有可用快照
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot 聚合快照
type Snapshot[ID comparable] struct {
	SnapshotID    string         `json:"snapshot_id"`
	AggregateID   ID             `json:"aggregate_id"`
	AggregateType string         `json:"aggregate_type"`
	Version       uint64         `json:"version"`
	Data          []byte         `json:"data"`
	Timestamp     time.Time      `json:"timestamp"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// ISnapshotStore 快照存储接口
type ISnapshotStore[ID comparable] interface {
	// SaveSnapshot 保存快照；同一聚合的新快照覆盖旧快照
	SaveSnapshot(ctx context.Context, snapshot Snapshot[ID]) error

	// GetSnapshot 获取聚合的最新快照；无快照时返回 ErrSnapshotNotFound
	GetSnapshot(ctx context.Context, aggregateType string, aggregateID ID) (*Snapshot[ID], error)

	// DeleteSnapshot 删除聚合的快照；无快照时为空操作
	DeleteSnapshot(ctx context.Context, aggregateType string, aggregateID ID) error
}

// MemoryStore 内存快照存储
type MemoryStore[ID comparable] struct {
	snapshots map[string]Snapshot[ID]
	mutex     sync.RWMutex
}

// NewMemoryStore 创建内存快照存储
func NewMemoryStore[ID comparable]() *MemoryStore[ID] {
	return &MemoryStore[ID]{snapshots: make(map[string]Snapshot[ID])}
}

func snapshotKey[ID comparable](aggregateType string, aggregateID ID) string {
	return fmt.Sprintf("%s:%v", aggregateType, aggregateID)
}

// SaveSnapshot 实现 ISnapshotStore 接口
func (s *MemoryStore[ID]) SaveSnapshot(ctx context.Context, snapshot Snapshot[ID]) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.snapshots[snapshotKey(snapshot.AggregateType, snapshot.AggregateID)] = snapshot
	return nil
}

// GetSnapshot 实现 ISnapshotStore 接口
func (s *MemoryStore[ID]) GetSnapshot(ctx context.Context, aggregateType string, aggregateID ID) (*Snapshot[ID], error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	snapshot, ok := s.snapshots[snapshotKey(aggregateType, aggregateID)]
	if !ok {
		return nil, fmt.Errorf("aggregate %v: %w", aggregateID, ErrSnapshotNotFound)
	}
	return &snapshot, nil
}

// DeleteSnapshot 实现 ISnapshotStore 接口
func (s *MemoryStore[ID]) DeleteSnapshot(ctx context.Context, aggregateType string, aggregateID ID) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.snapshots, snapshotKey(aggregateType, aggregateID))
	return nil
}
