// Package eventing 定义事件信封与事件存储层共享的错误类型
//
// 领域层只关心 domain.IDomainEvent；本包的 Event 是携带聚合路由信息与
// 流内版本号的传输/存储信封，由仓储在持久化与分发前包装而成。
package eventing

import (
	"fmt"
	"strconv"
	"time"

	"domainkit/idgen/snowflake"
)

// IEvent 基础事件接口（用于事件分发/路由）
// 包含事件分发的最小必要信息
type IEvent[ID comparable] interface {
	// GetID 获取事件ID
	GetID() string

	// GetType 获取事件类型
	GetType() string

	// GetTimestamp 获取事件发生时间
	GetTimestamp() time.Time

	// GetPayload 获取事件载荷
	GetPayload() any

	// GetMetadata 获取元数据
	GetMetadata() map[string]any

	// 聚合信息（用于路由和关联）
	GetAggregateID() ID
	GetAggregateType() string

	// GetVersion 获取事件在聚合事件流中的序号
	//
	// 注意：与实体的乐观锁版本号语义不同，该版本用于事件排序与重放。
	GetVersion() uint64
}

// IStorableEvent 扩展事件接口（用于事件持久化）
type IStorableEvent[ID comparable] interface {
	IEvent[ID]

	// GetSchemaVersion 获取事件模式版本（用于事件演进）
	GetSchemaVersion() int

	// SetAggregateType 设置聚合类型（由仓储补全）
	SetAggregateType(string)

	// Validate 校验信封完整性
	Validate() error
}

// Event 事件信封实现
// 同时实现了 IEvent 和 IStorableEvent 接口
type Event[ID comparable] struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	Timestamp     time.Time      `json:"timestamp"`
	Payload       any            `json:"payload"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	AggregateID   ID             `json:"aggregate_id"`
	AggregateType string         `json:"aggregate_type"`
	Version       uint64         `json:"version"`
	SchemaVersion int            `json:"schema_version"`
}

// 基础接口实现
func (e *Event[ID]) GetID() string            { return e.ID }
func (e *Event[ID]) GetType() string          { return e.Type }
func (e *Event[ID]) GetTimestamp() time.Time  { return e.Timestamp }
func (e *Event[ID]) GetPayload() any          { return e.Payload }
func (e *Event[ID]) GetAggregateID() ID       { return e.AggregateID }
func (e *Event[ID]) GetAggregateType() string { return e.AggregateType }
func (e *Event[ID]) GetVersion() uint64       { return e.Version }

// GetMetadata 获取元数据（惰性初始化）
func (e *Event[ID]) GetMetadata() map[string]any {
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	return e.Metadata
}

// SetMetadata 设置元数据
func (e *Event[ID]) SetMetadata(key string, value any) {
	e.GetMetadata()[key] = value
}

// 扩展接口实现
func (e *Event[ID]) GetSchemaVersion() int {
	if e.SchemaVersion <= 0 {
		return 1
	}
	return e.SchemaVersion
}

func (e *Event[ID]) SetAggregateType(t string) { e.AggregateType = t }

func (e *Event[ID]) Validate() error {
	var zero ID
	if e.ID == "" {
		return fmt.Errorf("事件ID不能为空")
	}
	if e.AggregateID == zero {
		return fmt.Errorf("聚合ID不能为零值")
	}
	if e.AggregateType == "" {
		return fmt.Errorf("聚合类型不能为空")
	}
	if e.Type == "" {
		return fmt.Errorf("事件类型不能为空")
	}
	if e.Version == 0 {
		return fmt.Errorf("事件版本必须大于0")
	}
	return nil
}

// NewEvent 创建事件信封
func NewEvent[ID comparable](aggregateID ID, aggregateType, eventType string, version uint64, payload any, schemaVersion ...int) *Event[ID] {
	sVersion := 1
	if len(schemaVersion) > 0 && schemaVersion[0] > 0 {
		sVersion = schemaVersion[0]
	}
	return &Event[ID]{
		ID:            strconv.FormatInt(snowflake.Generate(), 10),
		Type:          eventType,
		Timestamp:     time.Now(),
		Payload:       payload,
		Metadata:      make(map[string]any),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Version:       version,
		SchemaVersion: sVersion,
	}
}
