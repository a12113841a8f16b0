package domain

import "time"

// IDomainEvent 领域事件接口。
// 领域层仅关注事件本身的语义，不关心传输信封与存储细节。
//
// 领域事件是不可变的事实记录：一旦被聚合 Raise，只追加、不修改。
type IDomainEvent interface {
	// EventType 返回领域事件类型标识。
	// 建议使用稳定的枚举字符串，便于路由与演进。
	EventType() string

	// OccurredAt 返回事件发生时间。
	OccurredAt() time.Time
}

// EventBase 领域事件基类（用于嵌入）。
// 只承载所有事件共有的发生时间，业务字段由具体事件定义。
type EventBase struct {
	At time.Time `json:"occurred_at"`
}

// NewEventBase 以当前时间创建事件基类。
func NewEventBase() EventBase {
	return EventBase{At: time.Now()}
}

// OccurredAt 实现 IDomainEvent 接口。
func (e EventBase) OccurredAt() time.Time {
	return e.At
}
