package eventing

import "domainkit/domain"

// FromDomainEvent 将领域事件包装为携带聚合路由信息的信封
//
// 信封的时间戳取领域事件的发生时间，载荷为领域事件本身；
// version 为该事件在聚合事件流中的序号（从1开始）。
func FromDomainEvent[ID comparable](aggregateID ID, aggregateType string, version uint64, evt domain.IDomainEvent) *Event[ID] {
	env := NewEvent(aggregateID, aggregateType, evt.EventType(), version, evt)
	env.Timestamp = evt.OccurredAt()
	env.SetMetadata("source", "domain")
	env.SetMetadata("event_sourced", true)
	return env
}

// UnwrapDomainEvent 从信封中取回领域事件
//
// 载荷不是领域事件时返回 false（例如经过跨进程反序列化后的信封，
// 其载荷形态由序列化格式决定，不在本库契约内）。
func UnwrapDomainEvent[ID comparable](env IEvent[ID]) (domain.IDomainEvent, bool) {
	evt, ok := env.GetPayload().(domain.IDomainEvent)
	return evt, ok
}
