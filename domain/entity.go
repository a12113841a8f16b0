// Package domain 定义领域模型的核心抽象
//
// 设计原则：
// 1. 接口最小化 - 每个接口只包含必需的方法
// 2. 组合优于继承 - 通过嵌入 Entity 基类复用标识语义
// 3. 泛型支持 - 提供类型安全的 ID 类型（int64、string、UUID等）
package domain

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// IObject 最基础的对象接口，所有实体的根接口。
type IObject[T comparable] interface {
	// GetID 返回对象的唯一标识
	GetID() T
}

// IEntity 实体接口，在 IObject 基础上增加版本控制。
// 版本号用于乐观锁，防止并发冲突。
type IEntity[T comparable] interface {
	IObject[T]

	// GetVersion 返回实体的乐观锁版本号
	// 每次修改都应该递增版本号，用于并发冲突检测
	GetVersion() int64
}

// IValidatable 可验证接口。
// 实现此接口的实体可以验证自身状态的有效性。
type IValidatable interface {
	// Validate 验证实体状态是否有效
	// 返回 error 表示验证失败，nil 表示验证成功
	Validate() error
}

// Entity 基于标识的实体基类（用于嵌入）。
//
// 实体的相等性由标识决定，与字段值无关：
//   - ID 等于类型零值的实体视为瞬态（尚未持久化），只与自身相等；
//   - 持久化实体之间比较运行时类型与标识。
type Entity[T comparable] struct {
	id T

	hashOnce sync.Once
	hash     uint64
}

// NewEntity 创建实体基类。
func NewEntity[T comparable](id T) Entity[T] {
	return Entity[T]{id: id}
}

// GetID 实现 IObject 接口。
func (e *Entity[T]) GetID() T {
	return e.id
}

// IsTransient 判断实体是否为瞬态（ID 为类型零值，尚未持久化）。
func (e *Entity[T]) IsTransient() bool {
	var zero T
	return e.id == zero
}

// IdentityHash 返回基于标识的哈希值。
//
// 持久化实体的哈希在首次调用时基于标识计算一次并缓存，此后保持稳定，
// 不受其他可变字段影响；瞬态实体每次调用基于自身引用计算，
// 与瞬态实体"仅引用相等"的语义保持一致。
func (e *Entity[T]) IdentityHash() uint64 {
	if e.IsTransient() {
		return xxhash.Sum64String(fmt.Sprintf("%p", e))
	}
	e.hashOnce.Do(func() {
		e.hash = xxhash.Sum64String(fmt.Sprintf("%v", e.id))
	})
	return e.hash
}

// Equal 判断两个实体是否为同一业务对象。
//
// 规则：
//   - 任一方为 nil：false
//   - 引用相同：true
//   - 运行时类型不同：false
//   - 任一方为瞬态：false（瞬态实体只与自身相等）
//   - 否则比较标识
//
// 与 IdentityHash 满足经典契约：Equal(a, b) 为 true 时两者哈希必然相等。
// 该函数对合法输入永不 panic、永不返回错误。
func Equal[T comparable](a, b IObject[T]) bool {
	if isNil(a) || isNil(b) {
		return false
	}
	if a == b {
		return true
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	var zero T
	if a.GetID() == zero || b.GetID() == zero {
		return false
	}
	return a.GetID() == b.GetID()
}

// isNil 兼容接口中携带 nil 指针的情况。
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
