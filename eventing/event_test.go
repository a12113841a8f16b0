package eventing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"domainkit/domain"
)

type accountOpened struct {
	domain.EventBase
	Initial int `json:"initial"`
}

func (e *accountOpened) EventType() string { return "account.opened" }

func TestNewEvent(t *testing.T) {
	evt := NewEvent[int64](42, "Account", "account.opened", 1, map[string]any{"initial": 100})

	require.NotEmpty(t, evt.ID)
	require.Equal(t, "account.opened", evt.GetType())
	require.EqualValues(t, 42, evt.GetAggregateID())
	require.Equal(t, "Account", evt.GetAggregateType())
	require.EqualValues(t, 1, evt.GetVersion())
	require.Equal(t, 1, evt.GetSchemaVersion())
	require.NoError(t, evt.Validate())

	// 每个信封拥有唯一事件ID
	other := NewEvent[int64](42, "Account", "account.opened", 2, nil)
	require.NotEqual(t, evt.ID, other.ID)
}

func TestEventValidate(t *testing.T) {
	valid := func() *Event[int64] {
		return NewEvent[int64](1, "Account", "account.opened", 1, nil)
	}

	cases := []struct {
		name   string
		mutate func(*Event[int64])
	}{
		{"缺少事件ID", func(e *Event[int64]) { e.ID = "" }},
		{"聚合ID为零值", func(e *Event[int64]) { e.AggregateID = 0 }},
		{"缺少聚合类型", func(e *Event[int64]) { e.AggregateType = "" }},
		{"缺少事件类型", func(e *Event[int64]) { e.Type = "" }},
		{"版本为零", func(e *Event[int64]) { e.Version = 0 }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			evt := valid()
			c.mutate(evt)
			require.Error(t, evt.Validate())
		})
	}
}

func TestFromDomainEvent(t *testing.T) {
	occurred := time.Now().Add(-time.Minute)
	src := &accountOpened{EventBase: domain.EventBase{At: occurred}, Initial: 100}

	env := FromDomainEvent[string]("ACC-1", "Account", 1, src)

	require.Equal(t, "account.opened", env.GetType())
	require.Equal(t, "ACC-1", env.GetAggregateID())
	require.EqualValues(t, 1, env.GetVersion())
	require.True(t, env.GetTimestamp().Equal(occurred))
	require.Equal(t, "domain", env.GetMetadata()["source"])
	require.NoError(t, env.Validate())

	unwrapped, ok := UnwrapDomainEvent[string](env)
	require.True(t, ok)
	require.Same(t, domain.IDomainEvent(src), unwrapped)
}

func TestUnwrapDomainEventNonDomainPayload(t *testing.T) {
	env := NewEvent[string]("ACC-1", "Account", "account.opened", 1, map[string]any{"raw": true})
	_, ok := UnwrapDomainEvent[string](env)
	require.False(t, ok)
}
