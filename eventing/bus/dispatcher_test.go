package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"domainkit/eventing"
)

func TestSyncDispatcher_RoutesByType(t *testing.T) {
	ctx := context.Background()
	d := NewSyncDispatcher[int64]()

	var gotA, gotB, gotAll []string
	require.NoError(t, d.Subscribe("TypeA", func(ctx context.Context, evt eventing.IEvent[int64]) error {
		gotA = append(gotA, evt.GetID())
		return nil
	}))
	require.NoError(t, d.Subscribe("TypeB", func(ctx context.Context, evt eventing.IEvent[int64]) error {
		gotB = append(gotB, evt.GetID())
		return nil
	}))
	require.NoError(t, d.Subscribe("*", func(ctx context.Context, evt eventing.IEvent[int64]) error {
		gotAll = append(gotAll, evt.GetID())
		return nil
	}))

	e1 := eventing.NewEvent[int64](1, "Agg", "TypeA", 1, nil)
	e2 := eventing.NewEvent[int64](1, "Agg", "TypeB", 2, nil)
	require.NoError(t, d.DispatchAll(ctx, []eventing.IEvent[int64]{e1, e2}))

	require.Equal(t, []string{e1.ID}, gotA)
	require.Equal(t, []string{e2.ID}, gotB)
	require.Equal(t, []string{e1.ID, e2.ID}, gotAll)
}

func TestSyncDispatcher_NoHandlersIsNotAnError(t *testing.T) {
	d := NewSyncDispatcher[int64]()
	evt := eventing.NewEvent[int64](1, "Agg", "Unheard", 1, nil)
	require.NoError(t, d.Dispatch(context.Background(), evt))
}

func TestSyncDispatcher_JoinsHandlerErrors(t *testing.T) {
	d := NewSyncDispatcher[int64]()
	boom := errors.New("boom")
	called := 0
	require.NoError(t, d.Subscribe("TypeA", func(ctx context.Context, evt eventing.IEvent[int64]) error {
		called++
		return boom
	}))
	require.NoError(t, d.Subscribe("TypeA", func(ctx context.Context, evt eventing.IEvent[int64]) error {
		called++
		return nil
	}))

	err := d.Dispatch(context.Background(), eventing.NewEvent[int64](1, "Agg", "TypeA", 1, nil))
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	// 一个处理器失败不应阻止其余处理器执行
	require.Equal(t, 2, called)
}

func TestSyncDispatcher_SubscribeValidation(t *testing.T) {
	d := NewSyncDispatcher[int64]()
	require.Error(t, d.Subscribe("", func(ctx context.Context, evt eventing.IEvent[int64]) error { return nil }))
	require.Error(t, d.Subscribe("TypeA", nil))
}
