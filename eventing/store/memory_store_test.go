package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"domainkit/eventing"
)

func storable(events ...*eventing.Event[int64]) []eventing.IStorableEvent[int64] {
	out := make([]eventing.IStorableEvent[int64], len(events))
	for i, e := range events {
		out[i] = e
	}
	return out
}

func TestMemoryEventStore_AppendAndLoad(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryEventStore[int64]()

	e1 := eventing.NewEvent[int64](1, "Order", "Created", 1, nil)
	e2 := eventing.NewEvent[int64](1, "Order", "ItemAdded", 2, nil)
	require.NoError(t, s.AppendEvents(ctx, 1, storable(e1, e2), 0))

	loaded, err := s.LoadEvents(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	require.Equal(t, e1.ID, loaded[0].ID)
	require.Equal(t, e2.ID, loaded[1].ID)

	// 增量加载：跳过已重放的版本
	tail, err := s.LoadEvents(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	require.Equal(t, e2.ID, tail[0].ID)
}

func TestMemoryEventStore_OptimisticLock(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryEventStore[int64]()

	e1 := eventing.NewEvent[int64](1, "Order", "Created", 1, nil)
	require.NoError(t, s.AppendEvents(ctx, 1, storable(e1), 0))

	// 使用过期的 expectedVersion 追加应返回并发冲突
	stale := eventing.NewEvent[int64](1, "Order", "ItemAdded", 1, nil)
	err := s.AppendEvents(ctx, 1, storable(stale), 0)
	require.Error(t, err)
	require.True(t, eventing.IsConcurrencyError(err))

	var ce *eventing.ConcurrencyError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, uint64(0), ce.Expected)
	require.Equal(t, uint64(1), ce.Actual)
}

func TestMemoryEventStore_RejectsNonSequentialVersions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryEventStore[int64]()

	// 版本应从 expectedVersion+1 开始连续
	gap := eventing.NewEvent[int64](1, "Order", "Created", 3, nil)
	err := s.AppendEvents(ctx, 1, storable(gap), 0)
	require.Error(t, err)

	var storeErr *eventing.EventStoreError
	require.ErrorAs(t, err, &storeErr)
}

func TestMemoryEventStore_Inspector(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryEventStore[int64]()

	exists, err := s.HasAggregate(ctx, 1)
	require.NoError(t, err)
	require.False(t, exists)

	version, err := s.GetAggregateVersion(ctx, 1)
	require.NoError(t, err)
	require.Zero(t, version)

	e1 := eventing.NewEvent[int64](1, "Order", "Created", 1, nil)
	e2 := eventing.NewEvent[int64](1, "Order", "ItemAdded", 2, nil)
	require.NoError(t, s.AppendEvents(ctx, 1, storable(e1, e2), 0))

	exists, err = s.HasAggregate(ctx, 1)
	require.NoError(t, err)
	require.True(t, exists)

	version, err = s.GetAggregateVersion(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(2), version)
}

func TestMemoryEventStore_StringID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryEventStore[string]()

	e1 := eventing.NewEvent[string]("acc-1", "Account", "Opened", 1, nil)
	require.NoError(t, s.AppendEvents(ctx, "acc-1", []eventing.IStorableEvent[string]{e1}, 0))

	loaded, err := s.LoadEvents(ctx, "acc-1", 0)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
}
