package eventsourced

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"domainkit/domain"
	"domainkit/eventing"
	"domainkit/eventing/store"
	"domainkit/eventing/store/snapshot"
)

func makeOrder(id int64) (*testOrder, error) {
	o := &testOrder{}
	base, err := NewAggregate(id, "Order", o.applyEvent)
	if err != nil {
		return nil, err
	}
	o.Aggregate = base
	return o, nil
}

func TestRepository_SaveAndGetByID(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.NewMemoryEventStore[int64](), makeOrder)

	order, err := makeOrder(100)
	require.NoError(t, err)
	require.NoError(t, order.Raise(&orderCreated{EventBase: domain.NewEventBase(), Customer: "alice"}))
	require.NoError(t, order.Raise(&itemAdded{EventBase: domain.NewEventBase(), SKU: "X", Qty: 1}))
	require.NoError(t, repo.Save(ctx, order))

	// 保存后缓冲清空，版本不变
	require.Empty(t, order.GetUncommittedEvents())
	require.EqualValues(t, 2, order.GetVersion())

	loaded, err := repo.GetByID(ctx, 100)
	require.NoError(t, err)
	require.EqualValues(t, 2, loaded.GetVersion())
	require.Equal(t, "alice", loaded.Customer)
	require.Equal(t, []string{"X"}, loaded.Items)
	require.Empty(t, loaded.GetUncommittedEvents())
}

func TestRepository_SaveNothingToDo(t *testing.T) {
	repo := NewRepository(store.NewMemoryEventStore[int64](), makeOrder)
	order, err := makeOrder(1)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), order))
}

func TestRepository_GetByIDNotFound(t *testing.T) {
	repo := NewRepository(store.NewMemoryEventStore[int64](), makeOrder)
	_, err := repo.GetByID(context.Background(), 404)
	var notFound *domain.RepositoryError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "ENTITY_NOT_FOUND", notFound.Code)
}

func TestRepository_StaleSaveConflicts(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.NewMemoryEventStore[int64](), makeOrder)

	original, err := makeOrder(7)
	require.NoError(t, err)
	require.NoError(t, original.Raise(&orderCreated{EventBase: domain.NewEventBase(), Customer: "alice"}))
	require.NoError(t, repo.Save(ctx, original))

	// 并发方在旧版本基础上先行提交
	rival, err := repo.GetByID(ctx, 7)
	require.NoError(t, err)
	require.NoError(t, rival.Raise(&itemAdded{EventBase: domain.NewEventBase(), SKU: "R", Qty: 1}))
	require.NoError(t, repo.Save(ctx, rival))

	require.NoError(t, original.Raise(&itemAdded{EventBase: domain.NewEventBase(), SKU: "S", Qty: 1}))
	err = repo.Save(ctx, original)

	var conflict *eventing.ConcurrencyError
	require.ErrorAs(t, err, &conflict)
	require.EqualValues(t, 1, conflict.Expected)
	require.EqualValues(t, 2, conflict.Actual)
	// 冲突时缓冲保留，供重载后重试
	require.Len(t, original.GetUncommittedEvents(), 1)
}

func TestRepository_DispatcherPublishesOnSave(t *testing.T) {
	ctx := context.Background()
	var published []string
	dispatcher := DomainEventDispatcherFunc(func(ctx context.Context, evt domain.IDomainEvent) error {
		published = append(published, evt.EventType())
		return nil
	})
	repo := NewRepository(store.NewMemoryEventStore[int64](), makeOrder,
		WithDispatcher[*testOrder, int64](dispatcher))

	order, err := makeOrder(1)
	require.NoError(t, err)
	require.NoError(t, order.Raise(&orderCreated{EventBase: domain.NewEventBase(), Customer: "alice"}))
	require.NoError(t, order.Raise(&itemAdded{EventBase: domain.NewEventBase(), SKU: "X", Qty: 1}))
	require.NoError(t, repo.Save(ctx, order))

	require.Equal(t, []string{"order.created", "order.item_added"}, published)
}

func TestRepository_SnapshotFastPath(t *testing.T) {
	ctx := context.Background()
	manager := snapshot.NewManager[int64](snapshot.NewMemoryStore[int64](), &snapshot.Config{Frequency: 2, Enabled: true})
	repo := NewRepository(store.NewMemoryEventStore[int64](), makeOrder,
		WithSnapshots[*testOrder, int64](manager))

	order, err := makeOrder(9)
	require.NoError(t, err)
	require.NoError(t, order.Raise(&orderCreated{EventBase: domain.NewEventBase(), Customer: "alice"}))
	require.NoError(t, order.Raise(&itemAdded{EventBase: domain.NewEventBase(), SKU: "X", Qty: 1}))
	require.NoError(t, repo.Save(ctx, order))

	// 版本2触发快照
	snap, err := manager.Latest(ctx, "Order", 9)
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.EqualValues(t, 2, snap.Version)

	// 快照之后再追加一个事件
	require.NoError(t, order.Raise(&itemAdded{EventBase: domain.NewEventBase(), SKU: "Y", Qty: 2}))
	require.NoError(t, repo.Save(ctx, order))

	loaded, err := repo.GetByID(ctx, 9)
	require.NoError(t, err)
	require.EqualValues(t, 3, loaded.GetVersion())
	require.Equal(t, "alice", loaded.Customer)
	require.Equal(t, []string{"X", "Y"}, loaded.Items)
}

func TestRepository_Exists(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.NewMemoryEventStore[int64](), makeOrder)

	ok, err := repo.Exists(ctx, 1)
	require.NoError(t, err)
	require.False(t, ok)

	order, err := makeOrder(1)
	require.NoError(t, err)
	require.NoError(t, order.Raise(&orderCreated{EventBase: domain.NewEventBase(), Customer: "alice"}))
	require.NoError(t, repo.Save(ctx, order))

	ok, err = repo.Exists(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
}
