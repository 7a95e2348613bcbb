package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoOrders() []Summary {
	return []Summary{
		{
			ID:            2,
			Total:         decimal.NewFromInt(150),
			Status:        StatusPending,
			UserID:        11,
			CustomerName:  "Cliente B",
			CustomerEmail: "b@mail.com",
			CreatedAt:     time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:            1,
			Total:         decimal.NewFromInt(100),
			Status:        StatusApproved,
			UserID:        10,
			CustomerName:  "Cliente A",
			CustomerEmail: "a@mail.com",
			CreatedAt:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func item(id, orderID, productID int64, name string, qty int, price int64) ItemView {
	return ItemView{
		ID:          id,
		OrderID:     orderID,
		ProductID:   productID,
		ProductName: name,
		Quantity:    qty,
		UnitPrice:   decimal.NewFromInt(price),
	}
}

func TestListAll_AttachesItemsPerOrder(t *testing.T) {
	repo := &mockOrderRepo{
		summaries: twoOrders(),
		itemsByOrder: map[int64][]ItemView{
			1: {item(1, 1, 100, "Produto X", 1, 100)},
			2: {item(2, 2, 101, "Produto Y", 2, 75)},
		},
	}
	l := NewLister(nil, repo, ListerOptions{})

	result, err := l.ListAll(context.Background(), ListFilter{})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.listHeaderCalls)
	assert.Equal(t, []int64{2, 1}, repo.listItemsCalls, "one item query per order, in header order")

	require.Len(t, result, 2)
	assert.Equal(t, int64(2), result[0].ID)
	assert.Equal(t, "Cliente B", result[0].CustomerName)
	assert.Equal(t, []ItemView{item(2, 2, 101, "Produto Y", 2, 75)}, result[0].Items)
	assert.Equal(t, int64(1), result[1].ID)
	assert.Equal(t, []ItemView{item(1, 1, 100, "Produto X", 1, 100)}, result[1].Items)
}

func TestListAll_OrderWithoutItemsGetsEmptySlice(t *testing.T) {
	repo := &mockOrderRepo{summaries: twoOrders()}
	l := NewLister(nil, repo, ListerOptions{})

	result, err := l.ListAll(context.Background(), ListFilter{})
	require.NoError(t, err)

	require.Len(t, result, 2)
	for _, o := range result {
		assert.NotNil(t, o.Items)
		assert.Empty(t, o.Items)
	}
	assert.Len(t, repo.listItemsCalls, 2)
}

func TestListAll_NoOrders(t *testing.T) {
	repo := &mockOrderRepo{}
	l := NewLister(nil, repo, ListerOptions{})

	result, err := l.ListAll(context.Background(), ListFilter{})
	require.NoError(t, err)

	assert.NotNil(t, result)
	assert.Empty(t, result)
	assert.Equal(t, 1, repo.listHeaderCalls)
	assert.Empty(t, repo.listItemsCalls, "no item query when there are no orders")
}

func TestListAll_HeaderQueryFails(t *testing.T) {
	dbErr := errors.New("connection refused while listing orders")
	repo := &mockOrderRepo{headersErr: dbErr}
	l := NewLister(nil, repo, ListerOptions{})

	result, err := l.ListAll(context.Background(), ListFilter{})
	require.Error(t, err)
	assert.Same(t, dbErr, err)
	assert.Nil(t, result)
	assert.Empty(t, repo.listItemsCalls)
}

func TestListAll_ItemQueryFails(t *testing.T) {
	dbErr := errors.New("items query failed")
	repo := &mockOrderRepo{
		summaries: twoOrders(),
		itemsErr:  map[int64]error{1: dbErr},
	}
	l := NewLister(nil, repo, ListerOptions{})

	result, err := l.ListAll(context.Background(), ListFilter{})
	require.Error(t, err)
	assert.Same(t, dbErr, err)
	assert.Nil(t, result)
}

func TestListAll_Batched(t *testing.T) {
	repo := &mockOrderRepo{
		summaries: append(twoOrders(), Summary{ID: 3, Status: StatusPending}),
		batchItems: []ItemView{
			item(1, 1, 100, "Produto X", 1, 100),
			item(2, 2, 101, "Produto Y", 2, 75),
			item(3, 1, 102, "Produto Z", 4, 10),
		},
	}
	l := NewLister(nil, repo, ListerOptions{BatchItems: true})

	result, err := l.ListAll(context.Background(), ListFilter{})
	require.NoError(t, err)

	assert.Empty(t, repo.listItemsCalls)
	require.Len(t, repo.batchCalls, 1)
	assert.Equal(t, []int64{2, 1, 3}, repo.batchCalls[0])

	require.Len(t, result, 3)
	assert.Equal(t, []ItemView{item(2, 2, 101, "Produto Y", 2, 75)}, result[0].Items)
	assert.Equal(t, []ItemView{
		item(1, 1, 100, "Produto X", 1, 100),
		item(3, 1, 102, "Produto Z", 4, 10),
	}, result[1].Items)
	assert.NotNil(t, result[2].Items)
	assert.Empty(t, result[2].Items)
}

func TestListAll_BatchedQueryFails(t *testing.T) {
	dbErr := errors.New("batch failed")
	repo := &mockOrderRepo{summaries: twoOrders(), batchErr: dbErr}
	l := NewLister(nil, repo, ListerOptions{BatchItems: true})

	_, err := l.ListAll(context.Background(), ListFilter{})
	assert.Same(t, dbErr, err)
}
