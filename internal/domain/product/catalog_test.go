package product

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/econstore/internal/dbtx"
)

type mockRepo struct {
	created   []NewProduct
	createErr error
	filters   []Filter
	products  []Product
}

func (m *mockRepo) GetByID(_ context.Context, _ dbtx.Querier, id int64) (*Product, error) {
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) List(_ context.Context, _ dbtx.Querier, f Filter) ([]Product, error) {
	m.filters = append(m.filters, f)
	return m.products, nil
}

func (m *mockRepo) Create(_ context.Context, _ dbtx.Querier, p NewProduct) (*Created, error) {
	m.created = append(m.created, p)
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &Created{ID: 101, Name: p.Name}, nil
}

func (m *mockRepo) UpdateStock(context.Context, dbtx.Querier, int64, int) error {
	return nil
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func stock(n int) *int { return &n }

func TestCatalogCreate(t *testing.T) {
	repo := &mockRepo{}
	c := NewCatalog(nil, repo)

	created, err := c.Create(context.Background(), Draft{
		Name:     "  Novo Produto Teste ",
		Price:    price("99.99"),
		Stock:    stock(50),
		ImageURL: "http://example.com/imagem.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, &Created{ID: 101, Name: "Novo Produto Teste"}, created)
	require.Len(t, repo.created, 1)
	assert.Equal(t, 50, repo.created[0].Stock)
}

func TestCatalogCreate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		p    Draft
	}{
		{name: "missing name", p: Draft{Price: price("10"), Stock: stock(1)}},
		{name: "blank name", p: Draft{Name: "   ", Price: price("10"), Stock: stock(1)}},
		{name: "missing price and stock", p: Draft{Name: "Lamp"}},
		{name: "missing stock", p: Draft{Name: "Lamp", Price: price("1")}},
		{name: "missing price", p: Draft{Name: "Lamp", Stock: stock(1)}},
		{name: "negative price", p: Draft{Name: "X", Price: price("-1"), Stock: stock(1)}},
		{name: "negative stock", p: Draft{Name: "X", Price: price("1"), Stock: stock(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepo{}
			_, err := NewCatalog(nil, repo).Create(context.Background(), tt.p)
			require.ErrorIs(t, err, ErrInvalidProduct)
			assert.Empty(t, repo.created)
		})
	}
}

func TestCatalogCreate_PersistenceError(t *testing.T) {
	storeErr := dbtx.Persistence("insert product", errors.New("connection lost"))
	repo := &mockRepo{createErr: storeErr}

	_, err := NewCatalog(nil, repo).Create(context.Background(), Draft{
		Name:  "Produto",
		Price: price("1"),
		Stock: stock(0),
	})

	var pErr *dbtx.PersistenceError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, "insert product", pErr.Op)
}

func TestCatalogListAndGet(t *testing.T) {
	repo := &mockRepo{products: []Product{{ID: 1, Name: "Product A"}, {ID: 2, Name: "Product B"}}}
	c := NewCatalog(nil, repo)

	list, err := c.List(context.Background(), Filter{Search: " polo "})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, []Filter{{Search: "polo"}}, repo.filters)

	p, err := c.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Product B", p.Name)

	_, err = c.Get(context.Background(), 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsufficientStockError(t *testing.T) {
	err := error(&InsufficientStockError{ProductID: 1, Available: 2, Requested: 5})

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.EqualError(t, err, "insufficient stock for product 1: requested 5, available 2")
	assert.NotErrorIs(t, err, ErrNotFound)
}
