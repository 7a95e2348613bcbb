package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xenking/econstore/internal/dbtx"
	"github.com/xenking/econstore/internal/domain/product"
)

// --- Connection provider fakes ---

var errUnexpectedSQL = errors.New("unexpected raw SQL on fake transaction")

type fakeTx struct {
	commits   int
	rollbacks int
	commitErr error
	rbErr     error
}

func (t *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errUnexpectedSQL
}

func (t *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errUnexpectedSQL
}

func (t *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func (t *fakeTx) Commit(context.Context) error {
	t.commits++
	return t.commitErr
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rollbacks++
	return t.rbErr
}

type fakeConn struct {
	tx       *fakeTx
	begins   int
	releases int
	beginErr error
}

func (c *fakeConn) Begin(context.Context) (dbtx.Tx, error) {
	c.begins++
	if c.beginErr != nil {
		return nil, c.beginErr
	}
	return c.tx, nil
}

func (c *fakeConn) Release() {
	c.releases++
}

type fakeProvider struct {
	conn     *fakeConn
	err      error
	acquires int
	lastCtx  context.Context
}

func (p *fakeProvider) Acquire(ctx context.Context) (dbtx.Conn, error) {
	p.acquires++
	p.lastCtx = ctx
	if p.err != nil {
		return nil, p.err
	}
	return p.conn, nil
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{conn: &fakeConn{tx: &fakeTx{}}}
}

// --- Repository mocks ---

// callLog records repository calls across mocks so tests can assert the
// order of steps.
type callLog []string

func (l *callLog) add(s string) { *l = append(*l, s) }

type stockCall struct {
	ProductID int64
	Delta     int
	Q         dbtx.Querier
}

type mockProductRepo struct {
	log       *callLog
	byID      map[int64]*product.Product
	getErr    error
	stockErrs map[int64]error

	gets       []int64
	getQ       []dbtx.Querier
	stockCalls []stockCall
}

func (m *mockProductRepo) GetByID(_ context.Context, q dbtx.Querier, id int64) (*product.Product, error) {
	m.log.add("get")
	m.gets = append(m.gets, id)
	m.getQ = append(m.getQ, q)
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) List(context.Context, dbtx.Querier, product.Filter) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) Create(context.Context, dbtx.Querier, product.NewProduct) (*product.Created, error) {
	return nil, nil
}

func (m *mockProductRepo) UpdateStock(_ context.Context, q dbtx.Querier, id int64, delta int) error {
	m.log.add("stock")
	m.stockCalls = append(m.stockCalls, stockCall{ProductID: id, Delta: delta, Q: q})
	return m.stockErrs[id]
}

type mockOrderRepo struct {
	log *callLog

	orderID   int64
	headerErr error
	headers   []Header
	headerQ   dbtx.Querier

	// itemErrs maps the zero-based insert attempt to the error it returns.
	itemErrs map[int]error
	items    []Item
	itemQ    []dbtx.Querier

	summaries    []Summary
	headersErr   error
	itemsByOrder map[int64][]ItemView
	itemsErr     map[int64]error
	batchItems   []ItemView
	batchErr     error

	listHeaderCalls int
	listItemsCalls  []int64
	batchCalls      [][]int64
}

func (m *mockOrderRepo) InsertHeader(_ context.Context, q dbtx.Querier, h Header) (int64, error) {
	m.log.add("header")
	m.headers = append(m.headers, h)
	m.headerQ = q
	if m.headerErr != nil {
		return 0, m.headerErr
	}
	return m.orderID, nil
}

func (m *mockOrderRepo) InsertItem(_ context.Context, q dbtx.Querier, it Item) error {
	m.log.add("item")
	attempt := len(m.items)
	m.items = append(m.items, it)
	m.itemQ = append(m.itemQ, q)
	return m.itemErrs[attempt]
}

func (m *mockOrderRepo) ListHeaders(context.Context, dbtx.Querier, ListFilter) ([]Summary, error) {
	m.listHeaderCalls++
	if m.headersErr != nil {
		return nil, m.headersErr
	}
	out := make([]Summary, len(m.summaries))
	copy(out, m.summaries)
	return out, nil
}

func (m *mockOrderRepo) ListItems(_ context.Context, _ dbtx.Querier, orderID int64) ([]ItemView, error) {
	m.listItemsCalls = append(m.listItemsCalls, orderID)
	if err := m.itemsErr[orderID]; err != nil {
		return nil, err
	}
	return m.itemsByOrder[orderID], nil
}

func (m *mockOrderRepo) ListItemsByOrders(_ context.Context, _ dbtx.Querier, ids []int64) ([]ItemView, error) {
	m.batchCalls = append(m.batchCalls, ids)
	return m.batchItems, m.batchErr
}
