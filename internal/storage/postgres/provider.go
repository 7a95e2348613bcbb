package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/econstore/internal/dbtx"
)

var _ dbtx.Provider = (*Provider)(nil)

// ProviderConfig controls how connections are checked out and how
// transactions start.
type ProviderConfig struct {
	// AcquireTimeout bounds the wait for a free pool connection. Zero waits
	// as long as the caller context allows.
	AcquireTimeout time.Duration
	// IsolationLevel is one of "read committed", "repeatable read" or
	// "serializable". Empty means the server default.
	IsolationLevel string
}

// Provider hands out exclusive pool connections for transactional work.
type Provider struct {
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
	txOptions      pgx.TxOptions
}

// NewProvider creates a Provider over pool.
func NewProvider(pool *pgxpool.Pool, cfg ProviderConfig) (*Provider, error) {
	iso, err := ParseIsolationLevel(cfg.IsolationLevel)
	if err != nil {
		return nil, err
	}
	return &Provider{
		pool:           pool,
		acquireTimeout: cfg.AcquireTimeout,
		txOptions:      pgx.TxOptions{IsoLevel: iso},
	}, nil
}

// ParseIsolationLevel maps a configuration value to a pgx isolation level.
func ParseIsolationLevel(s string) (pgx.TxIsoLevel, error) {
	switch level := pgx.TxIsoLevel(strings.ToLower(strings.TrimSpace(s))); level {
	case "":
		return "", nil
	case pgx.ReadCommitted, pgx.RepeatableRead, pgx.Serializable:
		return level, nil
	default:
		return "", errors.Errorf("unsupported isolation level %q", s)
	}
}

// Acquire checks out one connection, waiting at most AcquireTimeout.
func (p *Provider) Acquire(ctx context.Context) (dbtx.Conn, error) {
	acquireCtx := ctx
	if p.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, p.acquireTimeout)
		defer cancel()
	}

	c, err := p.pool.Acquire(acquireCtx)
	if err != nil {
		return nil, dbtx.Persistence("acquire connection", err)
	}
	return &conn{c: c, opts: p.txOptions}, nil
}

type conn struct {
	c    *pgxpool.Conn
	opts pgx.TxOptions
}

func (c *conn) Begin(ctx context.Context) (dbtx.Tx, error) {
	tx, err := c.c.BeginTx(ctx, c.opts)
	if err != nil {
		return nil, dbtx.Persistence("begin transaction", err)
	}
	return tx, nil
}

func (c *conn) Release() {
	c.c.Release()
}
