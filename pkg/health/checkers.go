package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck fails when the database does not answer a ping.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return errors.Wrap(err, "ping")
		}
		return nil
	}
}

// PoolStat is satisfied by *pgxpool.Pool.
type PoolStat interface {
	Stat() *pgxpool.Stat
}

// PoolSaturationCheck fails when every connection of the pool is checked out
// and callers are queueing for one.
func PoolSaturationCheck(p PoolStat) CheckFunc {
	return func(context.Context) error {
		st := p.Stat()
		if st.MaxConns() > 0 && st.AcquiredConns() >= st.MaxConns() && st.EmptyAcquireCount() > 0 {
			return errors.Errorf("connection pool saturated: %d/%d acquired", st.AcquiredConns(), st.MaxConns())
		}
		return nil
	}
}

// GoroutineCountCheck fails when the process runs more than limit goroutines.
func GoroutineCountCheck(limit int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > limit {
			return errors.Errorf("goroutine count %d exceeds %d", n, limit)
		}
		return nil
	}
}
