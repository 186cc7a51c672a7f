package planos

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/friendsofgo/errors"
	"github.com/sirupsen/logrus"

	"github.com/credfolha/planos-backoffice/internal/pgdb"
)

const (
	// DefaultCountBudget is the statement timeout applied to count queries.
	DefaultCountBudget = 1500 * time.Millisecond

	// DefaultCountCacheTTL is how long a computed total stays served from
	// memory before the query runs again.
	DefaultCountCacheTTL = 60 * time.Second
)

// TxBeginner starts a transaction on a leased connection. Sessions and bare
// sql handles both satisfy it.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// CountCache remembers recent totals per filter signature. Totals are
// advisory, so serving one up to a TTL stale is acceptable and keeps the
// expensive count off the hot path.
type CountCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]countEntry
}

type countEntry struct {
	total   int
	expires time.Time
}

func NewCountCache(ttl time.Duration) *CountCache {
	if ttl <= 0 {
		ttl = DefaultCountCacheTTL
	}
	return &CountCache{ttl: ttl, entries: map[string]countEntry{}}
}

// Get returns the cached total for key while it is still fresh.
func (c *CountCache) Get(key string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expires) {
		return 0, false
	}
	return e.total, true
}

// Put stores a total and sweeps out entries that already expired, so the
// cache cannot grow beyond the filter combinations used within one TTL.
func (c *CountCache) Put(key string, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = countEntry{total: total, expires: now.Add(c.ttl)}
}

// CountRunner executes one count query under a time budget. The default
// implementation runs against the database; tests swap in a fake.
type CountRunner func(ctx context.Context, db TxBeginner, query string, args []any, budget time.Duration) (int, error)

func runCount(ctx context.Context, db TxBeginner, query string, args []any, budget time.Duration) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "starting count transaction")
	}
	defer tx.Rollback()

	// SET LOCAL scopes the timeout to this transaction, so the leased
	// connection goes back to the pool with its defaults intact.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", budget.Milliseconds())); err != nil {
		return 0, errors.Wrap(err, "applying count budget")
	}

	var total int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}

	return total, tx.Commit()
}

// Counter produces the totals shown next to the listing. A total is never
// worth blocking the page for: the query runs under a statement timeout,
// recent results are served from cache, and when the budget is blown the
// total degrades to unknown.
type Counter struct {
	cache  *CountCache
	budget time.Duration
	runner CountRunner
	log    *logrus.Entry
}

func NewCounter(cache *CountCache, budget time.Duration, log *logrus.Entry) *Counter {
	if budget <= 0 {
		budget = DefaultCountBudget
	}
	return &Counter{cache: cache, budget: budget, runner: runCount, log: log}
}

// WithRunner replaces the query runner and returns the counter. Tests use it
// to simulate timeouts without a database.
func (c *Counter) WithRunner(r CountRunner) *Counter {
	c.runner = r
	return c
}

// Count returns the total row count for pred, or nil when it is unknown.
// key scopes the cache entry; callers prefix it with the session user so
// row level security never leaks one user's total to another.
func (c *Counter) Count(ctx context.Context, db TxBeginner, pred *Predicate, key string) *int {
	if total, ok := c.cache.Get(key); ok {
		return &total
	}

	query := "SELECT count(*) FROM vw_planos_gestao t"
	if clause := pred.Clause(); clause != "" {
		query += " WHERE " + clause
	}

	total, err := c.runner(ctx, db, query, pred.Args(), c.budget)
	if err != nil {
		if pgdb.IsQueryCanceled(err) {
			c.log.WithField("filtros", key).Warn("plan count exceeded its time budget")
		} else {
			c.log.WithError(err).Warn("plan count failed")
		}
		return nil
	}

	c.cache.Put(key, total)
	return &total
}
