// Package cache provides caching infrastructure with PostgreSQL LISTEN/NOTIFY support.
package cache

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"smartfilter/internal/domain/filter"
	"smartfilter/pkg/logger"
)

// ChannelSchemaChanged is the NOTIFY channel carrying a table name (or nothing for "all tables").
const ChannelSchemaChanged = "schema_changed"

// SchemaCache decorates a filter.SchemaIntrospector with a per-table cache.
// Entries are loaded on first use and dropped when a schema_changed
// notification names their table.
type SchemaCache struct {
	inner filter.SchemaIntrospector
	pool  *pgxpool.Pool

	mu     sync.RWMutex
	tables map[string]*tableEntry

	// Listeners for cache invalidation
	listeners   []InvalidationListener
	listenersMu sync.RWMutex

	// Lifecycle
	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

type tableEntry struct {
	columns []string
	types   map[string]filter.Type
}

var _ filter.SchemaIntrospector = (*SchemaCache)(nil)

// InvalidationListener is called when cache is invalidated.
type InvalidationListener func(channel string, payload string)

// NewSchemaCache creates a cache over inner. pool may be nil, in which case
// Start is a no-op and entries live until Invalidate is called.
func NewSchemaCache(inner filter.SchemaIntrospector, pool *pgxpool.Pool) *SchemaCache {
	return &SchemaCache{
		inner:  inner,
		pool:   pool,
		tables: make(map[string]*tableEntry),
	}
}

// ListColumns implements filter.SchemaIntrospector.
func (c *SchemaCache) ListColumns(ctx context.Context, table string) ([]string, error) {
	c.mu.RLock()
	entry, ok := c.tables[table]
	c.mu.RUnlock()
	if ok && entry.columns != nil {
		return slices.Clone(entry.columns), nil
	}

	columns, err := c.inner.ListColumns(ctx, table)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entry(table).columns = slices.Clone(columns)
	c.mu.Unlock()
	return columns, nil
}

// ColumnType implements filter.SchemaIntrospector.
func (c *SchemaCache) ColumnType(ctx context.Context, table, column string) (filter.Type, error) {
	c.mu.RLock()
	entry, ok := c.tables[table]
	var t filter.Type
	if ok {
		t, ok = entry.types[column]
	}
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	t, err := c.inner.ColumnType(ctx, table, column)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entry(table).types[column] = t
	c.mu.Unlock()
	return t, nil
}

// entry returns the entry for table, creating it. Caller holds mu.
func (c *SchemaCache) entry(table string) *tableEntry {
	e, ok := c.tables[table]
	if !ok {
		e = &tableEntry{types: make(map[string]filter.Type)}
		c.tables[table] = e
	}
	return e
}

// Invalidate drops the cached entry of table, or every entry when table is empty.
func (c *SchemaCache) Invalidate(table string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if table == "" {
		c.tables = make(map[string]*tableEntry)
		return
	}
	delete(c.tables, table)
}

// Start begins listening for NOTIFY events.
func (c *SchemaCache) Start(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c.lifecycleMu.Lock()
	if c.started {
		c.lifecycleMu.Unlock()
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true
	c.lifecycleMu.Unlock()

	c.wg.Add(1)
	go c.listenLoop()
	logger.Info(c.ctx, "schema cache started")
	return nil
}

// Stop gracefully stops the cache listener.
func (c *SchemaCache) Stop() {
	c.lifecycleMu.Lock()
	if !c.started {
		c.lifecycleMu.Unlock()
		return
	}
	cancel := c.cancel
	c.started = false
	c.cancel = nil
	c.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	logger.Info(context.Background(), "schema cache stopped")
}

// listenLoop listens for PostgreSQL NOTIFY events.
func (c *SchemaCache) listenLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		// Acquire dedicated connection for LISTEN
		conn, err := c.pool.Acquire(c.ctx)
		if err != nil {
			logger.Error(c.ctx, "failed to acquire connection for LISTEN", "error", err)
			time.Sleep(time.Second)
			continue
		}

		if _, err = conn.Exec(c.ctx, "LISTEN "+ChannelSchemaChanged); err != nil {
			logger.Error(c.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			time.Sleep(time.Second)
			continue
		}

		logger.Info(c.ctx, "listening for schema_changed notifications")

		// A lost connection may have missed notifications
		c.Invalidate("")
		c.waitForNotifications(conn)
		conn.Release()
	}
}

// waitForNotifications blocks waiting for NOTIFY events.
func (c *SchemaCache) waitForNotifications(conn *pgxpool.Conn) {
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		// Wait for notification with timeout for graceful shutdown
		ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if conn.Conn().IsClosed() {
				return
			}
			continue
		}

		logger.FromContext(c.ctx).Debugw("received notification",
			"channel", notification.Channel,
			"payload", notification.Payload)

		c.handleNotification(notification.Channel, notification.Payload)
	}
}

// handleNotification processes NOTIFY event.
func (c *SchemaCache) handleNotification(channel, payload string) {
	if channel != ChannelSchemaChanged {
		return
	}
	c.Invalidate(strings.TrimSpace(payload))

	// Notify registered listeners with panic recovery (no goroutine fan-out).
	c.listenersMu.RLock()
	for _, listener := range c.listeners {
		func(l InvalidationListener) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error(context.Background(), "listener panic recovered", "channel", channel, "panic", r)
				}
			}()
			l(channel, payload)
		}(listener)
	}
	c.listenersMu.RUnlock()
}

// OnInvalidation registers a callback for cache invalidation events.
func (c *SchemaCache) OnInvalidation(listener InvalidationListener) {
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, listener)
	c.listenersMu.Unlock()
}

// CacheStats describes the cache contents.
type CacheStats struct {
	TablesCached []string
	ColumnTypes  int
}

// GetStats returns current cache statistics.
func (c *SchemaCache) GetStats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CacheStats{TablesCached: make([]string, 0, len(c.tables))}
	for table, e := range c.tables {
		stats.TablesCached = append(stats.TablesCached, table)
		stats.ColumnTypes += len(e.types)
	}
	slices.Sort(stats.TablesCached)
	return stats
}
