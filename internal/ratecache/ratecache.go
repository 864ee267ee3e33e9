// Package ratecache хранит редко меняющиеся внешние данные (курсы валют)
// в памяти процесса с фиксированным TTL.
//
// На каждый ключ в полёте не больше одного обновления: конкурентные запросы
// при холодном кеше ждут результат того же вызова fetcher. Возраст записи
// считается по монотонным часам. Если задан Shared, значение сначала ищется
// в общем кеше, чтобы несколько инстансов не ходили во внешний API каждый сам.
package ratecache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/magabrotheeeer/bizfinance/internal/lib/sl"
)

// Shared общий кеш между инстансами, например Redis.
type Shared interface {
	GetWithTTL(ctx context.Context, key string, result any) (bool, time.Duration, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache кеш с обновлением по требованию.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
	shared  Shared
	log     *slog.Logger
	now     func() time.Time
}

// New создаёт кеш. shared может быть nil.
func New(log *slog.Logger, shared Shared) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		shared:  shared,
		log:     log,
		now:     time.Now,
	}
}

// WithClock подменяет часы. time.Now несёт монотонную составляющую,
// подменённые часы должны быть монотонными сами.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

func (c *Cache) lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) store(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// GetOrRefresh возвращает свежее значение по ключу или получает его через fetch.
//
// fetch вызывается не чаще одного раза на ключ одновременно. Отмена ctx вызывающего
// не прерывает уже начатое обновление, чтобы не подвести остальных ожидающих.
// Ошибка fetch не кешируется.
func GetOrRefresh[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fetch func(ctx context.Context) (T, error)) (T, error) {
	const op = "ratecache.GetOrRefresh"
	var zero T

	if v, ok := c.lookup(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	ch := c.group.DoChan(key, func() (any, error) {
		if v, ok := c.lookup(key); ok {
			return v, nil
		}

		detached := context.WithoutCancel(ctx)
		if c.shared != nil {
			var fromShared T
			found, remaining, err := c.shared.GetWithTTL(detached, key, &fromShared)
			if err != nil {
				c.log.Warn("shared cache read failed", slog.String("key", key), sl.Err(err))
			}
			if found && remaining > 0 {
				c.store(key, fromShared, min(remaining, ttl))
				return fromShared, nil
			}
		}

		fresh, err := fetch(detached)
		if err != nil {
			return nil, err
		}
		c.store(key, fresh, ttl)
		if c.shared != nil {
			if err := c.shared.Set(detached, key, fresh, ttl); err != nil {
				c.log.Warn("shared cache write failed", slog.String("key", key), sl.Err(err))
			}
		}
		return fresh, nil
	})

	select {
	case <-ctx.Done():
		return zero, fmt.Errorf("%s: %w", op, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return zero, fmt.Errorf("%s: %w", op, res.Err)
		}
		typed, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("%s: unexpected value type %T for key %s", op, res.Val, key)
		}
		return typed, nil
	}
}
