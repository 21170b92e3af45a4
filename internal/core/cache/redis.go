package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

var ErrMiss = errors.New("cache miss")

// Backend 缓存介质；Get 未命中返回 ErrMiss
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type Cache struct {
	b      Backend
	prefix string
	sf     singleflight.Group
}

func New(b Backend, prefix string) *Cache { return &Cache{b: b, prefix: prefix} }

type RedisBackend struct{ RDB *redis.Client }

func NewRedis(addr, pass string, db int) *RedisBackend {
	return &RedisBackend{RDB: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.RDB.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

func (r *RedisBackend) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return r.RDB.Set(ctx, key, val, ttl).Err()
}

func (r *RedisBackend) Close() error { return r.RDB.Close() }

// GetOrLoad 缓存读失败一律回源；写缓存失败不影响结果
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	key = c.prefix + key
	if b, err := c.b.Get(ctx, key); err == nil {
		return b, nil
	}
	// single flight 合并回源
	v, err, _ := c.sf.Do(key, func() (any, error) {
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		_ = c.b.Set(ctx, key, b, ttl)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
