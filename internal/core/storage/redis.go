package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

type RedisProvider struct {
	RDB    *redis.Client
	Prefix string
}

func NewRedisProvider(addr, pass string, db int, prefix string) *RedisProvider {
	return &RedisProvider{
		RDB:    redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
		Prefix: prefix,
	}
}

func (p *RedisProvider) key(name string) string { return p.Prefix + name }

func (p *RedisProvider) Load(ctx context.Context, name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	b, err := p.RDB.Get(ctx, p.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotExist
	}
	return b, err
}

// Save 整集合覆盖，不设置过期
func (p *RedisProvider) Save(ctx context.Context, name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	return p.RDB.Set(ctx, p.key(name), data, 0).Err()
}

func (p *RedisProvider) Close() error { return p.RDB.Close() }
