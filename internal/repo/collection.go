package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"tech-news-api/internal/core/storage"
)

// Collection 把一个命名集合当作 []T 整体读写
type Collection[T any] struct {
	name string
	p    storage.Provider
	log  *zap.Logger
}

func NewCollection[T any](p storage.Provider, name string, l *zap.Logger) *Collection[T] {
	if l == nil {
		l = zap.NewNop()
	}
	return &Collection[T]{name: name, p: p, log: l}
}

// LoadAll 只读路径：读失败退化为空集合，解析不了的单条记录跳过
func (c *Collection[T]) LoadAll(ctx context.Context) []T {
	out, bad, err := c.decode(ctx)
	if err != nil {
		c.log.Warn("collection load failed", zap.String("collection", c.name), zap.Error(err))
		return []T{}
	}
	if bad > 0 {
		c.log.Warn("collection records skipped", zap.String("collection", c.name), zap.Int("skipped", bad))
	}
	return out
}

// Load 写路径：集合不存在返回空；读失败或有任何记录解析不了都报错，
// 避免整集合回写时把这些记录丢掉
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	out, bad, err := c.decode(ctx)
	if err != nil {
		c.log.Warn("collection load failed", zap.String("collection", c.name), zap.Error(err))
		return nil, err
	}
	if bad > 0 {
		err = fmt.Errorf("collection %s: %d undecodable records", c.name, bad)
		c.log.Warn("collection has undecodable records", zap.String("collection", c.name), zap.Int("bad", bad))
		return nil, err
	}
	return out, nil
}

func (c *Collection[T]) decode(ctx context.Context) ([]T, int, error) {
	b, err := c.p.Load(ctx, c.name)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return []T{}, 0, nil
		}
		return nil, 0, err
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		return nil, 0, fmt.Errorf("decode collection %s: %w", c.name, err)
	}
	out := make([]T, 0, len(raws))
	bad := 0
	for i, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			bad++
			c.log.Warn("collection record undecodable",
				zap.String("collection", c.name), zap.Int("index", i), zap.Error(err))
			continue
		}
		out = append(out, v)
	}
	return out, bad, nil
}

func (c *Collection[T]) SaveAll(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	return c.p.Save(ctx, c.name, b)
}
