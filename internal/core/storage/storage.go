// Package storage 提供“整集合读 / 整集合写”的持久化抽象。
// 上层（repo）只关心字节，不关心背后是文件、Redis 还是数据库。
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotExist 集合从未保存过
var ErrNotExist = errors.New("collection does not exist")

type Provider interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, data []byte) error
}

const (
	DriverFile  = "file"
	DriverRedis = "redis"
	DriverGorm  = "gorm"
)

var ErrUnsupportedDriver = errors.New("unsupported storage driver")

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("empty collection name")
	}
	for _, r := range name {
		ok := r == '-' || r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			return fmt.Errorf("invalid collection name %q", name)
		}
	}
	return nil
}
