package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"
)

// FileProvider 每个集合一个 <dir>/<name>.json
type FileProvider struct {
	Dir string
	sf  singleflight.Group
}

func NewFileProvider(dir string) (*FileProvider, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &FileProvider{Dir: dir}, nil
}

func (p *FileProvider) path(name string) string {
	return filepath.Join(p.Dir, name+".json")
}

// Load 并发读同一个集合时合并成一次磁盘读取（不跨调用缓存）
func (p *FileProvider) Load(_ context.Context, name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	v, err, _ := p.sf.Do(name, func() (any, error) {
		b, err := os.ReadFile(p.path(name))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotExist
		}
		return b, err
	})
	if err != nil {
		return nil, err
	}
	// 共享结果的调用方各拿一份拷贝
	b := v.([]byte)
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// Save 先写临时文件再 rename，避免写一半崩溃把集合写坏
func (p *FileProvider) Save(_ context.Context, name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(p.Dir, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpName, p.path(name)); err != nil {
		cleanup()
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
