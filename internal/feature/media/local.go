package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalBackend <Root>/<area>/<name>
type LocalBackend struct {
	Root string
}

func NewLocalBackend(root string) (*LocalBackend, error) {
	for _, a := range Areas {
		if err := os.MkdirAll(filepath.Join(root, string(a)), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", a, err)
		}
	}
	return &LocalBackend{Root: root}, nil
}

func (b *LocalBackend) Dir(area Area) string { return filepath.Join(b.Root, string(area)) }

func (b *LocalBackend) Put(_ context.Context, area Area, name, _ string, r io.Reader) error {
	dst := filepath.Join(b.Dir(area), filepath.Base(name))
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return err
	}
	return f.Close()
}

func (b *LocalBackend) Remove(_ context.Context, area Area, name string) error {
	return os.Remove(filepath.Join(b.Dir(area), filepath.Base(name)))
}
