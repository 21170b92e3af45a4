// Package media 负责上传文件的落地、生成可访问 URL，以及尽力而为的清理。
// 它不理解文章或用户，只认 area（hero-images / embedded-images）。
package media

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"tech-news-api/internal/domain"
)

type Area string

const (
	HeroImages     Area = "hero-images"
	EmbeddedImages Area = "embedded-images"
)

var Areas = []Area{HeroImages, EmbeddedImages}

func (a Area) Valid() bool { return a == HeroImages || a == EmbeddedImages }

// Backend 实际存储：本地目录或对象存储
type Backend interface {
	Put(ctx context.Context, area Area, name, contentType string, r io.Reader) error
	Remove(ctx context.Context, area Area, name string) error
}

type Manager struct {
	backend Backend
	baseURL string
	log     *zap.Logger
	now     func() time.Time
}

func NewManager(b Backend, publicBaseURL string, l *zap.Logger) *Manager {
	if l == nil {
		l = zap.NewNop()
	}
	return &Manager{
		backend: b,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		log:     l,
		now:     time.Now,
	}
}

func (m *Manager) URL(area Area, name string) string {
	return m.baseURL + "/" + string(area) + "/" + url.PathEscape(name)
}

// Store 写入 <毫秒时间戳>-<随机>-<原文件名主干><嗅探出的扩展名>，返回公开 URL
func (m *Manager) Store(ctx context.Context, r io.Reader, originalName string, area Area) (string, error) {
	if !area.Valid() {
		return "", domain.Internal("store media", fmt.Errorf("unknown area %q", area))
	}
	body, ctype, ext, err := sniffImage(r)
	if err != nil {
		return "", err
	}
	name := m.fileName(originalName, ext)
	if err := m.backend.Put(ctx, area, name, ctype, body); err != nil {
		mediaOps.WithLabelValues(string(area), "store", "error").Inc()
		return "", domain.Internal("store media", err)
	}
	mediaOps.WithLabelValues(string(area), "store", "ok").Inc()
	u := m.URL(area, name)
	m.log.Debug("media stored", zap.String("area", string(area)), zap.String("url", u))
	return u, nil
}

// Owns URL 是否属于该 area；返回磁盘/对象上的文件名
func (m *Manager) Owns(rawURL string, area Area) (string, bool) {
	if rawURL == "" || !area.Valid() {
		return "", false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	segment := "/" + string(area) + "/"
	p := u.Path
	if base, err := url.Parse(m.baseURL); err == nil && base.Host != "" {
		if u.Host != "" && !strings.EqualFold(u.Host, base.Host) {
			return "", false
		}
		// 去掉 baseURL 自带的路径前缀（例如 S3 的 /bucket）
		p = strings.TrimPrefix(p, strings.TrimRight(base.Path, "/"))
	}
	if !strings.HasPrefix(p, segment) {
		return "", false
	}
	name := strings.TrimPrefix(p, segment)
	if name == "" || strings.Contains(name, "/") || name == "." || name == ".." {
		return "", false
	}
	return name, true
}

// Delete 尽力而为：失败只记日志，不向上抛
func (m *Manager) Delete(ctx context.Context, rawURL string, area Area) {
	name, ok := m.Owns(rawURL, area)
	if !ok {
		if rawURL != "" {
			m.log.Debug("media delete skipped: not owned", zap.String("url", rawURL), zap.String("area", string(area)))
		}
		return
	}
	if err := m.backend.Remove(ctx, area, name); err != nil {
		mediaOps.WithLabelValues(string(area), "delete", "error").Inc()
		m.log.Warn("media delete failed", zap.String("url", rawURL), zap.String("area", string(area)), zap.Error(err))
		return
	}
	mediaOps.WithLabelValues(string(area), "delete", "ok").Inc()
}

// fileName 扩展名取自嗅探结果，原文件名只保留主干
func (m *Manager) fileName(original, ext string) string {
	var rnd [4]byte
	_, _ = rand.Read(rnd[:])
	stem := safeName(original)
	stem = strings.TrimSuffix(stem, path.Ext(stem))
	if stem == "" {
		stem = "file"
	}
	return fmt.Sprintf("%d-%s-%s%s", m.now().UnixMilli(), hex.EncodeToString(rnd[:]), stem, ext)
}

// safeName 只保留文件名本身和安全字符
func safeName(original string) string {
	base := path.Base(strings.ReplaceAll(original, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	s := strings.Trim(b.String(), ".")
	if s == "" {
		return "file"
	}
	if len(s) > 100 {
		s = s[len(s)-100:]
	}
	return s
}
