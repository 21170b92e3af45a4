package domain

import (
	"context"
	"time"
)

// Article 文章记录。ContentType 为 plain / delta / markup
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Image       string    `json:"image"`
	Content     string    `json:"content"`
	ContentType string    `json:"contentType,omitempty"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ArticleRepository interface {
	// LoadAll 读路径，失败退化为空
	LoadAll(ctx context.Context) []Article
	// Load 读-改-写路径，数据读不全时报错
	Load(ctx context.Context) ([]Article, error)
	SaveAll(ctx context.Context, articles []Article) error
}
