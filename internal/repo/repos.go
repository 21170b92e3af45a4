package repo

import (
	"go.uber.org/zap"

	"tech-news-api/internal/core/storage"
	"tech-news-api/internal/domain"
)

const (
	UsersCollection    = "users"
	ArticlesCollection = "articles"
)

func NewUserRepo(p storage.Provider, l *zap.Logger) domain.UserRepository {
	return NewCollection[domain.User](p, UsersCollection, l)
}

func NewArticleRepo(p storage.Provider, l *zap.Logger) domain.ArticleRepository {
	return NewCollection[domain.Article](p, ArticlesCollection, l)
}
