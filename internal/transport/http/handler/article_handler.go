package handler

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tech-news-api/internal/core/cache"
	"tech-news-api/internal/domain"
	"tech-news-api/internal/feature/article"
	"tech-news-api/internal/feature/content"
	httpez "tech-news-api/internal/transport/http/ez"
	resp "tech-news-api/internal/transport/http/response"
)

// ArticleHandler /articles 的读写；写操作要求 admin
type ArticleHandler struct {
	articles *article.Store
	render   *content.Renderer
	cache    *cache.Cache
	cacheTTL time.Duration
}

func NewArticleHandler(articles *article.Store, render *content.Renderer) *ArticleHandler {
	return &ArticleHandler{articles: articles, render: render}
}

// WithRenderCache 渲染结果按 id+updatedAt 缓存，文章一改 key 就变
func (h *ArticleHandler) WithRenderCache(c *cache.Cache, ttl time.Duration) *ArticleHandler {
	h.cache, h.cacheTTL = c, ttl
	return h
}

type listIn struct {
	Category string `form:"category"`
	Order    string `form:"order" binding:"omitempty,oneof=asc desc"`
}

type createIn struct {
	Title       string                `form:"title"`
	Content     string                `form:"content"`
	ContentType string                `form:"contentType"`
	Category    string                `form:"category"`
	Image       string                `form:"image"`
	ImageFile   *multipart.FileHeader `form:"imageFile"`
}

type patchIn struct {
	Title       *string               `form:"title"`
	Content     *string               `form:"content"`
	ContentType *string               `form:"contentType"`
	Category    *string               `form:"category"`
	ImageFile   *multipart.FileHeader `form:"imageFile"`
}

type renderOut struct {
	ID   string `json:"id"`
	HTML string `json:"html"`
}

var adminOnly = []string{domain.RoleAdmin}

func (h *ArticleHandler) MountAPI(e httpez.EZ) {
	httpez.RegisterAction(e, httpez.Action[listIn, []domain.Article]{
		Method: http.MethodGet,
		Path:   "/articles",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *listIn) ([]domain.Article, error) {
			return h.articles.List(c.Request.Context(), article.ListOptions{
				Category: in.Category,
				Newest:   in.Order == "desc",
			}), nil
		},
	})
	httpez.RegisterAction(e, httpez.Action[struct{}, domain.Article]{
		Method: http.MethodGet,
		Path:   "/articles/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (domain.Article, error) {
			return h.articles.Get(c.Request.Context(), c.Param("id"))
		},
	})
	httpez.RegisterAction(e, httpez.Action[struct{}, renderOut]{
		Method: http.MethodGet,
		Path:   "/articles/:id/render",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (renderOut, error) {
			a, err := h.articles.Get(c.Request.Context(), c.Param("id"))
			if err != nil {
				return renderOut{}, err
			}
			key := fmt.Sprintf("%s:%d", a.ID, a.UpdatedAt.UnixNano())
			return cache.GetOrLoadJSON(h.cache, c.Request.Context(), key, h.cacheTTL, func(context.Context) (renderOut, error) {
				return renderOut{ID: a.ID, HTML: h.render.Render(content.Of(a))}, nil
			})
		},
	})
	httpez.RegisterAction(e, httpez.Action[createIn, domain.Article]{
		Method:  http.MethodPost,
		Path:    "/articles",
		Binder:  httpez.BindMultipart,
		Roles:   adminOnly,
		Status:  http.StatusCreated,
		Handler: h.create,
	})
	httpez.RegisterAction(e, httpez.Action[patchIn, domain.Article]{
		Method:  http.MethodPatch,
		Path:    "/articles/:id",
		Binder:  httpez.BindMultipart,
		Roles:   adminOnly,
		Handler: h.update,
	})
	httpez.RegisterAction(e, httpez.Action[struct{}, resp.Message]{
		Method: http.MethodDelete,
		Path:   "/articles/:id",
		Binder: httpez.BindNone,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *struct{}) (resp.Message, error) {
			if err := h.articles.Delete(c.Request.Context(), httpez.Actor(c), c.Param("id")); err != nil {
				return resp.Message{}, err
			}
			return resp.Message{Message: "article deleted"}, nil
		},
	})
}

func (h *ArticleHandler) create(c *gin.Context, in *createIn) (domain.Article, error) {
	up, closeFn, err := openUpload(in.ImageFile)
	if err != nil {
		return domain.Article{}, err
	}
	defer closeFn()
	return h.articles.Create(c.Request.Context(), httpez.Actor(c), article.CreateInput{
		Title:       strings.TrimSpace(in.Title),
		Content:     in.Content,
		ContentType: in.ContentType,
		Category:    in.Category,
		Image:       in.Image,
		ImageFile:   up,
	})
}

func (h *ArticleHandler) update(c *gin.Context, in *patchIn) (domain.Article, error) {
	up, closeFn, err := openUpload(in.ImageFile)
	if err != nil {
		return domain.Article{}, err
	}
	defer closeFn()
	return h.articles.Update(c.Request.Context(), httpez.Actor(c), c.Param("id"), article.Patch{
		Title:       in.Title,
		Content:     in.Content,
		ContentType: in.ContentType,
		Category:    in.Category,
		ImageFile:   up,
	})
}

// openUpload fh 为 nil 时返回 nil Upload
func openUpload(fh *multipart.FileHeader) (*article.Upload, func(), error) {
	if fh == nil {
		return nil, func() {}, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, domain.Validation("invalid file")
	}
	return &article.Upload{Name: fh.Filename, Body: f}, func() { _ = f.Close() }, nil
}
