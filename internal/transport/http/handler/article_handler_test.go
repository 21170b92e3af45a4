package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"tech-news-api/internal/core/auth"
	"tech-news-api/internal/core/cache"
	"tech-news-api/internal/core/storage"
	"tech-news-api/internal/domain"
	"tech-news-api/internal/feature/article"
	"tech-news-api/internal/feature/content"
	"tech-news-api/internal/feature/media"
	"tech-news-api/internal/repo"
	httpez "tech-news-api/internal/transport/http/ez"
)

type memCache map[string][]byte

func (m memCache) Get(_ context.Context, key string) ([]byte, error) {
	b, ok := m[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return b, nil
}

func (m memCache) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	m[key] = val
	return nil
}

func newArticles(t *testing.T) *article.Store {
	t.Helper()
	p, err := storage.NewFileProvider(t.TempDir())
	require.NoError(t, err)
	b, err := media.NewLocalBackend(t.TempDir())
	require.NoError(t, err)
	return article.NewStore(repo.NewArticleRepo(p, nil), media.NewManager(b, "http://localhost:5000", nil), nil)
}

func TestRender_UsesCache(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newArticles(t)
	a, err := store.Create(context.Background(), domain.Actor{ID: "a", Role: domain.RoleAdmin}, article.CreateInput{
		Title:   "t",
		Content: "line one\nline <two>",
	})
	require.NoError(t, err)

	mem := memCache{}
	h := NewArticleHandler(store, content.NewRenderer()).WithRenderCache(cache.New(mem, "r:"), time.Minute)
	r := gin.New()
	h.MountAPI(httpez.New(&r.RouterGroup, &auth.JWTer{Secret: []byte("k")}))

	get := func() renderOut {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/articles/"+a.ID+"/render", nil))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var out renderOut
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		return out
	}
	first := get()
	require.Equal(t, a.ID, first.ID)
	require.Contains(t, first.HTML, "<p>line one</p>")
	require.Contains(t, first.HTML, "&lt;two&gt;")
	require.Len(t, mem, 1)

	require.Equal(t, first, get())
	require.Len(t, mem, 1)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/articles/missing/render", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}
