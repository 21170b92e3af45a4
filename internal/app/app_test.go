package app

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tech-news-api/internal/core/config"
	"tech-news-api/internal/domain"
	"tech-news-api/internal/transport/http/router"
)

var png = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

type env struct {
	t     *testing.T
	deps  *Deps
	api   *gin.Engine
	admin *gin.Engine
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		JWT:     config.JWT{Secret: "test-secret", Issuer: "tech-news-api", AccessTokenTTLMin: 60},
		Auth:    config.Auth{BcryptCost: 4},
		Storage: config.Storage{Driver: "file", Dir: t.TempDir()},
		Media:   config.Media{Driver: "local", Dir: t.TempDir(), PublicBaseURL: "http://localhost:5000"},
		Limits:  config.Limits{RPS: 1000, Burst: 1000},
	}
	deps, err := Build(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(deps.Close)

	opts := deps.RouterOptions(cfg, zap.NewNop())
	return &env{
		t:     t,
		deps:  deps,
		api:   router.NewAPIEngine(opts, deps.APIRegistry()),
		admin: router.NewAdminEngine(opts, deps.AdminRegistry()),
	}
}

type part struct {
	name, value string
	file        []byte
}

func (e *env) do(h http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var req *http.Request
	switch b := body.(type) {
	case nil:
		req = httptest.NewRequest(method, target, nil)
	case []part:
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		for _, p := range b {
			if p.file != nil {
				fw, err := mw.CreateFormFile(p.name, p.value)
				require.NoError(e.t, err)
				_, _ = fw.Write(p.file)
				continue
			}
			require.NoError(e.t, mw.WriteField(p.name, p.value))
		}
		require.NoError(e.t, mw.Close())
		req = httptest.NewRequest(method, target, &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		req = httptest.NewRequest(method, target, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func (e *env) login(email, password string) string {
	e.t.Helper()
	w := e.do(e.api, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	return decode(e.t, w)["token"].(string)
}

func (e *env) bootstrapAdmin() string {
	e.t.Helper()
	ctx := context.Background()
	u, err := e.deps.Users.Register(ctx, "root@example.com", "root", "rootpass")
	require.NoError(e.t, err)
	_, err = e.deps.Users.SetRole(ctx, u.ID, domain.RoleAdmin)
	require.NoError(e.t, err)
	return e.login("root@example.com", "rootpass")
}

func staticPath(t *testing.T, rawURL string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return u.Path
}

func TestEndToEnd_PromoteThenPublish(t *testing.T) {
	e := newEnv(t)
	rootTok := e.bootstrapAdmin()

	w := e.do(e.api, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "alice@example.com", "username": "alice", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotEmpty(t, decode(t, w)["token"])

	tok := e.login("alice@example.com", "secret1")
	w = e.do(e.api, http.MethodGet, "/profile", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode(t, w)["user"].(map[string]any)
	require.Equal(t, "user", profile["role"])
	require.Equal(t, "alice", profile["username"])

	article := []part{
		{name: "title", value: "Go 1.24"},
		{name: "content", value: "<p>hello</p>"},
		{name: "category", value: "lang"},
		{name: "imageFile", value: "hero.png", file: png},
	}
	w = e.do(e.api, http.MethodPost, "/articles", tok, article)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.JSONEq(t, `{"error":"admin access required"}`, w.Body.String())

	// 管理端：找到 alice 并提升
	w = e.do(e.admin, http.MethodGet, "/admin/v1/users?q=alice", rootTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 1)
	require.NotContains(t, users[0], "password")
	id := users[0]["id"].(string)

	w = e.do(e.admin, http.MethodPatch, "/admin/v1/users/"+id+"/role", tok, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusForbidden, w.Code)
	w = e.do(e.admin, http.MethodPatch, "/admin/v1/users/"+id+"/role", rootTok, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, "admin", decode(t, w)["role"])

	// 旧 token 的角色不变，需要重新登录
	tok = e.login("alice@example.com", "secret1")
	w = e.do(e.api, http.MethodPost, "/articles", tok, article)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	require.NotEmpty(t, created["createdAt"])
	require.Equal(t, "markup", created["contentType"])
	hero := created["image"].(string)
	require.True(t, strings.HasPrefix(hero, "http://localhost:5000/hero-images/"), hero)

	w = e.do(e.api, http.MethodGet, "/articles/"+created["id"].(string), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	require.NotEmpty(t, got["createdAt"])
	require.Equal(t, "Go 1.24", got["title"])

	w = e.do(e.api, http.MethodGet, staticPath(t, hero), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestEndToEnd_EmbedsAndDelete(t *testing.T) {
	e := newEnv(t)
	tok := e.bootstrapAdmin()

	w := e.do(e.api, http.MethodPost, "/quill-upload", "", []part{{name: "file", value: "a.png", file: png}})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, `{"error":"token missing"}`, w.Body.String())

	w = e.do(e.api, http.MethodPost, "/quill-upload", tok, []part{{name: "caption", value: "x"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"file missing"}`, w.Body.String())

	var embeds []string
	for i := 0; i < 2; i++ {
		w = e.do(e.api, http.MethodPost, "/quill-upload", tok, []part{{name: "file", value: "a.png", file: png}})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		embeds = append(embeds, decode(t, w)["location"].(string))
	}

	body := `<p>two</p><img src="` + embeds[0] + `"><img src="` + embeds[1] + `">`
	w = e.do(e.api, http.MethodPost, "/articles", tok, []part{
		{name: "title", value: "With embeds"},
		{name: "content", value: body},
		{name: "imageFile", value: "hero.png", file: png},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	id := created["id"].(string)
	hero := created["image"].(string)

	w = e.do(e.api, http.MethodGet, "/articles/"+id+"/render", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, decode(t, w)["html"], embeds[0])

	w = e.do(e.api, http.MethodPatch, "/articles/"+id, tok, []part{{name: "title", value: "Renamed"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	patched := decode(t, w)
	require.Equal(t, "Renamed", patched["title"])
	require.Equal(t, created["content"], patched["content"])
	require.Equal(t, created["createdAt"], patched["createdAt"])

	w = e.do(e.api, http.MethodDelete, "/articles/"+id, tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"message":"article deleted"}`, w.Body.String())

	w = e.do(e.api, http.MethodGet, "/articles/"+id, "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"error":"article not found"}`, w.Body.String())

	for _, u := range append(embeds, hero) {
		w = e.do(e.api, http.MethodGet, staticPath(t, u), "", nil)
		require.Equal(t, http.StatusNotFound, w.Code, u)
	}

	w = e.do(e.api, http.MethodDelete, "/articles/"+id, tok, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthErrors(t *testing.T) {
	e := newEnv(t)
	w := e.do(e.api, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "bob@example.com", "username": "bob", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(e.api, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "bob@example.com", "username": "other", "password": "secret1",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"user already exists"}`, w.Body.String())

	w = e.do(e.api, http.MethodPost, "/auth/register", "", map[string]string{"email": "x@example.com"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"missing fields"}`, w.Body.String())

	w = e.do(e.api, http.MethodPost, "/auth/login", "", map[string]string{"email": "not-an-email", "password": "x"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(e.api, http.MethodPost, "/auth/login", "", map[string]string{"email": "nobody@example.com", "password": "x"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, `{"error":"email incorrect"}`, w.Body.String())

	w = e.do(e.api, http.MethodPost, "/auth/login", "", map[string]string{"email": "bob@example.com", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, `{"error":"password incorrect"}`, w.Body.String())

	w = e.do(e.api, http.MethodGet, "/profile", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, `{"error":"token invalid"}`, w.Body.String())

	tok := e.login("bob@example.com", "secret1")
	w = e.do(e.api, http.MethodPatch, "/auth/update-password", tok, map[string]string{"newPassword": "123"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(e.api, http.MethodPatch, "/auth/update-password", tok, map[string]string{"newPassword": "newsecret"})
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"message":"password updated"}`, w.Body.String())
	e.login("bob@example.com", "newsecret")
}

func TestPublicRoutes(t *testing.T) {
	e := newEnv(t)

	w := e.do(e.api, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Tech-News")

	w = e.do(e.api, http.MethodGet, "/health", "", nil)
	require.JSONEq(t, `{"ok":1}`, w.Body.String())

	w = e.do(e.api, http.MethodGet, "/articles", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `[]`, w.Body.String())

	w = e.do(e.api, http.MethodGet, "/articles?order=sideways", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(e.api, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "http_requests_total")

	// 后台不挂用户端路由
	w = e.do(e.admin, http.MethodGet, "/articles", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListFilterAndOrder(t *testing.T) {
	e := newEnv(t)
	tok := e.bootstrapAdmin()
	for _, p := range [][2]string{{"A", "go"}, {"B", "rust"}, {"C", "Go"}} {
		w := e.do(e.api, http.MethodPost, "/articles", tok, []part{
			{name: "title", value: p[0]},
			{name: "content", value: "plain text"},
			{name: "category", value: p[1]},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	titles := func(target string) []string {
		w := e.do(e.api, http.MethodGet, target, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var list []domain.Article
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		out := make([]string, 0, len(list))
		for _, a := range list {
			out = append(out, a.Title)
		}
		return out
	}
	require.Equal(t, []string{"A", "B", "C"}, titles("/articles"))
	require.Equal(t, []string{"C", "B", "A"}, titles("/articles?order=desc"))
	require.Equal(t, []string{"A", "C"}, titles("/articles?category=go"))
}

func TestBuild_UnknownStorageDriver(t *testing.T) {
	cfg := &config.Config{
		JWT:     config.JWT{Secret: "x"},
		Storage: config.Storage{Driver: "mongo"},
		Media:   config.Media{Driver: "local", Dir: t.TempDir()},
	}
	_, err := Build(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
}
