package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"tech-news-api/internal/core/auth"
	"tech-news-api/internal/domain"
)

func init() { gin.SetMode(gin.TestMode) }

func newJWTer() *auth.JWTer {
	return &auth.JWTer{Secret: []byte("k"), Issuer: "test", TTL: time.Hour}
}

func protected(j *auth.JWTer, role string) *gin.Engine {
	r := gin.New()
	r.GET("/p", AuthJWT(j, role), func(c *gin.Context) {
		claims, _ := ClaimsFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": claims.UserID})
	})
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthJWT_MissingVsInvalid(t *testing.T) {
	j := newJWTer()
	r := protected(j, "")

	for _, h := range []string{"", "Bearer", "Bearer   ", "Basic abc", "token-without-scheme"} {
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		if h != "" {
			req.Header.Set("Authorization", h)
		}
		w := do(r, req)
		require.Equal(t, http.StatusUnauthorized, w.Code, h)
		require.JSONEq(t, `{"error":"token missing"}`, w.Body.String(), h)
	}

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	w := do(r, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, `{"error":"token invalid"}`, w.Body.String())
}

func TestAuthJWT_RoleCheck(t *testing.T) {
	j := newJWTer()
	tok, err := j.Issue(domain.User{ID: "u1", Role: domain.RoleUser})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := do(protected(j, domain.RoleAdmin), req)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.JSONEq(t, `{"error":"admin access required"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "bearer "+tok)
	w = do(protected(j, ""), req)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"id":"u1"}`, w.Body.String())
}

func TestRateLimitPerIP(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitPerIP(0.001, 2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		codes = append(codes, do(r, req).Code)
	}
	require.Equal(t, []int{200, 200, 429}, codes)

	// 另一个 IP 有独立的桶
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	require.Equal(t, http.StatusOK, do(r, req).Code)
}

func TestMaxBodyBytes(t *testing.T) {
	r := gin.New()
	r.Use(MaxBodyBytes(8))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = do(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123")))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(KeyRequestID)) })

	w := do(r, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, w.Header().Get(KeyRequestID))
	require.Equal(t, w.Header().Get(KeyRequestID), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(KeyRequestID, "abc")
	require.Equal(t, "abc", do(r, req).Body.String())
}

func TestAccessLog_MasksSensitiveQuery(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(AccessLog(zap.New(core)))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, httptest.NewRequest(http.MethodGet, "/x?token=abc&q=1", bytes.NewReader(nil)))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	q := entry.ContextMap()["query"].(map[string][]string)
	require.Equal(t, []string{"****"}, q["token"])
	require.Equal(t, []string{"1"}, q["q"])
}

func TestConcurrencyLimit_Passes(t *testing.T) {
	r := gin.New()
	r.Use(ConcurrencyLimit(1))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	require.Equal(t, http.StatusNoContent, do(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}
