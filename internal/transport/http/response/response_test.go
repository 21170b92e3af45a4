package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"tech-news-api/internal/domain"
)

func TestStatus(t *testing.T) {
	cases := map[error]int{
		domain.Validation("x"):                   http.StatusBadRequest,
		domain.Conflict("x"):                     http.StatusBadRequest,
		domain.Auth("x"):                         http.StatusUnauthorized,
		domain.Forbidden("x"):                    http.StatusForbidden,
		domain.NotFound("x"):                     http.StatusNotFound,
		domain.Internal("x", errors.New("boom")): http.StatusInternalServerError,
		errors.New("plain"):                      http.StatusInternalServerError,
	}
	for err, want := range cases {
		require.Equal(t, want, Status(err), err.Error())
	}
}

func TestAbort_HidesInternalCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Abort(c, domain.Internal("", errors.New("open /etc/secret: permission denied")))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
	require.Len(t, c.Errors, 1)
}

func TestAbort_DomainMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Abort(c, domain.NotFound("article not found"))
	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"error":"article not found"}`, w.Body.String())
	require.True(t, c.IsAborted())
}
