package validation

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type loginIn struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func bindBody(t *testing.T, body string) error {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	var in loginIn
	return c.ShouldBindJSON(&in)
}

func TestMessage(t *testing.T) {
	Init()
	cases := map[string]string{
		`{"email":"nope","password":"secret1"}`: "email must be a valid email address",
		`{"email":"a@x.com"}`:                   "password is required",
		`{"email":"a@x.com","password":"123"}`:  "password must be at least 6 characters",
		`{"email":`:                             "invalid json",
		``:                                      "request body is empty",
		`{"email":42,"password":"secret1"}`:     "invalid json",
	}
	for body, want := range cases {
		require.Equal(t, want, Message(bindBody(t, body)), body)
	}
	require.Equal(t, "", Message(nil))
}
