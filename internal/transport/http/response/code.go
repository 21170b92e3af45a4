package response

import (
	"net/http"

	"tech-news-api/internal/domain"
)

// StatusOf 业务错误类别 → HTTP 状态码
var StatusOf = map[domain.Kind]int{
	domain.KindValidation: http.StatusBadRequest,
	domain.KindConflict:   http.StatusBadRequest,
	domain.KindAuth:       http.StatusUnauthorized,
	domain.KindForbidden:  http.StatusForbidden,
	domain.KindNotFound:   http.StatusNotFound,
	domain.KindInternal:   http.StatusInternalServerError,
}

func Status(err error) int {
	if s, ok := StatusOf[domain.KindOf(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}
