package ez

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"tech-news-api/internal/core/auth"
	"tech-news-api/internal/domain"
	mdw "tech-news-api/internal/transport/http/middleware"
	resp "tech-news-api/internal/transport/http/response"
	"tech-news-api/internal/transport/http/validation"
)

// 绑定方式
type Binder string

const (
	BindJSON      Binder = "json"      // 从 JSON 绑定
	BindQuery     Binder = "query"     // 从 URL ?a=b 绑定
	BindMultipart Binder = "multipart" // multipart/form-data，文件字段用 *multipart.FileHeader
	BindNone      Binder = "none"      // 不绑定，自己从 c.Param 取
)

const multipartMemory = 8 << 20

type EZ struct {
	g     *gin.RouterGroup
	jwter *auth.JWTer
}

// New jwter 为空时该分组下不能注册 Auth 动作
func New(g *gin.RouterGroup, jwter *auth.JWTer) EZ {
	validation.Init()
	return EZ{g: g, jwter: jwter}
}

// Action 一个接口 = 认证 → 鉴权 → 绑定 → 处理，任何一步失败直接返回错误
type Action[I any, O any] struct {
	Method  string   // "GET" | "POST" | "PATCH" | "PUT" | "DELETE"
	Path    string   // 例："/auth/login"、"/articles/:id"
	Binder  Binder   // 绑定方式
	Auth    bool     // 是否要求登录
	Roles   []string // 限定角色（可选，隐含 Auth）
	Status  int      // 成功时的状态码，默认 200
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	needAuth := a.Auth || len(a.Roles) > 0
	if needAuth && e.jwter == nil {
		panic("ez: auth action " + a.Path + " registered without jwter")
	}

	h := func(c *gin.Context) {
		// 1) 认证
		if needAuth {
			claims, err := mdw.Authenticate(c, e.jwter)
			if err != nil {
				resp.Abort(c, err)
				return
			}
			// 2) 鉴权
			if len(a.Roles) > 0 && !hasRole(claims.Role, a.Roles) {
				resp.Abort(c, domain.Forbidden(forbiddenMsg(a.Roles)))
				return
			}
		}

		// 3) 绑定入参
		var in I
		if err := bind(c, a.Binder, &in); err != nil {
			resp.Abort(c, err)
			return
		}

		// 4) 执行
		out, err := a.Handler(c, &in)
		if err != nil {
			resp.Abort(c, err)
			return
		}
		c.JSON(status, out)
	}
	e.g.Handle(strings.ToUpper(a.Method), a.Path, h)
}

func bind(c *gin.Context, b Binder, in any) error {
	var err error
	switch b {
	case BindJSON:
		err = c.ShouldBindJSON(in)
	case BindQuery:
		err = c.ShouldBindQuery(in)
	case BindMultipart:
		if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
			return domain.Validation("expected multipart/form-data")
		}
		if e := c.Request.ParseMultipartForm(multipartMemory); e != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(e, &tooLarge) {
				return domain.Validation("request body too large")
			}
			return domain.Validation("invalid multipart form")
		}
		err = c.ShouldBindWith(in, binding.FormMultipart)
	default:
		return nil
	}
	if err != nil {
		return domain.Validation(validation.Message(err))
	}
	return nil
}

func hasRole(role string, roles []string) bool {
	for _, r := range roles {
		if role == r {
			return true
		}
	}
	return false
}

func forbiddenMsg(roles []string) string {
	if len(roles) == 1 {
		return roles[0] + " access required"
	}
	return "forbidden"
}

// Actor 取当前请求身份；未登录时为零值
func Actor(c *gin.Context) domain.Actor {
	if claims, ok := mdw.ClaimsFrom(c); ok {
		return claims.Actor()
	}
	return domain.Actor{}
}
