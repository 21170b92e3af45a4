package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tech-news-api/internal/domain"
	"tech-news-api/internal/feature/user"
	httpez "tech-news-api/internal/transport/http/ez"
)

// AdminHandler 后台用户管理，分组已经要求 admin
type AdminHandler struct {
	users *user.Store
}

func NewAdminHandler(users *user.Store) *AdminHandler { return &AdminHandler{users: users} }

// UserView 对外的用户信息，不含密码哈希
type UserView struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func viewOf(u domain.User) UserView {
	return UserView{ID: u.ID, Email: u.Email, Username: u.Username, Role: u.Role}
}

type listUsersIn struct {
	Q string `form:"q"`
}

type setRoleIn struct {
	Role string `json:"role" binding:"required,oneof=user admin"`
}

func (h *AdminHandler) MountAdmin(e httpez.EZ) {
	httpez.RegisterAction(e, httpez.Action[listUsersIn, []UserView]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *listUsersIn) ([]UserView, error) {
			users := h.users.List(c.Request.Context(), in.Q)
			out := make([]UserView, 0, len(users))
			for _, u := range users {
				out = append(out, viewOf(u))
			}
			return out, nil
		},
	})
	httpez.RegisterAction(e, httpez.Action[setRoleIn, UserView]{
		Method: http.MethodPatch,
		Path:   "/users/:id/role",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *setRoleIn) (UserView, error) {
			u, err := h.users.SetRole(c.Request.Context(), c.Param("id"), in.Role)
			if err != nil {
				return UserView{}, err
			}
			return viewOf(u), nil
		},
	})
}
