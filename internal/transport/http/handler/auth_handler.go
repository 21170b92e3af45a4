package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tech-news-api/internal/core/auth"
	"tech-news-api/internal/domain"
	"tech-news-api/internal/feature/user"
	httpez "tech-news-api/internal/transport/http/ez"
	mdw "tech-news-api/internal/transport/http/middleware"
	resp "tech-news-api/internal/transport/http/response"
)

// AuthHandler /auth/* 与 /profile
type AuthHandler struct {
	users *user.Store
	jwter *auth.JWTer
}

func NewAuthHandler(users *user.Store, jwter *auth.JWTer) *AuthHandler {
	return &AuthHandler{users: users, jwter: jwter}
}

func (h *AuthHandler) Priority() int { return 10 }

type registerIn struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginIn struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type updatePasswordIn struct {
	NewPassword string `json:"newPassword"`
}

type tokenOut struct {
	Token string `json:"token"`
}

type profileOut struct {
	User *auth.Claims `json:"user"`
}

func (h *AuthHandler) MountAPI(e httpez.EZ) {
	httpez.RegisterAction(e, httpez.Action[registerIn, tokenOut]{
		Method:  http.MethodPost,
		Path:    "/auth/register",
		Binder:  httpez.BindJSON,
		Status:  http.StatusCreated,
		Handler: h.register,
	})
	httpez.RegisterAction(e, httpez.Action[loginIn, tokenOut]{
		Method:  http.MethodPost,
		Path:    "/auth/login",
		Binder:  httpez.BindJSON,
		Handler: h.login,
	})
	httpez.RegisterAction(e, httpez.Action[updatePasswordIn, resp.Message]{
		Method:  http.MethodPatch,
		Path:    "/auth/update-password",
		Binder:  httpez.BindJSON,
		Auth:    true,
		Handler: h.updatePassword,
	})
	httpez.RegisterAction(e, httpez.Action[struct{}, profileOut]{
		Method: http.MethodGet,
		Path:   "/profile",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (profileOut, error) {
			claims, _ := mdw.ClaimsFrom(c)
			return profileOut{User: claims}, nil
		},
	})
}

func (h *AuthHandler) register(c *gin.Context, in *registerIn) (tokenOut, error) {
	u, err := h.users.Register(c.Request.Context(), in.Email, in.Username, in.Password)
	if err != nil {
		return tokenOut{}, err
	}
	return h.issue(u)
}

func (h *AuthHandler) login(c *gin.Context, in *loginIn) (tokenOut, error) {
	u, err := h.users.Authenticate(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		// 未知邮箱对外也是 401
		if errors.Is(err, domain.ErrNotFound) {
			return tokenOut{}, domain.Auth("email incorrect")
		}
		return tokenOut{}, err
	}
	return h.issue(u)
}

func (h *AuthHandler) issue(u domain.User) (tokenOut, error) {
	tok, err := h.jwter.Issue(u)
	if err != nil {
		return tokenOut{}, domain.Internal("issue token failed", err)
	}
	return tokenOut{Token: tok}, nil
}

func (h *AuthHandler) updatePassword(c *gin.Context, in *updatePasswordIn) (resp.Message, error) {
	actor := httpez.Actor(c)
	if err := h.users.UpdatePassword(c.Request.Context(), actor.ID, in.NewPassword); err != nil {
		return resp.Message{}, err
	}
	return resp.Message{Message: "password updated"}, nil
}
