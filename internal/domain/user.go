package domain

import "context"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User 持久化在 users 集合里；Password 为 bcrypt 哈希
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"` // "user"/"admin"
}

func ValidRole(r string) bool { return r == RoleUser || r == RoleAdmin }

// Actor 当前请求的身份，由 token 解出
type Actor struct {
	ID       string
	Email    string
	Username string
	Role     string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

type UserRepository interface {
	// LoadAll 读路径，失败退化为空
	LoadAll(ctx context.Context) []User
	// Load 读-改-写路径，数据读不全时报错
	Load(ctx context.Context) ([]User, error)
	SaveAll(ctx context.Context, users []User) error
}
