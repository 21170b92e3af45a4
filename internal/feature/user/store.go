package user

import (
	"context"
	"strings"

	"tech-news-api/internal/domain"
	"tech-news-api/pkg/utils"
)

const MinPasswordLen = 6

// Store 用户凭据：唯一性、密码哈希。每次调用都重新读取集合
type Store struct {
	repo   domain.UserRepository
	hasher utils.Hasher
	newID  func() string
}

func NewStore(repo domain.UserRepository, hasher utils.Hasher) *Store {
	return &Store{repo: repo, hasher: hasher, newID: utils.NewID}
}

func (s *Store) Register(ctx context.Context, email, username, password string) (domain.User, error) {
	email, username = strings.TrimSpace(email), strings.TrimSpace(username)
	if email == "" || username == "" || password == "" {
		return domain.User{}, domain.Validation("missing fields")
	}

	users, err := s.repo.Load(ctx)
	if err != nil {
		return domain.User{}, domain.Internal("load users", err)
	}
	for _, u := range users {
		if u.Email == email || u.Username == username {
			return domain.User{}, domain.Conflict("user already exists")
		}
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		if utils.IsTooLong(err) {
			return domain.User{}, domain.Validation("password too long")
		}
		return domain.User{}, domain.Internal("hash password", err)
	}
	u := domain.User{
		ID:       s.newID(),
		Email:    email,
		Username: username,
		Password: hashed,
		Role:     domain.RoleUser,
	}
	users = append(users, u)
	if err := s.repo.SaveAll(ctx, users); err != nil {
		return domain.User{}, domain.Internal("save users", err)
	}
	return u, nil
}

func (s *Store) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	u, ok := find(s.repo.LoadAll(ctx), func(u domain.User) bool { return u.Email == email })
	if !ok {
		return domain.User{}, domain.NotFound("email incorrect")
	}
	if !s.hasher.Check(password, u.Password) {
		return domain.User{}, domain.Auth("password incorrect")
	}
	return u, nil
}

func (s *Store) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	if len(newPassword) < MinPasswordLen {
		return domain.Validation("password must be at least 6 characters")
	}
	return s.mutate(ctx, userID, func(u *domain.User) error {
		hashed, err := s.hasher.Hash(newPassword)
		if err != nil {
			if utils.IsTooLong(err) {
				return domain.Validation("password too long")
			}
			return domain.Internal("hash password", err)
		}
		u.Password = hashed
		return nil
	})
}

func (s *Store) Get(ctx context.Context, userID string) (domain.User, error) {
	u, ok := find(s.repo.LoadAll(ctx), func(u domain.User) bool { return u.ID == userID })
	if !ok {
		return domain.User{}, domain.NotFound("user not found")
	}
	return u, nil
}

// List 管理端使用；q 按 email/username 子串过滤（不区分大小写）
func (s *Store) List(ctx context.Context, q string) []domain.User {
	users := s.repo.LoadAll(ctx)
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return users
	}
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Email), q) || strings.Contains(strings.ToLower(u.Username), q) {
			out = append(out, u)
		}
	}
	return out
}

// SetRole 提升/降级角色。已签发的 token 不受影响，直到过期
func (s *Store) SetRole(ctx context.Context, userID, role string) (domain.User, error) {
	if !domain.ValidRole(role) {
		return domain.User{}, domain.Validation("role must be user or admin")
	}
	var out domain.User
	err := s.mutate(ctx, userID, func(u *domain.User) error {
		u.Role = role
		out = *u
		return nil
	})
	return out, err
}

func (s *Store) mutate(ctx context.Context, userID string, fn func(u *domain.User) error) error {
	users, err := s.repo.Load(ctx)
	if err != nil {
		return domain.Internal("load users", err)
	}
	for i := range users {
		if users[i].ID != userID {
			continue
		}
		if err := fn(&users[i]); err != nil {
			return err
		}
		if err := s.repo.SaveAll(ctx, users); err != nil {
			return domain.Internal("save users", err)
		}
		return nil
	}
	return domain.NotFound("user not found")
}

func find(users []domain.User, match func(domain.User) bool) (domain.User, bool) {
	for _, u := range users {
		if match(u) {
			return u, true
		}
	}
	return domain.User{}, false
}
