package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Hasher bcrypt 封装，Cost 可配置（越大越慢）
type Hasher struct{ Cost int }

func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return Hasher{Cost: cost}
}

func (h Hasher) Hash(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Check 使用 bcrypt 自带的常量时间比较
func (h Hasher) Check(pw, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw))
	return err == nil
}

func IsTooLong(err error) bool { return errors.Is(err, bcrypt.ErrPasswordTooLong) }
