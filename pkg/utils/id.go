package utils

import "github.com/google/uuid"

// NewID 统一使用 UUIDv4
func NewID() string { return uuid.NewString() }
