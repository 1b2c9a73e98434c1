package db

import (
	"database/sql"
	"time"
)

// User はusersテーブルの1行。
type User struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  string
	Role          string
	Company       string
	Phone         string
	Avatar        string
	IsActive      bool
	EmailVerified bool
	PhoneVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastLoginAt   sql.NullTime
}

// UserToken はuser_tokensテーブルの1行。
type UserToken struct {
	ID        string
	UserID    string
	Purpose   string
	Secret    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
