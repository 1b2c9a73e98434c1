package db

import (
	"context"
	"database/sql"
	"time"
)

const userColumns = `id, name, email, password_hash, role, company, phone, avatar,
    is_active, email_verified, phone_verified, created_at, updated_at, last_login_at`

func scanUser(row interface{ Scan(dest ...any) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Company,
		&u.Phone,
		&u.Avatar,
		&u.IsActive,
		&u.EmailVerified,
		&u.PhoneVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastLoginAt,
	)
	return u, err
}

const createUser = `-- name: CreateUser :exec
INSERT INTO users (id, name, email, password_hash, role, company, phone, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// CreateUserParams はCreateUserの引数。
type CreateUserParams struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Company      string
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUser はユーザーを登録する。作成直後のユーザーは無効状態になる。
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) error {
	_, err := q.db.ExecContext(ctx, createUser,
		arg.ID,
		arg.Name,
		arg.Email,
		arg.PasswordHash,
		arg.Role,
		arg.Company,
		arg.Phone,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + `
FROM users
WHERE id = ?
`

// GetUserByID はIDでユーザーを取得する。
func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT ` + userColumns + `
FROM users
WHERE email = ? COLLATE NOCASE
`

// GetUserByEmail はメールアドレスでユーザーを取得する。大文字小文字は区別しない。
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const updateUserProfile = `-- name: UpdateUserProfile :exec
UPDATE users
SET name = ?, company = ?, phone = ?, avatar = ?, updated_at = ?
WHERE id = ?
`

// UpdateUserProfileParams はUpdateUserProfileの引数。
type UpdateUserProfileParams struct {
	Name      string
	Company   string
	Phone     string
	Avatar    string
	UpdatedAt time.Time
	ID        string
}

// UpdateUserProfile はユーザーのプロフィールを更新する。
func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) error {
	_, err := q.db.ExecContext(ctx, updateUserProfile,
		arg.Name,
		arg.Company,
		arg.Phone,
		arg.Avatar,
		arg.UpdatedAt,
		arg.ID,
	)
	return err
}

const updateUserVerification = `-- name: UpdateUserVerification :exec
UPDATE users
SET email_verified = ?, phone_verified = ?, is_active = ?, updated_at = ?
WHERE id = ?
`

// UpdateUserVerificationParams はUpdateUserVerificationの引数。
type UpdateUserVerificationParams struct {
	EmailVerified bool
	PhoneVerified bool
	IsActive      bool
	UpdatedAt     time.Time
	ID            string
}

// UpdateUserVerification は確認状態と有効状態を更新する。
func (q *Queries) UpdateUserVerification(ctx context.Context, arg UpdateUserVerificationParams) error {
	_, err := q.db.ExecContext(ctx, updateUserVerification,
		arg.EmailVerified,
		arg.PhoneVerified,
		arg.IsActive,
		arg.UpdatedAt,
		arg.ID,
	)
	return err
}

const updateUserPassword = `-- name: UpdateUserPassword :exec
UPDATE users
SET password_hash = ?, updated_at = ?
WHERE id = ?
`

// UpdateUserPassword はパスワードハッシュを更新する。
func (q *Queries) UpdateUserPassword(ctx context.Context, passwordHash string, updatedAt time.Time, id string) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword, passwordHash, updatedAt, id)
	return err
}

const updateUserLastLogin = `-- name: UpdateUserLastLogin :exec
UPDATE users
SET last_login_at = ?
WHERE id = ?
`

// UpdateUserLastLogin は最終ログイン日時を記録する。
func (q *Queries) UpdateUserLastLogin(ctx context.Context, at time.Time, id string) error {
	_, err := q.db.ExecContext(ctx, updateUserLastLogin, sql.NullTime{Time: at, Valid: true}, id)
	return err
}
