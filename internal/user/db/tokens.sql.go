package db

import (
	"context"
	"time"
)

const createUserToken = `-- name: CreateUserToken :exec
INSERT INTO user_tokens (id, user_id, purpose, secret, expires_at, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

// CreateUserTokenParams はCreateUserTokenの引数。
type CreateUserTokenParams struct {
	ID        string
	UserID    string
	Purpose   string
	Secret    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// CreateUserToken はトークンを登録する。
func (q *Queries) CreateUserToken(ctx context.Context, arg CreateUserTokenParams) error {
	_, err := q.db.ExecContext(ctx, createUserToken,
		arg.ID,
		arg.UserID,
		arg.Purpose,
		arg.Secret,
		arg.ExpiresAt,
		arg.CreatedAt,
	)
	return err
}

const getUserTokenBySecret = `-- name: GetUserTokenBySecret :one
SELECT id, user_id, purpose, secret, expires_at, created_at
FROM user_tokens
WHERE purpose = ? AND secret = ?
`

// GetUserTokenBySecret は用途とトークン文字列でトークンを取得する。
func (q *Queries) GetUserTokenBySecret(ctx context.Context, purpose, secret string) (UserToken, error) {
	var t UserToken
	err := q.db.QueryRowContext(ctx, getUserTokenBySecret, purpose, secret).Scan(
		&t.ID,
		&t.UserID,
		&t.Purpose,
		&t.Secret,
		&t.ExpiresAt,
		&t.CreatedAt,
	)
	return t, err
}

const getUserTokenForUser = `-- name: GetUserTokenForUser :one
SELECT id, user_id, purpose, secret, expires_at, created_at
FROM user_tokens
WHERE user_id = ? AND purpose = ? AND secret = ?
`

// GetUserTokenForUser はユーザーと用途と確認コードでトークンを取得する。
func (q *Queries) GetUserTokenForUser(ctx context.Context, userID, purpose, secret string) (UserToken, error) {
	var t UserToken
	err := q.db.QueryRowContext(ctx, getUserTokenForUser, userID, purpose, secret).Scan(
		&t.ID,
		&t.UserID,
		&t.Purpose,
		&t.Secret,
		&t.ExpiresAt,
		&t.CreatedAt,
	)
	return t, err
}

const deleteUserTokens = `-- name: DeleteUserTokens :exec
DELETE FROM user_tokens
WHERE user_id = ? AND purpose = ?
`

// DeleteUserTokens はユーザーの指定用途のトークンをすべて削除する。
func (q *Queries) DeleteUserTokens(ctx context.Context, userID, purpose string) error {
	_, err := q.db.ExecContext(ctx, deleteUserTokens, userID, purpose)
	return err
}
