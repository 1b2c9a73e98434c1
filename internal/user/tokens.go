package user

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	userdb "github.com/nao1215/apiscan/internal/user/db"
)

// トークンの用途。
const (
	purposeEmailVerification = "EMAIL_VERIFICATION"
	purposePhoneVerification = "PHONE_VERIFICATION"
	purposePasswordReset     = "PASSWORD_RESET"
)

var (
	errInvalidToken = errors.New("無効なトークンです")
	errExpiredToken = errors.New("トークンの有効期限が切れています")
)

// newPhoneCode は6桁の確認コードを生成する。
func newPhoneCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("確認コードの生成に失敗: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// issueToken はユーザーの指定用途のトークンを作り直す。既存のトークンは無効になる。
func issueToken(ctx context.Context, q *userdb.Queries, userID, purpose, secret string, now time.Time, ttl time.Duration) error {
	if err := q.DeleteUserTokens(ctx, userID, purpose); err != nil {
		return fmt.Errorf("既存トークンの削除に失敗: %w", err)
	}
	if err := q.CreateUserToken(ctx, userdb.CreateUserTokenParams{
		ID:        uuid.New().String(),
		UserID:    userID,
		Purpose:   purpose,
		Secret:    secret,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("トークンの登録に失敗: %w", err)
	}
	return nil
}

// checkToken はトークンが存在し期限内であることを確認する。
func checkToken(t userdb.UserToken, err error, now time.Time) (userdb.UserToken, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return userdb.UserToken{}, errInvalidToken
	}
	if err != nil {
		return userdb.UserToken{}, fmt.Errorf("トークンの取得に失敗: %w", err)
	}
	if !now.Before(t.ExpiresAt) {
		return userdb.UserToken{}, errExpiredToken
	}
	return t, nil
}

// findToken は用途とトークン文字列で有効なトークンを取得する。
func (s *Server) findToken(ctx context.Context, purpose, secret string) (userdb.UserToken, error) {
	t, err := s.queries.GetUserTokenBySecret(ctx, purpose, secret)
	return checkToken(t, err, s.now())
}

// findUserToken はユーザーと用途と確認コードで有効なトークンを取得する。
func (s *Server) findUserToken(ctx context.Context, userID, purpose, secret string) (userdb.UserToken, error) {
	t, err := s.queries.GetUserTokenForUser(ctx, userID, purpose, secret)
	return checkToken(t, err, s.now())
}
