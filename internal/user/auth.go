package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	userdb "github.com/nao1215/apiscan/internal/user/db"
	"github.com/nao1215/apiscan/pkg/middleware"
	"github.com/nao1215/apiscan/pkg/migration"
	"golang.org/x/crypto/bcrypt"
)

// ロール。
const (
	RoleAdmin     = "ADMIN"
	RoleManager   = "MANAGER"
	RoleDeveloper = "DEVELOPER"
)

// phonePattern は国際形式（E.164）の電話番号。
var phonePattern = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

// parseRole はロールを検証する。空の場合は MANAGER になる。
func parseRole(s string) (string, error) {
	if s == "" {
		return RoleManager, nil
	}
	switch r := strings.ToUpper(s); r {
	case RoleAdmin, RoleManager, RoleDeveloper:
		return r, nil
	}
	return "", fmt.Errorf("不正なロールです: %q (ADMIN, MANAGER, DEVELOPER のいずれか)", s)
}

// normalizeEmail はメールアドレスの前後の空白を除き小文字にする。
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// activated はアカウントを有効にできる状態かどうかを返す。
func (s *Server) activated(emailVerified, phoneVerified bool) bool {
	return emailVerified && (phoneVerified || !s.requirePhone)
}

// sendVerificationMail はメール確認のリンクを送信する。失敗はログに記録するのみ。
func (s *Server) sendVerificationMail(ctx context.Context, u userdb.User, token string) {
	body := fmt.Sprintf("%s さん\n\n以下のリンクからメールアドレスを確認してください。\n%s/verify-email?token=%s\n\nリンクの有効期限は%sです。",
		u.Name, s.frontendURL, token, s.emailTTL)
	if err := s.mailer.SendMail(ctx, u.Email, "メールアドレスの確認", body); err != nil {
		s.logger.Warn().Err(err).Str("user_id", u.ID).Msg("確認メールの送信に失敗しました")
	}
}

// sendPhoneCode は電話番号の確認コードを送信する。失敗はログに記録するのみ。
func (s *Server) sendPhoneCode(ctx context.Context, u userdb.User, code string) {
	body := fmt.Sprintf("確認コード: %s (有効期限 %s)", code, s.phoneTTL)
	if err := s.sms.SendSMS(ctx, u.Phone, body); err != nil {
		s.logger.Warn().Err(err).Str("user_id", u.ID).Msg("確認コードの送信に失敗しました")
	}
}

// registerRequest はユーザー登録リクエストのJSON構造。
type registerRequest struct {
	// Name は表示名。
	Name string `json:"name" binding:"required"`
	// Email はメールアドレス。
	Email string `json:"email" binding:"required,email"`
	// Password はパスワード。8文字以上。
	Password string `json:"password" binding:"required,min=8"`
	// Company は会社名。
	Company string `json:"company"`
	// Role はロール。省略時は MANAGER。
	Role string `json:"role"`
	// Phone は国際形式の電話番号。電話番号の確認が必要な場合は必須。
	Phone string `json:"phone"`
}

// handleRegister はユーザー登録を処理するハンドラを返す。
// アカウントは無効状態で作成し、確認メール（必要な場合は確認コード）を送信する。
func (s *Server) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		role, err := parseRole(req.Role)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if s.requirePhone && req.Phone == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "電話番号は必須です"})
			return
		}
		if req.Phone != "" && !phonePattern.MatchString(req.Phone) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "電話番号は国際形式（例: +819012345678）で指定してください"})
			return
		}

		ctx := c.Request.Context()
		email := normalizeEmail(req.Email)
		if _, err := s.queries.GetUserByEmail(ctx, email); err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "このメールアドレスは既に登録されています"})
			return
		} else if !errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの登録に失敗しました"})
			s.logger.Error().Err(err).Msg("ユーザー取得エラー")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの登録に失敗しました"})
			s.logger.Error().Err(err).Msg("パスワードハッシュ生成エラー")
			return
		}

		now := s.now()
		userID := uuid.New().String()
		emailToken := uuid.New().String()
		var phoneCode string
		if s.requirePhone {
			if phoneCode, err = newPhoneCode(); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの登録に失敗しました"})
				s.logger.Error().Err(err).Msg("確認コード生成エラー")
				return
			}
		}

		err = s.inTx(ctx, func(q *userdb.Queries) error {
			if err := q.CreateUser(ctx, userdb.CreateUserParams{
				ID:           userID,
				Name:         req.Name,
				Email:        email,
				PasswordHash: string(hash),
				Role:         role,
				Company:      req.Company,
				Phone:        req.Phone,
				CreatedAt:    now,
				UpdatedAt:    now,
			}); err != nil {
				return err
			}
			if err := issueToken(ctx, q, userID, purposeEmailVerification, emailToken, now, s.emailTTL); err != nil {
				return err
			}
			if phoneCode != "" {
				return issueToken(ctx, q, userID, purposePhoneVerification, phoneCode, now, s.phoneTTL)
			}
			return nil
		})
		if migration.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "このメールアドレスは既に登録されています"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの登録に失敗しました"})
			s.logger.Error().Err(err).Msg("ユーザー登録エラー")
			return
		}

		created, err := s.queries.GetUserByID(ctx, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "登録したユーザーの取得に失敗しました"})
			s.logger.Error().Err(err).Msg("ユーザー取得エラー")
			return
		}

		s.sendVerificationMail(ctx, created, emailToken)
		if phoneCode != "" {
			s.sendPhoneCode(ctx, created, phoneCode)
		}
		s.logger.Info().Str("user_id", userID).Str("role", role).Msg("ユーザーを登録しました")

		c.JSON(http.StatusCreated, gin.H{
			"message":                     "登録しました。メールアドレスの確認を行ってください",
			"user":                        toUserResponse(created),
			"phone_verification_required": s.requirePhone,
		})
	}
}

// respondTokenError はトークン検証エラーをレスポンスに変換する。
func (s *Server) respondTokenError(c *gin.Context, err error) {
	if errors.Is(err, errInvalidToken) || errors.Is(err, errExpiredToken) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "トークンの確認に失敗しました"})
	s.logger.Error().Err(err).Msg("トークン確認エラー")
}

// markVerified は確認状態を更新してトークンを削除し、更新後のユーザーを返す。
func (s *Server) markVerified(ctx context.Context, u userdb.User, purpose string) (userdb.User, error) {
	emailVerified := u.EmailVerified || purpose == purposeEmailVerification
	phoneVerified := u.PhoneVerified || purpose == purposePhoneVerification

	err := s.inTx(ctx, func(q *userdb.Queries) error {
		if err := q.UpdateUserVerification(ctx, userdb.UpdateUserVerificationParams{
			EmailVerified: emailVerified,
			PhoneVerified: phoneVerified,
			IsActive:      s.activated(emailVerified, phoneVerified),
			UpdatedAt:     s.now(),
			ID:            u.ID,
		}); err != nil {
			return err
		}
		return q.DeleteUserTokens(ctx, u.ID, purpose)
	})
	if err != nil {
		return userdb.User{}, err
	}
	return s.queries.GetUserByID(ctx, u.ID)
}

// handleVerifyEmail はメールアドレスの確認を処理するハンドラを返す。
func (s *Server) handleVerifyEmail() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "確認トークンが指定されていません"})
			return
		}

		ctx := c.Request.Context()
		t, err := s.findToken(ctx, purposeEmailVerification, token)
		if err != nil {
			s.respondTokenError(c, err)
			return
		}
		u, err := s.queries.GetUserByID(ctx, t.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの取得に失敗しました"})
			s.logger.Error().Err(err).Msg("ユーザー取得エラー")
			return
		}

		updated, err := s.markVerified(ctx, u, purposeEmailVerification)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "メールアドレスの確認に失敗しました"})
			s.logger.Error().Err(err).Msg("メールアドレス確認エラー")
			return
		}

		message := "メールアドレスを確認しました"
		if !updated.IsActive {
			message = "メールアドレスを確認しました。電話番号の確認を行ってください"
		}
		c.JSON(http.StatusOK, gin.H{"message": message, "user": toUserResponse(updated)})
	}
}

// verifyPhoneRequest は電話番号確認リクエストのJSON構造。
type verifyPhoneRequest struct {
	// UserID は確認するユーザーのID。
	UserID string `json:"user_id" binding:"required"`
	// Code はSMSで送信した確認コード。
	Code string `json:"code" binding:"required"`
}

// handleVerifyPhone は電話番号の確認を処理するハンドラを返す。
func (s *Server) handleVerifyPhone() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req verifyPhoneRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		ctx := c.Request.Context()
		u, ok := s.loadUser(c, req.UserID)
		if !ok {
			return
		}
		if u.PhoneVerified {
			c.JSON(http.StatusBadRequest, gin.H{"error": "電話番号は確認済みです"})
			return
		}
		if _, err := s.findUserToken(ctx, u.ID, purposePhoneVerification, strings.TrimSpace(req.Code)); err != nil {
			s.respondTokenError(c, err)
			return
		}

		updated, err := s.markVerified(ctx, u, purposePhoneVerification)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "電話番号の確認に失敗しました"})
			s.logger.Error().Err(err).Msg("電話番号確認エラー")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "電話番号を確認しました", "user": toUserResponse(updated)})
	}
}

// resendEmailRequest は確認メール再送リクエストのJSON構造。
type resendEmailRequest struct {
	// Email は登録したメールアドレス。
	Email string `json:"email" binding:"required,email"`
}

// handleResendEmailVerification は確認メールの再送を処理するハンドラを返す。
func (s *Server) handleResendEmailVerification() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req resendEmailRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		ctx := c.Request.Context()
		u, err := s.queries.GetUserByEmail(ctx, normalizeEmail(req.Email))
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ユーザーが見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの取得に失敗しました"})
			s.logger.Error().Err(err).Msg("ユーザー取得エラー")
			return
		}
		if u.EmailVerified {
			c.JSON(http.StatusBadRequest, gin.H{"error": "メールアドレスは確認済みです"})
			return
		}

		token := uuid.New().String()
		if err := issueToken(ctx, s.queries, u.ID, purposeEmailVerification, token, s.now(), s.emailTTL); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "確認メールの再送に失敗しました"})
			s.logger.Error().Err(err).Msg("トークン発行エラー")
			return
		}
		s.sendVerificationMail(ctx, u, token)
		c.JSON(http.StatusOK, gin.H{"message": "確認メールを再送しました"})
	}
}

// resendPhoneRequest は確認コード再送リクエストのJSON構造。
type resendPhoneRequest struct {
	// UserID は確認するユーザーのID。
	UserID string `json:"user_id" binding:"required"`
}

// handleResendPhoneVerification は確認コードの再送を処理するハンドラを返す。
func (s *Server) handleResendPhoneVerification() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req resendPhoneRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		u, ok := s.loadUser(c, req.UserID)
		if !ok {
			return
		}
		if !s.requirePhone || u.Phone == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "電話番号の確認は不要です"})
			return
		}
		if u.PhoneVerified {
			c.JSON(http.StatusBadRequest, gin.H{"error": "電話番号は確認済みです"})
			return
		}

		ctx := c.Request.Context()
		code, err := newPhoneCode()
		if err == nil {
			err = issueToken(ctx, s.queries, u.ID, purposePhoneVerification, code, s.now(), s.phoneTTL)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "確認コードの再送に失敗しました"})
			s.logger.Error().Err(err).Msg("確認コード発行エラー")
			return
		}
		s.sendPhoneCode(ctx, u, code)
		c.JSON(http.StatusOK, gin.H{"message": "確認コードを再送しました"})
	}
}

// loginRequest はログインリクエストのJSON構造。
type loginRequest struct {
	// Email はメールアドレス。
	Email string `json:"email" binding:"required"`
	// Password はパスワード。
	Password string `json:"password" binding:"required"`
}

// handleLogin はログインを処理するハンドラを返す。
// 認証に成功し、アカウントが有効な場合はJWTトークンを発行する。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		ctx := c.Request.Context()
		u, err := s.queries.GetUserByEmail(ctx, normalizeEmail(req.Email))
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "メールアドレスまたはパスワードが正しくありません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ログインに失敗しました"})
			s.logger.Error().Err(err).Msg("ユーザー取得エラー")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "メールアドレスまたはパスワードが正しくありません"})
			return
		}
		if !u.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "アカウントが有効化されていません"})
			return
		}

		token, err := middleware.GenerateJWT(s.jwtSecret, u.ID, u.Email, u.Role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "トークンの生成に失敗しました"})
			s.logger.Error().Err(err).Msg("JWT生成エラー")
			return
		}

		now := s.now()
		if err := s.queries.UpdateUserLastLogin(ctx, now, u.ID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", u.ID).Msg("最終ログイン日時の記録に失敗しました")
		} else {
			u.LastLoginAt = sql.NullTime{Time: now, Valid: true}
		}

		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"expires_in": int(middleware.TokenTTL.Seconds()),
			"user":       toUserResponse(u),
		})
	}
}

// forgotPasswordRequest はパスワード再設定メール送信リクエストのJSON構造。
type forgotPasswordRequest struct {
	// Email は登録したメールアドレス。
	Email string `json:"email" binding:"required"`
}

// handleForgotPassword はパスワード再設定メールの送信を処理するハンドラを返す。
// 登録の有無を推測されないよう、結果にかかわらず同じレスポンスを返す。
func (s *Server) handleForgotPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		const message = "登録されているメールアドレスの場合、パスワード再設定用のメールを送信しました"

		var req forgotPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, gin.H{"message": message})
			return
		}

		ctx := c.Request.Context()
		u, err := s.queries.GetUserByEmail(ctx, normalizeEmail(req.Email))
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				s.logger.Error().Err(err).Msg("ユーザー取得エラー")
			}
			c.JSON(http.StatusOK, gin.H{"message": message})
			return
		}

		token := uuid.New().String()
		if err := issueToken(ctx, s.queries, u.ID, purposePasswordReset, token, s.now(), s.resetTTL); err != nil {
			s.logger.Error().Err(err).Str("user_id", u.ID).Msg("再設定トークン発行エラー")
			c.JSON(http.StatusOK, gin.H{"message": message})
			return
		}

		body := fmt.Sprintf("%s さん\n\n以下のリンクからパスワードを再設定してください。\n%s/reset-password?token=%s\n\nリンクの有効期限は%sです。",
			u.Name, s.frontendURL, token, s.resetTTL)
		if err := s.mailer.SendMail(ctx, u.Email, "パスワードの再設定", body); err != nil {
			s.logger.Warn().Err(err).Str("user_id", u.ID).Msg("再設定メールの送信に失敗しました")
		}
		c.JSON(http.StatusOK, gin.H{"message": message})
	}
}

// handleValidateResetToken はパスワード再設定トークンの検証を処理するハンドラを返す。
func (s *Server) handleValidateResetToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"valid": false, "error": "トークンが指定されていません"})
			return
		}
		if _, err := s.findToken(c.Request.Context(), purposePasswordReset, token); err != nil {
			if errors.Is(err, errInvalidToken) || errors.Is(err, errExpiredToken) {
				c.JSON(http.StatusBadRequest, gin.H{"valid": false, "error": err.Error()})
				return
			}
			s.respondTokenError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"valid": true})
	}
}

// resetPasswordRequest はパスワード再設定リクエストのJSON構造。
type resetPasswordRequest struct {
	// Token は再設定メールで送信したトークン。
	Token string `json:"token" binding:"required"`
	// NewPassword は新しいパスワード。8文字以上。
	NewPassword string `json:"new_password" binding:"required,min=8"`
	// ConfirmPassword は確認用のパスワード。
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// handleResetPassword はパスワードの再設定を処理するハンドラを返す。
func (s *Server) handleResetPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req resetPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}
		if req.NewPassword != req.ConfirmPassword {
			c.JSON(http.StatusBadRequest, gin.H{"error": "確認用のパスワードが一致しません"})
			return
		}

		ctx := c.Request.Context()
		t, err := s.findToken(ctx, purposePasswordReset, req.Token)
		if err != nil {
			s.respondTokenError(c, err)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "パスワードの再設定に失敗しました"})
			s.logger.Error().Err(err).Msg("パスワードハッシュ生成エラー")
			return
		}

		err = s.inTx(ctx, func(q *userdb.Queries) error {
			if err := q.UpdateUserPassword(ctx, string(hash), s.now(), t.UserID); err != nil {
				return err
			}
			return q.DeleteUserTokens(ctx, t.UserID, purposePasswordReset)
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "パスワードの再設定に失敗しました"})
			s.logger.Error().Err(err).Msg("パスワード再設定エラー")
			return
		}

		s.logger.Info().Str("user_id", t.UserID).Msg("パスワードを再設定しました")
		c.JSON(http.StatusOK, gin.H{"message": "パスワードを再設定しました"})
	}
}
