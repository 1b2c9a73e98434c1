package user

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	userdb "github.com/nao1215/apiscan/internal/user/db"
	"github.com/nao1215/apiscan/pkg/logger"
	"github.com/nao1215/apiscan/pkg/middleware"
	"github.com/nao1215/apiscan/pkg/migration"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Server はuserサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// queries はusersテーブルとuser_tokensテーブルのクエリ実行オブジェクト。
	queries *userdb.Queries
	// db はSQLiteデータベース接続。
	db *sql.DB
	// mailer は確認メールとパスワード再設定メールを送信する。
	mailer Mailer
	// sms は電話番号の確認コードを送信する。
	sms SMSSender
	// jwtSecret はJWTトークンの署名と検証に使用するシークレット。
	jwtSecret string
	// requirePhone が true の場合は有効化に電話番号の確認も必要になる。
	requirePhone bool
	emailTTL     time.Duration
	phoneTTL     time.Duration
	resetTTL     time.Duration
	// frontendURL はメール本文のリンクの起点。
	frontendURL string
	// bcryptCost はパスワードハッシュのコスト。
	bcryptCost int
	now        func() time.Time
	logger     zerolog.Logger
}

// NewServer は新しいuserサーバーを生成する。
// SQLiteデータベースの初期化とマイグレーションを行う。
func NewServer(cfg Config, log zerolog.Logger) (*Server, error) {
	sqlDB, err := migration.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(sqlDB, log); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	router := gin.New()
	// エスケープされたIDを1つのパスパラメータとして扱う
	router.UseRawPath = true
	router.Use(middleware.Recovery(log))
	router.Use(gin.Logger())

	s := &Server{
		router:       router,
		port:         cfg.Port,
		queries:      userdb.New(sqlDB),
		db:           sqlDB,
		mailer:       NewLogMailer(log),
		sms:          NewLogSMSSender(log),
		jwtSecret:    cfg.JWTSecret,
		requirePhone: cfg.RequirePhoneVerification,
		emailTTL:     cfg.EmailTokenTTL,
		phoneTTL:     cfg.PhoneCodeTTL,
		resetTTL:     cfg.ResetTokenTTL,
		frontendURL:  cfg.FrontendURL,
		bcryptCost:   bcrypt.DefaultCost,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger.WithComponent(log, "user-server"),
	}
	s.setupRoutes()

	return s, nil
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	defer s.db.Close()
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// 認証関連は認証不要
	s.registerAuthRoutes(s.router.Group("/api/v1/auth"))

	api := s.router.Group("/api/v1")
	api.Use(middleware.JWTAuth(s.jwtSecret))
	s.registerUserRoutes(api)

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "user"})
	})
}

// registerAuthRoutes は /auth 配下のルートを登録する。
func (s *Server) registerAuthRoutes(auth *gin.RouterGroup) {
	// ユーザー登録
	auth.POST("/register", s.handleRegister())
	// メールアドレスの確認
	auth.GET("/verify-email", s.handleVerifyEmail())
	// 電話番号の確認
	auth.POST("/verify-phone", s.handleVerifyPhone())
	// 確認メールの再送
	auth.POST("/resend-email-verification", s.handleResendEmailVerification())
	// 確認コードの再送
	auth.POST("/resend-phone-verification", s.handleResendPhoneVerification())
	// ログイン
	auth.POST("/login", s.handleLogin())
	// パスワード再設定
	auth.POST("/forgot-password", s.handleForgotPassword())
	auth.GET("/validate-reset-token", s.handleValidateResetToken())
	auth.POST("/reset-password", s.handleResetPassword())
}

// registerUserRoutes は /users 配下のルートを登録する。
func (s *Server) registerUserRoutes(api *gin.RouterGroup) {
	users := api.Group("/users")
	{
		// ユーザー取得
		users.GET("/:id", s.handleGetUser())
		// プロフィール更新（本人のみ）
		users.PUT("/:id", s.handleUpdateUser())
	}
}

// inTx はトランザクション内でfnを実行する。fnがエラーを返した場合はロールバックする。
func (s *Server) inTx(ctx context.Context, fn func(q *userdb.Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(s.queries.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit()
}

// userResponse はユーザーのJSONレスポンス構造。
type userResponse struct {
	// ID はユーザーの一意識別子。
	ID string `json:"id"`
	// Name は表示名。
	Name string `json:"name"`
	// Email はメールアドレス。
	Email string `json:"email"`
	// Role はロール。
	Role string `json:"role"`
	// Company は会社名。
	Company string `json:"company"`
	// Phone は電話番号。
	Phone string `json:"phone,omitempty"`
	// Avatar はアバター画像のURL。
	Avatar string `json:"avatar,omitempty"`
	// IsActive は有効化済みかどうか。
	IsActive bool `json:"is_active"`
	// EmailVerified はメールアドレス確認済みかどうか。
	EmailVerified bool `json:"email_verified"`
	// PhoneVerified は電話番号確認済みかどうか。
	PhoneVerified bool `json:"phone_verified"`
	// CreatedAt は作成日時。
	CreatedAt string `json:"created_at"`
	// LastLoginAt は最終ログイン日時。
	LastLoginAt string `json:"last_login_at,omitempty"`
}

// toUserResponse はDB行をJSONレスポンスに変換する。パスワードハッシュは含めない。
func toUserResponse(u userdb.User) userResponse {
	resp := userResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		Company:       u.Company,
		Phone:         u.Phone,
		Avatar:        u.Avatar,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		PhoneVerified: u.PhoneVerified,
		CreatedAt:     u.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if u.LastLoginAt.Valid {
		resp.LastLoginAt = u.LastLoginAt.Time.Format("2006-01-02T15:04:05Z")
	}
	return resp
}
