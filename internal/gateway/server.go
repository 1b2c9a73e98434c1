package gateway

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/apiscan/pkg/logger"
	"github.com/nao1215/apiscan/pkg/middleware"
	"github.com/rs/zerolog"
)

// Server はAPI Gatewayサービスの HTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// jwtSecret はJWT検証用の秘密鍵。
	jwtSecret string
	// serviceURLs は内部サービスのURL。
	serviceURLs serviceURLConfig
	// client は内部サービスへの転送に使用するHTTPクライアント。
	client *http.Client
	// authLimiter は /auth 配下のレート制限。
	authLimiter *middleware.RateLimiter
	logger      zerolog.Logger
}

// serviceURLConfig は内部サービスのURL設定。
type serviceURLConfig struct {
	User     string
	Project  string
	Endpoint string
}

// NewServer は新しいGatewayサーバーを生成する。
func NewServer(cfg Config, log zerolog.Logger) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWTシークレットが設定されていません")
	}

	router := gin.New()
	// エスケープされたIDを1つのパスパラメータとして扱う
	router.UseRawPath = true
	router.Use(middleware.Recovery(log))
	router.Use(gin.Logger())
	router.Use(middleware.CORS([]string{cfg.FrontendURL}))

	s := &Server{
		router:    router,
		port:      cfg.Port,
		jwtSecret: cfg.JWTSecret,
		serviceURLs: serviceURLConfig{
			User:     cfg.UserServiceURL,
			Project:  cfg.ProjectServiceURL,
			Endpoint: cfg.EndpointServiceURL,
		},
		client:      &http.Client{Timeout: cfg.ProxyTimeout},
		authLimiter: middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst),
		logger:      logger.WithComponent(log, "gateway-server"),
	}
	s.setupRoutes()

	return s, nil
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// 認証エンドポイント（認証不要、IPごとにレート制限）
	auth := s.router.Group("/auth")
	auth.Use(s.authLimiter.Middleware())
	auth.Any("/*path", s.handleAuthProxy())

	// 認証必須のAPIエンドポイント
	api := s.router.Group("/api/v1")
	api.Use(middleware.JWTAuth(s.jwtSecret))
	{
		// ユーザー情報
		api.GET("/me", s.handleGetCurrentUser())
		api.GET("/users/:id", s.handleProxy(s.serviceURLs.User))
		api.PUT("/users/:id", s.handleProxy(s.serviceURLs.User))

		// プロジェクト
		api.POST("/projects", s.handleProxy(s.serviceURLs.Project))
		api.GET("/projects", s.handleProxy(s.serviceURLs.Project))
		api.GET("/projects/:id", s.handleProxy(s.serviceURLs.Project))
		api.DELETE("/projects/:id", s.handleProxy(s.serviceURLs.Project))
		api.POST("/projects/:id/scan", s.handleProxy(s.serviceURLs.Project))
		api.GET("/projects/:id/endpoints", s.handleProxy(s.serviceURLs.Project))
		api.GET("/projects/:id/endpoints/count", s.handleProxy(s.serviceURLs.Project))

		// エンドポイント
		api.POST("/endpoints", s.handleProxy(s.serviceURLs.Endpoint))
		api.GET("/endpoints", s.handleProxy(s.serviceURLs.Endpoint))
		api.POST("/endpoints/scan", s.handleProxy(s.serviceURLs.Endpoint))
		api.GET("/endpoints/:id", s.handleProxy(s.serviceURLs.Endpoint))
		api.PUT("/endpoints/:id", s.handleProxy(s.serviceURLs.Endpoint))
		api.DELETE("/endpoints/:id", s.handleProxy(s.serviceURLs.Endpoint))
		api.GET("/endpoints/project/:project_id", s.handleProxy(s.serviceURLs.Endpoint))
		api.GET("/endpoints/project/:project_id/count", s.handleProxy(s.serviceURLs.Endpoint))
		api.DELETE("/endpoints/project/:project_id", s.handleProxy(s.serviceURLs.Endpoint))
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "gateway"})
	})
}

// handleAuthProxy は /auth/* をuserサービスの /api/v1/auth/* に転送するハンドラを返す。
func (s *Server) handleAuthProxy() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.doProxy(c, withQuery(c, s.serviceURLs.User+"/api/v1/auth"+c.Param("path")))
	}
}

// handleGetCurrentUser は認証済みユーザーの情報をuserサービスから取得するハンドラを返す。
func (s *Server) handleGetCurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}
		s.doProxy(c, s.serviceURLs.User+"/api/v1/users/"+url.PathEscape(userID))
	}
}

// handleProxy はリクエストのパスをエスケープを保ったまま指定サービスに転送するハンドラを返す。
func (s *Server) handleProxy(baseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.doProxy(c, withQuery(c, baseURL+c.Request.URL.EscapedPath()))
	}
}

// withQuery は元のリクエストのクエリ文字列をURLに付与する。
func withQuery(c *gin.Context, target string) string {
	if c.Request.URL.RawQuery != "" {
		return target + "?" + c.Request.URL.RawQuery
	}
	return target
}

// doProxy はリクエストを内部サービスにプロキシする共通処理。
// JWTトークンとユーザーIDヘッダーを転送する。
func (s *Server) doProxy(c *gin.Context, target string) {
	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, target, c.Request.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "プロキシリクエストの作成に失敗しました"})
		return
	}
	req.ContentLength = c.Request.ContentLength

	// multipartのboundaryを保つためContent-Typeはそのまま転送する
	if ct := c.GetHeader("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	if accept := c.GetHeader("Accept"); accept != "" {
		req.Header.Set("Accept", accept)
	}
	if auth := c.GetHeader("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}
	// クライアントが送ったX-User-IDは信用せず、JWTから取り出した値のみを付与する
	if userID := middleware.GetUserID(c); userID != "" {
		req.Header.Set(middleware.HeaderKeyUserID, userID)
	}
	req.Header.Set("X-Forwarded-For", c.ClientIP())

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "内部サービスとの通信に失敗しました"})
		s.logger.Error().Err(err).Str("url", target).Msg("プロキシエラー")
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "レスポンスの読み取りに失敗しました"})
		s.logger.Error().Err(err).Str("url", target).Msg("レスポンス読み取りエラー")
		return
	}

	s.logger.Debug().
		Str("method", c.Request.Method).
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("プロキシしました")

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(resp.StatusCode, contentType, body)
}
