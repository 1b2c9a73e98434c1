package endpoint

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nao1215/apiscan/internal/discovery"
	"github.com/nao1215/apiscan/pkg/httpclient"
	"github.com/nao1215/apiscan/pkg/logger"
	"github.com/nao1215/apiscan/pkg/middleware"
	"github.com/nao1215/apiscan/pkg/migration"
	"github.com/rs/zerolog"
)

// Server はendpointサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// store はエンドポイントの永続化を行う。
	store *Store
	// db はSQLiteデータベース接続。
	db *sql.DB
	// scanner はドキュメントのスキャンを行う。
	scanner *discovery.Scanner
	// projects はプロジェクトのドキュメントURLを解決する。
	projects ProjectLookup
	// metrics はスキャンのメトリクス。
	metrics *scanMetrics
	// jwtSecret はJWTトークンの検証に使用するシークレット。
	jwtSecret string
	logger    zerolog.Logger
}

// NewServer は新しいendpointサーバーを生成する。
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

	router := newEngine()
	router.Use(middleware.Recovery(log))
	router.Use(gin.Logger())

	store := NewStore(sqlDB)
	s := &Server{
		router:    router,
		port:      cfg.Port,
		store:     store,
		db:        sqlDB,
		scanner:   discovery.NewScanner(discovery.NewHTTPFetcher(cfg.FetchTimeout, cfg.MaxDocumentSize), store, log),
		projects:  NewProjectLookup(cfg.ProjectServiceURL),
		metrics:   newScanMetrics(),
		jwtSecret: cfg.JWTSecret,
		logger:    logger.WithComponent(log, "endpoint-server"),
	}
	s.setupRoutes()

	return s, nil
}

// newEngine はエスケープされたIDを1つのパスパラメータとして扱うルーターを生成する。
func newEngine() *gin.Engine {
	router := gin.New()
	router.UseRawPath = true
	return router
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	defer s.db.Close()
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	api := s.router.Group("/api/v1")
	api.Use(middleware.JWTAuth(s.jwtSecret))
	s.registerEndpointRoutes(api)

	// メトリクス
	s.router.GET("/metrics", gin.WrapH(s.metrics.handler()))

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "endpoint"})
	})
}

// registerEndpointRoutes は /endpoints 配下のルートを登録する。
func (s *Server) registerEndpointRoutes(api *gin.RouterGroup) {
	endpoints := api.Group("/endpoints")
	{
		// ドキュメントのスキャン
		endpoints.POST("/scan", s.handleScan())
		// 手動登録
		endpoints.POST("", s.handleCreate())
		// 一覧取得（?method=, ?origin= で絞り込み）
		endpoints.GET("", s.handleList())
		// 詳細取得
		endpoints.GET("/:id", s.handleGetByID())
		// 更新
		endpoints.PUT("/:id", s.handleUpdate())
		// 削除
		endpoints.DELETE("/:id", s.handleDelete())
		// プロジェクト単位の操作
		endpoints.GET("/project/:project_id", s.handleListByProject())
		endpoints.GET("/project/:project_id/count", s.handleCountByProject())
		endpoints.DELETE("/project/:project_id", s.handleDeleteByProject())
	}
}

// scanRequest はスキャンリクエストのJSON構造。
type scanRequest struct {
	// ProjectID はスキャン結果を登録するプロジェクトのID。
	ProjectID string `json:"project_id"`
	// DocumentURL はOpenAPI/SwaggerドキュメントのURL。
	// 空の場合はprojectサービスに登録されたURLを使用する。
	DocumentURL string `json:"document_url"`
}

// endpointRequest はエンドポイントの登録・更新リクエストのJSON構造。
type endpointRequest struct {
	// ProjectID は所属するプロジェクトのID。登録時のみ必須。
	ProjectID string `json:"project_id"`
	// Method はHTTPメソッド。
	Method string `json:"method" binding:"required"`
	// Path はエンドポイントのパス。
	Path string `json:"path" binding:"required"`
	// Description は説明。
	Description string `json:"description"`
	// Tags は ", " 区切りのタグ。
	Tags string `json:"tags"`
	// Parameters はパラメータ定義のJSON文字列。
	Parameters string `json:"parameters"`
	// RequestBody はリクエストボディ定義のJSON文字列。
	RequestBody string `json:"request_body_example"`
	// ResponseBody はレスポンス定義のJSON文字列。
	ResponseBody string `json:"response_body_example"`
	// StatusCodes は "," 区切りのステータスコード。省略時は "200"。
	StatusCodes string `json:"status_codes"`
	// RequiresAuth は認証が必要かどうか。省略時は false。
	RequiresAuth *bool `json:"requires_auth"`
}

// toEndpoint はリクエストを検証してEndpointに変換する。
func (r endpointRequest) toEndpoint() (discovery.Endpoint, error) {
	method, err := discovery.ParseMethod(r.Method)
	if err != nil {
		return discovery.Endpoint{}, err
	}
	if utf8.RuneCountInString(r.Path) > discovery.MaxPathLength {
		return discovery.Endpoint{}, fmt.Errorf("パスは%d文字以内で指定してください", discovery.MaxPathLength)
	}
	statusCodes := r.StatusCodes
	if statusCodes == "" {
		statusCodes = discovery.DefaultStatusCodes
	}
	requiresAuth := false
	if r.RequiresAuth != nil {
		requiresAuth = *r.RequiresAuth
	}
	return discovery.Endpoint{
		ProjectID:    r.ProjectID,
		Method:       method,
		Path:         r.Path,
		Description:  r.Description,
		Tags:         r.Tags,
		Parameters:   r.Parameters,
		RequestBody:  r.RequestBody,
		ResponseBody: r.ResponseBody,
		StatusCodes:  statusCodes,
		RequiresAuth: requiresAuth,
	}, nil
}

// handleScan はドキュメントのスキャンを処理するハンドラを返す。
// スキャンの成否にかかわらず200とScanResultを返す。
func (s *Server) handleScan() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req scanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, discovery.Failure(fmt.Sprintf("リクエストが不正です: %v", err)))
			return
		}

		start := time.Now()
		documentURL := req.DocumentURL
		if documentURL == "" && req.ProjectID != "" {
			url, failure := s.resolveDocumentURL(c, req.ProjectID)
			if failure != nil {
				s.metrics.observe(failure, time.Since(start))
				c.JSON(http.StatusOK, failure)
				return
			}
			documentURL = url
		}

		result := s.scanner.Scan(c.Request.Context(), req.ProjectID, documentURL)
		s.metrics.observe(result, time.Since(start))
		c.JSON(http.StatusOK, result)
	}
}

// resolveDocumentURL はprojectサービスからプロジェクトのドキュメントURLを取得する。
// 取得できない場合は失敗を表すScanResultを返す。
func (s *Server) resolveDocumentURL(c *gin.Context, projectID string) (string, *discovery.ScanResult) {
	ctx := httpclient.WithUserID(c.Request.Context(), middleware.GetUserID(c))
	ctx = httpclient.WithAuthorization(ctx, c.GetHeader("Authorization"))

	project, err := s.projects.LookupProject(ctx, projectID)
	if errors.Is(err, discovery.ErrNotFound) {
		return "", discovery.Failure(fmt.Sprintf("プロジェクトが見つかりません: %s", projectID))
	}
	if err != nil {
		s.logger.Error().Err(err).Str("project_id", projectID).Msg("プロジェクトの取得に失敗しました")
		return "", discovery.Failure(fmt.Sprintf("プロジェクトの取得に失敗しました: %v", err))
	}
	if project.DocMode != DocModeSwagger {
		return "", discovery.Failure("プロジェクトはSWAGGERモードではありません")
	}
	if project.DocURL == "" {
		return "", discovery.Failure("プロジェクトにドキュメントのURLが登録されていません")
	}
	return project.DocURL, nil
}

// handleCreate はエンドポイントの手動登録を処理するハンドラを返す。
func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req endpointRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}
		if req.ProjectID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "project_idは必須です"})
			return
		}

		e, err := req.toEndpoint()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		now := time.Now().UTC()
		e.ID = uuid.New().String()
		e.Origin = discovery.OriginManual
		e.CreatedAt = now
		e.UpdatedAt = now

		if err := s.store.Create(c.Request.Context(), e); err != nil {
			var dup *discovery.DuplicateEndpointError
			if errors.As(err, &dup) {
				c.JSON(http.StatusConflict, gin.H{"error": dup.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "エンドポイントの登録に失敗しました"})
			s.logger.Error().Err(err).Msg("エンドポイント登録エラー")
			return
		}

		created, err := s.store.Get(c.Request.Context(), e.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "登録したエンドポイントの取得に失敗しました"})
			s.logger.Error().Err(err).Msg("エンドポイント取得エラー")
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

// handleList はエンドポイント一覧の取得を処理するハンドラを返す。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		var f Filter
		if m := c.Query("method"); m != "" {
			method, err := discovery.ParseMethod(m)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			f.Method = method
		}
		if o := c.Query("origin"); o != "" {
			origin, err := discovery.ParseOrigin(o)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			f.Origin = origin
		}

		endpoints, err := s.store.List(c.Request.Context(), f)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "エンドポイント一覧の取得に失敗しました"})
			s.logger.Error().Err(err).Msg("エンドポイント一覧取得エラー")
			return
		}
		c.JSON(http.StatusOK, endpoints)
	}
}

// handleGetByID はエンドポイント詳細の取得を処理するハンドラを返す。
func (s *Server) handleGetByID() gin.HandlerFunc {
	return func(c *gin.Context) {
		e, err := s.store.Get(c.Request.Context(), c.Param("id"))
		if errors.Is(err, discovery.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "エンドポイントが見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "エンドポイントの取得に失敗しました"})
			s.logger.Error().Err(err).Msg("エンドポイント取得エラー")
			return
		}
		c.JSON(http.StatusOK, e)
	}
}

// handleUpdate はエンドポイントの更新を処理するハンドラを返す。
// 所属プロジェクトと登録種別は変更できない。
func (s *Server) handleUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req endpointRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}
		e, err := req.toEndpoint()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		e.ID = c.Param("id")

		updated, err := s.store.Update(c.Request.Context(), e)
		if errors.Is(err, discovery.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "エンドポイントが見つかりません"})
			return
		}
		var dup *discovery.DuplicateEndpointError
		if errors.As(err, &dup) {
			c.JSON(http.StatusConflict, gin.H{"error": dup.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "エンドポイントの更新に失敗しました"})
			s.logger.Error().Err(err).Msg("エンドポイント更新エラー")
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// handleDelete はエンドポイントの削除を処理するハンドラを返す。
func (s *Server) handleDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := s.store.Delete(c.Request.Context(), c.Param("id"))
		if errors.Is(err, discovery.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "エンドポイントが見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "エンドポイントの削除に失敗しました"})
			s.logger.Error().Err(err).Msg("エンドポイント削除エラー")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "エンドポイントを削除しました"})
	}
}

// handleListByProject はプロジェクトのエンドポイント一覧の取得を処理するハンドラを返す。
func (s *Server) handleListByProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		endpoints, err := s.store.ListByProject(c.Request.Context(), c.Param("project_id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "エンドポイント一覧の取得に失敗しました"})
			s.logger.Error().Err(err).Msg("エンドポイント一覧取得エラー")
			return
		}
		c.JSON(http.StatusOK, endpoints)
	}
}

// handleCountByProject はプロジェクトのエンドポイント数の取得を処理するハンドラを返す。
func (s *Server) handleCountByProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID := c.Param("project_id")
		count, err := s.store.CountByProject(c.Request.Context(), projectID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "エンドポイント数の取得に失敗しました"})
			s.logger.Error().Err(err).Msg("エンドポイント数取得エラー")
			return
		}
		c.JSON(http.StatusOK, gin.H{"project_id": projectID, "count": count})
	}
}

// handleDeleteByProject はプロジェクトのエンドポイント一括削除を処理するハンドラを返す。
func (s *Server) handleDeleteByProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID := c.Param("project_id")
		deleted, err := s.store.DeleteByProject(c.Request.Context(), projectID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "エンドポイントの削除に失敗しました"})
			s.logger.Error().Err(err).Msg("エンドポイント一括削除エラー")
			return
		}
		s.logger.Info().Str("project_id", projectID).Int64("deleted", deleted).Msg("プロジェクトのエンドポイントを削除しました")
		c.JSON(http.StatusOK, gin.H{"message": "プロジェクトのエンドポイントを削除しました", "deleted": deleted})
	}
}
