package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nao1215/apiscan/internal/discovery"
	projectdb "github.com/nao1215/apiscan/internal/project/db"
	"github.com/nao1215/apiscan/pkg/httpclient"
	"github.com/nao1215/apiscan/pkg/logger"
	"github.com/nao1215/apiscan/pkg/middleware"
	"github.com/nao1215/apiscan/pkg/migration"
	"github.com/rs/zerolog"
)

// Server はprojectサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// queries はprojectsテーブルのクエリ実行オブジェクト。
	queries *projectdb.Queries
	// db はSQLiteデータベース接続。
	db *sql.DB
	// users はプロジェクト所有者を確認する。
	users UserDirectory
	// endpoints はendpointサービスへの操作。
	endpoints EndpointService
	// files はアップロードされたドキュメントの保存先。
	files *FileStorage
	// maxUploadSize はアップロードできるドキュメントの最大バイト数。
	maxUploadSize int64
	// jwtSecret はJWTトークンの検証に使用するシークレット。
	jwtSecret string
	logger    zerolog.Logger
}

// NewServer は新しいprojectサーバーを生成する。
// SQLiteデータベースの初期化とマイグレーション、アップロード先の作成を行う。
func NewServer(cfg Config, log zerolog.Logger) (*Server, error) {
	sqlDB, err := migration.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(sqlDB, log); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	files, err := NewFileStorage(cfg.UploadDir)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	router := gin.New()
	// エスケープされたIDを1つのパスパラメータとして扱う
	router.UseRawPath = true
	router.MaxMultipartMemory = cfg.MaxUploadSize
	router.Use(middleware.Recovery(log))
	router.Use(gin.Logger())

	s := &Server{
		router:        router,
		port:          cfg.Port,
		queries:       projectdb.New(sqlDB),
		db:            sqlDB,
		users:         NewUserDirectory(cfg.UserServiceURL),
		endpoints:     NewEndpointService(cfg.EndpointServiceURL),
		files:         files,
		maxUploadSize: cfg.MaxUploadSize,
		jwtSecret:     cfg.JWTSecret,
		logger:        logger.WithComponent(log, "project-server"),
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
	api := s.router.Group("/api/v1")
	api.Use(middleware.JWTAuth(s.jwtSecret))
	s.registerProjectRoutes(api)

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "project"})
	})
}

// registerProjectRoutes は /projects 配下のルートを登録する。
func (s *Server) registerProjectRoutes(api *gin.RouterGroup) {
	projects := api.Group("/projects")
	{
		// プロジェクト作成（JSONまたはmultipart）
		projects.POST("", s.handleCreate())
		// プロジェクト一覧取得（?auth_type=, ?doc_mode= で絞り込み）
		projects.GET("", s.handleList())
		// プロジェクト詳細取得
		projects.GET("/:id", s.handleGetByID())
		// プロジェクト削除
		projects.DELETE("/:id", s.handleDelete())
		// ドキュメントの再スキャン
		projects.POST("/:id/scan", s.handleScan())
		// プロジェクトのエンドポイント一覧取得
		projects.GET("/:id/endpoints", s.handleListEndpoints())
		// プロジェクトのエンドポイント数取得
		projects.GET("/:id/endpoints/count", s.handleCountEndpoints())
	}
}

// createProjectRequest はプロジェクト作成リクエストの構造。
// JSONとmultipart/form-dataのどちらでも受け付ける。
type createProjectRequest struct {
	// Name はプロジェクト名。
	Name string `json:"name" form:"name" binding:"required"`
	// Description はプロジェクトの説明。
	Description string `json:"description" form:"description"`
	// ProjectURL は対象APIのベースURL。
	ProjectURL string `json:"project_url" form:"project_url"`
	// DocMode はドキュメント管理方式（SWAGGER, MANUAL）。
	DocMode string `json:"doc_mode" form:"doc_mode" binding:"required"`
	// DocURL はドキュメントのURL。
	DocURL string `json:"doc_url" form:"doc_url"`
	// AuthType は対象APIの認証方式。省略時は NONE。
	AuthType string `json:"auth_type" form:"auth_type"`
}

// projectResponse はプロジェクトのJSONレスポンス構造。
type projectResponse struct {
	// ID はプロジェクトの一意識別子。
	ID string `json:"id"`
	// UserID はプロジェクトを作成したユーザーのID。
	UserID string `json:"user_id"`
	// Name はプロジェクト名。
	Name string `json:"name"`
	// Description はプロジェクトの説明。
	Description string `json:"description"`
	// ProjectURL は対象APIのベースURL。
	ProjectURL string `json:"project_url"`
	// DocMode はドキュメント管理方式。
	DocMode string `json:"doc_mode"`
	// DocURL はドキュメントのURL。
	DocURL string `json:"doc_url"`
	// DocFile はアップロードされたドキュメントの保存ファイル名。
	DocFile string `json:"doc_file,omitempty"`
	// AuthType は対象APIの認証方式。
	AuthType string `json:"auth_type"`
	// CreatedAt は作成日時。
	CreatedAt string `json:"created_at"`
	// UpdatedAt は更新日時。
	UpdatedAt string `json:"updated_at"`
}

// createProjectResponse はプロジェクト作成のJSONレスポンス構造。
// スキャンを行った場合はその結果を含む。
type createProjectResponse struct {
	projectResponse
	Scan *discovery.ScanResult `json:"scan,omitempty"`
}

// toProjectResponse はDB行をJSONレスポンスに変換する。
func toProjectResponse(p projectdb.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		Name:        p.Name,
		Description: p.Description,
		ProjectURL:  p.ProjectURL,
		DocMode:     p.DocMode,
		DocURL:      p.DocURL,
		DocFile:     p.DocFile,
		AuthType:    p.AuthType,
		CreatedAt:   p.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   p.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// forwardContext はリクエストの認証情報を他サービスへ引き継ぐcontextを返す。
func forwardContext(c *gin.Context) context.Context {
	ctx := httpclient.WithUserID(c.Request.Context(), middleware.GetUserID(c))
	return httpclient.WithAuthorization(ctx, c.GetHeader("Authorization"))
}

// validateDocURL はドキュメントのURLがhttpまたはhttpsの絶対URLであることを確認する。
func validateDocURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("doc_urlはhttpまたはhttpsのURLで指定してください: %q", raw)
	}
	return nil
}

// uploadedDocument はリクエストに添付されたドキュメントを返す。添付が無い場合はnil。
func uploadedDocument(c *gin.Context) (*multipart.FileHeader, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return nil, nil
	}
	fh, err := c.FormFile("doc_file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	return fh, err
}

// handleCreate はプロジェクト作成を処理するハンドラを返す。
// 所有者をuserサービスで確認し、SWAGGERモードでURLが指定された場合はスキャンを依頼する。
// スキャンの失敗はプロジェクト作成を失敗させない。
func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		var req createProjectRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		docMode, err := ParseDocMode(req.DocMode)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		authType := AuthTypeNone
		if req.AuthType != "" {
			if authType, err = ParseAuthType(req.AuthType); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		if req.DocURL != "" {
			if err := validateDocURL(req.DocURL); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		upload, err := uploadedDocument(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("ドキュメントの読み込みに失敗しました: %v", err)})
			return
		}
		if upload != nil && req.DocURL != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "doc_urlとdoc_fileはどちらか一方を指定してください"})
			return
		}
		if docMode == DocModeSwagger && upload == nil && req.DocURL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "SWAGGERモードではdoc_urlまたはdoc_fileが必要です"})
			return
		}
		if upload != nil && upload.Size > s.maxUploadSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("ドキュメントは%dバイト以内にしてください", s.maxUploadSize)})
			return
		}

		if !s.verifyOwner(c, userID) {
			return
		}

		var docFile string
		if upload != nil {
			if docFile, err = s.saveUpload(req.Name, upload); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "ドキュメントの保存に失敗しました"})
				s.logger.Error().Err(err).Msg("ドキュメント保存エラー")
				return
			}
		}

		now := time.Now().UTC()
		projectID := uuid.New().String()
		if err := s.queries.CreateProject(c.Request.Context(), projectdb.CreateProjectParams{
			ID:          projectID,
			UserID:      userID,
			Name:        req.Name,
			Description: req.Description,
			ProjectURL:  req.ProjectURL,
			DocMode:     string(docMode),
			DocURL:      req.DocURL,
			DocFile:     docFile,
			AuthType:    string(authType),
			CreatedAt:   now,
			UpdatedAt:   now,
		}); err != nil {
			if docFile != "" {
				s.removeDocument(docFile)
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロジェクトの作成に失敗しました"})
			s.logger.Error().Err(err).Msg("プロジェクト作成エラー")
			return
		}
		s.logger.Info().Str("project_id", projectID).Str("user_id", userID).Msg("プロジェクトを作成しました")

		var scan *discovery.ScanResult
		if docMode == DocModeSwagger && req.DocURL != "" {
			scan = s.scanOnCreate(c, projectID, req.DocURL)
		}

		created, err := s.queries.GetProjectByID(c.Request.Context(), projectID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "作成したプロジェクトの取得に失敗しました"})
			s.logger.Error().Err(err).Msg("プロジェクト取得エラー")
			return
		}

		c.JSON(http.StatusCreated, createProjectResponse{
			projectResponse: toProjectResponse(created),
			Scan:            scan,
		})
	}
}

// verifyOwner はuserサービスで所有者が存在し有効であることを確認する。
// 確認できない場合はレスポンスを書き込んで false を返す。
func (s *Server) verifyOwner(c *gin.Context, userID string) bool {
	owner, err := s.users.GetUser(forwardContext(c), userID)
	if errors.Is(err, ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "ユーザーが見つかりません"})
		return false
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "ユーザーの確認に失敗しました"})
		s.logger.Error().Err(err).Str("user_id", userID).Msg("userサービス呼び出しエラー")
		return false
	}
	if !owner.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "ユーザーが有効化されていません"})
		return false
	}
	return true
}

// saveUpload はアップロードされたドキュメントを保存し、保存したファイル名を返す。
func (s *Server) saveUpload(projectName string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("アップロードファイルのオープンに失敗: %w", err)
	}
	defer src.Close()
	return s.files.Save(projectName, fh.Filename, src)
}

// removeDocument は保存したドキュメントを削除する。失敗はログに記録するのみ。
func (s *Server) removeDocument(name string) {
	if err := s.files.Delete(name); err != nil {
		s.logger.Warn().Err(err).Str("doc_file", name).Msg("ドキュメントの削除に失敗しました")
	}
}

// scanOnCreate はプロジェクト作成時のスキャンを依頼する。
// endpointサービスを呼び出せない場合も失敗を表すScanResultを返す。
func (s *Server) scanOnCreate(c *gin.Context, projectID, docURL string) *discovery.ScanResult {
	result, err := s.endpoints.Scan(forwardContext(c), projectID, docURL)
	if err != nil {
		s.logger.Warn().Err(err).Str("project_id", projectID).Msg("スキャンの依頼に失敗しました")
		return discovery.Failure(fmt.Sprintf("スキャンの依頼に失敗しました: %v", err))
	}
	if result.Success {
		s.logger.Info().
			Str("project_id", projectID).
			Int("total_found", result.TotalFound).
			Int("new_count", result.NewCount).
			Msg("スキャンが完了しました")
	} else {
		s.logger.Warn().Str("project_id", projectID).Str("message", result.Message).Msg("スキャンに失敗しました")
	}
	return result
}

// handleList はユーザーのプロジェクト一覧取得を処理するハンドラを返す。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		params := projectdb.ListProjectsByUserIDParams{UserID: userID}
		if v := c.Query("auth_type"); v != "" {
			a, err := ParseAuthType(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			params.AuthType = string(a)
		}
		if v := c.Query("doc_mode"); v != "" {
			m, err := ParseDocMode(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			params.DocMode = string(m)
		}

		projects, err := s.queries.ListProjectsByUserID(c.Request.Context(), params)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロジェクト一覧の取得に失敗しました"})
			s.logger.Error().Err(err).Msg("プロジェクト一覧取得エラー")
			return
		}

		responses := make([]projectResponse, 0, len(projects))
		for _, p := range projects {
			responses = append(responses, toProjectResponse(p))
		}

		c.JSON(http.StatusOK, responses)
	}
}

// loadOwnedProject はURLのIDのプロジェクトを取得し、現在のユーザーの所有であることを確認する。
// 取得できない場合はレスポンスを書き込んで false を返す。
func (s *Server) loadOwnedProject(c *gin.Context) (projectdb.Project, bool) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
		return projectdb.Project{}, false
	}

	p, err := s.queries.GetProjectByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "プロジェクトが見つかりません"})
		return projectdb.Project{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "プロジェクトの取得に失敗しました"})
		s.logger.Error().Err(err).Msg("プロジェクト取得エラー")
		return projectdb.Project{}, false
	}

	if p.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "このプロジェクトへのアクセス権がありません"})
		return projectdb.Project{}, false
	}
	return p, true
}

// handleGetByID はプロジェクト詳細取得を処理するハンドラを返す。
func (s *Server) handleGetByID() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := s.loadOwnedProject(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, toProjectResponse(p))
	}
}

// handleDelete はプロジェクト削除を処理するハンドラを返す。
// endpointサービスのエンドポイントと保存したドキュメントも削除する。どちらの失敗も削除を妨げない。
func (s *Server) handleDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := s.loadOwnedProject(c)
		if !ok {
			return
		}

		deleted, err := s.endpoints.DeleteByProject(forwardContext(c), p.ID)
		if err != nil {
			s.logger.Warn().Err(err).Str("project_id", p.ID).Msg("エンドポイントの削除に失敗しました")
		} else {
			s.logger.Info().Str("project_id", p.ID).Int64("deleted", deleted).Msg("エンドポイントを削除しました")
		}

		if p.DocFile != "" {
			s.removeDocument(p.DocFile)
		}

		if _, err := s.queries.DeleteProject(c.Request.Context(), p.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロジェクトの削除に失敗しました"})
			s.logger.Error().Err(err).Msg("プロジェクト削除エラー")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "プロジェクトを削除しました"})
	}
}

// handleScan はプロジェクトのドキュメントの再スキャンを処理するハンドラを返す。
func (s *Server) handleScan() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := s.loadOwnedProject(c)
		if !ok {
			return
		}
		if DocMode(p.DocMode) != DocModeSwagger {
			c.JSON(http.StatusBadRequest, gin.H{"error": "プロジェクトはSWAGGERモードではありません"})
			return
		}
		if p.DocURL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "プロジェクトにドキュメントのURLが登録されていません"})
			return
		}

		result, err := s.endpoints.Scan(forwardContext(c), p.ID, p.DocURL)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "スキャンの依頼に失敗しました"})
			s.logger.Error().Err(err).Str("project_id", p.ID).Msg("endpointサービス呼び出しエラー")
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// handleListEndpoints はプロジェクトのエンドポイント一覧取得を処理するハンドラを返す。
func (s *Server) handleListEndpoints() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := s.loadOwnedProject(c)
		if !ok {
			return
		}

		endpoints, err := s.endpoints.ListByProject(forwardContext(c), p.ID)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "エンドポイント一覧の取得に失敗しました"})
			s.logger.Error().Err(err).Str("project_id", p.ID).Msg("endpointサービス呼び出しエラー")
			return
		}
		c.JSON(http.StatusOK, endpoints)
	}
}

// handleCountEndpoints はプロジェクトのエンドポイント数取得を処理するハンドラを返す。
func (s *Server) handleCountEndpoints() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := s.loadOwnedProject(c)
		if !ok {
			return
		}

		count, err := s.endpoints.CountByProject(forwardContext(c), p.ID)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "エンドポイント数の取得に失敗しました"})
			s.logger.Error().Err(err).Str("project_id", p.ID).Msg("endpointサービス呼び出しエラー")
			return
		}
		c.JSON(http.StatusOK, gin.H{"project_id": p.ID, "count": count})
	}
}
