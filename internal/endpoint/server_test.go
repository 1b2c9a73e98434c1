package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/apiscan/internal/discovery"
	"github.com/nao1215/apiscan/pkg/migration"
	"github.com/rs/zerolog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeProjectLookup はテスト用のProjectLookup。
type fakeProjectLookup struct {
	mu       sync.Mutex
	projects map[string]*ProjectSource
	err      error
}

func (f *fakeProjectLookup) LookupProject(ctx context.Context, projectID string) (*ProjectSource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.projects[projectID]
	if !ok {
		return nil, discovery.ErrNotFound
	}
	return p, nil
}

// setupTestServer はテスト用のendpointサーバーをインメモリSQLiteで構築する。
func setupTestServer(t *testing.T) (*Server, *gin.Engine, *fakeProjectLookup) {
	t.Helper()

	sqlDB, err := migration.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("インメモリDBの作成に失敗: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := initSchema(sqlDB, zerolog.Nop()); err != nil {
		t.Fatalf("スキーマ初期化に失敗: %v", err)
	}

	lookup := &fakeProjectLookup{projects: map[string]*ProjectSource{}}
	store := NewStore(sqlDB)
	router := newEngine()
	s := &Server{
		router:   router,
		port:     "0",
		store:    store,
		db:       sqlDB,
		scanner:  discovery.NewScanner(discovery.NewHTTPFetcher(0, 0), store, zerolog.Nop()),
		projects: lookup,
		metrics:  newScanMetrics(),
		logger:   zerolog.Nop(),
	}

	// JWTミドルウェアの代わりにテスト用のユーザーID設定ミドルウェアを使用する
	api := router.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	})
	s.registerEndpointRoutes(api)
	router.GET("/metrics", gin.WrapH(s.metrics.handler()))

	return s, router, lookup
}

// serveDocument はOpenAPIドキュメントを返すテストサーバーを起動する。
func serveDocument(t *testing.T, doc string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, doc)
	}))
	t.Cleanup(ts.Close)
	return ts
}

// doRequest はテスト用のHTTPリクエストを実行し、レスポンスを返すヘルパー関数。
func doRequest(router *gin.Engine, method, path, userID string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewReader(jsonBytes)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// parseJSON はレスポンスボディをmapにデコードするヘルパー関数。
func parseJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("JSONのデコードに失敗: %v, body=%s", err, w.Body.String())
	}
	return result
}

// parseJSONArray はレスポンスボディをスライスにデコードするヘルパー関数。
func parseJSONArray(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var result []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("JSON配列のデコードに失敗: %v, body=%s", err, w.Body.String())
	}
	return result
}

// parseScanResult はレスポンスボディをScanResultにデコードするヘルパー関数。
func parseScanResult(t *testing.T, w *httptest.ResponseRecorder) discovery.ScanResult {
	t.Helper()
	var result discovery.ScanResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("ScanResultのデコードに失敗: %v, body=%s", err, w.Body.String())
	}
	return result
}

// createTestEndpoint はAPI経由でエンドポイントを手動登録するヘルパー関数。
func createTestEndpoint(t *testing.T, router *gin.Engine, projectID, method, path string) map[string]any {
	t.Helper()
	w := doRequest(router, http.MethodPost, "/api/v1/endpoints", "user-1", map[string]any{
		"project_id": projectID,
		"method":     method,
		"path":       path,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("テスト用エンドポイントの作成に失敗: status=%d, body=%s", w.Code, w.Body.String())
	}
	return parseJSON(t, w)
}

const petstoreDoc = `{
  "openapi": "3.0.0",
  "paths": {
    "/pets": {
      "get": {"summary": "List pets", "tags": ["pets"], "responses": {"200": {"description": "ok"}}},
      "post": {"summary": "Create pet", "security": [{"bearer": []}], "responses": {"201": {"description": "created"}, "400": {}}}
    },
    "/pets/{id}": {
      "get": {"parameters": [{"name": "id", "in": "path", "required": true}], "responses": {"200": {}, "404": {}}}
    }
  }
}`

// TestHandleScan はスキャンAPIを検証する。
func TestHandleScan(t *testing.T) {
	t.Parallel()

	t.Run("ドキュメントURLを指定してスキャンできること", func(t *testing.T) {
		t.Parallel()

		_, router, _ := setupTestServer(t)
		ts := serveDocument(t, petstoreDoc)

		w := doRequest(router, http.MethodPost, "/api/v1/endpoints/scan", "user-1", map[string]string{
			"project_id":   "project-1",
			"document_url": ts.URL,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}

		result := parseScanResult(t, w)
		if !result.Success {
			t.Fatalf("スキャンが失敗した: %s", result.Message)
		}
		if result.TotalFound != 3 || result.NewCount != 3 || result.SkippedCount != 0 || result.UpdatedCount != 0 {
			t.Errorf("件数 = total:%d new:%d skipped:%d updated:%d, want 3/3/0/0",
				result.TotalFound, result.NewCount, result.SkippedCount, result.UpdatedCount)
		}
		if len(result.Endpoints) != 3 {
			t.Fatalf("エンドポイント数 = %d, want 3", len(result.Endpoints))
		}
		post := result.Endpoints[1]
		if post.Method != discovery.MethodPost || !post.RequiresAuth || post.StatusCodes != "201,400" {
			t.Errorf("POST /pets = %+v", post)
		}
		if post.Origin != discovery.OriginDiscovered {
			t.Errorf("Origin = %q, want %q", post.Origin, discovery.OriginDiscovered)
		}
	})

	t.Run("再スキャンでは既存のエンドポイントがスキップされること", func(t *testing.T) {
		t.Parallel()

		_, router, _ := setupTestServer(t)
		ts := serveDocument(t, petstoreDoc)
		body := map[string]string{"project_id": "project-1", "document_url": ts.URL}

		doRequest(router, http.MethodPost, "/api/v1/endpoints/scan", "user-1", body)
		w := doRequest(router, http.MethodPost, "/api/v1/endpoints/scan", "user-1", body)

		result := parseScanResult(t, w)
		if !result.Success {
			t.Fatalf("スキャンが失敗した: %s", result.Message)
		}
		if result.NewCount != 0 || result.SkippedCount != 3 {
			t.Errorf("new = %d, skipped = %d, want 0, 3", result.NewCount, result.SkippedCount)
		}
		if len(result.Endpoints) != 0 {
			t.Errorf("エンドポイント数 = %d, want 0", len(result.Endpoints))
		}

		w = doRequest(router, http.MethodGet, "/api/v1/endpoints/project/project-1/count", "user-1", nil)
		if got := parseJSON(t, w)["count"]; got != float64(3) {
			t.Errorf("count = %v, want 3", got)
		}
	})

	t.Run("手動登録済みのエンドポイントはスキャンでスキップされること", func(t *testing.T) {
		t.Parallel()

		_, router, _ := setupTestServer(t)
		ts := serveDocument(t, petstoreDoc)
		createTestEndpoint(t, router, "project-1", "GET", "/pets")

		w := doRequest(router, http.MethodPost, "/api/v1/endpoints/scan", "user-1", map[string]string{
			"project_id":   "project-1",
			"document_url": ts.URL,
		})
		result := parseScanResult(t, w)
		if result.NewCount != 2 || result.SkippedCount != 1 {
			t.Errorf("new = %d, skipped = %d, want 2, 1", result.NewCount, result.SkippedCount)
		}
	})

	t.Run("未対応のバージョンでは失敗結果が200で返ること", func(t *testing.T) {
		t.Parallel()

		_, router, _ := setupTestServer(t)
		ts := serveDocument(t, `{"swagger":"1.0","paths":{"/a":{"get":{}}}}`)

		w := doRequest(router, http.MethodPost, "/api/v1/endpoints/scan", "user-1", map[string]string{
			"project_id":   "project-1",
			"document_url": ts.URL,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		result := parseScanResult(t, w)
		if result.Success {
			t.Fatal("スキャンは失敗するべき")
		}
		if !strings.Contains(result.Message, "1.0") {
			t.Errorf("Message = %q, バージョンを含むべき", result.Message)
		}
		if result.Endpoints == nil || len(result.Endpoints) != 0 {
			t.Errorf("Endpoints = %v, want empty", result.Endpoints)
		}
	})

	t.Run("URL省略時はプロジェクトに登録されたURLを使用すること", func(t *testing.T) {
		t.Parallel()

		_, router, lookup := setupTestServer(t)
		ts := serveDocument(t, petstoreDoc)
		lookup.projects["project-2"] = &ProjectSource{ID: "project-2", DocMode: DocModeSwagger, DocURL: ts.URL}

		w := doRequest(router, http.MethodPost, "/api/v1/endpoints/scan", "user-1", map[string]string{
			"project_id": "project-2",
		})
		result := parseScanResult(t, w)
		if !result.Success || result.NewCount != 3 {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("URL省略時にプロジェクトが存在しない場合は失敗結果が返ること", func(t *testing.T) {
		t.Parallel()

		_, router, _ := setupTestServer(t)
		w := doRequest(router, http.MethodPost, "/api/v1/endpoints/scan", "user-1", map[string]string{
			"project_id": "missing",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if result := parseScanResult(t, w); result.Success {
			t.Error("スキャンは失敗するべき")
		}
	})

	t.Run("URL省略時にMANUALモードのプロジェクトは失敗結果が返ること", func(t *testing.T) {
		t.Parallel()

		_, router, lookup := setupTestServer(t)
		lookup.projects["manual"] = &ProjectSource{ID: "manual", DocMode: "MANUAL"}

		w := doRequest(router, http.MethodPost, "/api/v1/endpoints/scan", "user-1", map[string]string{
			"project_id": "manual",
		})
		result := parseScanResult(t, w)
		if result.Success || !strings.Contains(result.Message, "SWAGGER") {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("projectサービスの障害時は失敗結果が返ること", func(t *testing.T) {
		t.Parallel()

		_, router, lookup := setupTestServer(t)
		lookup.err = fmt.Errorf("connection refused")

		w := doRequest(router, http.MethodPost, "/api/v1/endpoints/scan", "user-1", map[string]string{
			"project_id": "project-1",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if result := parseScanResult(t, w); result.Success {
			t.Error("スキャンは失敗するべき")
		}
	})

	t.Run("project_idが無い場合は失敗結果が返ること", func(t *testing.T) {
		t.Parallel()

		_, router, _ := setupTestServer(t)
		w := doRequest(router, http.MethodPost, "/api/v1/endpoints/scan", "user-1", map[string]string{
			"document_url": "http://127.0.0.1:1/openapi.json",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if result := parseScanResult(t, w); result.Success {
			t.Error("スキャンは失敗するべき")
		}
	})

	t.Run("不正なJSONでは400が返ること", func(t *testing.T) {
		t.Parallel()

		_, router, _ := setupTestServer(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/endpoints/scan", strings.NewReader(`{invalid`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("同じプロジェクトの並行スキャンで重複が生じないこと", func(t *testing.T) {
		t.Parallel()

		_, router, _ := setupTestServer(t)
		ts := serveDocument(t, petstoreDoc)
		body := map[string]string{"project_id": "project-1", "document_url": ts.URL}

		const n = 5
		var wg sync.WaitGroup
		var mu sync.Mutex
		totalNew := 0
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w := doRequest(router, http.MethodPost, "/api/v1/endpoints/scan", "user-1", body)
				var result discovery.ScanResult
				if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
					t.Errorf("ScanResultのデコードに失敗: %v", err)
					return
				}
				mu.Lock()
				totalNew += result.NewCount
				mu.Unlock()
			}()
		}
		wg.Wait()

		if totalNew != 3 {
			t.Errorf("新規登録の合計 = %d, want 3", totalNew)
		}
		w := doRequest(router, http.MethodGet, "/api/v1/endpoints/project/project-1", "user-1", nil)
		if got := len(parseJSONArray(t, w)); got != 3 {
			t.Errorf("エンドポイント数 = %d, want 3", got)
		}
	})

	t.Run("スキャン結果がメトリクスに反映されること", func(t *testing.T) {
		t.Parallel()

		_, router, _ := setupTestServer(t)
		ts := serveDocument(t, petstoreDoc)
		doRequest(router, http.MethodPost, "/api/v1/endpoints/scan", "user-1", map[string]string{
			"project_id":   "project-1",
			"document_url": ts.URL,
		})

		w := doRequest(router, http.MethodGet, "/metrics", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		body := w.Body.String()
		if !strings.Contains(body, `apiscan_endpoint_scans_total{result="success"} 1`) {
			t.Errorf("スキャン回数が記録されていない: %s", body)
		}
		if !strings.Contains(body, "apiscan_endpoint_discovered_total 3") {
			t.Errorf("新規登録数が記録されていない")
		}
	})
}

// TestHandleCreate は手動登録APIを検証する。
func TestHandleCreate(t *testing.T) {
	t.Parallel()

	t.Run("エンドポイントを手動登録できること", func(t *testing.T) {
		t.Parallel()

		_, router, _ := setupTestServer(t)
		w := doRequest(router, http.MethodPost, "/api/v1/endpoints", "user-1", map[string]any{
			"project_id":  "project-1",
			"method":      "patch",
			"path":        "/users/{id}",
			"description": "Update user",
			"tags":        "users",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("ステータスコード = %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
		}

		body := parseJSON(t, w)
		if body["id"] == "" || body["id"] == nil {
			t.Error("IDが設定されていない")
		}
		if body["method"] != "PATCH" {
			t.Errorf("method = %v, want PATCH", body["method"])
		}
		if body["discovery_origin"] != "MANUAL" {
			t.Errorf("discovery_origin = %v, want MANUAL", body["discovery_origin"])
		}
		if body["status_codes"] != "200" {
			t.Errorf("status_codes = %v, want 200", body["status_codes"])
		}
		if body["requires_auth"] != false {
			t.Errorf("requires_auth = %v, want false", body["requires_auth"])
		}
	})

	t.Run("同じ組を登録すると409が返ること", func(t *testing.T) {
		t.Parallel()

		_, router, _ := setupTestServer(t)
		createTestEndpoint(t, router, "project-1", "GET", "/users")

		w := doRequest(router, http.MethodPost, "/api/v1/endpoints", "user-1", map[string]any{
			"project_id": "project-1",
			"method":     "GET",
			"path":       "/users",
		})
		if w.Code != http.StatusConflict {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusConflict)
		}
	})

	t.Run("別プロジェクトなら同じメソッドとパスを登録できること", func(t *testing.T) {
		t.Parallel()

		_, router, _ := setupTestServer(t)
		createTestEndpoint(t, router, "project-1", "GET", "/users")
		createTestEndpoint(t, router, "project-2", "GET", "/users")
	})

	tests := []struct {
		name string
		body map[string]any
	}{
		{"project_idが無い", map[string]any{"method": "GET", "path": "/a"}},
		{"methodが無い", map[string]any{"project_id": "p", "path": "/a"}},
		{"pathが無い", map[string]any{"project_id": "p", "method": "GET"}},
		{"未知のメソッド", map[string]any{"project_id": "p", "method": "TRACE", "path": "/a"}},
		{"パスが長すぎる", map[string]any{"project_id": "p", "method": "GET", "path": "/" + strings.Repeat("a", 500)}},
	}
	for _, tt := range tests {
		t.Run(tt.name+"場合に400が返ること", func(t *testing.T) {
			t.Parallel()

			_, router, _ := setupTestServer(t)
			w := doRequest(router, http.MethodPost, "/api/v1/endpoints", "user-1", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("ステータスコード = %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
			}
		})
	}
}

// TestHandleListAndGet は一覧取得と詳細取得APIを検証する。
func TestHandleListAndGet(t *testing.T) {
	t.Parallel()

	t.Run("メソッドと登録種別で絞り込めること", func(t *testing.T) {
		t.Parallel()

		_, router, _ := setupTestServer(t)
		ts := serveDocument(t, petstoreDoc)
		doRequest(router, http.MethodPost, "/api/v1/endpoints/scan", "user-1", map[string]string{
			"project_id":   "project-1",
			"document_url": ts.URL,
		})
		createTestEndpoint(t, router, "project-1", "DELETE", "/pets/{id}")

		w := doRequest(router, http.MethodGet, "/api/v1/endpoints", "user-1", nil)
		if got := len(parseJSONArray(t, w)); got != 4 {
			t.Errorf("全件 = %d, want 4", got)
		}

		w = doRequest(router, http.MethodGet, "/api/v1/endpoints?method=get", "user-1", nil)
		if got := len(parseJSONArray(t, w)); got != 2 {
			t.Errorf("GET = %d, want 2", got)
		}

		w = doRequest(router, http.MethodGet, "/api/v1/endpoints?origin=MANUAL", "user-1", nil)
		items := parseJSONArray(t, w)
		if len(items) != 1 || items[0]["method"] != "DELETE" {
			t.Errorf("MANUAL = %v", items)
		}

		w = doRequest(router, http.MethodGet, "/api/v1/endpoints?method=GET&origin=MANUAL", "user-1", nil)
		if got := len(parseJSONArray(t, w)); got != 0 {
			t.Errorf("GET+MANUAL = %d, want 0", got)
		}
	})

	t.Run("不正な絞り込み条件で400が返ること", func(t *testing.T) {
		t.Parallel()

		_, router, _ := setupTestServer(t)
		for _, q := range []string{"?method=TRACE", "?origin=IMPORTED"} {
			w := doRequest(router, http.MethodGet, "/api/v1/endpoints"+q, "user-1", nil)
			if w.Code != http.StatusBadRequest {
				t.Errorf("%s: ステータスコード = %d, want %d", q, w.Code, http.StatusBadRequest)
			}
		}
	})

	t.Run("登録がない場合は空配列が返ること", func(t *testing.T) {
		t.Parallel()

		_, router, _ := setupTestServer(t)
		w := doRequest(router, http.MethodGet, "/api/v1/endpoints/project/none", "user-1", nil)
		if w.Body.String() != "[]" {
			t.Errorf("body = %s, want []", w.Body.String())
		}
	})

	t.Run("IDで取得でき存在しない場合は404が返ること", func(t *testing.T) {
		t.Parallel()

		_, router, _ := setupTestServer(t)
		created := createTestEndpoint(t, router, "project-1", "GET", "/users")

		w := doRequest(router, http.MethodGet, "/api/v1/endpoints/"+created["id"].(string), "user-1", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if got := parseJSON(t, w)["path"]; got != "/users" {
			t.Errorf("path = %v, want /users", got)
		}

		w = doRequest(router, http.MethodGet, "/api/v1/endpoints/nonexistent", "user-1", nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

// TestHandleUpdate は更新APIを検証する。
func TestHandleUpdate(t *testing.T) {
	t.Parallel()

	t.Run("エンドポイントを更新できること", func(t *testing.T) {
		t.Parallel()

		_, router, _ := setupTestServer(t)
		created := createTestEndpoint(t, router, "project-1", "GET", "/users")
		id := created["id"].(string)

		w := doRequest(router, http.MethodPut, "/api/v1/endpoints/"+id, "user-1", map[string]any{
			"method":        "GET",
			"path":          "/v2/users",
			"description":   "List users",
			"status_codes":  "200,401",
			"requires_auth": true,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}
		body := parseJSON(t, w)
		if body["path"] != "/v2/users" || body["status_codes"] != "200,401" || body["requires_auth"] != true {
			t.Errorf("body = %v", body)
		}
		if body["project_id"] != "project-1" || body["discovery_origin"] != "MANUAL" {
			t.Errorf("所属プロジェクトと登録種別は変わらないべき: %v", body)
		}
	})

	t.Run("既存の組と衝突する更新は409が返ること", func(t *testing.T) {
		t.Parallel()

		_, router, _ := setupTestServer(t)
		createTestEndpoint(t, router, "project-1", "GET", "/users")
		other := createTestEndpoint(t, router, "project-1", "POST", "/users")

		w := doRequest(router, http.MethodPut, "/api/v1/endpoints/"+other["id"].(string), "user-1", map[string]any{
			"method": "GET",
			"path":   "/users",
		})
		if w.Code != http.StatusConflict {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusConflict)
		}
	})

	t.Run("存在しないIDの更新は404が返ること", func(t *testing.T) {
		t.Parallel()

		_, router, _ := setupTestServer(t)
		w := doRequest(router, http.MethodPut, "/api/v1/endpoints/nonexistent", "user-1", map[string]any{
			"method": "GET",
			"path":   "/users",
		})
		if w.Code != http.StatusNotFound {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

// TestHandleDelete は削除APIを検証する。
func TestHandleDelete(t *testing.T) {
	t.Parallel()

	t.Run("エンドポイントを削除できること", func(t *testing.T) {
		t.Parallel()

		_, router, _ := setupTestServer(t)
		created := createTestEndpoint(t, router, "project-1", "GET", "/users")
		path := "/api/v1/endpoints/" + created["id"].(string)

		if w := doRequest(router, http.MethodDelete, path, "user-1", nil); w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if w := doRequest(router, http.MethodDelete, path, "user-1", nil); w.Code != http.StatusNotFound {
			t.Errorf("2回目のステータスコード = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("プロジェクトのエンドポイントを一括削除できること", func(t *testing.T) {
		t.Parallel()

		_, router, _ := setupTestServer(t)
		createTestEndpoint(t, router, "project-1", "GET", "/a")
		createTestEndpoint(t, router, "project-1", "GET", "/b")
		createTestEndpoint(t, router, "project-2", "GET", "/a")

		w := doRequest(router, http.MethodDelete, "/api/v1/endpoints/project/project-1", "user-1", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if got := parseJSON(t, w)["deleted"]; got != float64(2) {
			t.Errorf("deleted = %v, want 2", got)
		}

		w = doRequest(router, http.MethodGet, "/api/v1/endpoints/project/project-2/count", "user-1", nil)
		if got := parseJSON(t, w)["count"]; got != float64(1) {
			t.Errorf("project-2のcount = %v, want 1", got)
		}
	})

	t.Run("スラッシュを含むプロジェクトIDをエスケープして扱えること", func(t *testing.T) {
		t.Parallel()

		_, router, _ := setupTestServer(t)
		createTestEndpoint(t, router, "team/a", "GET", "/a")
		createTestEndpoint(t, router, "team", "GET", "/a")

		w := doRequest(router, http.MethodGet, "/api/v1/endpoints/project/team%2Fa/count", "user-1", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if got := parseJSON(t, w)["count"]; got != float64(1) {
			t.Errorf("team/aのcount = %v, want 1", got)
		}

		w = doRequest(router, http.MethodDelete, "/api/v1/endpoints/project/team%2Fa", "user-1", nil)
		if got := parseJSON(t, w)["deleted"]; got != float64(1) {
			t.Errorf("deleted = %v, want 1", got)
		}
		w = doRequest(router, http.MethodGet, "/api/v1/endpoints/project/team/count", "user-1", nil)
		if got := parseJSON(t, w)["count"]; got != float64(1) {
			t.Errorf("teamのcount = %v, want 1", got)
		}
	})
}
