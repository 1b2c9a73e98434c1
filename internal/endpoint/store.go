package endpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/apiscan/internal/discovery"
	endpointdb "github.com/nao1215/apiscan/internal/endpoint/db"
	"github.com/nao1215/apiscan/pkg/migration"
)

// Filter は一覧取得の絞り込み条件。ゼロ値は条件なし。
type Filter struct {
	Method discovery.Method
	Origin discovery.Origin
}

// Store はendpointsテーブルを操作するリポジトリ。
// discovery.Store と discovery.Transactor を実装する。
type Store struct {
	db      *sql.DB
	queries *endpointdb.Queries
	now     func() time.Time
}

// NewStore は新しいStoreを生成する。
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:      db,
		queries: endpointdb.New(db),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Exists は (プロジェクト, メソッド, パス) の組が登録済みかどうかを返す。
func (s *Store) Exists(ctx context.Context, projectID string, method discovery.Method, path string) (bool, error) {
	return exists(ctx, s.queries, projectID, method, path)
}

// Insert は組が未登録の場合のみエンドポイントを登録する。
// 一意制約に抵触した場合はエラーにせず false を返す。
func (s *Store) Insert(ctx context.Context, e discovery.Endpoint) (bool, error) {
	return insertIfAbsent(ctx, s.queries, e)
}

// InTx はトランザクション内でfnを実行する。fnがエラーを返した場合はロールバックする。
func (s *Store) InTx(ctx context.Context, fn func(discovery.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(&txStore{queries: s.queries.WithTx(tx)}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗: %w", err)
	}
	return nil
}

// txStore はトランザクション内で使用するdiscovery.Storeの実装。
type txStore struct {
	queries *endpointdb.Queries
}

func (t *txStore) Exists(ctx context.Context, projectID string, method discovery.Method, path string) (bool, error) {
	return exists(ctx, t.queries, projectID, method, path)
}

func (t *txStore) Insert(ctx context.Context, e discovery.Endpoint) (bool, error) {
	return insertIfAbsent(ctx, t.queries, e)
}

func exists(ctx context.Context, q *endpointdb.Queries, projectID string, method discovery.Method, path string) (bool, error) {
	n, err := q.EndpointExists(ctx, endpointdb.EndpointExistsParams{
		ProjectID: projectID,
		Method:    string(method),
		Path:      path,
	})
	if err != nil {
		return false, fmt.Errorf("存在確認に失敗: %w", err)
	}
	return n != 0, nil
}

func insertIfAbsent(ctx context.Context, q *endpointdb.Queries, e discovery.Endpoint) (bool, error) {
	n, err := q.InsertEndpointIfAbsent(ctx, toParams(e))
	if err != nil {
		return false, fmt.Errorf("エンドポイントの登録に失敗: %w", err)
	}
	return n == 1, nil
}

// Create は手動でエンドポイントを登録する。
// 同じ組が既に存在する場合は *discovery.DuplicateEndpointError を返す。
func (s *Store) Create(ctx context.Context, e discovery.Endpoint) error {
	if err := s.queries.CreateEndpoint(ctx, toParams(e)); err != nil {
		if migration.IsUniqueViolation(err) {
			return &discovery.DuplicateEndpointError{ProjectID: e.ProjectID, Method: e.Method, Path: e.Path}
		}
		return fmt.Errorf("エンドポイントの登録に失敗: %w", err)
	}
	return nil
}

// Get はIDでエンドポイントを取得する。存在しない場合は discovery.ErrNotFound を返す。
func (s *Store) Get(ctx context.Context, id string) (discovery.Endpoint, error) {
	row, err := s.queries.GetEndpointByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return discovery.Endpoint{}, discovery.ErrNotFound
	}
	if err != nil {
		return discovery.Endpoint{}, fmt.Errorf("エンドポイントの取得に失敗: %w", err)
	}
	return fromRow(row), nil
}

// List は条件に一致するエンドポイントを登録順に返す。
func (s *Store) List(ctx context.Context, f Filter) ([]discovery.Endpoint, error) {
	rows, err := s.queries.ListEndpoints(ctx, endpointdb.ListEndpointsParams{
		Method:          string(f.Method),
		DiscoveryOrigin: string(f.Origin),
	})
	if err != nil {
		return nil, fmt.Errorf("エンドポイント一覧の取得に失敗: %w", err)
	}
	return fromRows(rows), nil
}

// ListByProject はプロジェクトのエンドポイントを登録順に返す。
func (s *Store) ListByProject(ctx context.Context, projectID string) ([]discovery.Endpoint, error) {
	rows, err := s.queries.ListEndpointsByProjectID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("エンドポイント一覧の取得に失敗: %w", err)
	}
	return fromRows(rows), nil
}

// CountByProject はプロジェクトのエンドポイント数を返す。
func (s *Store) CountByProject(ctx context.Context, projectID string) (int64, error) {
	n, err := s.queries.CountEndpointsByProjectID(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("エンドポイント数の取得に失敗: %w", err)
	}
	return n, nil
}

// Update はエンドポイントの内容を更新する。
// IDと所属プロジェクト、登録種別、作成日時は変更しない。
func (s *Store) Update(ctx context.Context, e discovery.Endpoint) (discovery.Endpoint, error) {
	current, err := s.Get(ctx, e.ID)
	if err != nil {
		return discovery.Endpoint{}, err
	}

	n, err := s.queries.UpdateEndpoint(ctx, endpointdb.UpdateEndpointParams{
		Method:       string(e.Method),
		Path:         e.Path,
		Description:  e.Description,
		Tags:         e.Tags,
		Parameters:   e.Parameters,
		RequestBody:  e.RequestBody,
		ResponseBody: e.ResponseBody,
		StatusCodes:  e.StatusCodes,
		RequiresAuth: e.RequiresAuth,
		UpdatedAt:    s.now(),
		ID:           e.ID,
	})
	if err != nil {
		if migration.IsUniqueViolation(err) {
			return discovery.Endpoint{}, &discovery.DuplicateEndpointError{ProjectID: current.ProjectID, Method: e.Method, Path: e.Path}
		}
		return discovery.Endpoint{}, fmt.Errorf("エンドポイントの更新に失敗: %w", err)
	}
	if n == 0 {
		return discovery.Endpoint{}, discovery.ErrNotFound
	}
	return s.Get(ctx, e.ID)
}

// Delete はエンドポイントを削除する。存在しない場合は discovery.ErrNotFound を返す。
func (s *Store) Delete(ctx context.Context, id string) error {
	n, err := s.queries.DeleteEndpoint(ctx, id)
	if err != nil {
		return fmt.Errorf("エンドポイントの削除に失敗: %w", err)
	}
	if n == 0 {
		return discovery.ErrNotFound
	}
	return nil
}

// DeleteByProject はプロジェクトのエンドポイントをすべて削除し、削除件数を返す。
func (s *Store) DeleteByProject(ctx context.Context, projectID string) (int64, error) {
	n, err := s.queries.DeleteEndpointsByProjectID(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("エンドポイントの削除に失敗: %w", err)
	}
	return n, nil
}

func toParams(e discovery.Endpoint) endpointdb.CreateEndpointParams {
	return endpointdb.CreateEndpointParams{
		ID:              e.ID,
		ProjectID:       e.ProjectID,
		Method:          string(e.Method),
		Path:            e.Path,
		Description:     e.Description,
		DiscoveryOrigin: string(e.Origin),
		Tags:            e.Tags,
		Parameters:      e.Parameters,
		RequestBody:     e.RequestBody,
		ResponseBody:    e.ResponseBody,
		StatusCodes:     e.StatusCodes,
		RequiresAuth:    e.RequiresAuth,
		CreatedAt:       e.CreatedAt.UTC(),
		UpdatedAt:       e.UpdatedAt.UTC(),
	}
}

func fromRow(row endpointdb.Endpoint) discovery.Endpoint {
	return discovery.Endpoint{
		ID:           row.ID,
		ProjectID:    row.ProjectID,
		Method:       discovery.Method(row.Method),
		Path:         row.Path,
		Description:  row.Description,
		Origin:       discovery.Origin(row.DiscoveryOrigin),
		Tags:         row.Tags,
		Parameters:   row.Parameters,
		RequestBody:  row.RequestBody,
		ResponseBody: row.ResponseBody,
		StatusCodes:  row.StatusCodes,
		RequiresAuth: row.RequiresAuth,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func fromRows(rows []endpointdb.Endpoint) []discovery.Endpoint {
	out := make([]discovery.Endpoint, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out
}
