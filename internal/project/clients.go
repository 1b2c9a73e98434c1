package project

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nao1215/apiscan/internal/discovery"
	"github.com/nao1215/apiscan/pkg/httpclient"
)

// ErrUserNotFound はuserサービスにユーザーが存在しないことを表す。
var ErrUserNotFound = errors.New("ユーザーが見つかりません")

// Owner はuserサービスから取得したプロジェクト所有者の情報。
type Owner struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

// UserDirectory はプロジェクト所有者を確認する。
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (*Owner, error)
}

// EndpointService はendpointサービスへの操作。
type EndpointService interface {
	Scan(ctx context.Context, projectID, documentURL string) (*discovery.ScanResult, error)
	ListByProject(ctx context.Context, projectID string) ([]discovery.Endpoint, error)
	CountByProject(ctx context.Context, projectID string) (int64, error)
	DeleteByProject(ctx context.Context, projectID string) (int64, error)
}

type httpUserDirectory struct {
	client *httpclient.Client
}

// NewUserDirectory はuserサービスに問い合わせるUserDirectoryを生成する。
func NewUserDirectory(baseURL string) UserDirectory {
	return &httpUserDirectory{client: httpclient.New(baseURL)}
}

// GetUser はユーザーを取得する。存在しない場合は ErrUserNotFound を返す。
func (d *httpUserDirectory) GetUser(ctx context.Context, userID string) (*Owner, error) {
	var o Owner
	if err := d.client.GetJSON(ctx, "/api/v1/users/"+url.PathEscape(userID), &o); err != nil {
		if httpclient.IsStatus(err, http.StatusNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}
	return &o, nil
}

// projectEndpointsPath はプロジェクト単位のエンドポイントAPIのパスを返す。
func projectEndpointsPath(projectID string) string {
	return "/api/v1/endpoints/project/" + url.PathEscape(projectID)
}

type httpEndpointService struct {
	client *httpclient.Client
}

// NewEndpointService はendpointサービスを呼び出すEndpointServiceを生成する。
func NewEndpointService(baseURL string) EndpointService {
	return &httpEndpointService{client: httpclient.New(baseURL)}
}

// Scan はドキュメントのスキャンを依頼する。
func (s *httpEndpointService) Scan(ctx context.Context, projectID, documentURL string) (*discovery.ScanResult, error) {
	var result discovery.ScanResult
	req := map[string]string{"project_id": projectID, "document_url": documentURL}
	if err := s.client.PostJSON(ctx, "/api/v1/endpoints/scan", req, &result); err != nil {
		return nil, fmt.Errorf("スキャンの依頼に失敗: %w", err)
	}
	return &result, nil
}

// ListByProject はプロジェクトのエンドポイント一覧を取得する。
func (s *httpEndpointService) ListByProject(ctx context.Context, projectID string) ([]discovery.Endpoint, error) {
	endpoints := []discovery.Endpoint{}
	if err := s.client.GetJSON(ctx, projectEndpointsPath(projectID), &endpoints); err != nil {
		return nil, fmt.Errorf("エンドポイント一覧の取得に失敗: %w", err)
	}
	return endpoints, nil
}

// CountByProject はプロジェクトのエンドポイント数を取得する。
func (s *httpEndpointService) CountByProject(ctx context.Context, projectID string) (int64, error) {
	var resp struct {
		Count int64 `json:"count"`
	}
	if err := s.client.GetJSON(ctx, projectEndpointsPath(projectID)+"/count", &resp); err != nil {
		return 0, fmt.Errorf("エンドポイント数の取得に失敗: %w", err)
	}
	return resp.Count, nil
}

// DeleteByProject はプロジェクトのエンドポイントをすべて削除する。
func (s *httpEndpointService) DeleteByProject(ctx context.Context, projectID string) (int64, error) {
	var resp struct {
		Deleted int64 `json:"deleted"`
	}
	if err := s.client.DeleteJSON(ctx, projectEndpointsPath(projectID), &resp); err != nil {
		return 0, fmt.Errorf("エンドポイントの削除に失敗: %w", err)
	}
	return resp.Deleted, nil
}
