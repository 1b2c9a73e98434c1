package endpoint

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nao1215/apiscan/internal/discovery"
	"github.com/nao1215/apiscan/pkg/httpclient"
)

// DocModeSwagger はドキュメントをURLからスキャンするプロジェクトのモード。
const DocModeSwagger = "SWAGGER"

// ProjectSource はスキャン対象を解決するためのプロジェクト情報。
type ProjectSource struct {
	ID      string `json:"id"`
	DocMode string `json:"doc_mode"`
	DocURL  string `json:"doc_url"`
}

// ProjectLookup はプロジェクトIDからドキュメントの取得元を解決する。
type ProjectLookup interface {
	LookupProject(ctx context.Context, projectID string) (*ProjectSource, error)
}

// httpProjectLookup はprojectサービスに問い合わせるProjectLookupの実装。
type httpProjectLookup struct {
	client *httpclient.Client
}

// NewProjectLookup はprojectサービスのベースURLを指定してProjectLookupを生成する。
func NewProjectLookup(baseURL string) ProjectLookup {
	return &httpProjectLookup{client: httpclient.New(baseURL)}
}

// LookupProject はprojectサービスからプロジェクトを取得する。
// 存在しない場合は discovery.ErrNotFound を返す。
func (l *httpProjectLookup) LookupProject(ctx context.Context, projectID string) (*ProjectSource, error) {
	var p ProjectSource
	if err := l.client.GetJSON(ctx, "/api/v1/projects/"+url.PathEscape(projectID), &p); err != nil {
		if httpclient.IsStatus(err, http.StatusNotFound) {
			return nil, discovery.ErrNotFound
		}
		return nil, fmt.Errorf("プロジェクトの取得に失敗: %w", err)
	}
	return &p, nil
}
