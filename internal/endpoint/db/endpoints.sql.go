package db

import (
	"context"
	"time"
)

const endpointColumns = `id, project_id, method, path, description, discovery_origin, tags,
    parameters, request_body, response_body, status_codes, requires_auth, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEndpoint(row rowScanner) (Endpoint, error) {
	var e Endpoint
	err := row.Scan(
		&e.ID,
		&e.ProjectID,
		&e.Method,
		&e.Path,
		&e.Description,
		&e.DiscoveryOrigin,
		&e.Tags,
		&e.Parameters,
		&e.RequestBody,
		&e.ResponseBody,
		&e.StatusCodes,
		&e.RequiresAuth,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}

func (q *Queries) listEndpoints(ctx context.Context, query string, args ...any) ([]Endpoint, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Endpoint{}
	for rows.Next() {
		e, err := scanEndpoint(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateEndpointParams はCreateEndpoint / InsertEndpointIfAbsent の引数。
type CreateEndpointParams struct {
	ID              string
	ProjectID       string
	Method          string
	Path            string
	Description     string
	DiscoveryOrigin string
	Tags            string
	Parameters      string
	RequestBody     string
	ResponseBody    string
	StatusCodes     string
	RequiresAuth    bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (arg CreateEndpointParams) args() []any {
	return []any{
		arg.ID,
		arg.ProjectID,
		arg.Method,
		arg.Path,
		arg.Description,
		arg.DiscoveryOrigin,
		arg.Tags,
		arg.Parameters,
		arg.RequestBody,
		arg.ResponseBody,
		arg.StatusCodes,
		arg.RequiresAuth,
		arg.CreatedAt,
		arg.UpdatedAt,
	}
}

const createEndpoint = `-- name: CreateEndpoint :exec
INSERT INTO endpoints (` + endpointColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// CreateEndpoint はエンドポイントを登録する。一意制約違反はエラーになる。
func (q *Queries) CreateEndpoint(ctx context.Context, arg CreateEndpointParams) error {
	_, err := q.db.ExecContext(ctx, createEndpoint, arg.args()...)
	return err
}

const insertEndpointIfAbsent = `-- name: InsertEndpointIfAbsent :execrows
INSERT INTO endpoints (` + endpointColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (project_id, method, path) DO NOTHING
`

// InsertEndpointIfAbsent は同じ (project_id, method, path) が無い場合のみ登録し、登録件数を返す。
func (q *Queries) InsertEndpointIfAbsent(ctx context.Context, arg CreateEndpointParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertEndpointIfAbsent, arg.args()...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const endpointExists = `-- name: EndpointExists :one
SELECT EXISTS (
    SELECT 1 FROM endpoints WHERE project_id = ? AND method = ? AND path = ?
)
`

// EndpointExistsParams はEndpointExistsの引数。
type EndpointExistsParams struct {
	ProjectID string
	Method    string
	Path      string
}

// EndpointExists は (project_id, method, path) の組が登録済みなら1を返す。
func (q *Queries) EndpointExists(ctx context.Context, arg EndpointExistsParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, endpointExists, arg.ProjectID, arg.Method, arg.Path)
	var exists int64
	err := row.Scan(&exists)
	return exists, err
}

const getEndpointByID = `-- name: GetEndpointByID :one
SELECT ` + endpointColumns + ` FROM endpoints WHERE id = ?
`

// GetEndpointByID はIDでエンドポイントを取得する。
func (q *Queries) GetEndpointByID(ctx context.Context, id string) (Endpoint, error) {
	return scanEndpoint(q.db.QueryRowContext(ctx, getEndpointByID, id))
}

const listEndpoints = `-- name: ListEndpoints :many
SELECT ` + endpointColumns + ` FROM endpoints
WHERE (? = '' OR method = ?)
  AND (? = '' OR discovery_origin = ?)
ORDER BY created_at, rowid
`

// ListEndpointsParams はListEndpointsの絞り込み条件。空文字列は条件なし。
type ListEndpointsParams struct {
	Method          string
	DiscoveryOrigin string
}

// ListEndpoints は全プロジェクトのエンドポイントを登録順に返す。
func (q *Queries) ListEndpoints(ctx context.Context, arg ListEndpointsParams) ([]Endpoint, error) {
	return q.listEndpoints(ctx, listEndpoints,
		arg.Method, arg.Method,
		arg.DiscoveryOrigin, arg.DiscoveryOrigin,
	)
}

const listEndpointsByProjectID = `-- name: ListEndpointsByProjectID :many
SELECT ` + endpointColumns + ` FROM endpoints
WHERE project_id = ?
ORDER BY created_at, rowid
`

// ListEndpointsByProjectID はプロジェクトのエンドポイントを登録順に返す。
func (q *Queries) ListEndpointsByProjectID(ctx context.Context, projectID string) ([]Endpoint, error) {
	return q.listEndpoints(ctx, listEndpointsByProjectID, projectID)
}

const countEndpointsByProjectID = `-- name: CountEndpointsByProjectID :one
SELECT COUNT(*) FROM endpoints WHERE project_id = ?
`

// CountEndpointsByProjectID はプロジェクトのエンドポイント数を返す。
func (q *Queries) CountEndpointsByProjectID(ctx context.Context, projectID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countEndpointsByProjectID, projectID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updateEndpoint = `-- name: UpdateEndpoint :execrows
UPDATE endpoints
SET method = ?,
    path = ?,
    description = ?,
    tags = ?,
    parameters = ?,
    request_body = ?,
    response_body = ?,
    status_codes = ?,
    requires_auth = ?,
    updated_at = ?
WHERE id = ?
`

// UpdateEndpointParams はUpdateEndpointの引数。
type UpdateEndpointParams struct {
	Method       string
	Path         string
	Description  string
	Tags         string
	Parameters   string
	RequestBody  string
	ResponseBody string
	StatusCodes  string
	RequiresAuth bool
	UpdatedAt    time.Time
	ID           string
}

// UpdateEndpoint はエンドポイントを更新し、更新件数を返す。
func (q *Queries) UpdateEndpoint(ctx context.Context, arg UpdateEndpointParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateEndpoint,
		arg.Method,
		arg.Path,
		arg.Description,
		arg.Tags,
		arg.Parameters,
		arg.RequestBody,
		arg.ResponseBody,
		arg.StatusCodes,
		arg.RequiresAuth,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteEndpoint = `-- name: DeleteEndpoint :execrows
DELETE FROM endpoints WHERE id = ?
`

// DeleteEndpoint はエンドポイントを削除し、削除件数を返す。
func (q *Queries) DeleteEndpoint(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteEndpoint, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteEndpointsByProjectID = `-- name: DeleteEndpointsByProjectID :execrows
DELETE FROM endpoints WHERE project_id = ?
`

// DeleteEndpointsByProjectID はプロジェクトのエンドポイントをすべて削除し、削除件数を返す。
func (q *Queries) DeleteEndpointsByProjectID(ctx context.Context, projectID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteEndpointsByProjectID, projectID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
