package db

import (
	"context"
	"time"
)

const projectColumns = `id, user_id, name, description, project_url, doc_mode, doc_url, doc_file,
    auth_type, created_at, updated_at`

const createProject = `-- name: CreateProject :exec
INSERT INTO projects (` + projectColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// CreateProjectParams はCreateProjectの引数。
type CreateProjectParams struct {
	ID          string
	UserID      string
	Name        string
	Description string
	ProjectURL  string
	DocMode     string
	DocURL      string
	DocFile     string
	AuthType    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateProject はプロジェクトを登録する。
func (q *Queries) CreateProject(ctx context.Context, arg CreateProjectParams) error {
	_, err := q.db.ExecContext(ctx, createProject,
		arg.ID,
		arg.UserID,
		arg.Name,
		arg.Description,
		arg.ProjectURL,
		arg.DocMode,
		arg.DocURL,
		arg.DocFile,
		arg.AuthType,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getProjectByID = `-- name: GetProjectByID :one
SELECT ` + projectColumns + `
FROM projects
WHERE id = ?
`

// GetProjectByID はIDでプロジェクトを取得する。
func (q *Queries) GetProjectByID(ctx context.Context, id string) (Project, error) {
	row := q.db.QueryRowContext(ctx, getProjectByID, id)
	var p Project
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Description,
		&p.ProjectURL,
		&p.DocMode,
		&p.DocURL,
		&p.DocFile,
		&p.AuthType,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

const listProjectsByUserID = `-- name: ListProjectsByUserID :many
SELECT ` + projectColumns + `
FROM projects
WHERE user_id = ?
  AND (? = '' OR auth_type = ?)
  AND (? = '' OR doc_mode = ?)
ORDER BY created_at DESC, rowid DESC
`

// ListProjectsByUserIDParams はListProjectsByUserIDの引数。
// AuthType と DocMode が空の場合は絞り込まない。
type ListProjectsByUserIDParams struct {
	UserID   string
	AuthType string
	DocMode  string
}

// ListProjectsByUserID はユーザーのプロジェクトを新しい順に取得する。
func (q *Queries) ListProjectsByUserID(ctx context.Context, arg ListProjectsByUserIDParams) ([]Project, error) {
	rows, err := q.db.QueryContext(ctx, listProjectsByUserID,
		arg.UserID,
		arg.AuthType, arg.AuthType,
		arg.DocMode, arg.DocMode,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Project{}
	for rows.Next() {
		var p Project
		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.Name,
			&p.Description,
			&p.ProjectURL,
			&p.DocMode,
			&p.DocURL,
			&p.DocFile,
			&p.AuthType,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteProject = `-- name: DeleteProject :execrows
DELETE FROM projects
WHERE id = ?
`

// DeleteProject はプロジェクトを削除し、削除件数を返す。
func (q *Queries) DeleteProject(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteProject, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
