package db

import "time"

// Project はprojectsテーブルの1行。
type Project struct {
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
