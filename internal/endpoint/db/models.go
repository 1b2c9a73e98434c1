package db

import "time"

// Endpoint はendpointsテーブルの1行。
type Endpoint struct {
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
