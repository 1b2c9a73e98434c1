package discovery

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// memStore はテスト用のインメモリStore。Insertは (プロジェクト, メソッド, パス) の一意性を保証する。
type memStore struct {
	mu        sync.Mutex
	endpoints []Endpoint
}

func (m *memStore) Exists(_ context.Context, projectID string, method Method, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(projectID, method, path), nil
}

func (m *memStore) Insert(_ context.Context, e Endpoint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.find(e.ProjectID, e.Method, e.Path) {
		return false, nil
	}
	m.endpoints = append(m.endpoints, e)
	return true, nil
}

func (m *memStore) find(projectID string, method Method, path string) bool {
	for _, e := range m.endpoints {
		if e.ProjectID == projectID && e.Method == method && e.Path == path {
			return true
		}
	}
	return false
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.endpoints)
}

// racyStore は存在確認では常に「存在しない」と答え、登録時に一意制約で弾くストア。
// 存在確認と登録の間に別のスキャンが割り込んだ状況を再現する。
type racyStore struct {
	memStore
}

func (r *racyStore) Exists(context.Context, string, Method, string) (bool, error) {
	return false, nil
}

var nopLogger = zerolog.Nop()
