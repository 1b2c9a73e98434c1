package discovery

import (
	"context"
	"errors"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// MessageScanCompleted はスキャン成功時のメッセージ。
const MessageScanCompleted = "スキャンが正常に完了しました"

// ScanResult は1回のスキャンの結果。
type ScanResult struct {
	// Success はスキャンが成功したかどうか。
	Success bool `json:"success"`
	// Message は結果の説明。失敗時は原因を含む。
	Message string `json:"message"`
	// TotalFound はドキュメントから抽出したオペレーション数。
	TotalFound int `json:"total_found"`
	// NewCount は新規に登録した件数。
	NewCount int `json:"new_count"`
	// UpdatedCount は更新した件数。更新は行わないため常に0。
	UpdatedCount int `json:"updated_count"`
	// SkippedCount は既存のためスキップした件数。
	SkippedCount int `json:"skipped_count"`
	// Endpoints は新規に登録したエンドポイント。
	Endpoints []Endpoint `json:"endpoints"`
}

// Failure は失敗を表すScanResultを生成する。件数はすべて0になる。
func Failure(message string) *ScanResult {
	return &ScanResult{
		Success:   false,
		Message:   message,
		Endpoints: []Endpoint{},
	}
}

// Scanner は取得、解析、抽出、突き合わせを順に実行するオーケストレータ。
type Scanner struct {
	// fetcher はドキュメントの取得に使用する。
	fetcher DocumentFetcher
	// store はエンドポイントの永続化先。
	store Store
	// reconciler は候補と保存済みエンドポイントの突き合わせを行う。
	reconciler *Reconciler
	// locks はプロジェクトごとにスキャンを直列化する。
	locks  *keyedMutex
	logger zerolog.Logger
}

// NewScanner は新しいScannerを生成する。
func NewScanner(fetcher DocumentFetcher, store Store, logger zerolog.Logger) *Scanner {
	logger = logger.With().Str("component", "scanner").Logger()
	return &Scanner{
		fetcher:    fetcher,
		store:      store,
		reconciler: NewReconciler(logger),
		locks:      newKeyedMutex(),
		logger:     logger,
	}
}

// Scan は指定URLのドキュメントをスキャンし、プロジェクトのエンドポイントを登録する。
// どの段階で失敗してもエラーは返さず、Success=false のScanResultを返す。
func (s *Scanner) Scan(ctx context.Context, projectID, documentURL string) *ScanResult {
	log := s.logger.With().Str("project_id", projectID).Str("url", documentURL).Logger()
	if projectID == "" {
		return Failure("プロジェクトIDが指定されていません")
	}
	if documentURL == "" {
		return Failure("ドキュメントのURLが指定されていません")
	}

	unlock := s.locks.lock(projectID)
	defer unlock()

	log.Info().Msg("スキャンを開始します")

	raw, err := s.fetcher.Fetch(ctx, documentURL)
	if err != nil {
		log.Error().Err(err).Msg("ドキュメントの取得に失敗しました")
		return Failure(err.Error())
	}

	root, err := Decode(raw)
	if err != nil {
		log.Error().Err(err).Msg("ドキュメントの解析に失敗しました")
		return Failure(err.Error())
	}

	version := DetectVersion(root)
	log = log.With().Str("version", version).Logger()
	extractor, err := ExtractorFor(version, log)
	if err != nil {
		log.Error().Err(err).Msg("バージョンの判定に失敗しました")
		return Failure(err.Error())
	}

	if err := Validate(ctx, version, []byte(root.Raw)); err != nil {
		log.Warn().Err(err).Msg("ドキュメントの検証で問題が見つかりました。スキャンは継続します")
	}

	candidates, err := extractor.Extract(root, projectID)
	if err != nil {
		log.Error().Err(err).Msg("エンドポイントの抽出に失敗しました")
		return Failure(err.Error())
	}

	storable, overlong := splitOverlong(candidates, log)

	outcome, err := s.reconcile(ctx, storable)
	if err != nil {
		log.Error().Err(err).Msg("エンドポイントの登録に失敗しました")
		return Failure("エンドポイントの登録に失敗しました")
	}
	skipped := outcome.Skipped + overlong

	log.Info().
		Int("total", len(candidates)).
		Int("new", len(outcome.Inserted)).
		Int("skipped", skipped).
		Msg("スキャンが完了しました")

	return &ScanResult{
		Success:      true,
		Message:      MessageScanCompleted,
		TotalFound:   len(candidates),
		NewCount:     len(outcome.Inserted),
		SkippedCount: skipped,
		Endpoints:    outcome.Inserted,
	}
}

// splitOverlong はパスが MaxPathLength を超える候補を取り除き、除いた件数を返す。
// 除いた候補はスキップとして扱う。
func splitOverlong(candidates []Endpoint, log zerolog.Logger) ([]Endpoint, int) {
	storable := make([]Endpoint, 0, len(candidates))
	overlong := 0
	for _, c := range candidates {
		if n := utf8.RuneCountInString(c.Path); n > MaxPathLength {
			overlong++
			log.Warn().
				Str("method", string(c.Method)).
				Int("path_length", n).
				Msgf("パスが%d文字を超えるためスキップしました", MaxPathLength)
			continue
		}
		storable = append(storable, c)
	}
	return storable, overlong
}

// reconcile はストアがトランザクションをサポートする場合はその中で突き合わせを行う。
func (s *Scanner) reconcile(ctx context.Context, candidates []Endpoint) (*ReconcileOutcome, error) {
	tx, ok := s.store.(Transactor)
	if !ok {
		return s.reconciler.Reconcile(ctx, s.store, candidates)
	}

	var outcome *ReconcileOutcome
	err := tx.InTx(ctx, func(store Store) error {
		var err error
		outcome, err = s.reconciler.Reconcile(ctx, store, candidates)
		return err
	})
	if err != nil {
		return nil, err
	}
	if outcome == nil {
		return nil, errors.New("突き合わせ結果が取得できません")
	}
	return outcome, nil
}

// keyedMutex はキーごとの排他制御を行う。使われなくなったキーは解放する。
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// lock はキーのロックを取得し、解放用の関数を返す。
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
