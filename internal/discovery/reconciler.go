package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store は突き合わせに必要なエンドポイントの永続化操作。
type Store interface {
	// Exists は (projectID, method, path) のエンドポイントが存在するかを返す。
	Exists(ctx context.Context, projectID string, method Method, path string) (bool, error)
	// Insert はエンドポイントを登録する。
	// 一意制約に違反した場合はエラーではなく false を返す。
	Insert(ctx context.Context, e Endpoint) (bool, error)
}

// Transactor はトランザクション内でStoreを操作できるストアが実装するインターフェース。
// fnがエラーを返した場合はロールバックする。
type Transactor interface {
	InTx(ctx context.Context, fn func(Store) error) error
}

// ReconcileOutcome は突き合わせの結果。
type ReconcileOutcome struct {
	// Inserted は新規に登録されたエンドポイント。
	Inserted []Endpoint
	// Skipped は既に存在したため登録しなかった件数。
	Skipped int
}

// Reconciler は抽出した候補を保存済みのエンドポイントと突き合わせる。
// 更新は行わず、存在しない候補のみ登録する。
type Reconciler struct {
	logger zerolog.Logger
	// now は現在時刻を返す関数。テストで差し替える。
	now func() time.Time
}

// NewReconciler は新しいReconcilerを生成する。
func NewReconciler(logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		logger: logger.With().Str("component", "reconciler").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Reconcile は候補を順に処理し、存在しなければ登録、存在すればスキップする。
// 候補内に同じ (メソッド, パス) が重複していても、2件目は1件目の登録が見えるためスキップされる。
// 存在確認と登録の間に他のスキャンが割り込んだ場合も、一意制約によりスキップとして扱う。
func (r *Reconciler) Reconcile(ctx context.Context, store Store, candidates []Endpoint) (*ReconcileOutcome, error) {
	outcome := &ReconcileOutcome{Inserted: []Endpoint{}}

	for _, c := range candidates {
		exists, err := store.Exists(ctx, c.ProjectID, c.Method, c.Path)
		if err != nil {
			return nil, fmt.Errorf("エンドポイントの存在確認に失敗: %s: %w", c.Key(), err)
		}
		if exists {
			outcome.Skipped++
			r.logger.Debug().Str("endpoint", c.Key()).Msg("既存のエンドポイントのためスキップしました")
			continue
		}

		now := r.now()
		c.ID = uuid.New().String()
		c.Origin = OriginDiscovered
		c.CreatedAt = now
		c.UpdatedAt = now

		inserted, err := store.Insert(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("エンドポイントの登録に失敗: %s: %w", c.Key(), err)
		}
		if !inserted {
			outcome.Skipped++
			r.logger.Debug().Str("endpoint", c.Key()).Msg("一意制約によりスキップしました")
			continue
		}
		outcome.Inserted = append(outcome.Inserted, c)
		r.logger.Debug().Str("endpoint", c.Key()).Msg("エンドポイントを登録しました")
	}
	return outcome, nil
}
