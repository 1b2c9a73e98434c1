package project

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/nao1215/apiscan/pkg/migration"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrations embed.FS

// initSchema はSQLiteデータベースにスキーマを適用する。
func initSchema(db *sql.DB, logger zerolog.Logger) error {
	if _, err := migration.Run(db, migrations, "migrations", logger); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
