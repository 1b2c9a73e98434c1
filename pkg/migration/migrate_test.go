package migration

import (
	"database/sql"
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// openTestDB はテスト用のインメモリSQLiteを開く。
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("DB接続に失敗: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// TestRun はRun関数を検証する。
func TestRun(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"migrations/000002_add_index.up.sql":      {Data: []byte(`CREATE INDEX idx_items_name ON items(name);`)},
		"migrations/000001_create_items.up.sql":   {Data: []byte(`CREATE TABLE items (id TEXT PRIMARY KEY, name TEXT NOT NULL);`)},
		"migrations/000001_create_items.down.sql": {Data: []byte(`DROP TABLE items;`)},
		"migrations/README.md":                    {Data: []byte(`ignored`)},
	}

	t.Run("未適用のマイグレーションが順番に適用されること", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		n, err := Run(db, fsys, "migrations", zerolog.Nop())
		if err != nil {
			t.Fatalf("Run()でエラーが発生: %v", err)
		}
		if n != 2 {
			t.Errorf("適用数 = %d, want 2", n)
		}
		if _, err := db.Exec(`INSERT INTO items (id, name) VALUES ('1', 'a')`); err != nil {
			t.Errorf("テーブルが作成されていない: %v", err)
		}
	})

	t.Run("2回目の実行では何も適用されないこと", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		if _, err := Run(db, fsys, "migrations", zerolog.Nop()); err != nil {
			t.Fatalf("Run()でエラーが発生: %v", err)
		}
		n, err := Run(db, fsys, "migrations", zerolog.Nop())
		if err != nil {
			t.Fatalf("Run()でエラーが発生: %v", err)
		}
		if n != 0 {
			t.Errorf("適用数 = %d, want 0", n)
		}
	})

	t.Run("不正なSQLでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		broken := fstest.MapFS{
			"migrations/000001_broken.up.sql": {Data: []byte(`CREATE TABL broken;`)},
		}
		db := openTestDB(t)
		if _, err := Run(db, broken, "migrations", zerolog.Nop()); err == nil {
			t.Fatal("Run()がエラーを返すべき")
		}
	})

	t.Run("バージョンが重複している場合にエラーが返ること", func(t *testing.T) {
		t.Parallel()

		dup := fstest.MapFS{
			"migrations/000001_a.up.sql": {Data: []byte(`SELECT 1;`)},
			"migrations/000001_b.up.sql": {Data: []byte(`SELECT 1;`)},
		}
		db := openTestDB(t)
		if _, err := Run(db, dup, "migrations", zerolog.Nop()); err == nil {
			t.Fatal("Run()がエラーを返すべき")
		}
	})
}

// TestOpenSQLite はOpenSQLite関数を検証する。
func TestOpenSQLite(t *testing.T) {
	t.Parallel()

	t.Run("ファイルDBを開いてPRAGMAが適用されること", func(t *testing.T) {
		t.Parallel()

		db, err := OpenSQLite(t.TempDir() + "/test.db")
		if err != nil {
			t.Fatalf("OpenSQLite()でエラーが発生: %v", err)
		}
		defer db.Close()

		var fk int
		if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
			t.Fatalf("PRAGMAの取得に失敗: %v", err)
		}
		if fk != 1 {
			t.Errorf("foreign_keys = %d, want 1", fk)
		}
	})

	t.Run("インメモリDBを開けること", func(t *testing.T) {
		t.Parallel()

		db, err := OpenSQLite(":memory:")
		if err != nil {
			t.Fatalf("OpenSQLite()でエラーが発生: %v", err)
		}
		defer db.Close()

		if _, err := Run(db, fstest.MapFS{
			"m/000001_init.up.sql": {Data: []byte(`CREATE TABLE t (id INTEGER);`)},
		}, "m", zerolog.Nop()); err != nil {
			t.Fatalf("Run()でエラーが発生: %v", err)
		}
	})
}

// TestIsUniqueViolation は一意制約違反の判定を検証する。
func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	if _, err := db.Exec(`CREATE TABLE items (id TEXT PRIMARY KEY, name TEXT NOT NULL UNIQUE)`); err != nil {
		t.Fatalf("テーブル作成に失敗: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO items (id, name) VALUES ('1', 'a')`); err != nil {
		t.Fatalf("INSERTに失敗: %v", err)
	}

	_, err := db.Exec(`INSERT INTO items (id, name) VALUES ('2', 'a')`)
	if !IsUniqueViolation(err) {
		t.Errorf("UNIQUE違反 = %v, want true", err)
	}
	_, err = db.Exec(`INSERT INTO items (id, name) VALUES ('1', 'b')`)
	if !IsUniqueViolation(err) {
		t.Errorf("PRIMARY KEY違反 = %v, want true", err)
	}
	_, err = db.Exec(`INSERT INTO items (id) VALUES ('3')`)
	if err == nil || IsUniqueViolation(err) {
		t.Errorf("NOT NULL違反 = %v, 一意制約違反と判定すべきではない", err)
	}
	if IsUniqueViolation(nil) {
		t.Error("nil は一意制約違反ではない")
	}
}
