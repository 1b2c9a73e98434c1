package project

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	// nonAlnum はプロジェクト名から除去する文字。
	nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)
	// unsafeFileChars はファイル名から除去する文字。
	unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// FileStorage はアップロードされたドキュメントをディレクトリに保存する。
type FileStorage struct {
	root string
}

// NewFileStorage は保存先ディレクトリを作成してFileStorageを生成する。
func NewFileStorage(root string) (*FileStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("保存先ディレクトリの作成に失敗: %w", err)
	}
	return &FileStorage{root: root}, nil
}

// storedName は保存するファイル名を組み立てる。
// <プロジェクト名の英数字>_<ランダム8文字>_<元のファイル名> の形式になる。
func storedName(projectName, originalName string) string {
	prefix := nonAlnum.ReplaceAllString(strings.ReplaceAll(projectName, " ", "_"), "")
	if prefix == "" {
		prefix = "project"
	}
	base := filepath.Base(strings.ReplaceAll(originalName, "\\", "/"))
	base = unsafeFileChars.ReplaceAllString(strings.ReplaceAll(base, " ", "_"), "")
	base = strings.TrimLeft(base, ".")
	if base == "" {
		base = "document"
	}
	return fmt.Sprintf("%s_%s_%s", prefix, uuid.New().String()[:8], base)
}

// Save はsrcの内容を保存し、保存したファイル名を返す。
func (fs *FileStorage) Save(projectName, originalName string, src io.Reader) (string, error) {
	name := storedName(projectName, originalName)
	f, err := os.OpenFile(filepath.Join(fs.root, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("ファイルの作成に失敗: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("ファイルの書き込みに失敗: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("ファイルのクローズに失敗: %w", err)
	}
	return name, nil
}

// Delete は保存したファイルを削除する。存在しない場合は何もしない。
// 保存先ディレクトリの外を指す名前はエラーになる。
func (fs *FileStorage) Delete(name string) error {
	root, err := filepath.Abs(fs.root)
	if err != nil {
		return fmt.Errorf("保存先ディレクトリの解決に失敗: %w", err)
	}
	target := filepath.Join(root, name)
	if !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return fmt.Errorf("保存先ディレクトリ外のファイルは削除できません: %s", name)
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ファイルの削除に失敗: %w", err)
	}
	return nil
}
