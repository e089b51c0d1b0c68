package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"coffee_configurator/internal/storage"

	"github.com/google/uuid"
)

const tmpPrefix = ".tmp-"

// FileStorage интерфейс для работы с файловым хранилищем кеша
type FileStorage interface {
	Write(ctx context.Context, relPath string, r io.Reader) (fileSize int64, err error)
	FindByStem(relDir, stem string) (string, bool)
	List(relDir string) ([]string, error)
	RemoveAll(relDir string) error
	URL(relativePath string) string
}

// LocalFileStorage реализация для локальной файловой системы
type LocalFileStorage struct {
	baseDir string // Базовый каталог (например: "./static/cache/machines")
	baseURL string // URL-префикс для раздачи (например: "/static/cache/machines")
}

func NewLocalFileStorage(baseDir, baseURL string) (*LocalFileStorage, error) {
	// Создаем директорию, если она не существует
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &LocalFileStorage{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Write атомарно записывает файл: сначала во временный, затем rename.
func (s *LocalFileStorage) Write(ctx context.Context, relPath string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	fullPath, err := s.resolve(relPath)
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create directories: %w", err)
	}

	tmpPath := filepath.Join(dir, tmpPrefix+uuid.NewString())

	dst, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination file: %w", err)
	}

	done := make(chan struct{})
	var size int64
	var copyErr error

	go func() {
		size, copyErr = io.Copy(dst, r)
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		<-done
		_ = dst.Close()
		_ = os.Remove(tmpPath)
		return 0, ctx.Err()
	}

	if err := dst.Close(); err != nil && copyErr == nil {
		copyErr = err
	}

	if copyErr != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to copy file: %w", copyErr)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to move file into place: %w", err)
	}

	return size, nil
}

// FindByStem ищет файл с заданным именем без расширения, например "main" -> "main.jpg".
func (s *LocalFileStorage) FindByStem(relDir, stem string) (string, bool) {
	files, err := s.List(relDir)
	if err != nil {
		return "", false
	}

	for _, name := range files {
		if strings.TrimSuffix(name, filepath.Ext(name)) == stem {
			return path.Join(filepath.ToSlash(relDir), name), true
		}
	}

	return "", false
}

// List возвращает отсортированные имена файлов каталога (без подкаталогов).
func (s *LocalFileStorage) List(relDir string) ([]string, error) {
	fullPath, err := s.resolve(relDir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), tmpPrefix) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	return names, nil
}

// RemoveAll удаляет каталог целиком; отсутствие каталога не ошибка.
func (s *LocalFileStorage) RemoveAll(relDir string) error {
	fullPath, err := s.resolve(relDir)
	if err != nil {
		return err
	}

	if fullPath == filepath.Clean(s.baseDir) {
		return storage.ErrInvalidFilePath
	}

	return os.RemoveAll(fullPath)
}

// URL возвращает публичный URL файла
func (s *LocalFileStorage) URL(relativePath string) string {
	return s.baseURL + "/" + strings.TrimLeft(filepath.ToSlash(relativePath), "/")
}

func (s *LocalFileStorage) resolve(relPath string) (string, error) {
	base := filepath.Clean(s.baseDir)
	full := filepath.Join(base, relPath)

	if full != base && !strings.HasPrefix(full, base+string(filepath.Separator)) {
		return "", storage.ErrInvalidFilePath
	}

	return full, nil
}
