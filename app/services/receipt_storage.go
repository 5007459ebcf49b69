package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ReceiptStorage persists uploaded receipt files. Keys returned by Store are
// opaque and only meaningful to the same storage.
type ReceiptStorage interface {
	Store(ctx context.Context, filename string, data []byte) (key string, err error)
	Read(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// LocalReceiptStorage stores receipts on the local filesystem under a base
// directory, one randomly named file per receipt
type LocalReceiptStorage struct {
	baseDir string
}

func NewLocalReceiptStorage(baseDir string) (*LocalReceiptStorage, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create receipt directory: %w", err)
	}
	return &LocalReceiptStorage{baseDir: baseDir}, nil
}

func (s *LocalReceiptStorage) Store(ctx context.Context, filename string, data []byte) (string, error) {
	ext := filepath.Ext(filename)
	key := uuid.New().String() + ext

	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("failed to write receipt: %w", err)
	}
	return key, nil
}

func (s *LocalReceiptStorage) Read(ctx context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (s *LocalReceiptStorage) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// resolve rejects keys that would escape the base directory
func (s *LocalReceiptStorage) resolve(key string) (string, error) {
	if key == "" || strings.Contains(key, "/") || strings.Contains(key, "\\") || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid receipt key %q", key)
	}
	return filepath.Join(s.baseDir, key), nil
}
