package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/groupvial/internal/config"
	"github.com/groupvial/internal/constants"
)

// ErrInvalidKey 对象键非法
var ErrInvalidKey = errors.New("storage: invalid object key")

// Store 图片对象存储
type Store interface {
	Driver() string
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// New 按配置创建存储
func New(ctx context.Context, cfg *config.StorageConfig) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is nil")
	}
	switch cfg.Driver {
	case "", constants.StorageDriverLocal:
		return NewLocalStore(cfg.LocalDir, cfg.PublicBase), nil
	case constants.StorageDriverS3:
		return NewS3Store(ctx, cfg.S3, cfg.PublicBase)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// LocalStore 本地磁盘存储，由 HTTP 服务以静态目录暴露
type LocalStore struct {
	dir        string
	publicBase string
}

// NewLocalStore 创建本地存储
func NewLocalStore(dir, publicBase string) *LocalStore {
	if strings.TrimSpace(dir) == "" {
		dir = "./uploads"
	}
	if strings.TrimSpace(publicBase) == "" {
		publicBase = "/uploads"
	}
	return &LocalStore{dir: dir, publicBase: strings.TrimRight(publicBase, "/")}
}

// Driver 驱动名
func (s *LocalStore) Driver() string { return constants.StorageDriverLocal }

// Dir 存储根目录
func (s *LocalStore) Dir() string { return s.dir }

// Put 写入文件并返回公开地址
func (s *LocalStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	target := filepath.Join(s.dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return "", err
	}
	return s.publicBase + "/" + clean, nil
}

// Delete 删除文件，不存在时忽略
func (s *LocalStore) Delete(_ context.Context, key string) error {
	clean, err := cleanKey(key)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.dir, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrInvalidKey
	}
	clean := path.Clean("/" + key)
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." || strings.HasPrefix(clean, "..") {
		return "", ErrInvalidKey
	}
	return clean, nil
}
