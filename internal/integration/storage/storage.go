// Package storage 对象存储：MinIO 与内存实现
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

var ErrNotFound = errors.New("storage: object not found")

type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

type Service interface {
	GetFileURL(key string) string
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]Object, error)
}

// ObjectKey 生成 <dir>/<id><ext>，ext 取自原文件名并统一小写
func ObjectKey(dir, id, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return strings.Trim(dir, "/") + "/" + id + ext
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
