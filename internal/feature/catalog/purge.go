package catalog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/feature"
	"anime-shop/internal/repo"
)

// PurgeStaleFiles 清理对象存储里没有任何记录引用的文件。
// 只处理超过 MaxAge 的对象，避免误删刚上传、记录尚未提交的文件。
type PurgeStaleFiles struct {
	MaxAge time.Duration
}

type PurgeDto struct {
	Scanned int `json:"scanned"`
	Deleted int `json:"deleted"`
}

// 前缀 -> 引用该前缀对象的列
var referencedBy = []struct {
	prefix string
	exists func(ctx context.Context, uow *repo.UnitOfWork, key string) (bool, error)
}{
	{"products/", func(ctx context.Context, uow *repo.UnitOfWork, key string) (bool, error) {
		return repo.Of[domain.ProductImage](uow).Unscoped().Any(ctx, repo.Eq("object_key", key))
	}},
	{"blog/", func(ctx context.Context, uow *repo.UnitOfWork, key string) (bool, error) {
		return repo.Of[domain.BlogPost](uow).Unscoped().Any(ctx, repo.Eq("cover_image_key", key))
	}},
}

type purgeHandlers struct{ d *feature.Deps }

func (h purgeHandlers) purge(ctx context.Context, req PurgeStaleFiles) result.Result[PurgeDto] {
	if req.MaxAge <= 0 {
		req.MaxAge = 24 * time.Hour
	}
	cutoff := h.d.Now().Add(-req.MaxAge)
	uow := h.d.UoW.New()
	var out PurgeDto
	for _, ref := range referencedBy {
		objs, err := h.d.Storage.List(ctx, ref.prefix)
		if err != nil {
			return feature.Fail[PurgeDto](ctx, h.d, "list objects", result.Wrap(result.CodeInternalError, "Failed to list stored files.", err))
		}
		for _, o := range objs {
			out.Scanned++
			if o.LastModified.After(cutoff) {
				continue
			}
			used, err := ref.exists(ctx, uow, o.Key)
			if err != nil {
				return feature.Fail[PurgeDto](ctx, h.d, "purge files", err)
			}
			if used {
				continue
			}
			if err := h.d.Storage.Delete(ctx, o.Key); err != nil {
				h.d.Logger(ctx).Warn("delete stale object failed", zap.String("key", o.Key), zap.Error(err))
				continue
			}
			out.Deleted++
		}
	}
	h.d.Logger(ctx).Info("stale files purged", zap.Int("scanned", out.Scanned), zap.Int("deleted", out.Deleted))
	return result.Success(out, "")
}
