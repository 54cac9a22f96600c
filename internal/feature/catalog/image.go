package catalog

import (
	"context"
	"io"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/feature"
	"anime-shop/internal/integration/storage"
	"anime-shop/internal/repo"
)

const maxImageBytes = 5 << 20

// UploadProductImage 文件内容由传输层填入 Reader
type UploadProductImage struct {
	ProductID   string    `uri:"id" json:"-"`
	FileName    string    `json:"-"`
	ContentType string    `json:"-"`
	Size        int64     `json:"-"`
	Reader      io.Reader `json:"-"`
	SortOrder   int       `form:"sortOrder" json:"-"`
}

func (r UploadProductImage) Validate() error {
	return validation.Errors{
		"productId": validation.Validate(r.ProductID, validation.Required),
		"file":      validation.Validate(r.FileName, validation.Required),
		"size":      validation.Validate(r.Size, validation.Min(int64(1)), validation.Max(int64(maxImageBytes))),
		"contentType": validation.Validate(r.ContentType, validation.By(func(v any) error {
			if s, _ := v.(string); !strings.HasPrefix(s, "image/") {
				return validation.NewError("validation_image", "must be an image")
			}
			return nil
		})),
	}.Filter()
}

type DeleteProductImage struct {
	ProductID string `uri:"id"`
	ImageID   string `uri:"imageId"`
}

type imageHandlers struct{ d *feature.Deps }

func (h imageHandlers) upload(ctx context.Context, req UploadProductImage) result.Result[ImageDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[ImageDto](feature.MsgUnauthorized)
	}
	if req.Reader == nil {
		return result.Invalid[ImageDto]("No file was uploaded.")
	}
	uow := h.d.UoW.New()
	p, err := repo.Of[domain.Product](uow).GetByID(ctx, req.ProductID)
	if err != nil {
		return feature.Fail[ImageDto](ctx, h.d, "upload image", err)
	}
	if p == nil {
		return result.NotFound[ImageDto]("Product not found.")
	}

	img := &domain.ProductImage{ProductID: p.ID, SortOrder: req.SortOrder}
	img.Initialize(uid, h.d.Now())
	img.ObjectKey = storage.ObjectKey("products/"+p.ID, img.ID, req.FileName)
	if err := h.d.Storage.Upload(ctx, img.ObjectKey, req.Reader, req.Size, req.ContentType); err != nil {
		return feature.Fail[ImageDto](ctx, h.d, "upload image", result.Wrap(result.CodeInternalError, "Failed to upload image.", err))
	}
	repo.Of[domain.ProductImage](uow).Add(img)
	if _, err := uow.SaveChanges(ctx); err != nil {
		key := img.ObjectKey
		h.d.Go("storage.cleanup", func(ctx context.Context) error { return h.d.Storage.Delete(ctx, key) })
		return feature.Fail[ImageDto](ctx, h.d, "upload image", err)
	}
	h.d.Invalidate(ctx, productCacheKey(p.ID))
	return result.Success(toImageDto(img, h.d.Storage), "Image uploaded successfully.")
}

// delete 先删记录，对象存储在后台清理
func (h imageHandlers) delete(ctx context.Context, req DeleteProductImage) result.Result[result.Empty] {
	if _, ok := feature.CurrentUser(ctx); !ok {
		return result.Unauthorized[result.Empty](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	images := repo.Of[domain.ProductImage](uow)
	img, err := images.GetFirstOrDefault(ctx, repo.And(repo.ByID(req.ImageID), repo.Eq("product_id", req.ProductID)))
	if err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "delete image", err)
	}
	if img == nil {
		return result.NotFound[result.Empty]("Image not found.")
	}
	images.Delete(img)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "delete image", err)
	}
	key := img.ObjectKey
	h.d.Go("storage.delete", func(ctx context.Context) error { return h.d.Storage.Delete(ctx, key) })
	h.d.Invalidate(ctx, productCacheKey(req.ProductID))
	return result.Success(result.Empty{}, "Image deleted successfully.")
}
