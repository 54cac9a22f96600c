// Package blog 博客文章：草稿、发布与封面图
package blog

import (
	"context"
	"io"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"anime-shop/internal/core/mediator"
	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/feature"
	"anime-shop/internal/filter"
	"anime-shop/internal/integration/storage"
	"anime-shop/internal/repo"
	"anime-shop/pkg/utils"
)

const maxCoverBytes = 5 << 20

type PostDto struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Summary       string     `json:"summary"`
	Content       string     `json:"content"`
	CoverImageURL string     `json:"coverImageUrl,omitempty"`
	AuthorID      string     `json:"authorId"`
	IsPublished   bool       `json:"isPublished"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type PostInput struct {
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Summary string `json:"summary"`
	Content string `json:"content"`
}

func (in *PostInput) fieldRules() []*validation.FieldRules {
	return []*validation.FieldRules{
		validation.Field(&in.Title, validation.Required, validation.Length(1, 191)),
		validation.Field(&in.Slug, validation.Length(0, 191)),
		validation.Field(&in.Summary, validation.Length(0, 512)),
		validation.Field(&in.Content, validation.Required),
	}
}

// slug 未指定时由标题生成
func (in PostInput) slug() string {
	if s := utils.Slugify(in.Slug); s != "" {
		return s
	}
	return utils.Slugify(in.Title)
}

type CreateBlogPost struct {
	PostInput
	Publish bool `json:"publish"`
}

func (r CreateBlogPost) Validate() error {
	return validation.ValidateStruct(&r.PostInput, r.PostInput.fieldRules()...)
}

type UpdateBlogPost struct {
	ID string `uri:"id" json:"-"`
	PostInput
}

func (r UpdateBlogPost) Validate() error {
	return validation.ValidateStruct(&r.PostInput, r.PostInput.fieldRules()...)
}

// PublishBlogPost Publish=false 表示撤回为草稿
type PublishBlogPost struct {
	ID      string `uri:"id" json:"-"`
	Publish bool   `json:"publish"`
}

type DeleteBlogPost struct {
	ID string `uri:"id"`
}

type GetBlogPostBySlug struct {
	Slug string `uri:"slug"`
}

type BlogFilter struct {
	filter.PageRequest
	Keyword   string  `form:"keyword"`
	Published *bool   `form:"published"`
	AuthorID  *string `form:"authorId"`
}

type UploadBlogCover struct {
	ID          string    `uri:"id" json:"-"`
	FileName    string    `json:"-"`
	ContentType string    `json:"-"`
	Size        int64     `json:"-"`
	Reader      io.Reader `json:"-"`
}

func (r UploadBlogCover) Validate() error {
	return validation.Errors{
		"file": validation.Validate(r.FileName, validation.Required),
		"size": validation.Validate(r.Size, validation.Min(int64(1)), validation.Max(int64(maxCoverBytes))),
		"contentType": validation.Validate(r.ContentType, validation.By(func(v any) error {
			if s, _ := v.(string); !strings.HasPrefix(s, "image/") {
				return validation.NewError("validation_image", "must be an image")
			}
			return nil
		})),
	}.Filter()
}

var postSort = filter.Sort{
	Columns:     map[string]string{"title": "title", "createdat": "created_at", "publishedat": "published_at"},
	Default:     "created_at",
	DefaultDesc: true,
}

func Register(m *mediator.Mediator, d *feature.Deps) {
	h := handlers{d}
	mediator.RegisterFunc(m, h.create)
	mediator.RegisterFunc(m, h.update)
	mediator.RegisterFunc(m, h.publish)
	mediator.RegisterFunc(m, h.delete)
	mediator.RegisterFunc(m, h.list)
	mediator.RegisterFunc(m, h.bySlug)
	mediator.RegisterFunc(m, h.uploadCover)
}

type handlers struct{ d *feature.Deps }

func (h handlers) toDto(p *domain.BlogPost) PostDto {
	dto := PostDto{
		ID: p.ID, Title: p.Title, Slug: p.Slug, Summary: p.Summary, Content: p.Content,
		AuthorID: p.AuthorID, IsPublished: p.IsPublished, PublishedAt: p.PublishedAt, CreatedAt: p.CreatedAt,
	}
	if p.CoverImageKey != "" && h.d.Storage != nil {
		dto.CoverImageURL = h.d.Storage.GetFileURL(p.CoverImageKey)
	}
	return dto
}

func setPublished(p *domain.BlogPost, publish bool, now time.Time) {
	if publish && !p.IsPublished {
		t := now
		p.PublishedAt = &t
	}
	if !publish {
		p.PublishedAt = nil
	}
	p.IsPublished = publish
}

func (h handlers) create(ctx context.Context, req CreateBlogPost) result.Result[PostDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[PostDto](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	posts := repo.Of[domain.BlogPost](uow)
	slug := req.slug()
	taken, err := posts.Unscoped().Any(ctx, repo.Eq("slug", slug))
	if err != nil {
		return feature.Fail[PostDto](ctx, h.d, "create post", err)
	}
	if taken {
		return result.Duplicate[PostDto]("A blog post with the same slug already exists.")
	}

	now := h.d.Now()
	p := &domain.BlogPost{Title: req.Title, Slug: slug, Summary: req.Summary, Content: req.Content, AuthorID: uid}
	p.Initialize(uid, now)
	setPublished(p, req.Publish, now)
	posts.Add(p)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[PostDto](ctx, h.d, "create post", err)
	}
	return result.Success(h.toDto(p), "Blog post created successfully.")
}

func (h handlers) update(ctx context.Context, req UpdateBlogPost) result.Result[PostDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[PostDto](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	posts := repo.Of[domain.BlogPost](uow)
	p, err := posts.GetByID(ctx, req.ID)
	if err != nil {
		return feature.Fail[PostDto](ctx, h.d, "update post", err)
	}
	if p == nil {
		return result.NotFound[PostDto]("Blog post not found.")
	}
	if slug := req.slug(); slug != p.Slug {
		taken, err := posts.Unscoped().Any(ctx, repo.Eq("slug", slug))
		if err != nil {
			return feature.Fail[PostDto](ctx, h.d, "update post", err)
		}
		if taken {
			return result.Duplicate[PostDto]("A blog post with the same slug already exists.")
		}
		p.Slug = slug
	}
	p.Title = req.Title
	p.Summary = req.Summary
	p.Content = req.Content
	p.MarkUpdated(uid, h.d.Now())
	posts.Update(p)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[PostDto](ctx, h.d, "update post", err)
	}
	return result.Success(h.toDto(p), "Blog post updated successfully.")
}

func (h handlers) publish(ctx context.Context, req PublishBlogPost) result.Result[PostDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[PostDto](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	posts := repo.Of[domain.BlogPost](uow)
	p, err := posts.GetByID(ctx, req.ID)
	if err != nil {
		return feature.Fail[PostDto](ctx, h.d, "publish post", err)
	}
	if p == nil {
		return result.NotFound[PostDto]("Blog post not found.")
	}
	if p.IsPublished == req.Publish {
		return result.Success(h.toDto(p), "Publish state is unchanged.")
	}
	now := h.d.Now()
	setPublished(p, req.Publish, now)
	p.MarkUpdated(uid, now)
	posts.Update(p)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[PostDto](ctx, h.d, "publish post", err)
	}
	msg := "Blog post published successfully."
	if !req.Publish {
		msg = "Blog post unpublished successfully."
	}
	return result.Success(h.toDto(p), msg)
}

func (h handlers) delete(ctx context.Context, req DeleteBlogPost) result.Result[result.Empty] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[result.Empty](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	posts := repo.Of[domain.BlogPost](uow)
	p, err := posts.GetByID(ctx, req.ID)
	if err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "delete post", err)
	}
	if p == nil {
		return result.NotFound[result.Empty]("Blog post not found.")
	}
	if err := p.SoftDelete(uid, h.d.Now()); err != nil {
		return result.Invalid[result.Empty]("Blog post is already deleted.")
	}
	posts.Update(p)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "delete post", err)
	}
	return result.Success(result.Empty{}, "Blog post deleted successfully.")
}

// list 非员工只能看到已发布文章
func (h handlers) list(ctx context.Context, req BlogFilter) result.PaginationResult[PostDto] {
	b := filter.New()
	if kw := strings.TrimSpace(req.Keyword); kw != "" {
		b.ContainsAny([]string{"title", "summary"}, kw)
	}
	filter.Eq(b, "author_id", req.AuthorID)
	if feature.IsStaff(ctx) {
		filter.Eq(b, "is_published", req.Published)
	} else {
		b.EqValue("is_published", true)
	}
	return feature.Paged(ctx, h.d, repo.Of[domain.BlogPost](h.d.UoW.New()), req.PageRequest, b.Build(),
		postSort.Resolve(req.SortBy, req.SortDirection), h.toDto)
}

func (h handlers) bySlug(ctx context.Context, req GetBlogPostBySlug) result.Result[PostDto] {
	where := repo.Eq("slug", req.Slug)
	if !feature.IsStaff(ctx) {
		where = repo.And(where, repo.Eq("is_published", true))
	}
	p, err := repo.Of[domain.BlogPost](h.d.UoW.New()).GetFirstOrDefault(ctx, where)
	if err != nil {
		return feature.Fail[PostDto](ctx, h.d, "get post", err)
	}
	if p == nil {
		return result.NotFound[PostDto]("Blog post not found.")
	}
	return result.Success(h.toDto(p), "")
}

// uploadCover 替换封面；旧对象在后台删除
func (h handlers) uploadCover(ctx context.Context, req UploadBlogCover) result.Result[PostDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[PostDto](feature.MsgUnauthorized)
	}
	if req.Reader == nil {
		return result.Invalid[PostDto]("No file was uploaded.")
	}
	uow := h.d.UoW.New()
	posts := repo.Of[domain.BlogPost](uow)
	p, err := posts.GetByID(ctx, req.ID)
	if err != nil {
		return feature.Fail[PostDto](ctx, h.d, "upload cover", err)
	}
	if p == nil {
		return result.NotFound[PostDto]("Blog post not found.")
	}

	key := storage.ObjectKey("blog/"+p.ID, utils.NewID(), req.FileName)
	if err := h.d.Storage.Upload(ctx, key, req.Reader, req.Size, req.ContentType); err != nil {
		return feature.Fail[PostDto](ctx, h.d, "upload cover", result.Wrap(result.CodeInternalError, "Failed to upload cover image.", err))
	}
	old := p.CoverImageKey
	p.CoverImageKey = key
	p.MarkUpdated(uid, h.d.Now())
	posts.Update(p)
	if _, err := uow.SaveChanges(ctx); err != nil {
		h.d.Go("storage.cleanup", func(ctx context.Context) error { return h.d.Storage.Delete(ctx, key) })
		return feature.Fail[PostDto](ctx, h.d, "upload cover", err)
	}
	if old != "" {
		h.d.Go("storage.delete", func(ctx context.Context) error { return h.d.Storage.Delete(ctx, old) })
	}
	return result.Success(h.toDto(p), "Cover image uploaded successfully.")
}
