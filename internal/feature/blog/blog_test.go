package blog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anime-shop/internal/core/mediator"
	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/feature"
	"anime-shop/internal/integration/storage"
	"anime-shop/internal/testutil/fixture"
)

func setup(t *testing.T) (*feature.Deps, *mediator.Mediator) {
	t.Helper()
	d, _ := fixture.NewDeps(t)
	m := mediator.New(nil)
	Register(m, d)
	return d, m
}

func TestPublishVisibility(t *testing.T) {
	_, m := setup(t)
	staff := fixture.AsUser(context.Background(), "s1", domain.RoleStaff)
	public := context.Background()

	draft := mediator.Send[CreateBlogPost, PostDto](staff, m, CreateBlogPost{PostInput: PostInput{Title: "Summer Season Preview", Content: "..."}})
	require.True(t, draft.IsSuccess, draft.Message)
	assert.Equal(t, "summer-season-preview", draft.Data.Slug)
	assert.False(t, draft.Data.IsPublished)
	assert.Equal(t, "s1", draft.Data.AuthorID)

	hidden := mediator.Send[GetBlogPostBySlug, PostDto](public, m, GetBlogPostBySlug{Slug: draft.Data.Slug})
	assert.Equal(t, result.CodeNotFound, hidden.ErrorCode)
	seen := mediator.Send[GetBlogPostBySlug, PostDto](staff, m, GetBlogPostBySlug{Slug: draft.Data.Slug})
	assert.True(t, seen.IsSuccess)

	pub := mediator.Send[PublishBlogPost, PostDto](staff, m, PublishBlogPost{ID: draft.Data.ID, Publish: true})
	require.True(t, pub.IsSuccess)
	require.NotNil(t, pub.Data.PublishedAt)
	assert.Equal(t, fixture.Now, *pub.Data.PublishedAt)

	visible := mediator.Send[GetBlogPostBySlug, PostDto](public, m, GetBlogPostBySlug{Slug: draft.Data.Slug})
	assert.True(t, visible.IsSuccess)

	mediator.Send[CreateBlogPost, PostDto](staff, m, CreateBlogPost{PostInput: PostInput{Title: "Another draft", Content: "..."}})
	onlyPublished := mediator.Send[BlogFilter, result.Page[PostDto]](public, m, BlogFilter{Published: ptr(false)})
	require.True(t, onlyPublished.IsSuccess)
	assert.Equal(t, int64(1), onlyPublished.Data.TotalCount)

	drafts := mediator.Send[BlogFilter, result.Page[PostDto]](staff, m, BlogFilter{Published: ptr(false)})
	require.Len(t, drafts.Data.Items, 1)
	assert.Equal(t, "Another draft", drafts.Data.Items[0].Title)
}

func TestSlugConflicts(t *testing.T) {
	_, m := setup(t)
	ctx := fixture.AsUser(context.Background(), "s1", domain.RoleStaff)

	anon := mediator.Send[CreateBlogPost, PostDto](context.Background(), m, CreateBlogPost{PostInput: PostInput{Title: "x", Content: "y"}})
	assert.Equal(t, result.CodeUnauthorized, anon.ErrorCode)

	bad := mediator.Send[CreateBlogPost, PostDto](ctx, m, CreateBlogPost{PostInput: PostInput{Title: "No content"}})
	assert.Equal(t, result.CodeValidationFailed, bad.ErrorCode)

	a := mediator.Send[CreateBlogPost, PostDto](ctx, m, CreateBlogPost{PostInput: PostInput{Title: "Top 10 Figures", Content: "a"}})
	require.True(t, a.IsSuccess)
	dup := mediator.Send[CreateBlogPost, PostDto](ctx, m, CreateBlogPost{PostInput: PostInput{Title: "top 10 figures!", Content: "b"}})
	assert.Equal(t, result.CodeDuplicateEntry, dup.ErrorCode)

	b := mediator.Send[CreateBlogPost, PostDto](ctx, m, CreateBlogPost{PostInput: PostInput{Title: "Top 10 Figures", Slug: "top-figures-2025", Content: "b"}})
	require.True(t, b.IsSuccess)

	clash := mediator.Send[UpdateBlogPost, PostDto](ctx, m, UpdateBlogPost{ID: b.Data.ID, PostInput: PostInput{Title: "Top 10 Figures", Content: "b"}})
	assert.Equal(t, result.CodeDuplicateEntry, clash.ErrorCode)

	del := mediator.Send[DeleteBlogPost, result.Empty](ctx, m, DeleteBlogPost{ID: a.Data.ID})
	require.True(t, del.IsSuccess)
	again := mediator.Send[DeleteBlogPost, result.Empty](ctx, m, DeleteBlogPost{ID: a.Data.ID})
	assert.Equal(t, result.CodeNotFound, again.ErrorCode)
}

func TestUploadCoverReplacesOldObject(t *testing.T) {
	d, m := setup(t)
	mem := d.Storage.(*storage.Memory)
	ctx := fixture.AsUser(context.Background(), "s1", domain.RoleStaff)
	post := mediator.Send[CreateBlogPost, PostDto](ctx, m, CreateBlogPost{PostInput: PostInput{Title: "Cover", Content: "c"}})
	require.True(t, post.IsSuccess)

	upload := func(body string) PostDto {
		res := mediator.Send[UploadBlogCover, PostDto](ctx, m, UploadBlogCover{
			ID: post.Data.ID, FileName: "cover.PNG", ContentType: "image/png",
			Size: int64(len(body)), Reader: strings.NewReader(body),
		})
		require.True(t, res.IsSuccess, res.Message)
		return res.Data
	}
	first := upload("one")
	firstKey := strings.TrimPrefix(first.CoverImageURL, "http://cdn.test/")
	assert.True(t, strings.HasPrefix(firstKey, "blog/"+post.Data.ID+"/"))
	assert.True(t, strings.HasSuffix(firstKey, ".png"))

	second := upload("two")
	secondKey := strings.TrimPrefix(second.CoverImageURL, "http://cdn.test/")
	_, ok := mem.Get(firstKey)
	assert.False(t, ok)
	data, ok := mem.Get(secondKey)
	require.True(t, ok)
	assert.Equal(t, "two", string(data))

	notImage := mediator.Send[UploadBlogCover, PostDto](ctx, m, UploadBlogCover{
		ID: post.Data.ID, FileName: "a.txt", ContentType: "text/plain", Size: 1, Reader: strings.NewReader("x"),
	})
	assert.Equal(t, result.CodeValidationFailed, notImage.ErrorCode)
}

func ptr[T any](v T) *T { return &v }
