package wishlist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anime-shop/internal/core/mediator"
	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/repo"
	"anime-shop/internal/testutil/fixture"
)

func TestWishlist(t *testing.T) {
	d, _ := fixture.NewDeps(t)
	m := mediator.New(nil)
	Register(m, d)
	ctx := fixture.AsUser(context.Background(), "u1")
	p := fixture.SeedProduct(t, d, "Poster", 90000, 0)

	anon := mediator.Send[AddToWishlist, ItemDto](context.Background(), m, AddToWishlist{ProductID: p.ID})
	assert.Equal(t, result.CodeUnauthorized, anon.ErrorCode)

	added := mediator.Send[AddToWishlist, ItemDto](ctx, m, AddToWishlist{ProductID: p.ID})
	require.True(t, added.IsSuccess, added.Message)
	assert.False(t, added.Data.InStock)

	dup := mediator.Send[AddToWishlist, ItemDto](ctx, m, AddToWishlist{ProductID: p.ID})
	assert.Equal(t, result.CodeConflict, dup.ErrorCode)

	missing := mediator.Send[AddToWishlist, ItemDto](ctx, m, AddToWishlist{ProductID: "nope"})
	assert.Equal(t, result.CodeNotFound, missing.ErrorCode)

	list := mediator.Send[GetWishlist, result.Page[ItemDto]](ctx, m, GetWishlist{})
	require.True(t, list.IsSuccess)
	require.Len(t, list.Data.Items, 1)
	assert.Equal(t, "Poster", list.Data.Items[0].ProductName)

	other := mediator.Send[GetWishlist, result.Page[ItemDto]](fixture.AsUser(context.Background(), "u2"), m, GetWishlist{})
	assert.Empty(t, other.Data.Items)

	rm := mediator.Send[RemoveFromWishlist, result.Empty](ctx, m, RemoveFromWishlist{ProductID: p.ID})
	require.True(t, rm.IsSuccess)
	again := mediator.Send[RemoveFromWishlist, result.Empty](ctx, m, RemoveFromWishlist{ProductID: p.ID})
	assert.Equal(t, result.CodeNotFound, again.ErrorCode)
}

func TestWishlistPairIsUnique(t *testing.T) {
	d, _ := fixture.NewDeps(t)
	p := fixture.SeedProduct(t, d, "Poster", 90000, 1)
	first := &domain.WishlistItem{UserID: "u1", ProductID: p.ID}
	first.Initialize("u1", fixture.Now)
	fixture.Save(t, d, first)

	dup := &domain.WishlistItem{UserID: "u1", ProductID: p.ID}
	dup.Initialize("u1", fixture.Now)
	uow := d.UoW.New()
	repo.Of[domain.WishlistItem](uow).Add(dup)
	_, err := uow.SaveChanges(context.Background())
	assert.Equal(t, result.CodeDuplicateEntry, result.CodeOf(err))

	other := &domain.WishlistItem{UserID: "u2", ProductID: p.ID}
	other.Initialize("u2", fixture.Now)
	fixture.Save(t, d, other)
}
