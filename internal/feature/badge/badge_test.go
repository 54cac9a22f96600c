package badge

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

func TestBadgeLifecycle(t *testing.T) {
	d, _ := fixture.NewDeps(t)
	m := mediator.New(nil)
	Register(m, d)
	ctx := fixture.AsUser(context.Background(), "admin", domain.RoleAdmin)

	hot := mediator.Send[CreateBadge, BadgeDto](ctx, m, CreateBadge{Name: "Hot", Color: "#ff5500"})
	require.True(t, hot.IsSuccess, hot.Message)
	assert.Equal(t, "#FF5500", hot.Data.Color)

	dup := mediator.Send[CreateBadge, BadgeDto](ctx, m, CreateBadge{Name: "Hot"})
	assert.Equal(t, result.CodeDuplicateEntry, dup.ErrorCode)

	bad := mediator.Send[CreateBadge, BadgeDto](ctx, m, CreateBadge{Name: "New", Color: "red"})
	assert.Equal(t, result.CodeValidationFailed, bad.ErrorCode)

	limited := mediator.Send[CreateBadge, BadgeDto](ctx, m, CreateBadge{Name: "Limited"})
	require.True(t, limited.IsSuccess)

	list := mediator.Send[BadgeFilter, result.Page[BadgeDto]](ctx, m, BadgeFilter{})
	require.True(t, list.IsSuccess)
	require.Len(t, list.Data.Items, 2)
	assert.Equal(t, "Hot", list.Data.Items[0].Name)

	// 挂在商品上的徽章不能删
	p := fixture.SeedProduct(t, d, "Figure", 100000, 1)
	uow := d.UoW.New()
	repo.Of[domain.Product](uow).ReplaceAssociation(p, "Badges", []domain.Badge{{Base: domain.Base{ID: hot.Data.ID}}})
	_, err := uow.SaveChanges(context.Background())
	require.NoError(t, err)

	conflict := mediator.Send[DeleteBadge, result.Empty](ctx, m, DeleteBadge{ID: hot.Data.ID})
	assert.Equal(t, result.CodeConflict, conflict.ErrorCode)

	ok := mediator.Send[DeleteBadge, result.Empty](ctx, m, DeleteBadge{ID: limited.Data.ID})
	require.True(t, ok.IsSuccess)
	gone := mediator.Send[DeleteBadge, result.Empty](ctx, m, DeleteBadge{ID: limited.Data.ID})
	assert.Equal(t, result.CodeNotFound, gone.ErrorCode)
}
