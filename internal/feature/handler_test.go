package feature_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anime-shop/internal/core/auth"
	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/feature"
	"anime-shop/internal/testutil/fixture"
)

func TestLiveUserTakesRolesFromDatabase(t *testing.T) {
	d, _ := fixture.NewDeps(t)
	u := fixture.SeedUser(t, d, "demoted@shop.test", domain.RoleCustomer)

	// token 签发时还是 Admin
	ctx, err := d.LiveUser(fixture.AsUser(context.Background(), u.ID, domain.RoleAdmin))
	require.NoError(t, err)
	assert.False(t, feature.IsStaff(ctx))
	assert.True(t, auth.HasAnyRole(ctx, domain.RoleCustomer))
	c, _ := auth.FromContext(ctx)
	assert.Equal(t, "demoted@shop.test", c.Email)
}

func TestLiveUserRejectsUnknownAndPassesAnonymous(t *testing.T) {
	d, _ := fixture.NewDeps(t)

	_, err := d.LiveUser(fixture.AsUser(context.Background(), "ghost", domain.RoleAdmin))
	assert.Equal(t, result.CodeUnauthorized, result.CodeOf(err))

	ctx, err := d.LiveUser(context.Background())
	require.NoError(t, err)
	assert.Empty(t, auth.UserID(ctx))
}
