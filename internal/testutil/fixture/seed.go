package fixture

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"anime-shop/internal/domain"
	"anime-shop/internal/feature"
	"anime-shop/internal/filter"
	"anime-shop/internal/repo"
	"anime-shop/pkg/utils"
)

// Password SeedUser 创建的用户统一使用的密码
const Password = "Passw0rd!"

// Save 直接落库，跳过 handler
func Save[T any](t testing.TB, d *feature.Deps, es ...*T) {
	t.Helper()
	uow := d.UoW.New()
	r := repo.Of[T](uow)
	for _, e := range es {
		r.Add(e)
	}
	_, err := uow.SaveChanges(context.Background())
	require.NoError(t, err)
}

// SeedProduct 新建分类 + 商品（500g）；价格单位 VND
func SeedProduct(t testing.TB, d *feature.Deps, name string, price int64, stock int) *domain.Product {
	t.Helper()
	c := &domain.Category{Name: name + " category", Slug: utils.Slugify(name) + "-category"}
	c.Initialize("seed", Now)
	p := &domain.Product{
		Name: name, Slug: utils.Slugify(name), Price: decimal.NewFromInt(price),
		StockQuantity: stock, WeightGrams: 500, CategoryID: c.ID,
	}
	p.Initialize("seed", Now)
	Save(t, d, c)
	Save(t, d, p)
	return p
}

func SeedUser(t testing.TB, d *feature.Deps, email string, roles ...string) *domain.User {
	t.Helper()
	ctx := context.Background()
	uow := d.UoW.New()
	u := &domain.User{Email: email, FullName: email, PasswordHash: utils.HashPassword(Password)}
	u.Initialize("seed", Now)
	users := repo.Of[domain.User](uow)
	users.Add(u)
	if len(roles) > 0 {
		b := filter.New()
		filter.In(b, "name", roles)
		found, err := repo.Of[domain.Role](uow).Find(ctx, b.Build())
		require.NoError(t, err)
		require.Len(t, found, len(roles))
		users.ReplaceAssociation(u, "Roles", found)
		u.Roles = found
	}
	_, err := uow.SaveChanges(ctx)
	require.NoError(t, err)
	return u
}
