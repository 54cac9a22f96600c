package user

import (
	"context"
	"slices"
	"strings"

	"anime-shop/internal/core/audit"
	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/feature"
	"anime-shop/internal/repo"
	"anime-shop/pkg/utils"
)

// EnsureAdmin 启动时保证存在一个管理员账号（幂等）。
// 账号已存在时只补 Admin 角色，不改密码。
func EnsureAdmin(ctx context.Context, d *feature.Deps, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || len(password) < 8 {
		return result.Errorf(result.CodeValidationFailed, "admin bootstrap needs an email and a password of at least 8 characters")
	}
	uow := d.UoW.New()
	users := repo.Of[domain.User](uow)
	roles, err := repo.Of[domain.Role](uow).Find(ctx, nil)
	if err != nil {
		return err
	}
	byName := make(map[string]domain.Role, len(roles))
	for _, r := range roles {
		byName[r.Name] = r
	}
	admin, ok := byName[domain.RoleAdmin]
	if !ok {
		return result.Errorf(result.CodeInternalError, "admin role is not seeded")
	}

	u, err := users.Unscoped().GetFirstOrDefault(ctx, repo.Eq("email", email), "Roles")
	if err != nil {
		return err
	}
	if u != nil {
		if slices.Contains(u.RoleNames(), domain.RoleAdmin) {
			return nil
		}
		users.ReplaceAssociation(u, "Roles", append(u.Roles, admin))
		if _, err := uow.SaveChanges(ctx); err != nil {
			return err
		}
		d.Record(ctx, audit.Entry{ActorID: "system", Action: "user.roles_assigned", EntityType: "User", EntityID: u.ID, Detail: domain.RoleAdmin})
		return nil
	}

	u = &domain.User{Email: email, FullName: strings.SplitN(email, "@", 2)[0], PasswordHash: utils.HashPassword(password)}
	u.Initialize("system", d.Now())
	users.Add(u)
	users.ReplaceAssociation(u, "Roles", []domain.Role{admin})
	if _, err := uow.SaveChanges(ctx); err != nil {
		return err
	}
	d.Record(ctx, audit.Entry{ActorID: "system", Action: "user.registered", EntityType: "User", EntityID: u.ID})
	return nil
}
