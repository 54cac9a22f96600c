package user

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"anime-shop/internal/core/audit"
	"anime-shop/internal/core/auth"
	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/feature"
	"anime-shop/internal/filter"
	"anime-shop/internal/repo"
)

const msgAdminOnly = "Only administrators can manage users."

type UserFilter struct {
	filter.PageRequest
	Keyword        string  `form:"keyword"`
	Role           *string `form:"role"`
	Status         *string `form:"status"`
	IncludeDeleted bool    `form:"includeDeleted"`
}

type DeleteUser struct {
	ID string `uri:"id"`
}

type RestoreUser struct {
	ID string `uri:"id"`
}

type AssignRoles struct {
	ID    string   `uri:"id" json:"-"`
	Roles []string `json:"roles"`
}

func (r AssignRoles) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Roles, validation.Required, validation.Each(validation.In(anySlice(domain.DefaultRoles)...))),
	)
}

type GetUserActions struct {
	filter.PageRequest
	ActorID    *string `form:"actorId"`
	EntityType *string `form:"entityType"`
	EntityID   *string `form:"entityId"`
	Action     *string `form:"action"`
}

var userSort = filter.Sort{
	Columns:     map[string]string{"email": "email", "fullname": "full_name", "createdat": "created_at"},
	Default:     "created_at",
	DefaultDesc: true,
}

var actionSort = filter.Sort{
	Columns:     map[string]string{"createdat": "created_at", "action": "action"},
	Default:     "created_at",
	DefaultDesc: true,
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func isAdmin(ctx context.Context) bool { return auth.HasAnyRole(ctx, domain.RoleAdmin) }

func (f UserFilter) where() repo.Where {
	b := filter.New()
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		b.ContainsAny([]string{"email", "full_name", "phone"}, kw)
	}
	filter.Eq(b, "status", f.Status)
	if f.Role != nil && *f.Role != "" {
		b.Expr("EXISTS (SELECT 1 FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE ur.user_id = users.id AND r.name = ?)", *f.Role)
	}
	return b.Build()
}

type adminHandlers struct{ d *feature.Deps }

func (h adminHandlers) list(ctx context.Context, req UserFilter) result.PaginationResult[UserDto] {
	if _, ok := feature.CurrentUser(ctx); !ok {
		return result.Unauthorized[result.Page[UserDto]](feature.MsgUnauthorized)
	}
	if !isAdmin(ctx) {
		return result.Forbidden[result.Page[UserDto]](msgAdminOnly)
	}
	users := repo.Of[domain.User](h.d.UoW.New())
	if req.IncludeDeleted {
		users = users.Unscoped()
	}
	return feature.Paged(ctx, h.d, users, req.PageRequest, req.where(),
		userSort.Resolve(req.SortBy, req.SortDirection), toUserDto, "Roles")
}

// delete 软删与审计在同一个显式事务里，任何一步失败都回滚
func (h adminHandlers) delete(ctx context.Context, req DeleteUser) result.Result[result.Empty] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[result.Empty](feature.MsgUnauthorized)
	}
	if !isAdmin(ctx) {
		return result.Forbidden[result.Empty](msgAdminOnly)
	}
	if req.ID == uid {
		return result.Invalid[result.Empty]("You cannot delete your own account.")
	}

	uow := h.d.UoW.New()
	if err := uow.Begin(ctx); err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "delete user", err)
	}
	rollback := func() {
		if !uow.InTx() {
			return
		}
		if err := uow.Rollback(); err != nil {
			h.d.Logger(ctx).Error("rollback failed", zap.Error(err))
		}
	}
	users := repo.Of[domain.User](uow)
	u, err := users.GetByID(ctx, req.ID)
	if err != nil {
		rollback()
		return feature.Fail[result.Empty](ctx, h.d, "delete user", err)
	}
	if u == nil {
		rollback()
		return result.NotFound[result.Empty]("User not found.")
	}
	now := h.d.Now()
	if err := u.SoftDelete(uid, now); err != nil {
		rollback()
		return result.Invalid[result.Empty]("User is already deleted.")
	}
	users.Update(u)
	if _, err := uow.SaveChanges(ctx); err != nil {
		rollback()
		return feature.Fail[result.Empty](ctx, h.d, "delete user", err)
	}
	repo.Of[domain.UserAction](uow).Add(audit.NewAction(audit.Entry{
		ActorID: uid, Action: "user.deleted", EntityType: "User", EntityID: u.ID, At: now,
	}))
	if err := uow.Commit(ctx); err != nil {
		rollback()
		return feature.Fail[result.Empty](ctx, h.d, "delete user", err)
	}
	return result.Success(result.Empty{}, "User deleted successfully.")
}

func (h adminHandlers) restore(ctx context.Context, req RestoreUser) result.Result[UserDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[UserDto](feature.MsgUnauthorized)
	}
	if !isAdmin(ctx) {
		return result.Forbidden[UserDto](msgAdminOnly)
	}
	uow := h.d.UoW.New()
	users := repo.Of[domain.User](uow).Unscoped()
	u, err := users.GetByID(ctx, req.ID, "Roles")
	if err != nil {
		return feature.Fail[UserDto](ctx, h.d, "restore user", err)
	}
	if u == nil {
		return result.NotFound[UserDto]("User not found.")
	}
	if err := u.Restore(uid, h.d.Now()); err != nil {
		return result.Invalid[UserDto]("User is not deleted.")
	}
	users.Update(u)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[UserDto](ctx, h.d, "restore user", err)
	}
	h.d.Record(ctx, audit.Entry{ActorID: uid, Action: "user.restored", EntityType: "User", EntityID: u.ID})
	return result.Success(toUserDto(u), "User restored successfully.")
}

func (h adminHandlers) assignRoles(ctx context.Context, req AssignRoles) result.Result[UserDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[UserDto](feature.MsgUnauthorized)
	}
	if !isAdmin(ctx) {
		return result.Forbidden[UserDto](msgAdminOnly)
	}
	uow := h.d.UoW.New()
	users := repo.Of[domain.User](uow)
	u, err := users.GetByID(ctx, req.ID)
	if err != nil {
		return feature.Fail[UserDto](ctx, h.d, "assign roles", err)
	}
	if u == nil {
		return result.NotFound[UserDto]("User not found.")
	}
	b := filter.New()
	filter.In(b, "name", req.Roles)
	roles, err := repo.Of[domain.Role](uow).Find(ctx, b.Build())
	if err != nil {
		return feature.Fail[UserDto](ctx, h.d, "assign roles", err)
	}
	want := make(map[string]struct{}, len(req.Roles))
	for _, name := range req.Roles {
		want[name] = struct{}{}
	}
	// 请求里的每个角色都必须在库里
	if len(roles) != len(want) {
		return result.NotFound[UserDto]("One or more roles were not found.")
	}
	u.MarkUpdated(uid, h.d.Now())
	users.Update(u)
	users.ReplaceAssociation(u, "Roles", roles)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[UserDto](ctx, h.d, "assign roles", err)
	}
	u.Roles = roles
	h.d.Record(ctx, audit.Entry{
		ActorID: uid, Action: "user.roles_assigned", EntityType: "User", EntityID: u.ID,
		Detail: strings.Join(u.RoleNames(), ","),
	})
	return result.Success(toUserDto(u), "Roles assigned successfully.")
}

func (h adminHandlers) actions(ctx context.Context, req GetUserActions) result.PaginationResult[ActionDto] {
	if _, ok := feature.CurrentUser(ctx); !ok {
		return result.Unauthorized[result.Page[ActionDto]](feature.MsgUnauthorized)
	}
	if !isAdmin(ctx) {
		return result.Forbidden[result.Page[ActionDto]](msgAdminOnly)
	}
	b := filter.New()
	filter.Eq(b, "actor_id", req.ActorID)
	filter.Eq(b, "entity_type", req.EntityType)
	filter.Eq(b, "entity_id", req.EntityID)
	filter.Eq(b, "action", req.Action)
	return feature.Paged(ctx, h.d, repo.Of[domain.UserAction](h.d.UoW.New()), req.PageRequest, b.Build(),
		actionSort.Resolve(req.SortBy, req.SortDirection), toActionDto)
}
