package feature

import (
	"context"

	"go.uber.org/zap"

	"anime-shop/internal/core/auth"
	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/filter"
	"anime-shop/internal/repo"
)

const MsgUnauthorized = "User is not authenticated."

// CurrentUser 未登录时 ok=false
func CurrentUser(ctx context.Context) (string, bool) {
	uid := auth.UserID(ctx)
	return uid, uid != ""
}

// LiveUser 作为 mediator guard：token 里的用户必须仍然存在且为 Active，
// 角色以库里的为准。匿名请求原样放行
func (d *Deps) LiveUser(ctx context.Context) (context.Context, error) {
	claims, ok := auth.FromContext(ctx)
	if !ok {
		return ctx, nil
	}
	u, err := repo.Of[domain.User](d.UoW.New()).GetByID(ctx, claims.UID, "Roles")
	if err != nil {
		return ctx, err
	}
	if u == nil || !u.IsActive() {
		return ctx, result.Errorf(result.CodeUnauthorized, MsgUnauthorized)
	}
	live := *claims
	live.Email = u.Email
	live.Roles = u.RoleNames()
	return auth.WithClaims(ctx, &live), nil
}

func IsStaff(ctx context.Context) bool {
	return auth.HasAnyRole(ctx, domain.RoleStaff, domain.RoleAdmin)
}

// Fail 把错误转成失败结果；未分类/数据库错误记 error 日志
func Fail[T any](ctx context.Context, d *Deps, op string, err error) result.Result[T] {
	switch result.CodeOf(err) {
	case result.CodeInternalError, result.CodeDatabaseError:
		d.Logger(ctx).Error(op+" failed", zap.Error(err))
	}
	return result.FromError[T](err)
}

// Paged 通用分页查询 + 映射
func Paged[E any, D any](
	ctx context.Context,
	d *Deps,
	r *repo.Repository[E],
	p filter.PageRequest,
	where repo.Where,
	order *repo.Order,
	mapFn func(*E) D,
	includes ...string,
) result.PaginationResult[D] {
	p = p.Normalize()
	items, total, err := r.GetPaged(ctx, p.PageNumber, p.PageSize, where, order, includes...)
	if err != nil {
		return Fail[result.Page[D]](ctx, d, "paged query", err)
	}
	out := make([]D, 0, len(items))
	for i := range items {
		out = append(out, mapFn(&items[i]))
	}
	return result.Paged(out, p.PageNumber, p.PageSize, total, "")
}

// File 二进制下载（导出表格、发票），传输层按 ContentType 直接写出
type File struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Content     []byte `json:"content"`
}
