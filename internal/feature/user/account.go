// Package user 注册登录、个人资料与用户管理
package user

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"

	"anime-shop/internal/core/audit"
	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/feature"
	"anime-shop/internal/repo"
	"anime-shop/pkg/utils"
)

const msgBadCredentials = "Invalid email or password."

type Register struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

func (r Register) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat, validation.Length(1, 191)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.Phone, validation.Length(0, 32), is.Digit),
	)
}

type Login struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r Login) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type GetProfile struct{}

type UpdateProfile struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

func (r UpdateProfile) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.Phone, validation.Length(0, 32), is.Digit),
	)
}

type ChangePassword struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (r ChangePassword) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 72)),
	)
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

type accountHandlers struct{ d *feature.Deps }

func (h accountHandlers) register(ctx context.Context, req Register) result.Result[UserDto] {
	uow := h.d.UoW.New()
	users := repo.Of[domain.User](uow)
	email := normalizeEmail(req.Email)
	taken, err := users.Unscoped().Any(ctx, repo.Eq("email", email))
	if err != nil {
		return feature.Fail[UserDto](ctx, h.d, "register", err)
	}
	if taken {
		return result.Duplicate[UserDto]("Email is already registered.")
	}
	role, err := repo.Of[domain.Role](uow).GetFirstOrDefault(ctx, repo.Eq("name", domain.RoleCustomer))
	if err != nil {
		return feature.Fail[UserDto](ctx, h.d, "register", err)
	}
	if role == nil {
		return feature.Fail[UserDto](ctx, h.d, "register", result.Errorf(result.CodeInternalError, "customer role is not seeded"))
	}

	u := &domain.User{
		Email: email, FullName: strings.TrimSpace(req.FullName), Phone: req.Phone,
		PasswordHash: utils.HashPassword(req.Password),
	}
	u.Initialize("", h.d.Now())
	u.CreatedBy = u.ID
	users.Add(u)
	users.ReplaceAssociation(u, "Roles", []domain.Role{*role})
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[UserDto](ctx, h.d, "register", err)
	}
	u.Roles = []domain.Role{*role}
	h.d.Record(ctx, audit.Entry{ActorID: u.ID, Action: "user.registered", EntityType: "User", EntityID: u.ID})
	return result.Success(toUserDto(u), "Registration successful.")
}

// login 不区分“邮箱不存在”和“密码错误”
func (h accountHandlers) login(ctx context.Context, req Login) result.Result[AuthDto] {
	u, err := repo.Of[domain.User](h.d.UoW.New()).GetFirstOrDefault(ctx, repo.Eq("email", normalizeEmail(req.Email)), "Roles")
	if err != nil {
		return feature.Fail[AuthDto](ctx, h.d, "login", err)
	}
	if u == nil || !utils.CheckPassword(req.Password, u.PasswordHash) {
		return result.Failure[AuthDto](result.CodeInvalidCredentials, msgBadCredentials)
	}
	if u.Status != domain.StatusActive {
		return result.Forbidden[AuthDto]("Account is disabled.")
	}
	token, exp, err := h.d.JWT.Issue(u.ID, u.Email, u.RoleNames())
	if err != nil {
		return feature.Fail[AuthDto](ctx, h.d, "login", result.Wrap(result.CodeInternalError, "Failed to issue token.", err))
	}
	h.d.Logger(ctx).Info("user logged in", zap.String("uid", u.ID))
	return result.Success(AuthDto{AccessToken: token, TokenType: "Bearer", ExpiresAt: exp, User: toUserDto(u)}, "Login successful.")
}

func (h accountHandlers) profile(ctx context.Context, _ GetProfile) result.Result[UserDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[UserDto](feature.MsgUnauthorized)
	}
	u, err := repo.Of[domain.User](h.d.UoW.New()).GetByID(ctx, uid, "Roles")
	if err != nil {
		return feature.Fail[UserDto](ctx, h.d, "get profile", err)
	}
	if u == nil {
		return result.NotFound[UserDto]("User not found.")
	}
	return result.Success(toUserDto(u), "")
}

func (h accountHandlers) updateProfile(ctx context.Context, req UpdateProfile) result.Result[UserDto] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[UserDto](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	users := repo.Of[domain.User](uow)
	u, err := users.GetByID(ctx, uid, "Roles")
	if err != nil {
		return feature.Fail[UserDto](ctx, h.d, "update profile", err)
	}
	if u == nil {
		return result.NotFound[UserDto]("User not found.")
	}
	u.FullName = strings.TrimSpace(req.FullName)
	u.Phone = req.Phone
	u.MarkUpdated(uid, h.d.Now())
	users.Update(u)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[UserDto](ctx, h.d, "update profile", err)
	}
	return result.Success(toUserDto(u), "Profile updated successfully.")
}

func (h accountHandlers) changePassword(ctx context.Context, req ChangePassword) result.Result[result.Empty] {
	uid, ok := feature.CurrentUser(ctx)
	if !ok {
		return result.Unauthorized[result.Empty](feature.MsgUnauthorized)
	}
	uow := h.d.UoW.New()
	users := repo.Of[domain.User](uow)
	u, err := users.GetByID(ctx, uid)
	if err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "change password", err)
	}
	if u == nil {
		return result.NotFound[result.Empty]("User not found.")
	}
	if !utils.CheckPassword(req.CurrentPassword, u.PasswordHash) {
		return result.Failure[result.Empty](result.CodeInvalidCredentials, "Current password is incorrect.")
	}
	u.PasswordHash = utils.HashPassword(req.NewPassword)
	u.MarkUpdated(uid, h.d.Now())
	users.Update(u)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return feature.Fail[result.Empty](ctx, h.d, "change password", err)
	}
	h.d.Record(ctx, audit.Entry{ActorID: uid, Action: "user.password_changed", EntityType: "User", EntityID: uid})
	return result.Success(result.Empty{}, "Password changed successfully.")
}
