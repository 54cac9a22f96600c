package user

import (
	"time"

	"anime-shop/internal/domain"
)

type UserDto struct {
	ID        string        `json:"id"`
	Email     string        `json:"email"`
	FullName  string        `json:"fullName"`
	Phone     string        `json:"phone"`
	Roles     []string      `json:"roles"`
	Status    domain.Status `json:"status"`
	IsDeleted bool          `json:"isDeleted"`
	CreatedAt time.Time     `json:"createdAt"`
}

func toUserDto(u *domain.User) UserDto {
	return UserDto{
		ID: u.ID, Email: u.Email, FullName: u.FullName, Phone: u.Phone,
		Roles: u.RoleNames(), Status: u.Status, IsDeleted: u.IsDeleted, CreatedAt: u.CreatedAt,
	}
}

type AuthDto struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        UserDto   `json:"user"`
}

type ActionDto struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actorId"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toActionDto(a *domain.UserAction) ActionDto {
	return ActionDto{
		ID: a.ID, ActorID: a.ActorID, Action: a.Action, EntityType: a.EntityType,
		EntityID: a.EntityID, Detail: a.Detail, CreatedAt: a.CreatedAt,
	}
}
