package domain

const (
	RoleCustomer = "Customer"
	RoleStaff    = "Staff"
	RoleAdmin    = "Admin"
)

var DefaultRoles = []string{RoleCustomer, RoleStaff, RoleAdmin}

type User struct {
	Base
	Email        string `gorm:"size:191;not null;uniqueIndex" json:"email"`
	FullName     string `gorm:"size:128;not null" json:"fullName"`
	Phone        string `gorm:"size:32" json:"phone"`
	PasswordHash string `gorm:"size:100;not null" json:"-"`
	Roles        []Role `gorm:"many2many:user_roles" json:"roles,omitempty"`
}

func (u *User) RoleNames() []string {
	out := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		out = append(out, r.Name)
	}
	return out
}

type Role struct {
	Base
	Name string `gorm:"size:32;not null;uniqueIndex" json:"name"`
}

// UserAction 审计记录：谁对哪个实体做了什么
type UserAction struct {
	Base
	ActorID    string `gorm:"size:36;not null;index" json:"actorId"`
	Action     string `gorm:"size:64;not null" json:"action"`
	EntityType string `gorm:"size:64;not null;index" json:"entityType"`
	EntityID   string `gorm:"size:36;not null;index" json:"entityId"`
	Detail     string `gorm:"size:1024" json:"detail,omitempty"`
}

// Models 需要迁移的全部模型
func Models() []any {
	return []any{
		&Role{}, &User{}, &UserAction{},
		&Category{}, &AnimeSeries{}, &Badge{}, &Product{}, &ProductImage{},
		&CartItem{}, &WishlistItem{},
		&Coupon{}, &UserCoupon{},
		&Order{}, &OrderItem{},
		&Review{}, &BlogPost{},
	}
}
