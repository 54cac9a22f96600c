package domain

import (
	"errors"
	"time"

	"anime-shop/pkg/utils"
)

type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

func (s Status) Valid() bool { return s == StatusActive || s == StatusInactive }

var (
	ErrAlreadyDeleted = errors.New("entity already deleted")
	ErrNotDeleted     = errors.New("entity is not deleted")
)

// Base 所有实体共用的审计字段。时间戳由生命周期方法维护，关闭 gorm 的自动时间。
type Base struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime:false;not null" json:"createdAt"`
	CreatedBy string     `gorm:"size:36" json:"createdBy"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updatedAt,omitempty"`
	UpdatedBy string     `gorm:"size:36" json:"updatedBy,omitempty"`
	IsDeleted bool       `gorm:"index;not null;default:false" json:"isDeleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	DeletedBy string     `gorm:"size:36" json:"deletedBy,omitempty"`
	Status    Status     `gorm:"size:16;not null;default:Active" json:"status"`
}

// Initialize 首次持久化前调用；已有 ID 不会被覆盖
func (b *Base) Initialize(actor string, now time.Time) {
	if b.ID == "" {
		b.ID = utils.NewID()
	}
	b.CreatedAt = now
	b.CreatedBy = actor
	if b.Status == "" {
		b.Status = StatusActive
	}
}

func (b *Base) MarkUpdated(actor string, now time.Time) {
	t := now
	b.UpdatedAt = &t
	b.UpdatedBy = actor
}

func (b *Base) SoftDelete(actor string, now time.Time) error {
	if b.IsDeleted {
		return ErrAlreadyDeleted
	}
	t := now
	b.IsDeleted = true
	b.DeletedAt = &t
	b.DeletedBy = actor
	return nil
}

func (b *Base) Restore(actor string, now time.Time) error {
	if !b.IsDeleted {
		return ErrNotDeleted
	}
	b.IsDeleted = false
	b.DeletedAt = nil
	b.DeletedBy = ""
	b.MarkUpdated(actor, now)
	return nil
}

func (b *Base) IsActive() bool { return !b.IsDeleted && b.Status == StatusActive }
