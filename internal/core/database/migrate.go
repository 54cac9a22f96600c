package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"anime-shop/internal/domain"
)

// Migrate 自动迁移全部模型
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(domain.Models()...)
}

// SeedRoles 保证内置角色存在（幂等）
func SeedRoles(ctx context.Context, db *gorm.DB) error {
	for _, name := range domain.DefaultRoles {
		var r domain.Role
		err := db.WithContext(ctx).Where("name = ?", name).Take(&r).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		r = domain.Role{Name: name}
		r.Initialize("system", time.Now().UTC())
		if err := db.WithContext(ctx).Create(&r).Error; err != nil {
			return err
		}
	}
	return nil
}
