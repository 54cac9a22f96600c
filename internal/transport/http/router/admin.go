package router

import (
	"github.com/gin-gonic/gin"

	"anime-shop/internal/domain"
	mdw "anime-shop/internal/transport/http/middleware"
)

// NewAdminEngine 管理端 /admin/v1：整组要求 Staff 或 Admin，用户管理再限定 Admin
func NewAdminEngine(o Options) *gin.Engine {
	o.defaults()
	r := newEngine("admin", o)
	admin := r.Group("/admin/v1")
	admin.Use(mdw.RequireRoles(domain.RoleStaff, domain.RoleAdmin))
	NewRegistry(Modules(o.Mediator)...).MountAllAdmin(admin)
	return r
}
