package user

import (
	"anime-shop/internal/core/mediator"
	"anime-shop/internal/feature"
)

func RegisterHandlers(m *mediator.Mediator, d *feature.Deps) {
	a := accountHandlers{d}
	mediator.RegisterFunc(m, a.register)
	mediator.RegisterFunc(m, a.login)
	mediator.RegisterFunc(m, a.profile)
	mediator.RegisterFunc(m, a.updateProfile)
	mediator.RegisterFunc(m, a.changePassword)

	h := adminHandlers{d}
	mediator.RegisterFunc(m, h.list)
	mediator.RegisterFunc(m, h.delete)
	mediator.RegisterFunc(m, h.restore)
	mediator.RegisterFunc(m, h.assignRoles)
	mediator.RegisterFunc(m, h.actions)
}
