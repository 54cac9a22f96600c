// Package catalog 分类、番剧、商品与商品图片
package catalog

import (
	"anime-shop/internal/core/mediator"
	"anime-shop/internal/feature"
)

func Register(m *mediator.Mediator, d *feature.Deps) {
	c := categoryHandlers{d}
	mediator.RegisterFunc(m, c.create)
	mediator.RegisterFunc(m, c.update)
	mediator.RegisterFunc(m, c.delete)
	mediator.RegisterFunc(m, c.list)

	s := seriesHandlers{d}
	mediator.RegisterFunc(m, s.create)
	mediator.RegisterFunc(m, s.update)
	mediator.RegisterFunc(m, s.delete)
	mediator.RegisterFunc(m, s.list)

	p := productHandlers{d}
	mediator.RegisterFunc(m, p.create)
	mediator.RegisterFunc(m, p.update)
	mediator.RegisterFunc(m, p.delete)
	mediator.RegisterFunc(m, p.restore)
	mediator.RegisterFunc(m, p.get)
	mediator.RegisterFunc(m, p.list)

	img := imageHandlers{d}
	mediator.RegisterFunc(m, img.upload)
	mediator.RegisterFunc(m, img.delete)

	mediator.RegisterFunc(m, exportHandlers{d}.export)
	mediator.RegisterFunc(m, purgeHandlers{d}.purge)
}
