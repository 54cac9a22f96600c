// Package filter 把请求里的筛选对象翻译成仓储可用的谓词与排序
package filter

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"anime-shop/internal/repo"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest 分页与排序参数（嵌入各个 Filter）
type PageRequest struct {
	PageNumber    int    `form:"pageNumber" json:"pageNumber"`
	PageSize      int    `form:"pageSize" json:"pageSize"`
	SortBy        string `form:"sortBy" json:"sortBy"`
	SortDirection string `form:"sortDirection" json:"sortDirection"`
}

// Normalize 钳制页码与页大小
func (p PageRequest) Normalize() PageRequest {
	if p.PageNumber < 1 {
		p.PageNumber = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Builder 收集条件，最终 AND 成一个谓词。可选值为 nil/空时直接跳过。
type Builder struct {
	conds []clause.Expression
}

func New() *Builder { return &Builder{} }

func (b *Builder) add(e clause.Expression) *Builder {
	b.conds = append(b.conds, e)
	return b
}

// Eq 可选等值条件
func Eq[V any](b *Builder, column string, v *V) *Builder {
	if v == nil {
		return b
	}
	return b.add(clause.Eq{Column: repo.Col(column), Value: *v})
}

// EqValue 必选等值条件
func (b *Builder) EqValue(column string, v any) *Builder {
	return b.add(clause.Eq{Column: repo.Col(column), Value: v})
}

// Range 闭区间，任一端可省略
func Range[V any](b *Builder, column string, min, max *V) *Builder {
	if min != nil {
		b.add(clause.Gte{Column: repo.Col(column), Value: *min})
	}
	if max != nil {
		b.add(clause.Lte{Column: repo.Col(column), Value: *max})
	}
	return b
}

func In[V any](b *Builder, column string, vs []V) *Builder {
	if len(vs) == 0 {
		return b
	}
	values := make([]any, 0, len(vs))
	for _, v := range vs {
		values = append(values, v)
	}
	return b.add(clause.IN{Column: repo.Col(column), Values: values})
}

// Contains 大小写不敏感的子串匹配
func (b *Builder) Contains(column, s string) *Builder {
	if e := containsExpr(column, s); e != nil {
		return b.add(e)
	}
	return b
}

// ContainsAny 关键字命中任一列即可
func (b *Builder) ContainsAny(columns []string, s string) *Builder {
	var ors []clause.Expression
	for _, col := range columns {
		if e := containsExpr(col, s); e != nil {
			ors = append(ors, e)
		}
	}
	if len(ors) == 0 {
		return b
	}
	return b.add(clause.Or(ors...))
}

func containsExpr(column, s string) clause.Expression {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return clause.Expr{
		SQL:  "LOWER(?) LIKE ?",
		Vars: []any{repo.Col(column), "%" + strings.ToLower(s) + "%"},
	}
}

// Expr 原生条件（子查询等）
func (b *Builder) Expr(sql string, vars ...any) *Builder {
	return b.add(clause.Expr{SQL: sql, Vars: vars})
}

func (b *Builder) When(cond bool, fn func(*Builder)) *Builder {
	if cond {
		fn(b)
	}
	return b
}

func (b *Builder) Len() int { return len(b.conds) }

func (b *Builder) Build() repo.Where {
	conds := append([]clause.Expression(nil), b.conds...)
	return func(q *gorm.DB) *gorm.DB {
		if len(conds) == 0 {
			return q
		}
		return q.Where(clause.And(conds...))
	}
}
