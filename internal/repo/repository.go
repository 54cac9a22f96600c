package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Where 查询谓词，本质是 gorm scope
type Where func(*gorm.DB) *gorm.DB

// And 合并多个谓词（nil 跳过）
func And(ws ...Where) Where {
	return func(q *gorm.DB) *gorm.DB {
		for _, w := range ws {
			if w != nil {
				q = w(q)
			}
		}
		return q
	}
}

// ByID 主键等值
func ByID(id string) Where {
	return Eq("id", id)
}

// Eq 当前表列等值
func Eq(column string, v any) Where {
	return func(q *gorm.DB) *gorm.DB {
		return q.Where(clause.Eq{Column: Col(column), Value: v})
	}
}

// Col 以当前表限定列名，避免 join 时歧义
func Col(name string) clause.Column {
	return clause.Column{Table: clause.CurrentTable, Name: name}
}

// Order 排序；Column 为空表示不排序
type Order struct {
	Column string
	Desc   bool
}

var notDeleted = clause.Eq{Column: Col("is_deleted"), Value: false}

// Repository 单实体类型的数据访问。写操作只登记，SaveChanges 时统一落库。
// 默认排除软删数据，需要时用 Unscoped。
type Repository[T any] struct {
	uow         *UnitOfWork
	withDeleted bool
}

func (r *Repository[T]) Unscoped() *Repository[T] {
	return &Repository[T]{uow: r.uow, withDeleted: true}
}

func (r *Repository[T]) scoped(ctx context.Context, where Where, includes []string) *gorm.DB {
	q := r.uow.conn(ctx).Model(new(T))
	if !r.withDeleted {
		q = q.Where(notDeleted)
	}
	if where != nil {
		q = where(q)
	}
	for _, inc := range includes {
		q = q.Preload(inc)
	}
	return q
}

func (r *Repository[T]) GetByID(ctx context.Context, id string, includes ...string) (*T, error) {
	return r.GetFirstOrDefault(ctx, ByID(id), includes...)
}

func (r *Repository[T]) GetFirstOrDefault(ctx context.Context, where Where, includes ...string) (*T, error) {
	var e T
	err := r.scoped(ctx, where, includes).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapDB(err)
	}
	return &e, nil
}

// Find 不分页，只用于小结果集（查重、下拉选项）
func (r *Repository[T]) Find(ctx context.Context, where Where, includes ...string) ([]T, error) {
	items := make([]T, 0)
	if err := r.scoped(ctx, where, includes).Find(&items).Error; err != nil {
		return nil, wrapDB(err)
	}
	return items, nil
}

// GetPaged 先计数再分页；total 为分页前的匹配数。page/size 从 1 开始，由调用方负责钳制。
func (r *Repository[T]) GetPaged(ctx context.Context, pageNumber, pageSize int, where Where, order *Order, includes ...string) ([]T, int64, error) {
	if pageNumber < 1 || pageSize < 1 {
		return nil, 0, ErrInvalidPage
	}
	var total int64
	if err := r.scoped(ctx, where, nil).Count(&total).Error; err != nil {
		return nil, 0, wrapDB(err)
	}
	items := make([]T, 0)
	if total == 0 {
		return items, 0, nil
	}
	q := applyOrder(r.scoped(ctx, where, includes), order)
	if err := q.Offset((pageNumber - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		return nil, 0, wrapDB(err)
	}
	return items, total, nil
}

// applyOrder 指定排序列时追加 id 作为次序键，保证分页稳定
func applyOrder(q *gorm.DB, order *Order) *gorm.DB {
	if order == nil || order.Column == "" {
		return q
	}
	q = q.Order(clause.OrderByColumn{Column: Col(order.Column), Desc: order.Desc})
	if order.Column != "id" {
		q = q.Order(clause.OrderByColumn{Column: Col("id")})
	}
	return q
}

func (r *Repository[T]) Count(ctx context.Context, where Where) (int64, error) {
	var n int64
	if err := r.scoped(ctx, where, nil).Count(&n).Error; err != nil {
		return 0, wrapDB(err)
	}
	return n, nil
}

func (r *Repository[T]) Any(ctx context.Context, where Where) (bool, error) {
	n, err := r.Count(ctx, where)
	return n > 0, err
}

// Query 复杂查询（多级预加载、join）的出口；已带软删过滤
func (r *Repository[T]) Query(ctx context.Context) *gorm.DB {
	return r.scoped(ctx, nil, nil)
}

func (r *Repository[T]) Add(e *T) {
	r.uow.stage(func(tx *gorm.DB) (int64, error) {
		res := tx.Create(e)
		return res.RowsAffected, res.Error
	})
}

// Update 整行保存，不级联关联（关联用 ReplaceAssociation）
func (r *Repository[T]) Update(e *T) {
	r.uow.stage(func(tx *gorm.DB) (int64, error) {
		res := tx.Omit(clause.Associations).Save(e)
		return res.RowsAffected, res.Error
	})
}

// Delete 物理删除；软删请用实体的 SoftDelete + Update
func (r *Repository[T]) Delete(e *T) {
	r.uow.stage(func(tx *gorm.DB) (int64, error) {
		res := tx.Delete(e)
		return res.RowsAffected, res.Error
	})
}

func (r *Repository[T]) DeleteRange(es []*T) {
	for _, e := range es {
		r.Delete(e)
	}
}

// ReplaceAssociation 替换多对多关联（商品徽章、用户角色）
func (r *Repository[T]) ReplaceAssociation(e *T, name string, values any) {
	r.uow.stage(func(tx *gorm.DB) (int64, error) {
		return 0, tx.Model(e).Association(name).Replace(values)
	})
}
