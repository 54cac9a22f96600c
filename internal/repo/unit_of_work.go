package repo

import (
	"context"
	"reflect"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Factory 每个请求/处理器调用 New 拿一个独立的 UnitOfWork
type Factory struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewFactory(db *gorm.DB, log *zap.Logger) *Factory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Factory{db: db, log: log}
}

func (f *Factory) New() *UnitOfWork {
	return &UnitOfWork{db: f.db, log: f.log, repos: map[reflect.Type]any{}}
}

func (f *Factory) DB() *gorm.DB { return f.db }

type op func(tx *gorm.DB) (int64, error)

// UnitOfWork 聚合多个仓储，统一提交。只属于创建它的处理器，非并发安全。
type UnitOfWork struct {
	db      *gorm.DB
	tx      *gorm.DB
	log     *zap.Logger
	repos   map[reflect.Type]any
	pending []op
}

// Of 按实体类型惰性创建并缓存仓储
func Of[T any](u *UnitOfWork) *Repository[T] {
	key := reflect.TypeOf((*T)(nil)).Elem()
	if r, ok := u.repos[key]; ok {
		return r.(*Repository[T])
	}
	r := &Repository[T]{uow: u}
	u.repos[key] = r
	return r
}

func (u *UnitOfWork) conn(ctx context.Context) *gorm.DB {
	if u.tx != nil {
		return u.tx.WithContext(ctx)
	}
	return u.db.WithContext(ctx)
}

func (u *UnitOfWork) stage(o op) { u.pending = append(u.pending, o) }

// Pending 尚未落库的变更数
func (u *UnitOfWork) Pending() int { return len(u.pending) }

func (u *UnitOfWork) InTx() bool { return u.tx != nil }

// SaveChanges 原子地应用所有登记的变更，返回影响行数。无论成败都清空登记。
func (u *UnitOfWork) SaveChanges(ctx context.Context) (int64, error) {
	ops := u.pending
	u.pending = nil
	if len(ops) == 0 {
		return 0, nil
	}
	var total int64
	apply := func(tx *gorm.DB) error {
		for _, o := range ops {
			n, err := o(tx)
			if err != nil {
				return wrapDB(err)
			}
			total += n
		}
		return nil
	}
	var err error
	if u.tx != nil {
		err = apply(u.tx.WithContext(ctx))
	} else {
		err = u.db.WithContext(ctx).Transaction(apply)
	}
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Begin 显式开启事务；不支持嵌套
func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return ErrTxInProgress
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return wrapDB(tx.Error)
	}
	u.tx = tx
	return nil
}

// Commit 先冲刷登记的变更再提交。冲刷失败时事务保持打开，由调用方 Rollback。
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return ErrNoTx
	}
	if _, err := u.SaveChanges(ctx); err != nil {
		return err
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return wrapDB(err)
}

// Rollback 回滚并丢弃未落库的登记
func (u *UnitOfWork) Rollback() error {
	if u.tx == nil {
		return ErrNoTx
	}
	u.pending = nil
	err := u.tx.Rollback().Error
	u.tx = nil
	return wrapDB(err)
}

func (u *UnitOfWork) rollbackQuietly() {
	if u.tx == nil {
		return
	}
	if err := u.Rollback(); err != nil {
		u.log.Error("rollback failed", zap.Error(err))
	}
}

// InTransaction 作用域事务：fn 成功则提交；返回错误、提前返回或 panic 都会回滚（panic 回滚后继续抛出）
func (u *UnitOfWork) InTransaction(ctx context.Context, fn func() error) error {
	if err := u.Begin(ctx); err != nil {
		return err
	}
	done := false
	defer func() {
		if done {
			return
		}
		if rec := recover(); rec != nil {
			u.rollbackQuietly()
			panic(rec)
		}
		u.rollbackQuietly()
	}()
	if err := fn(); err != nil {
		return err
	}
	if err := u.Commit(ctx); err != nil {
		return err
	}
	done = true
	return nil
}
