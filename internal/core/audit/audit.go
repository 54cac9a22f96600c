// Package audit 用户操作审计。事务内的审计直接走仓储；这里是事后补记的异步通道。
package audit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"anime-shop/internal/domain"
	"anime-shop/internal/repo"
)

type Entry struct {
	ActorID    string    `json:"actorId"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	Detail     string    `json:"detail,omitempty"`
	At         time.Time `json:"at"`
}

// Sink 非阻塞记录；调用方不关心落库结果
type Sink interface {
	Record(ctx context.Context, e Entry) error
}

// Store 真正的落库
type Store interface {
	Save(ctx context.Context, e Entry) error
}

var entriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "audit_entries_total", Help: "Audit entries by outcome"},
	[]string{"outcome"},
)

func init() { prometheus.MustRegister(entriesTotal) }

// NewAction 构造待写入的 UserAction（事务内审计也用它）
func NewAction(e Entry) *domain.UserAction {
	a := &domain.UserAction{
		ActorID:    e.ActorID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Detail:     e.Detail,
	}
	at := e.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	a.Initialize(e.ActorID, at)
	return a
}

type GormStore struct{ f *repo.Factory }

func NewGormStore(f *repo.Factory) *GormStore { return &GormStore{f: f} }

func (s *GormStore) Save(ctx context.Context, e Entry) error {
	uow := s.f.New()
	repo.Of[domain.UserAction](uow).Add(NewAction(e))
	_, err := uow.SaveChanges(ctx)
	return err
}
