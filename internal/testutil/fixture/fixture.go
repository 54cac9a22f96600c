// Package fixture 业务 handler 测试用的依赖装配
package fixture

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"anime-shop/internal/core/audit"
	"anime-shop/internal/core/auth"
	"anime-shop/internal/feature"
	"anime-shop/internal/integration/notify"
	"anime-shop/internal/integration/payment"
	"anime-shop/internal/integration/shipping"
	"anime-shop/internal/integration/storage"
	"anime-shop/internal/repo"
	"anime-shop/internal/testutil"
)

// Now 测试统一使用的时钟
var Now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type AuditRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *AuditRecorder) Record(_ context.Context, e audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *AuditRecorder) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

// NewDeps 内存 SQLite + 内存存储 + 平价运费；后台任务同步执行
func NewDeps(t testing.TB) (*feature.Deps, *AuditRecorder) {
	t.Helper()
	rec := &AuditRecorder{}
	return &feature.Deps{
		UoW:      repo.NewFactory(testutil.NewDB(t), nil),
		Storage:  storage.NewMemory("http://cdn.test"),
		Payments: payment.NewRegistry(payment.NewVnPay(payment.VnPayConfig{TmnCode: "TEST", HashSecret: "secret", PayURL: "https://pay.test/vpcpay.html"})),
		Shipping: shipping.NewRegistry(&shipping.Flat{BaseFee: decimal.NewFromInt(30000), PerKg: decimal.NewFromInt(5000)}),
		Notify:   notify.NewRegistry(notify.NewPush(nil)),
		Audit:    rec,
		JWT:      &auth.JWTer{Secret: []byte("test-secret"), Issuer: "anime-shop", TTL: time.Hour},
		Clock:    func() time.Time { return Now },
	}, rec
}

func AsUser(ctx context.Context, uid string, roles ...string) context.Context {
	return auth.WithClaims(ctx, &auth.Claims{UID: uid, Roles: roles})
}
