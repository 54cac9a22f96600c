package mediator

import (
	"context"
	"errors"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"

	"anime-shop/internal/core/result"
)

type greet struct{ Name string }

func (g greet) Validate() error {
	return validation.ValidateStruct(&g, validation.Field(&g.Name, validation.Required, validation.Length(1, 10)))
}

type boom struct{}

func TestSendDispatchesToHandler(t *testing.T) {
	m := New(nil)
	RegisterFunc(m, func(_ context.Context, req greet) result.Result[string] {
		return result.Success("hi "+req.Name, "")
	})

	res := Send[greet, string](context.Background(), m, greet{Name: "levi"})
	assert.True(t, res.IsSuccess)
	assert.Equal(t, "hi levi", res.Data)
}

func TestSendValidatesBeforeHandler(t *testing.T) {
	m := New(nil)
	called := false
	RegisterFunc(m, func(_ context.Context, _ greet) result.Result[string] {
		called = true
		return result.Success("", "")
	})

	res := Send[greet, string](context.Background(), m, greet{})
	assert.False(t, called)
	assert.False(t, res.IsSuccess)
	assert.Equal(t, result.CodeValidationFailed, res.ErrorCode)
	details, ok := res.Details.(map[string]string)
	if assert.True(t, ok) {
		assert.Contains(t, details, "Name")
	}
}

func TestSendMissingHandler(t *testing.T) {
	res := Send[boom, int](context.Background(), New(nil), boom{})
	assert.Equal(t, result.CodeInternalError, res.ErrorCode)
}

func TestSendResultTypeMismatch(t *testing.T) {
	m := New(nil)
	RegisterFunc(m, func(_ context.Context, _ boom) result.Result[string] { return result.Success("x", "") })
	res := Send[boom, int](context.Background(), m, boom{})
	assert.Equal(t, result.CodeInternalError, res.ErrorCode)
}

func TestSendRecoversPanic(t *testing.T) {
	m := New(nil)
	RegisterFunc(m, func(_ context.Context, _ boom) result.Result[int] { panic("kaboom") })
	res := Send[boom, int](context.Background(), m, boom{})
	assert.False(t, res.IsSuccess)
	assert.Equal(t, result.CodeInternalError, res.ErrorCode)
}

func TestValidationFailureFallbacks(t *testing.T) {
	res := validationFailure[int](errors.New("must be positive"))
	assert.Equal(t, result.CodeValidationFailed, res.ErrorCode)
	assert.Equal(t, "must be positive", res.Message)
}

type ctxTag struct{}

func TestGuardRunsAfterValidationAndCanReject(t *testing.T) {
	m := New(nil)
	var seen any
	RegisterFunc(m, func(ctx context.Context, req greet) result.Result[string] {
		seen = ctx.Value(ctxTag{})
		return result.Success(req.Name, "")
	})
	guarded := 0
	m.Use(func(ctx context.Context) (context.Context, error) {
		guarded++
		return context.WithValue(ctx, ctxTag{}, "tagged"), nil
	})

	res := Send[greet, string](context.Background(), m, greet{Name: "levi"})
	assert.True(t, res.IsSuccess)
	assert.Equal(t, "tagged", seen)

	// 校验失败时不进入 guard
	Send[greet, string](context.Background(), m, greet{})
	assert.Equal(t, 1, guarded)

	m.Use(func(ctx context.Context) (context.Context, error) {
		return ctx, result.Errorf(result.CodeUnauthorized, "gone")
	})
	res = Send[greet, string](context.Background(), m, greet{Name: "levi"})
	assert.Equal(t, result.CodeUnauthorized, res.ErrorCode)
	assert.Equal(t, "gone", res.Message)
}
