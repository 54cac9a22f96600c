package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"anime-shop/internal/core/result"
)

var (
	ErrInvalidPage  = result.Errorf(result.CodeValidationFailed, "page number and page size must be positive")
	ErrTxInProgress = result.Errorf(result.CodeInternalError, "transaction already in progress")
	ErrNoTx         = result.Errorf(result.CodeInternalError, "no transaction in progress")
)

// wrapDB 把 gorm/驱动错误归类为 DuplicateEntry 或 DatabaseError
func wrapDB(err error) error {
	if err == nil {
		return nil
	}
	var re *result.Error
	if errors.As(err, &re) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || IsDuplicateKey(err) {
		return result.Wrap(result.CodeDuplicateEntry, "duplicate entry", err)
	}
	return result.Wrap(result.CodeDatabaseError, "database error", err)
}

// IsDuplicateKey 不依赖 gorm.ErrDuplicatedKey（需开启 TranslateError），按驱动报错文本判断
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
