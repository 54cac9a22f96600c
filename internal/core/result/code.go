package result

import "net/http"

// ErrorCode 失败分类（扁平枚举，序列化为稳定字符串）
type ErrorCode string

const (
	CodeNone               ErrorCode = ""
	CodeUnauthorized       ErrorCode = "Unauthorized"
	CodeForbidden          ErrorCode = "Forbidden"
	CodeNotFound           ErrorCode = "NotFound"
	CodeValidationFailed   ErrorCode = "ValidationFailed"
	CodeConflict           ErrorCode = "Conflict"
	CodeDuplicateEntry     ErrorCode = "DuplicateEntry"
	CodeResourceConflict   ErrorCode = "ResourceConflict"
	CodeInvalidOperation   ErrorCode = "InvalidOperation"
	CodeInvalidCredentials ErrorCode = "InvalidCredentials"
	CodeDatabaseError      ErrorCode = "DatabaseError"
	CodeInternalError      ErrorCode = "InternalError"
)

// CodeMsgMap 默认提示语
var CodeMsgMap = map[ErrorCode]string{
	CodeUnauthorized:       "Unauthorized",
	CodeForbidden:          "Forbidden",
	CodeNotFound:           "Not Found",
	CodeValidationFailed:   "Validation failed",
	CodeConflict:           "Conflict",
	CodeDuplicateEntry:     "Duplicate entry",
	CodeResourceConflict:   "Resource conflict",
	CodeInvalidOperation:   "Invalid operation",
	CodeInvalidCredentials: "Invalid credentials",
	CodeDatabaseError:      "Database error",
	CodeInternalError:      "Internal Server Error",
}

var codeStatus = map[ErrorCode]int{
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	CodeNotFound:           http.StatusNotFound,
	CodeValidationFailed:   http.StatusBadRequest,
	CodeConflict:           http.StatusConflict,
	CodeDuplicateEntry:     http.StatusConflict,
	CodeResourceConflict:   http.StatusConflict,
	CodeInvalidOperation:   http.StatusUnprocessableEntity,
	CodeInvalidCredentials: http.StatusUnauthorized,
	CodeDatabaseError:      http.StatusInternalServerError,
	CodeInternalError:      http.StatusInternalServerError,
}

// HTTPStatus 错误码对应的 HTTP 状态码
func (c ErrorCode) HTTPStatus() int {
	if c == CodeNone {
		return http.StatusOK
	}
	if s, ok := codeStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func (c ErrorCode) defaultMsg() string {
	if m, ok := CodeMsgMap[c]; ok {
		return m
	}
	return string(c)
}
