package result

import (
	"context"
	"errors"
)

// Error 可分类的错误，下层（repo / 集成）用它把失败映射到 ErrorCode
type Error struct {
	Code ErrorCode
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		if e.Err != nil {
			return e.Msg + ": " + e.Err.Error()
		}
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code.defaultMsg()
}

func (e *Error) Unwrap() error { return e.Err }

func Errorf(code ErrorCode, msg string) error { return &Error{Code: code, Msg: msg} }

func Wrap(code ErrorCode, msg string, err error) error { return &Error{Code: code, Msg: msg, Err: err} }

// CodeOf 取错误的分类；未分类的一律 InternalError
func CodeOf(err error) ErrorCode {
	if err == nil {
		return CodeNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternalError
}

// messageOf 给调用方看的提示语：不暴露底层 Err 细节
func messageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Msg != "" {
			return e.Msg
		}
		return e.Code.defaultMsg()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "request cancelled"
	}
	return CodeMsgMap[CodeInternalError]
}
