package response

import (
	"net/http"

	"anime-shop/internal/core/result"
)

// 传输层自己的失败码（限流、超时等，不会出现在业务结果里）
const (
	CodeTooManyRequests result.ErrorCode = "TooManyRequests"
	CodeServerBusy      result.ErrorCode = "ServerBusy"
	CodeTimeout         result.ErrorCode = "Timeout"
	CodeBodyTooLarge    result.ErrorCode = "PayloadTooLarge"
	CodeBadRequest      result.ErrorCode = "BadRequest"
	CodeRouteNotFound   result.ErrorCode = "RouteNotFound"
)

var transportStatus = map[result.ErrorCode]int{
	CodeTooManyRequests: http.StatusTooManyRequests,
	CodeServerBusy:      http.StatusServiceUnavailable,
	CodeTimeout:         http.StatusGatewayTimeout,
	CodeBodyTooLarge:    http.StatusRequestEntityTooLarge,
	CodeBadRequest:      http.StatusBadRequest,
	CodeRouteNotFound:   http.StatusNotFound,
}

// StatusOf 先查传输层码，再按业务码映射
func StatusOf(code result.ErrorCode) int {
	if s, ok := transportStatus[code]; ok {
		return s
	}
	return code.HTTPStatus()
}
