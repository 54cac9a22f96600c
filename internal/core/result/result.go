package result

// Result 统一返回信封。IsSuccess=false 时 ErrorCode 必定非空。
type Result[T any] struct {
	IsSuccess bool      `json:"isSuccess"`
	Data      T         `json:"data"`
	Message   string    `json:"message"`
	ErrorCode ErrorCode `json:"errorCode,omitempty"`
	Details   any       `json:"details,omitempty"`
}

// Page 分页载荷
type Page[T any] struct {
	Items      []T   `json:"items"`
	PageNumber int   `json:"pageNumber"`
	PageSize   int   `json:"pageSize"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
}

type PaginationResult[T any] = Result[Page[T]]

// Empty 无载荷命令的数据类型
type Empty struct{}

func Success[T any](data T, msg string) Result[T] {
	return Result[T]{IsSuccess: true, Data: data, Message: msg}
}

func Failure[T any](code ErrorCode, msg string, details ...any) Result[T] {
	if code == CodeNone {
		code = CodeInternalError
	}
	if msg == "" {
		msg = code.defaultMsg()
	}
	r := Result[T]{IsSuccess: false, Message: msg, ErrorCode: code}
	if len(details) > 0 {
		r.Details = details[0]
	}
	return r
}

func Paged[T any](items []T, pageNumber, pageSize int, total int64, msg string) PaginationResult[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if pageSize > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return Success(Page[T]{
		Items:      items,
		PageNumber: pageNumber,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: pages,
	}, msg)
}

// FromError 把任意错误转换成失败结果（保持 Error 上的分类）
func FromError[T any](err error) Result[T] {
	return Failure[T](CodeOf(err), messageOf(err))
}

func NotFound[T any](msg string) Result[T]     { return Failure[T](CodeNotFound, msg) }
func Unauthorized[T any](msg string) Result[T] { return Failure[T](CodeUnauthorized, msg) }
func Forbidden[T any](msg string) Result[T]    { return Failure[T](CodeForbidden, msg) }
func Conflict[T any](msg string) Result[T]     { return Failure[T](CodeConflict, msg) }
func Duplicate[T any](msg string) Result[T]    { return Failure[T](CodeDuplicateEntry, msg) }
func Invalid[T any](msg string) Result[T]      { return Failure[T](CodeInvalidOperation, msg) }
func Internal[T any](msg string) Result[T]     { return Failure[T](CodeInternalError, msg) }

func Validation[T any](msg string, details any) Result[T] {
	return Failure[T](CodeValidationFailed, msg, details)
}
