package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code 表示系统内的统一错误码。
type Code string

// Attributes 为错误码提供默认的对外信息。
type Attributes struct {
	Message string
	Status  int
}

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeInvalidArgument  Code = "INVALID_ARGUMENT"
	CodeNotFound         Code = "NOT_FOUND"
	CodeInvalidTokenID   Code = "INVALID_TOKEN_ID"
	CodeMethodNotAllowed Code = "METHOD_NOT_ALLOWED"
	CodeConfiguration    Code = "CONFIGURATION"
)

var (
	registry = map[Code]Attributes{
		CodeUnknown: {
			Message: "Internal server error",
			Status:  http.StatusInternalServerError,
		},
		CodeInvalidArgument: {
			Message: "Invalid argument",
			Status:  http.StatusBadRequest,
		},
		CodeNotFound: {
			Message: "Not found",
			Status:  http.StatusNotFound,
		},
		// 与已上线的索引器保持一致，文案不可改动。
		CodeInvalidTokenID: {
			Message: "Invalid token ID",
			Status:  http.StatusNotFound,
		},
		CodeMethodNotAllowed: {
			Message: "Method not allowed",
			Status:  http.StatusMethodNotAllowed,
		},
		CodeConfiguration: {
			Message: "Invalid configuration",
			Status:  http.StatusInternalServerError,
		},
	}
)

// AttributesOf 返回错误码对应的属性。若未注册则返回 UNKNOWN 的属性。
func AttributesOf(code Code) Attributes {
	if attr, ok := registry[code]; ok {
		return attr
	}
	return registry[CodeUnknown]
}

// Error 是系统内统一的错误类型。
type Error struct {
	code     Code
	message  string
	cause    error
	metadata map[string]string
}

// Option 定义可选配置。
type Option func(*Error)

// WithMetadata 附加额外信息，仅用于日志，不会返回给调用方。
func WithMetadata(key, value string) Option {
	return func(e *Error) {
		if e.metadata == nil {
			e.metadata = make(map[string]string)
		}
		e.metadata[key] = value
	}
}

// New 创建一个新的错误实例。message 为空时使用错误码的默认文案。
func New(code Code, message string, opts ...Option) *Error {
	if message == "" {
		message = AttributesOf(code).Message
	}
	e := &Error{code: code, message: message}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Wrap 在已有错误外包裹统一错误类型。
func Wrap(code Code, cause error, message string, opts ...Option) *Error {
	e := New(code, message, opts...)
	e.cause = cause
	return e
}

// Error 实现 error 接口。
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

// Unwrap 实现 errors.Unwrap。
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is 允许通过 errors.Is 判断是否相同错误码。
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.code == t.code
}

// Code 返回错误码。
func (e *Error) Code() Code {
	if e == nil {
		return CodeUnknown
	}
	return e.code
}

// Message 返回可以直接展示给调用方的错误信息。
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Metadata 返回附加信息。
func (e *Error) Metadata() map[string]string {
	if e == nil || len(e.metadata) == 0 {
		return nil
	}
	clone := make(map[string]string, len(e.metadata))
	for k, v := range e.metadata {
		clone[k] = v
	}
	return clone
}

// Status 返回错误码对应的 HTTP 状态码。
func (e *Error) Status() int {
	return AttributesOf(e.Code()).Status
}

// From 尝试从 error 中解析统一错误类型。
func From(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var target *Error
	if stdErrors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// CodeOf 返回错误对应的错误码。
func CodeOf(err error) Code {
	if e, ok := From(err); ok {
		return e.Code()
	}
	return CodeUnknown
}

// HTTPStatus 将任意 error 映射为 HTTP 状态码，未知错误统一返回 500。
func HTTPStatus(err error) int {
	if e, ok := From(err); ok {
		return e.Status()
	}
	return AttributesOf(CodeUnknown).Status
}

// PublicMessage 返回可以写入响应体的文案，避免把内部错误细节暴露出去。
func PublicMessage(err error) string {
	if e, ok := From(err); ok {
		return e.Message()
	}
	return AttributesOf(CodeUnknown).Message
}
