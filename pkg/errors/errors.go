// Package errors 提供统一的错误定义
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess            ErrorCode = "0"
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeTooManyRequests    ErrorCode = "1006"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"

	// 认证授权错误 (2xxx)
	CodeUnauthorized     ErrorCode = "2001"
	CodeForbidden        ErrorCode = "2002"
	CodeTokenExpired     ErrorCode = "2003"
	CodeTokenInvalid     ErrorCode = "2004"
	CodeTokenMissing     ErrorCode = "2005"
	CodePermissionDenied ErrorCode = "2006"

	// 资源错误 (3xxx)
	CodeBookNotFound    ErrorCode = "3001"
	CodeChapterNotFound ErrorCode = "3002"
	CodePageNotFound    ErrorCode = "3003"

	// 业务错误 (4xxx)
	CodeGenerationFailed ErrorCode = "4001"
	CodeRouteInvalid     ErrorCode = "4002"
	CodeQuotaExceeded    ErrorCode = "4003"
	CodeUsageExhausted   ErrorCode = "4004"
	CodePageLimitReached ErrorCode = "4005"
	CodeEmbeddingFailed  ErrorCode = "4006"

	// 外部服务错误 (5xxx)
	CodeLLMUnavailable  ErrorCode = "5001"
	CodeDatabaseError   ErrorCode = "5002"
	CodeCacheError      ErrorCode = "5003"
	CodeLLMStreamFailed ErrorCode = "5004"
	CodeVectorDBError   ErrorCode = "5005"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，使预定义错误可用于 errors.Is
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetail 返回附带详细信息的副本（预定义错误是共享的，不能原地修改）
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithError 返回附带底层错误的副本
func (e *AppError) WithError(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// PublicMessage 面向客户端的消息
func (e *AppError) PublicMessage() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodeRouteInvalid:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeTokenExpired, CodeTokenInvalid, CodeTokenMissing:
		return http.StatusUnauthorized
	case CodeForbidden, CodePermissionDenied:
		return http.StatusForbidden
	case CodeBookNotFound, CodeChapterNotFound, CodePageNotFound:
		return http.StatusNotFound
	case CodeTooManyRequests, CodeQuotaExceeded, CodeUsageExhausted, CodePageLimitReached:
		return http.StatusTooManyRequests
	case CodeLLMUnavailable, CodeLLMStreamFailed, CodeVectorDBError:
		return http.StatusBadGateway
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误
var (
	ErrInvalidParam       = New(CodeInvalidParam, "invalid parameter")
	ErrTooManyRequests    = New(CodeTooManyRequests, "too many requests")
	ErrInternalError      = New(CodeInternalError, "internal server error")
	ErrServiceUnavailable = New(CodeServiceUnavailable, "service unavailable")

	ErrUnauthorized = New(CodeUnauthorized, "unauthorized")
	ErrForbidden    = New(CodeForbidden, "forbidden")
	ErrTokenExpired = New(CodeTokenExpired, "token expired")
	ErrTokenInvalid = New(CodeTokenInvalid, "token invalid")
	ErrTokenMissing = New(CodeTokenMissing, "token missing")

	ErrBookNotFound    = New(CodeBookNotFound, "book not found")
	ErrChapterNotFound = New(CodeChapterNotFound, "chapter not found")

	ErrGenerationFailed = New(CodeGenerationFailed, "generation failed")
	ErrRouteInvalid     = New(CodeRouteInvalid, "invalid route")
	ErrQuotaExceeded    = New(CodeQuotaExceeded, "page quota exceeded")
	ErrUsageExhausted   = New(CodeUsageExhausted, "usage limit reached, try again later")
	ErrPageLimitReached = New(CodePageLimitReached, "chapter page limit reached")
	ErrEmbeddingFailed  = New(CodeEmbeddingFailed, "embedding failed")

	ErrLLMUnavailable  = New(CodeLLMUnavailable, "language model unavailable")
	ErrLLMStreamFailed = New(CodeLLMStreamFailed, "language model stream failed")
	ErrDatabase        = New(CodeDatabaseError, "database error")
)

// IsAppError 检查错误链中是否有 AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}

// HasCode 判断错误链中的 AppError 是否为指定错误码
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}
