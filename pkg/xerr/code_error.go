package xerr

import (
	"errors"
	"fmt"
)

// CodeError 自定义错误结构
type CodeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// Error 实现 error 接口
func (e *CodeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("Code: %d, Reason: %s, Message: %s", e.Code, e.Reason, e.Message)
	}
	return fmt.Sprintf("Code: %d, Message: %s", e.Code, e.Message)
}

// New 创建新的 CodeError
func New(code int, msg string) *CodeError {
	return &CodeError{Code: code, Message: msg}
}

// NewWithReason 创建带结构化原因码的 CodeError
func NewWithReason(code int, reason string, msg string) *CodeError {
	return &CodeError{Code: code, Reason: reason, Message: msg}
}

// 常用通用错误码
const (
	OK                  = 200
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
)

// 结构化原因码
const (
	ReasonMissingField       = "missing_field"
	ReasonInvalidField       = "invalid_field"
	ReasonInvalidTimeRange   = "invalid_time_range"
	ReasonInvalidRecurrence  = "invalid_recurrence"
	ReasonInvalidRef         = "invalid_ref"
	ReasonInvalidReference   = "invalid_reference"
	ReasonForbidden          = "forbidden"
	ReasonNotFound           = "not_found"
	ReasonConflict           = "conflict"
	ReasonOccurrenceNotFound = "occurrence_not_found"
)

// 常用预定义错误
var (
	ErrSuccess     = New(OK, "Success")
	ErrServerError = New(InternalServerError, "系统错误，请联系工作人员")
	ErrParam       = New(BadRequest, "参数错误")
	ErrNotFound    = NewWithReason(NotFound, ReasonNotFound, "记录不存在")
	ErrForbidden   = NewWithReason(Forbidden, ReasonForbidden, "无权操作")
	ErrConflict    = NewWithReason(Conflict, ReasonConflict, "数据冲突")
)

// Validation 构造参数校验错误
func Validation(reason string, msg string) *CodeError {
	return NewWithReason(BadRequest, reason, msg)
}

// CodeOf 返回 err 的错误码，非 CodeError 视为系统错误
func CodeOf(err error) int {
	if err == nil {
		return OK
	}
	var e *CodeError
	if errors.As(err, &e) {
		return e.Code
	}
	return InternalServerError
}
