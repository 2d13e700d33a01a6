package photo

import (
	"errors"
	"fmt"

	"github.com/anoixa/photo-bed/internal/auth"
	"github.com/anoixa/photo-bed/internal/media"
	"github.com/anoixa/photo-bed/utils"
)

// Kind 错误类别，API 层据此映射状态码
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
	KindConflict        Kind = "conflict"
	KindValidation      Kind = "validation"
	KindExternalService Kind = "external_service"
	KindInternal        Kind = "internal"
)

// Error 服务层的类型化错误
type Error struct {
	Kind    Kind
	Message string
	// Retryable 外部服务超时等可重试的失败
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func notFound(message string) *Error {
	return newError(KindNotFound, message, nil)
}

func forbidden() *Error {
	return newError(KindForbidden, "you are not allowed to modify this photo", auth.ErrForbidden)
}

func validation(message string, err error) *Error {
	return newError(KindValidation, message, err)
}

func internal(message string, err error) *Error {
	return newError(KindInternal, message, err)
}

// external 外部服务失败，超时标记为可重试；参数错误归为校验失败
func external(message string, err error) *Error {
	if errors.Is(err, media.ErrInvalidParams) || errors.Is(err, media.ErrEmptyPayload) {
		return validation(message, err)
	}
	e := newError(KindExternalService, message, err)
	e.Retryable = utils.IsTimeout(err)
	return e
}

// asError 保留已有的类型化错误，其余归为 fallback 类别
func asError(err error, fallback Kind, message string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return newError(fallback, message, err)
}

// IsKind 判断错误类别
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// KindOf 返回错误类别，非类型化错误视为 KindInternal，nil 返回空
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
