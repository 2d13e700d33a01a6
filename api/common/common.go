package common

import (
	"errors"
	"net/http"

	"github.com/anoixa/photo-bed/internal/auth"
	"github.com/anoixa/photo-bed/internal/services/photo"
	"github.com/anoixa/photo-bed/utils"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// 稳定的错误码
const (
	CodeNotFound        = "ERR_NOT_FOUND"
	CodeForbidden       = "ERR_FORBIDDEN"
	CodeConflict        = "ERR_CONFLICT"
	CodeValidation      = "ERR_VALIDATION"
	CodeExternalService = "ERR_EXTERNAL_SERVICE"
	CodeInternal        = "ERR_INTERNAL"
	CodeUnauthorized    = "ERR_UNAUTHORIZED"
	CodeRateLimited     = "ERR_RATE_LIMITED"
	CodeBusy            = "ERR_BUSY"
)

type Response struct {
	Status    string      `json:"status"`
	Code      string      `json:"code,omitempty"`
	Msg       string      `json:"msg"`
	Retryable bool        `json:"retryable,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

func Respond(c *gin.Context, httpStatus int, status string, message string, data interface{}) {
	c.JSON(httpStatus, Response{
		Status: status,
		Msg:    message,
		Data:   data,
	})
}

// RespondSuccess sends a success response with data.
func RespondSuccess(c *gin.Context, data interface{}) {
	Respond(c, http.StatusOK, "success", "", data)
}

// RespondSuccessMessage sends a success response with message and data.
func RespondSuccessMessage(c *gin.Context, message string, data interface{}) {
	Respond(c, http.StatusOK, "success", message, data)
}

// RespondCreated sends a 201 response with data.
func RespondCreated(c *gin.Context, data interface{}) {
	Respond(c, http.StatusCreated, "success", "", data)
}

// RespondError sends an error response with message.
func RespondError(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, Response{
		Status: "error",
		Code:   codeForStatus(httpStatus),
		Msg:    message,
	})
}

// RespondErrorAbort sends an error response and aborts the chain.
func RespondErrorAbort(c *gin.Context, httpStatus int, message string) {
	RespondError(c, httpStatus, message)
	c.Abort()
}

// kindStatus 错误类别到状态码与错误码
var kindStatus = map[photo.Kind]struct {
	status int
	code   string
}{
	photo.KindNotFound:        {http.StatusNotFound, CodeNotFound},
	photo.KindForbidden:       {http.StatusForbidden, CodeForbidden},
	photo.KindConflict:        {http.StatusConflict, CodeConflict},
	photo.KindValidation:      {http.StatusBadRequest, CodeValidation},
	photo.KindExternalService: {http.StatusBadGateway, CodeExternalService},
	photo.KindInternal:        {http.StatusInternalServerError, CodeInternal},
}

// StatusForError 返回服务错误对应的状态码与错误码
func StatusForError(err error) (int, string) {
	if errors.Is(err, auth.ErrForbidden) {
		return http.StatusForbidden, CodeForbidden
	}
	if m, ok := kindStatus[photo.KindOf(err)]; ok {
		return m.status, m.code
	}
	return http.StatusInternalServerError, CodeInternal
}

// RespondServiceError 按错误类别响应，内部错误不向客户端暴露细节
func RespondServiceError(c *gin.Context, err error) {
	status, code := StatusForError(err)

	var e *photo.Error
	msg := err.Error()
	retryable := false
	if errors.As(err, &e) {
		msg = e.Message
		retryable = e.Retryable
	}
	if status >= http.StatusInternalServerError && !utils.IsContextCanceled(err) {
		log.WithFields(log.Fields{
			"path":   c.FullPath(),
			"status": status,
		}).WithError(err).Error("Request failed")
		if status == http.StatusInternalServerError {
			msg = "internal server error"
		}
	}

	c.JSON(status, Response{
		Status:    "error",
		Code:      code,
		Msg:       msg,
		Retryable: retryable,
	})
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusTooManyRequests:
		return CodeRateLimited
	case http.StatusServiceUnavailable:
		return CodeBusy
	case http.StatusBadGateway:
		return CodeExternalService
	}
	if status >= http.StatusInternalServerError {
		return CodeInternal
	}
	return ""
}
