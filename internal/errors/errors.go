package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/weiwangfds/vidshare/internal/i18n"
)

// ErrorCode identifies an application error.
type ErrorCode int

const (
	// general (1000-1999)
	ErrSuccess         ErrorCode = 0
	ErrInternalServer  ErrorCode = 1000
	ErrInvalidParams   ErrorCode = 1001
	ErrUnauthorized    ErrorCode = 1002
	ErrForbidden       ErrorCode = 1003
	ErrNotFound        ErrorCode = 1004
	ErrPayloadTooLarge ErrorCode = 1005

	// videos (2000-2999)
	ErrVideoNotFound     ErrorCode = 2000
	ErrVideoFileMissing  ErrorCode = 2001
	ErrVideoUploadFailed ErrorCode = 2002
	ErrVideoSaveFailed   ErrorCode = 2003
	ErrVideoListFailed   ErrorCode = 2004
	ErrVideoUpdateFailed ErrorCode = 2005
	ErrVideoDeleteFailed ErrorCode = 2006

	// object storage (3000-3999)
	ErrStorageDeleteFailed ErrorCode = 3000
)

// AppError is the error type handlers translate into responses.
type AppError struct {
	Code          ErrorCode `json:"code"`
	Message       string    `json:"message"`
	Details       string    `json:"details,omitempty"`
	OriginalError error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap exposes the original error to errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.OriginalError
}

// WithDetails sets Details and returns e.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// HTTPStatus is the status code a handler should answer with.
func (e *AppError) HTTPStatus() int {
	return HTTPStatus(e.Code)
}

// New creates an error whose message is looked up in the default language.
func New(code ErrorCode) *AppError {
	return &AppError{
		Code:    code,
		Message: GetErrorMessage(code),
	}
}

// Wrap creates an error for code carrying err as the cause.
func Wrap(code ErrorCode, err error) *AppError {
	appErr := New(code)
	appErr.OriginalError = err
	if err != nil {
		appErr.Details = err.Error()
	}
	return appErr
}

// IsAppError reports whether err is, or wraps, an *AppError.
func IsAppError(err error) bool {
	_, ok := GetAppError(err)
	return ok
}

// GetAppError extracts the first *AppError in err's chain.
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := GetAppError(err)
	return ok && appErr.Code == code
}

// HTTPStatus maps an error code to an HTTP status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrSuccess:
		return http.StatusOK
	case ErrInvalidParams, ErrVideoFileMissing:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrNotFound, ErrVideoNotFound:
		return http.StatusNotFound
	case ErrPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

var errorCodeToKeyMap = map[ErrorCode]string{
	ErrSuccess:         "success",
	ErrInternalServer:  "internal_server_error",
	ErrInvalidParams:   "invalid_params",
	ErrUnauthorized:    "unauthorized",
	ErrForbidden:       "forbidden",
	ErrNotFound:        "not_found",
	ErrPayloadTooLarge: "payload_too_large",

	ErrVideoNotFound:     "video_not_found",
	ErrVideoFileMissing:  "video_file_missing",
	ErrVideoUploadFailed: "video_upload_failed",
	ErrVideoSaveFailed:   "video_save_failed",
	ErrVideoListFailed:   "video_list_failed",
	ErrVideoUpdateFailed: "video_update_failed",
	ErrVideoDeleteFailed: "video_delete_failed",

	ErrStorageDeleteFailed: "storage_delete_failed",
}

// GetErrorMessage returns the message for code in the default language.
func GetErrorMessage(code ErrorCode) string {
	return GetErrorMessageWithLang(code, i18n.GetInstance().GetDefaultLanguage())
}

// GetErrorMessageWithLang returns the message for code in lang.
func GetErrorMessageWithLang(code ErrorCode, lang string) string {
	key, exists := errorCodeToKeyMap[code]
	if !exists {
		key = "unknown_error"
	}
	return i18n.GetInstance().Translate(key, lang)
}
