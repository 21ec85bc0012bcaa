package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeRateLimited   ErrorCode = "RATE_LIMITED"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
)

// AppError: ошибка приложения с кодом и HTTP статусом.
// Field указывает поле формы, к которому относится ошибка валидации.
type AppError struct {
	Code       ErrorCode
	Message    string
	Field      string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду, сообщению и полю, чтобы errors.Is работал с копиями.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message && e.Field == t.Field
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// FieldError создаёт ошибку валидации конкретного поля формы.
func FieldError(field, message string) *AppError {
	e := New(ErrCodeValidation, message)
	e.Field = field
	return e
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// HTTPStatus возвращает статус для любой ошибки, 500 для неизвестных.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// PublicMessage возвращает сообщение, которое можно показать пользователю.
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != ErrCodeInternal && appErr.Code != ErrCodeDatabaseError {
		return appErr.Message
	}
	return "Something went wrong. Please try again later."
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeForbidden
}

var (
	ErrCategoryNotFound   = New(ErrCodeNotFound, "Category not found.")
	ErrProfileNotFound    = New(ErrCodeNotFound, "Profile not found.")
	ErrSkillNotFound      = New(ErrCodeNotFound, "Skill not found.")
	ErrUnauthorized       = New(ErrCodeUnauthorized, "Please log in to continue.")
	ErrForbidden          = New(ErrCodeForbidden, "You do not have permission to do that.")
	ErrTooManyRequests    = New(ErrCodeRateLimited, "Too many requests. Please try again later.")
	ErrInvalidCredentials = New(ErrCodeUnauthorized, "Please enter a correct username and password. Note that both fields may be case-sensitive.")
	ErrInactiveAccount    = New(ErrCodeUnauthorized, "This account is inactive.")
	ErrUsernameTaken      = FieldError("username", "The requested username is already taken")
	ErrWrongOldPassword   = FieldError("old_password", "Your old password was entered incorrectly. Please enter it again.")
)
