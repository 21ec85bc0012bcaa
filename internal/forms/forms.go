// Package forms описывает HTML-формы сайта: привязку полей через gin binding,
// проверку validator/v10 и сообщения об ошибках для шаблонов.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/ignatzorin/skills-directory/internal/pkg/apperror"
	"github.com/ignatzorin/skills-directory/internal/validation"
)

// NonFieldErrors: ключ для ошибок, не относящихся к конкретному полю.
const NonFieldErrors = "__all__"

// Errors хранит сообщения об ошибках по именам полей формы.
type Errors map[string][]string

// Add добавляет сообщение к полю.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Get возвращает сообщения поля.
func (e Errors) Get(field string) []string {
	return e[field]
}

// NonField возвращает ошибки формы целиком.
func (e Errors) NonField() []string {
	return e[NonFieldErrors]
}

// Any сообщает, есть ли хотя бы одна ошибка.
func (e Errors) Any() bool {
	return len(e) > 0
}

// AddError переносит ошибку сервиса в форму. Ошибки с полем попадают к полю,
// остальные прикладные ошибки становятся ошибками формы. Возвращает false,
// если ошибка не прикладная и её нужно обрабатывать выше.
func (e Errors) AddError(err error) bool {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code == apperror.ErrCodeInternal || appErr.Code == apperror.ErrCodeDatabaseError {
		return false
	}
	field := appErr.Field
	if field == "" {
		field = NonFieldErrors
	}
	e.Add(field, appErr.Message)
	return true
}

// checker выполняет проверки, которые нельзя выразить тегами.
type checker interface {
	Check(errs Errors)
}

// normalizer приводит значения формы к каноничному виду после привязки.
type normalizer interface {
	Normalize()
}

var registerOnce sync.Once

// Bind заполняет form из запроса и возвращает ошибки проверки.
// Пустой результат означает, что форма валидна.
func Bind(c *gin.Context, form any) Errors {
	registerOnce.Do(registerValidators)

	errs := Errors{}
	if err := c.ShouldBindWith(form, binding.Form); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			errs.Add(NonFieldErrors, "The submitted form could not be read.")
			return errs
		}
		for _, fe := range verrs {
			errs.Add(fieldName(fe), message(fe))
		}
	}

	if n, ok := form.(normalizer); ok {
		n.Normalize()
	}
	if ch, ok := form.(checker); ok {
		ch.Check(errs)
	}

	return errs
}

func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		return name
	})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return validation.ValidateUsername(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return validation.ValidatePhone(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("website", func(fl validator.FieldLevel) bool {
		return validation.ValidateWebsite(fl.Field().String()) == nil
	})
}

// fieldName отбрасывает индекс элемента среза: categories[2] -> categories.
func fieldName(fe validator.FieldError) string {
	name, _, _ := strings.Cut(fe.Field(), "[")
	return name
}

func message(fe validator.FieldError) string {
	value, _ := fe.Value().(string)

	switch fe.Tag() {
	case "required", "notblank":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).", fe.Param(), utf8.RuneCountInString(value))
	case "email":
		return "Enter a valid email address."
	case "eqfield":
		return "The two password fields didn't match."
	case "uuid":
		return "Select a valid choice. That choice is not one of the available choices."
	case "username":
		return errorText(validation.ValidateUsername(value))
	case "phone":
		return errorText(validation.ValidatePhone(value))
	case "website":
		return errorText(validation.ValidateWebsite(value))
	}
	return "Enter a valid value."
}

func errorText(err error) string {
	if err == nil {
		return "Enter a valid value."
	}
	return err.Error()
}
