package validation

import (
	"fmt"
	"unicode"
)

// MinPasswordLength: минимальная длина пароля.
const MinPasswordLength = 8

// ValidatePassword проверяет пароль на соответствие требованиям безопасности.
// Требования:
// - Минимум 8 символов
// - Должен содержать заглавные буквы
// - Должен содержать строчные буквы
// - Должен содержать цифры
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("This password is too short. It must contain at least %d characters.", MinPasswordLength)
	}

	var (
		hasUpper  = false
		hasLower  = false
		hasNumber = false
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("The password must contain at least one uppercase letter.")
	}
	if !hasLower {
		return fmt.Errorf("The password must contain at least one lowercase letter.")
	}
	if !hasNumber {
		return fmt.Errorf("The password must contain at least one digit.")
	}

	return nil
}
