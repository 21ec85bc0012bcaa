package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ignatzorin/skills-directory/internal/models"
)

// Константы валидации
const (
	MinUsernameLength = 1
	MaxWebsiteLength  = 200
	MinPhoneDigits    = 7
	MaxPhoneDigits    = 15
)

var (
	usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)
	phoneRegex    = regexp.MustCompile(`^\+?[0-9 ().-]+$`)
)

// ValidateLength проверяет длину строки в символах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("Ensure %s has at least %d characters.", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("Ensure %s has at most %d characters.", fieldName, max)
	}
	return nil
}

// ValidateUsername проверяет имя пользователя: буквы, цифры и @/./+/-/_.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("Username is required.")
	}

	if err := ValidateLength("username", username, MinUsernameLength, models.UsernameMaxLength); err != nil {
		return err
	}

	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}

	return nil
}

// ValidatePhone проверяет номер телефона. Пустой номер допустим.
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil
	}

	if err := ValidateLength("phone number", phone, 0, models.PhoneNumberMaxLength); err != nil {
		return err
	}

	if !phoneRegex.MatchString(phone) {
		return fmt.Errorf("Enter a valid phone number.")
	}

	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < MinPhoneDigits || digits > MaxPhoneDigits {
		return fmt.Errorf("Enter a valid phone number.")
	}

	return nil
}

// ValidateWebsite проверяет адрес сайта. Пустой адрес допустим.
func ValidateWebsite(link string) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil
	}

	if err := ValidateLength("website", link, 0, MaxWebsiteLength); err != nil {
		return err
	}

	parsedURL, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("Enter a valid URL.")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("Enter a valid URL starting with http:// or https://.")
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("Enter a valid URL.")
	}

	return nil
}
