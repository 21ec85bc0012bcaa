package models

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User описывает учётную запись пользователя сайта.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	PasswordHash string     `db:"password_hash" json:"-"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName возвращает имя и фамилию через пробел.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// URL возвращает адрес публичного профиля.
func (u User) URL() string {
	return ProfileURL(u.Username)
}

// ProfileURL строит адрес профиля по имени пользователя.
func ProfileURL(username string) string {
	return "/Profiles/" + url.PathEscape(username)
}

// Provider расширяет пользователя данными исполнителя услуг.
type Provider struct {
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	Username     string    `db:"username" json:"username"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	CompanyName  *string   `db:"company_name" json:"company_name,omitempty"`
	PhoneNumber  *string   `db:"phone_number" json:"phone_number,omitempty"`
	EmailAddress *string   `db:"email_address" json:"email_address,omitempty"`
	Picture      *string   `db:"picture" json:"picture,omitempty"`
	AboutMe      string    `db:"about_me" json:"about_me"`
	Website      *string   `db:"website" json:"website,omitempty"`
	Slug         string    `db:"slug" json:"slug"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	Categories []Category `db:"-" json:"categories,omitempty"`
	Skills     []Skill    `db:"-" json:"skills,omitempty"`
}

// DisplayName возвращает название компании, полное имя или username.
func (p Provider) DisplayName() string {
	return displayName(p.CompanyName, p.FirstName, p.LastName, p.Username)
}

// URL возвращает адрес профиля исполнителя.
func (p Provider) URL() string {
	return ProfileURL(p.Username)
}

// ProviderSummary: строка списка исполнителей с количеством услуг.
type ProviderSummary struct {
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Username    string    `db:"username" json:"username"`
	FirstName   string    `db:"first_name" json:"first_name"`
	LastName    string    `db:"last_name" json:"last_name"`
	CompanyName *string   `db:"company_name" json:"company_name,omitempty"`
	SkillCount  int       `db:"skill_count" json:"skill_count"`

	Categories []Category `db:"-" json:"categories,omitempty"`
	Skills     []Skill    `db:"-" json:"skills,omitempty"`
}

// DisplayName возвращает отображаемое имя исполнителя.
func (p ProviderSummary) DisplayName() string {
	return displayName(p.CompanyName, p.FirstName, p.LastName, p.Username)
}

// CompanyText возвращает название компании или пустую строку.
func (p ProviderSummary) CompanyText() string {
	if p.CompanyName == nil {
		return ""
	}
	return *p.CompanyName
}

// URL возвращает адрес профиля исполнителя.
func (p ProviderSummary) URL() string {
	return ProfileURL(p.Username)
}

// Session представляет сохранённую сессию пользователя.
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	RefreshToken string    `db:"refresh_token" json:"refresh_token"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
