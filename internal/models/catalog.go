package models

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category представляет крупную категорию услуг (сантехника, строительство и т.п.).
type Category struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// URL возвращает адрес страницы категории.
func (c Category) URL() string {
	return CategoryURL(c.Slug)
}

// CategoryURL строит адрес страницы категории по slug.
func CategoryURL(slug string) string {
	return "/Categories/" + url.PathEscape(slug)
}

// Skill описывает услугу, которую оказывает исполнитель.
type Skill struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ProviderID  uuid.UUID `db:"provider_id" json:"provider_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CostRange   *string   `db:"cost_range" json:"cost_range,omitempty"`
	Slug        string    `db:"slug" json:"slug"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CostRangeText возвращает диапазон цен или пустую строку.
func (s Skill) CostRangeText() string {
	if s.CostRange == nil {
		return ""
	}
	return *s.CostRange
}

// CategorySummary: категория с подсчитанным количеством исполнителей и услуг.
type CategorySummary struct {
	Category
	ProviderCount int `db:"provider_count" json:"provider_count"`
	SkillCount    int `db:"skill_count" json:"skill_count"`
}

// SkillListing: услуга вместе с данными исполнителя для поиска и главной страницы.
type SkillListing struct {
	Skill
	ProviderUsername  string  `db:"provider_username" json:"provider_username"`
	ProviderCompany   *string `db:"provider_company" json:"provider_company,omitempty"`
	ProviderFirstName string  `db:"provider_first_name" json:"provider_first_name"`
	ProviderLastName  string  `db:"provider_last_name" json:"provider_last_name"`
}

// ProviderName возвращает отображаемое имя исполнителя услуги.
func (s SkillListing) ProviderName() string {
	return displayName(s.ProviderCompany, s.ProviderFirstName, s.ProviderLastName, s.ProviderUsername)
}

// ProviderURL возвращает адрес профиля исполнителя услуги.
func (s SkillListing) ProviderURL() string {
	return ProfileURL(s.ProviderUsername)
}

// displayName выбирает название компании, затем полное имя, затем username.
func displayName(company *string, first, last, username string) string {
	if company != nil && strings.TrimSpace(*company) != "" {
		return *company
	}
	if full := strings.TrimSpace(first + " " + last); full != "" {
		return full
	}
	return username
}
