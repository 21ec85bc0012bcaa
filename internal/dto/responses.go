package dto

import (
	"github.com/ignatzorin/skills-directory/internal/listing"
	"github.com/ignatzorin/skills-directory/internal/models"
)

// SkillRow: строка таблицы результатов поиска для виджета сортировки.
// Name и Provider содержат готовые HTML-ссылки, остальные поля экранированы.
type SkillRow struct {
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	CostRange   string `json:"cost_range"`
	Description string `json:"description"`
}

// CategoryRow: строка таблицы категорий.
type CategoryRow struct {
	Name          string `json:"name"`
	ProviderCount int    `json:"provider_count"`
}

// CategoryProviderRow: строка таблицы исполнителей на странице категории.
type CategoryProviderRow struct {
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`
	SkillCount  int    `json:"skill_count"`
}

// ErrorResponse: тело ответа с ошибкой для асинхронных запросов.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewSkillRows строит строки поиска. Результат никогда не nil,
// чтобы в JSON уходил [] вместо null.
func NewSkillRows(skills []models.SkillListing) []SkillRow {
	rows := make([]SkillRow, 0, len(skills))
	for _, s := range skills {
		rows = append(rows, SkillRow{
			Name:        listing.Anchor(s.ProviderURL(), s.Name),
			Provider:    listing.Anchor(s.ProviderURL(), s.ProviderName()),
			CostRange:   listing.Text(s.CostRangeText()),
			Description: listing.Text(s.Description),
		})
	}
	return rows
}

// NewCategoryRows строит строки таблицы категорий.
func NewCategoryRows(categories []models.CategorySummary) []CategoryRow {
	rows := make([]CategoryRow, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, CategoryRow{
			Name:          listing.Anchor(c.URL(), c.Name),
			ProviderCount: c.ProviderCount,
		})
	}
	return rows
}

// NewCategoryProviderRows строит строки таблицы исполнителей категории.
func NewCategoryProviderRows(providers []models.ProviderSummary) []CategoryProviderRow {
	rows := make([]CategoryProviderRow, 0, len(providers))
	for _, p := range providers {
		rows = append(rows, CategoryProviderRow{
			Name:        listing.Anchor(p.URL(), p.Username),
			CompanyName: listing.Text(p.CompanyText()),
			SkillCount:  p.SkillCount,
		})
	}
	return rows
}
