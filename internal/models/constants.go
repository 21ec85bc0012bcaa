package models

// Ограничения длины полей, совпадают с колонками в миграциях.
const (
	CategoryNameMaxLength = 100
	SlugMaxLength         = 150
	UsernameMaxLength     = 150
	PersonNameMaxLength   = 150
	CompanyNameMaxLength  = 150
	PhoneNumberMaxLength  = 30
	SkillNameMaxLength    = 100
	CostRangeMaxLength    = 100
)

// Размеры блоков главной страницы.
const (
	MainPageCategoryLimit = 5
	MainPageSkillLimit    = 10
)
