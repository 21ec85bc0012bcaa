package forms

import (
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/skills-directory/internal/validation"
)

// Подписи и подсказки формы поиска, общие для всех страниц.
const (
	SearchLabel       = "Search by name or skill"
	SearchPlaceholder = "Ex: John Smith or plumbing"
)

// SearchForm: строка поиска в шапке каждой страницы.
type SearchForm struct {
	SearchName string `form:"search_name" binding:"required,notblank,max=150"`
}

func (f *SearchForm) Normalize() {
	f.SearchName = strings.TrimSpace(f.SearchName)
}

// AccountCreationForm: регистрация нового пользователя.
type AccountCreationForm struct {
	Username  string `form:"username" binding:"required,max=150,username"`
	Email     string `form:"email" binding:"required,email,max=254"`
	FirstName string `form:"first_name" binding:"required,notblank,max=150"`
	LastName  string `form:"last_name" binding:"required,notblank,max=150"`
	Password1 string `form:"password1" binding:"required"`
	Password2 string `form:"password2" binding:"required,eqfield=Password1"`
}

func (f *AccountCreationForm) Normalize() {
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
}

func (f *AccountCreationForm) Check(errs Errors) {
	checkNewPassword(errs, "password1", f.Password1)
}

// LoginForm: вход по имени пользователя и паролю.
type LoginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
	Redirect string `form:"redirect"`
}

func (f *LoginForm) Normalize() {
	f.Username = strings.TrimSpace(f.Username)
}

// PasswordChangeForm: смена пароля вошедшим пользователем.
type PasswordChangeForm struct {
	OldPassword  string `form:"old_password" binding:"required"`
	NewPassword1 string `form:"new_password1" binding:"required"`
	NewPassword2 string `form:"new_password2" binding:"required,eqfield=NewPassword1"`
}

func (f *PasswordChangeForm) Check(errs Errors) {
	checkNewPassword(errs, "new_password1", f.NewPassword1)
}

// checkNewPassword добавляет требование к сложности, если у поля ещё нет ошибок.
func checkNewPassword(errs Errors, field, password string) {
	if len(errs.Get(field)) > 0 {
		return
	}
	if err := validation.ValidatePassword(password); err != nil {
		errs.Add(field, err.Error())
	}
}

// ProfileForm: карточка исполнителя. Все поля необязательные.
type ProfileForm struct {
	CompanyName  string   `form:"company_name" binding:"max=150"`
	PhoneNumber  string   `form:"phone_number" binding:"max=30,phone"`
	EmailAddress string   `form:"email_address" binding:"omitempty,email,max=254"`
	AboutMe      string   `form:"about_me" binding:"max=5000"`
	Website      string   `form:"website" binding:"website"`
	Categories   []string `form:"categories" binding:"dive,uuid"`
}

func (f *ProfileForm) Normalize() {
	f.CompanyName = strings.TrimSpace(f.CompanyName)
	f.PhoneNumber = strings.TrimSpace(f.PhoneNumber)
	f.EmailAddress = strings.ToLower(strings.TrimSpace(f.EmailAddress))
	f.AboutMe = strings.TrimSpace(f.AboutMe)
	f.Website = strings.TrimSpace(f.Website)
}

// CategoryIDs возвращает выбранные категории без повторов.
// Непарсящиеся значения пропускаются: их уже отклонила проверка uuid.
func (f *ProfileForm) CategoryIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(f.Categories))
	ids := make([]uuid.UUID, 0, len(f.Categories))
	for _, raw := range f.Categories {
		id, err := uuid.Parse(raw)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// Selected сообщает шаблону, отмечена ли категория.
func (f *ProfileForm) Selected(id uuid.UUID) bool {
	for _, raw := range f.Categories {
		if raw == id.String() {
			return true
		}
	}
	return false
}

// SkillForm: добавление и правка услуги.
type SkillForm struct {
	Name        string `form:"name" binding:"required,notblank,max=100"`
	Description string `form:"description" binding:"required,notblank"`
	CostRange   string `form:"cost_range" binding:"max=100"`
}

func (f *SkillForm) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	f.CostRange = strings.TrimSpace(f.CostRange)
}
