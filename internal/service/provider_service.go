package service

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/skills-directory/internal/logger"
	"github.com/ignatzorin/skills-directory/internal/models"
	"github.com/ignatzorin/skills-directory/internal/pkg/apperror"
	"github.com/ignatzorin/skills-directory/internal/repository"
	"github.com/ignatzorin/skills-directory/internal/repository/common"
	"github.com/ignatzorin/skills-directory/internal/slugs"
)

var (
	errUnknownCategory = apperror.FieldError("categories", "Select a valid choice. That choice is not one of the available choices.")
	errSkillSlugTaken  = apperror.New(apperror.ErrCodeConflict, "A skill with a similar name was added at the same time. Please try again.")
)

// PictureStore сохраняет загруженные фотографии.
type PictureStore interface {
	Save(ctx context.Context, userID uuid.UUID, mime string, r io.Reader) (string, error)
	Delete(ctx context.Context, relativePath string) error
}

// ProfileInput: поля карточки исполнителя.
type ProfileInput struct {
	CompanyName  string
	PhoneNumber  string
	EmailAddress string
	AboutMe      string
	Website      string
	CategoryIDs  []uuid.UUID
}

// SkillInput: поля услуги.
type SkillInput struct {
	Name        string
	Description string
	CostRange   string
}

// ProfileEdit: данные страницы редактирования профиля. Provider nil,
// пока пользователь ни разу не сохранял карточку.
type ProfileEdit struct {
	Provider   *models.Provider
	Categories []models.Category
}

// ProviderService изменяет профили исполнителей и их услуги.
type ProviderService struct {
	categories CategoryStore
	providers  ProviderStore
	skills     SkillStore
	pictures   PictureStore
	cache      *CacheService
}

// NewProviderService создаёт сервис. cache может быть nil.
func NewProviderService(categories CategoryStore, providers ProviderStore, skills SkillStore, pictures PictureStore, cache *CacheService) *ProviderService {
	return &ProviderService{
		categories: categories,
		providers:  providers,
		skills:     skills,
		pictures:   pictures,
		cache:      cache,
	}
}

// EditProfile возвращает текущую карточку пользователя и список всех категорий.
func (s *ProviderService) EditProfile(ctx context.Context, user *models.User) (*ProfileEdit, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}

	edit := &ProfileEdit{Categories: categories}

	provider, err := s.providers.GetByUserID(ctx, user.ID)
	switch {
	case errors.Is(err, repository.ErrProviderNotFound):
		return edit, nil
	case err != nil:
		return nil, err
	}

	byProvider, err := s.categories.ListByProviders(ctx, []uuid.UUID{user.ID})
	if err != nil {
		return nil, err
	}
	provider.Categories = byProvider[user.ID]

	provider.Skills, err = s.skills.ListByProvider(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	edit.Provider = provider
	return edit, nil
}

// SaveProfile создаёт карточку исполнителя при первом сохранении и обновляет её потом.
func (s *ProviderService) SaveProfile(ctx context.Context, user *models.User, in ProfileInput) (*models.Provider, error) {
	if len(in.CategoryIDs) > 0 {
		existing, err := s.categories.ExistingIDs(ctx, in.CategoryIDs)
		if err != nil {
			return nil, err
		}
		if len(existing) != len(in.CategoryIDs) {
			return nil, errUnknownCategory
		}
	}

	provider, err := s.providerFor(ctx, user)
	if err != nil {
		return nil, err
	}

	provider.CompanyName = optional(in.CompanyName)
	provider.PhoneNumber = optional(in.PhoneNumber)
	provider.EmailAddress = optional(in.EmailAddress)
	provider.AboutMe = in.AboutMe
	provider.Website = optional(in.Website)

	if provider.Slug == "" {
		provider.Slug, err = slugs.Unique(ctx, provider.DisplayName(), user.Username, s.providers.SlugExists)
		if err != nil {
			return nil, err
		}
	}

	if err := s.providers.Upsert(ctx, provider); err != nil {
		return nil, err
	}

	if err := s.providers.SetCategories(ctx, user.ID, in.CategoryIDs); err != nil {
		return nil, err
	}

	s.invalidate()

	logger.L().WithFields(logrus.Fields{
		"user_id":    user.ID,
		"categories": len(in.CategoryIDs),
	}).Info("provider service: профиль сохранён")

	return provider, nil
}

// SetPicture сохраняет новую фотографию исполнителя и удаляет прежнюю.
func (s *ProviderService) SetPicture(ctx context.Context, user *models.User, mime string, r io.Reader) (*models.Provider, error) {
	provider, err := s.ensureProvider(ctx, user)
	if err != nil {
		return nil, err
	}

	relative, err := s.pictures.Save(ctx, user.ID, mime, r)
	if err != nil {
		return nil, err
	}

	previous := provider.Picture
	provider.Picture = &relative
	if err := s.providers.Upsert(ctx, provider); err != nil {
		s.deletePicture(ctx, relative)
		return nil, err
	}

	if previous != nil && *previous != "" && *previous != relative {
		s.deletePicture(ctx, *previous)
	}

	s.invalidate()
	return provider, nil
}

// AddSkill добавляет услугу. Карточка исполнителя создаётся, если её ещё нет.
func (s *ProviderService) AddSkill(ctx context.Context, user *models.User, in SkillInput) (*models.Skill, error) {
	if _, err := s.ensureProvider(ctx, user); err != nil {
		return nil, err
	}

	slug, err := slugs.Unique(ctx, in.Name, user.Username+"-skill", s.skills.SlugExists)
	if err != nil {
		return nil, err
	}

	skill := &models.Skill{
		ProviderID:  user.ID,
		Name:        in.Name,
		Description: in.Description,
		CostRange:   optional(in.CostRange),
		Slug:        slug,
	}

	if err := s.skills.Create(ctx, skill); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, errSkillSlugTaken
		}
		return nil, err
	}

	s.invalidate()
	return skill, nil
}

// UpdateSkill меняет услугу. Править можно только свои услуги.
func (s *ProviderService) UpdateSkill(ctx context.Context, user *models.User, slug string, in SkillInput) (*models.Skill, error) {
	skill, err := s.skills.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrSkillNotFound) {
			return nil, apperror.ErrSkillNotFound
		}
		return nil, err
	}

	if skill.ProviderID != user.ID {
		return nil, apperror.ErrForbidden
	}

	skill.Name = in.Name
	skill.Description = in.Description
	skill.CostRange = optional(in.CostRange)

	if err := s.skills.Update(ctx, skill); err != nil {
		if errors.Is(err, repository.ErrSkillNotFound) {
			return nil, apperror.ErrSkillNotFound
		}
		return nil, err
	}

	s.invalidate()
	return skill, nil
}

// providerFor возвращает существующую карточку или заготовку новой.
func (s *ProviderService) providerFor(ctx context.Context, user *models.User) (*models.Provider, error) {
	provider, err := s.providers.GetByUserID(ctx, user.ID)
	if err == nil {
		return provider, nil
	}
	if !errors.Is(err, repository.ErrProviderNotFound) {
		return nil, err
	}
	return &models.Provider{
		UserID:    user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, nil
}

// ensureProvider гарантирует, что у пользователя есть сохранённая карточка.
func (s *ProviderService) ensureProvider(ctx context.Context, user *models.User) (*models.Provider, error) {
	provider, err := s.providerFor(ctx, user)
	if err != nil {
		return nil, err
	}
	if provider.Slug != "" {
		return provider, nil
	}

	provider.Slug, err = slugs.Unique(ctx, provider.DisplayName(), user.Username, s.providers.SlugExists)
	if err != nil {
		return nil, err
	}
	if err := s.providers.Upsert(ctx, provider); err != nil {
		return nil, err
	}
	return provider, nil
}

func (s *ProviderService) deletePicture(ctx context.Context, relative string) {
	if err := s.pictures.Delete(ctx, relative); err != nil {
		logger.L().WithFields(logrus.Fields{
			"path":  relative,
			"error": err.Error(),
		}).Warn("provider service: не удалось удалить фотографию")
	}
}

func (s *ProviderService) invalidate() {
	if s.cache != nil {
		s.cache.InvalidateDirectory()
	}
}

// optional превращает пустую строку в NULL.
func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
