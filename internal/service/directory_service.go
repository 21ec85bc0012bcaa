package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/skills-directory/internal/listing"
	"github.com/ignatzorin/skills-directory/internal/models"
	"github.com/ignatzorin/skills-directory/internal/pkg/apperror"
	"github.com/ignatzorin/skills-directory/internal/repository"
)

// CategoryStore: чтение и создание категорий.
type CategoryStore interface {
	List(ctx context.Context) ([]models.Category, error)
	ListWithCounts(ctx context.Context, sort listing.Sort) ([]models.CategorySummary, error)
	TopByProviders(ctx context.Context, limit int) ([]models.CategorySummary, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	ExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	ListByProviders(ctx context.Context, providerIDs []uuid.UUID) (map[uuid.UUID][]models.Category, error)
	Create(ctx context.Context, category *models.Category) (bool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// ProviderStore: профили исполнителей.
type ProviderStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Provider, error)
	List(ctx context.Context) ([]models.ProviderSummary, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID, sort listing.Sort) ([]models.ProviderSummary, error)
	Upsert(ctx context.Context, provider *models.Provider) error
	SetCategories(ctx context.Context, providerID uuid.UUID, categoryIDs []uuid.UUID) error
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// SkillStore: услуги исполнителей.
type SkillStore interface {
	Search(ctx context.Context, term string, sort listing.Sort) ([]models.SkillListing, error)
	Latest(ctx context.Context, limit int) ([]models.SkillListing, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Skill, error)
	ListByProviders(ctx context.Context, providerIDs []uuid.UUID) (map[uuid.UUID][]models.Skill, error)
	GetBySlug(ctx context.Context, slug string) (*models.Skill, error)
	Create(ctx context.Context, skill *models.Skill) error
	Update(ctx context.Context, skill *models.Skill) error
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// UserLookup: поиск пользователя для публичного профиля.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// MainPage: данные главной страницы.
type MainPage struct {
	Categories []models.CategorySummary
	Skills     []models.SkillListing
}

// CategoryWithProviders: категория со списком исполнителей для HTML страниц.
type CategoryWithProviders struct {
	models.Category
	Providers []models.ProviderSummary
}

// ProfilePage: публичный профиль пользователя. Provider nil, если
// пользователь ещё не заполнил карточку исполнителя.
type ProfilePage struct {
	User     *models.User
	Provider *models.Provider
}

// DirectoryService отвечает за публичные страницы каталога.
type DirectoryService struct {
	categories CategoryStore
	providers  ProviderStore
	skills     SkillStore
	users      UserLookup
	cache      *CacheService
	cacheTTL   time.Duration
}

// NewDirectoryService создаёт сервис каталога. cache может быть nil.
func NewDirectoryService(categories CategoryStore, providers ProviderStore, skills SkillStore, users UserLookup, cache *CacheService, cacheTTL time.Duration) *DirectoryService {
	return &DirectoryService{
		categories: categories,
		providers:  providers,
		skills:     skills,
		users:      users,
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

// MainPage возвращает категории с наибольшим числом исполнителей и последние услуги.
func (s *DirectoryService) MainPage(ctx context.Context) (*MainPage, error) {
	load := func() (interface{}, error) {
		categories, err := s.categories.TopByProviders(ctx, models.MainPageCategoryLimit)
		if err != nil {
			return nil, err
		}
		skills, err := s.skills.Latest(ctx, models.MainPageSkillLimit)
		if err != nil {
			return nil, err
		}
		return &MainPage{Categories: categories, Skills: skills}, nil
	}

	if s.cache == nil {
		page, err := load()
		if err != nil {
			return nil, err
		}
		return page.(*MainPage), nil
	}

	page, err := s.cache.GetOrSet(ctx, MainPageCacheKey(), s.cacheTTL, load)
	if err != nil {
		return nil, err
	}
	return page.(*MainPage), nil
}

// Search ищет услуги по названию и имени исполнителя. Пустой запрос ничего не находит.
func (s *DirectoryService) Search(ctx context.Context, term string, sort listing.Sort) ([]models.SkillListing, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []models.SkillListing{}, nil
	}
	return s.skills.Search(ctx, term, sort)
}

// Categories возвращает все категории по алфавиту с их исполнителями.
func (s *DirectoryService) Categories(ctx context.Context) ([]CategoryWithProviders, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}

	providers, err := s.providers.List(ctx)
	if err != nil {
		return nil, err
	}

	byProvider, err := s.categories.ListByProviders(ctx, providerIDs(providers))
	if err != nil {
		return nil, err
	}

	byCategory := make(map[uuid.UUID][]models.ProviderSummary)
	for _, p := range providers {
		for _, c := range byProvider[p.UserID] {
			byCategory[c.ID] = append(byCategory[c.ID], p)
		}
	}

	result := make([]CategoryWithProviders, 0, len(categories))
	for _, c := range categories {
		result = append(result, CategoryWithProviders{Category: c, Providers: byCategory[c.ID]})
	}
	return result, nil
}

// CategoryRows возвращает строки таблицы категорий, пропуская категории без исполнителей.
func (s *DirectoryService) CategoryRows(ctx context.Context, sort listing.Sort) ([]models.CategorySummary, error) {
	all, err := s.categories.ListWithCounts(ctx, sort)
	if err != nil {
		return nil, err
	}

	rows := make([]models.CategorySummary, 0, len(all))
	for _, c := range all {
		if c.ProviderCount > 0 {
			rows = append(rows, c)
		}
	}
	return rows, nil
}

// CategoryDetail возвращает категорию с исполнителями и их услугами.
func (s *DirectoryService) CategoryDetail(ctx context.Context, slug string) (*CategoryWithProviders, error) {
	category, err := s.category(ctx, slug)
	if err != nil {
		return nil, err
	}

	providers, err := s.providers.ListByCategory(ctx, category.ID, listing.Sort{Key: "name", Ascending: true})
	if err != nil {
		return nil, err
	}

	skills, err := s.skills.ListByProviders(ctx, providerIDs(providers))
	if err != nil {
		return nil, err
	}
	for i := range providers {
		providers[i].Skills = skills[providers[i].UserID]
	}

	return &CategoryWithProviders{Category: *category, Providers: providers}, nil
}

// CategoryProviders возвращает строки таблицы исполнителей категории.
func (s *DirectoryService) CategoryProviders(ctx context.Context, slug string, sort listing.Sort) ([]models.ProviderSummary, error) {
	category, err := s.category(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.providers.ListByCategory(ctx, category.ID, sort)
}

// Profiles возвращает всех исполнителей с их категориями.
func (s *DirectoryService) Profiles(ctx context.Context) ([]models.ProviderSummary, error) {
	providers, err := s.providers.List(ctx)
	if err != nil {
		return nil, err
	}

	categories, err := s.categories.ListByProviders(ctx, providerIDs(providers))
	if err != nil {
		return nil, err
	}
	for i := range providers {
		providers[i].Categories = categories[providers[i].UserID]
	}
	return providers, nil
}

// Profile возвращает публичный профиль пользователя.
func (s *DirectoryService) Profile(ctx context.Context, username string) (*ProfilePage, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrProfileNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.ErrProfileNotFound
	}

	page := &ProfilePage{User: user}

	provider, err := s.providers.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrProviderNotFound) {
			return page, nil
		}
		return nil, err
	}

	if err := s.fillProvider(ctx, provider); err != nil {
		return nil, err
	}
	page.Provider = provider
	return page, nil
}

func (s *DirectoryService) fillProvider(ctx context.Context, provider *models.Provider) error {
	categories, err := s.categories.ListByProviders(ctx, []uuid.UUID{provider.UserID})
	if err != nil {
		return err
	}
	provider.Categories = categories[provider.UserID]

	provider.Skills, err = s.skills.ListByProvider(ctx, provider.UserID)
	return err
}

func (s *DirectoryService) category(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.categories.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, apperror.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

func providerIDs(providers []models.ProviderSummary) []uuid.UUID {
	ids := make([]uuid.UUID, len(providers))
	for i, p := range providers {
		ids[i] = p.UserID
	}
	return ids
}
