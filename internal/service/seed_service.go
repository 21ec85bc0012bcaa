package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/skills-directory/internal/logger"
	"github.com/ignatzorin/skills-directory/internal/models"
	"github.com/ignatzorin/skills-directory/internal/slugs"
)

// SeedPassword: пароль всех демонстрационных аккаунтов.
const SeedPassword = "Password123"

// DefaultCategories: категории, которые создаются в development.
var DefaultCategories = []string{
	"Auto Repair",
	"Carpentry",
	"Childcare",
	"Cleaning",
	"Computer Help",
	"Cooking & Catering",
	"Electrical",
	"Landscaping",
	"Moving & Hauling",
	"Music",
	"Painting",
	"Plumbing",
	"Sewing & Alterations",
	"Tutoring",
}

// SeedUserStore: создание демонстрационных пользователей.
type SeedUserStore interface {
	Create(ctx context.Context, user *models.User) error
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// SeedAccount: данные созданного демонстрационного аккаунта.
type SeedAccount struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Company  string `json:"company"`
}

// SeedService заполняет базу данными для разработки.
type SeedService struct {
	categories CategoryStore
	users      SeedUserStore
	providers  *ProviderService
	rnd        *rand.Rand
}

// NewSeedService создаёт новый сервис для генерации данных.
func NewSeedService(categories CategoryStore, users SeedUserStore, providers *ProviderService) *SeedService {
	return &SeedService{
		categories: categories,
		users:      users,
		providers:  providers,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SeedCategories создаёт недостающие категории из DefaultCategories.
// Возвращает число добавленных.
func (s *SeedService) SeedCategories(ctx context.Context) (int, error) {
	created := 0
	for _, name := range DefaultCategories {
		category := &models.Category{Name: name, Slug: slugs.Make(name)}
		inserted, err := s.categories.Create(ctx, category)
		if err != nil {
			return created, fmt.Errorf("seed service: категория %q: %w", name, err)
		}
		if inserted {
			created++
		}
	}

	if created > 0 {
		logger.L().WithField("count", created).Info("seed service: добавлены категории")
	}
	return created, nil
}

// SeedProviders создаёт count исполнителей с категориями и услугами.
func (s *SeedService) SeedProviders(ctx context.Context, count int) ([]SeedAccount, error) {
	if _, err := s.SeedCategories(ctx); err != nil {
		return nil, err
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed service: список категорий: %w", err)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("seed service: нет категорий")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("seed service: хеш пароля: %w", err)
	}

	accounts := make([]SeedAccount, 0, count)
	for i := 0; i < count; i++ {
		account, err := s.seedProvider(ctx, categories, string(passwordHash))
		if err != nil {
			return accounts, err
		}
		accounts = append(accounts, account)
	}

	logger.L().WithFields(logrus.Fields{"count": len(accounts)}).Info("seed service: созданы исполнители")
	return accounts, nil
}

func (s *SeedService) seedProvider(ctx context.Context, categories []models.Category, passwordHash string) (SeedAccount, error) {
	firstName := seedFirstNames[s.rnd.Intn(len(seedFirstNames))]
	lastName := seedLastNames[s.rnd.Intn(len(seedLastNames))]

	username, err := s.freeUsername(ctx, strings.ToLower(firstName[:1]+lastName))
	if err != nil {
		return SeedAccount{}, err
	}

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return SeedAccount{}, fmt.Errorf("seed service: пользователь %s: %w", username, err)
	}

	category := categories[s.rnd.Intn(len(categories))]
	company := fmt.Sprintf("%s %s", lastName, category.Name)
	profile := ProfileInput{
		CompanyName:  company,
		PhoneNumber:  fmt.Sprintf("555-01%02d-%04d", s.rnd.Intn(100), s.rnd.Intn(10000)),
		EmailAddress: "office@" + username + ".example.com",
		AboutMe:      seedAbout[s.rnd.Intn(len(seedAbout))],
		CategoryIDs:  []uuid.UUID{category.ID},
	}
	if _, err := s.providers.SaveProfile(ctx, user, profile); err != nil {
		return SeedAccount{}, fmt.Errorf("seed service: профиль %s: %w", username, err)
	}

	for n := s.rnd.Intn(3) + 1; n > 0; n-- {
		skill := SkillInput{
			Name:        fmt.Sprintf("%s %s", category.Name, seedSkillKinds[s.rnd.Intn(len(seedSkillKinds))]),
			Description: fmt.Sprintf("%s work by %s %s.", category.Name, firstName, lastName),
			CostRange:   fmt.Sprintf("$%d - $%d", 20+s.rnd.Intn(50), 100+s.rnd.Intn(400)),
		}
		if _, err := s.providers.AddSkill(ctx, user, skill); err != nil {
			return SeedAccount{}, fmt.Errorf("seed service: услуга %s: %w", username, err)
		}
	}

	return SeedAccount{Username: username, Password: SeedPassword, Company: company}, nil
}

func (s *SeedService) freeUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 2; ; i++ {
		taken, err := s.users.UsernameExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("seed service: проверка username: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
}

var (
	seedFirstNames = []string{
		"John", "Mary", "David", "Sarah", "Michael", "Ruth", "James", "Esther",
		"Peter", "Hannah", "Paul", "Grace", "Daniel", "Lydia", "Samuel", "Naomi",
	}
	seedLastNames = []string{
		"Smith", "Johnson", "Miller", "Davis", "Wilson", "Anderson", "Taylor", "Thomas",
		"Moore", "Martin", "Jackson", "White", "Harris", "Clark", "Lewis", "Walker",
	}
	seedSkillKinds = []string{"repair", "installation", "consulting", "lessons", "maintenance"}
	seedAbout      = []string{
		"Twenty years in the trade and happy to help neighbours.",
		"Licensed and insured. Evenings and weekends available.",
		"Small family business, free estimates.",
		"Retired professional offering help at a fair price.",
	}
)
