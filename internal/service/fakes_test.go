package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/skills-directory/internal/listing"
	"github.com/ignatzorin/skills-directory/internal/models"
	"github.com/ignatzorin/skills-directory/internal/repository"
	"github.com/ignatzorin/skills-directory/internal/repository/common"
)

// fakeDB: общее in-memory состояние для фейковых репозиториев.
type fakeDB struct {
	clock              time.Time
	users              map[string]*models.User
	categories         map[uuid.UUID]*models.Category
	providers          map[uuid.UUID]*models.Provider
	providerCategories map[uuid.UUID][]uuid.UUID
	skills             map[uuid.UUID]*models.Skill
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		clock:              time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		users:              make(map[string]*models.User),
		categories:         make(map[uuid.UUID]*models.Category),
		providers:          make(map[uuid.UUID]*models.Provider),
		providerCategories: make(map[uuid.UUID][]uuid.UUID),
		skills:             make(map[uuid.UUID]*models.Skill),
	}
}

// tick возвращает монотонно растущее время, чтобы порядок создания был стабилен.
func (db *fakeDB) tick() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

func (db *fakeDB) userByID(id uuid.UUID) *models.User {
	for _, u := range db.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (db *fakeDB) addUser(username, first, last string) *models.User {
	u := &models.User{
		ID:        uuid.New(),
		Username:  username,
		Email:     username + "@example.com",
		FirstName: first,
		LastName:  last,
		IsActive:  true,
		CreatedAt: db.tick(),
	}
	db.users[username] = u
	return u
}

func (db *fakeDB) addCategory(name string) *models.Category {
	c := &models.Category{ID: uuid.New(), Name: name, Slug: strings.ToLower(strings.ReplaceAll(name, " ", "-")), CreatedAt: db.tick()}
	db.categories[c.ID] = c
	return c
}

func (db *fakeDB) addProvider(user *models.User, company string, categories ...*models.Category) *models.Provider {
	p := &models.Provider{UserID: user.ID, Slug: user.Username, CreatedAt: db.tick()}
	if company != "" {
		p.CompanyName = &company
	}
	db.providers[user.ID] = p
	for _, c := range categories {
		db.providerCategories[user.ID] = append(db.providerCategories[user.ID], c.ID)
	}
	return p
}

func (db *fakeDB) addSkill(provider *models.Provider, name, cost string) *models.Skill {
	s := &models.Skill{
		ID:          uuid.New(),
		ProviderID:  provider.UserID,
		Name:        name,
		Description: name + " description",
		Slug:        strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		CreatedAt:   db.tick(),
	}
	if cost != "" {
		s.CostRange = &cost
	}
	db.skills[s.ID] = s
	return s
}

func (db *fakeDB) summary(p *models.Provider) models.ProviderSummary {
	u := db.userByID(p.UserID)
	count := 0
	for _, s := range db.skills {
		if s.ProviderID == p.UserID {
			count++
		}
	}
	return models.ProviderSummary{
		UserID:      p.UserID,
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		CompanyName: p.CompanyName,
		SkillCount:  count,
	}
}

func direction(less bool, ascending bool) bool {
	if ascending {
		return less
	}
	return !less
}

// --- categories ---

type fakeCategories struct{ db *fakeDB }

func (f *fakeCategories) List(ctx context.Context) ([]models.Category, error) {
	out := make([]models.Category, 0, len(f.db.categories))
	for _, c := range f.db.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCategories) counts() []models.CategorySummary {
	all, _ := f.List(context.Background())
	out := make([]models.CategorySummary, 0, len(all))
	for _, c := range all {
		summary := models.CategorySummary{Category: c}
		for providerID, ids := range f.db.providerCategories {
			for _, id := range ids {
				if id != c.ID {
					continue
				}
				summary.ProviderCount++
				for _, s := range f.db.skills {
					if s.ProviderID == providerID {
						summary.SkillCount++
					}
				}
			}
		}
		out = append(out, summary)
	}
	return out
}

func (f *fakeCategories) ListWithCounts(ctx context.Context, s listing.Sort) ([]models.CategorySummary, error) {
	out := f.counts()
	switch s.Key {
	case "name":
		sort.SliceStable(out, func(i, j int) bool { return direction(out[i].Name < out[j].Name, s.Ascending) })
	case "provider_count":
		sort.SliceStable(out, func(i, j int) bool {
			return direction(out[i].ProviderCount < out[j].ProviderCount, s.Ascending)
		})
	default:
		return nil, fmt.Errorf("unknown sort key %q", s.Key)
	}
	return out, nil
}

func (f *fakeCategories) TopByProviders(ctx context.Context, limit int) ([]models.CategorySummary, error) {
	out := f.counts()
	sort.SliceStable(out, func(i, j int) bool { return out[i].ProviderCount > out[j].ProviderCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCategories) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	for _, c := range f.db.categories {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

func (f *fakeCategories) ExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, id := range ids {
		if _, ok := f.db.categories[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeCategories) ListByProviders(ctx context.Context, providerIDs []uuid.UUID) (map[uuid.UUID][]models.Category, error) {
	out := make(map[uuid.UUID][]models.Category)
	for _, pid := range providerIDs {
		for _, cid := range f.db.providerCategories[pid] {
			out[pid] = append(out[pid], *f.db.categories[cid])
		}
	}
	return out, nil
}

func (f *fakeCategories) Create(ctx context.Context, category *models.Category) (bool, error) {
	if exists, _ := f.SlugExists(ctx, category.Slug); exists {
		return false, nil
	}
	category.ID = uuid.New()
	category.CreatedAt = f.db.tick()
	cp := *category
	f.db.categories[cp.ID] = &cp
	return true, nil
}

func (f *fakeCategories) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := f.GetBySlug(ctx, slug)
	return err == nil, nil
}

// --- providers ---

type fakeProviders struct{ db *fakeDB }

func (f *fakeProviders) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Provider, error) {
	p, ok := f.db.providers[userID]
	if !ok {
		return nil, repository.ErrProviderNotFound
	}
	cp := *p
	u := f.db.userByID(userID)
	cp.Username, cp.FirstName, cp.LastName = u.Username, u.FirstName, u.LastName
	return &cp, nil
}

func (f *fakeProviders) List(ctx context.Context) ([]models.ProviderSummary, error) {
	out := make([]models.ProviderSummary, 0, len(f.db.providers))
	for _, p := range f.db.providers {
		out = append(out, f.db.summary(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (f *fakeProviders) ListByCategory(ctx context.Context, categoryID uuid.UUID, s listing.Sort) ([]models.ProviderSummary, error) {
	var out []models.ProviderSummary
	for pid, ids := range f.db.providerCategories {
		for _, id := range ids {
			if id == categoryID {
				out = append(out, f.db.summary(f.db.providers[pid]))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })

	switch s.Key {
	case "name":
		sort.SliceStable(out, func(i, j int) bool { return direction(out[i].Username < out[j].Username, s.Ascending) })
	case "company_name":
		sort.SliceStable(out, func(i, j int) bool {
			return direction(out[i].CompanyText() < out[j].CompanyText(), s.Ascending)
		})
	case "skill_count":
		sort.SliceStable(out, func(i, j int) bool { return direction(out[i].SkillCount < out[j].SkillCount, s.Ascending) })
	default:
		return nil, fmt.Errorf("unknown sort key %q", s.Key)
	}
	return out, nil
}

func (f *fakeProviders) Upsert(ctx context.Context, provider *models.Provider) error {
	if existing, ok := f.db.providers[provider.UserID]; ok {
		provider.Slug = existing.Slug
		provider.CreatedAt = existing.CreatedAt
	} else {
		for _, p := range f.db.providers {
			if p.Slug == provider.Slug {
				return common.ErrAlreadyExists
			}
		}
		provider.CreatedAt = f.db.tick()
	}
	provider.UpdatedAt = f.db.tick()
	cp := *provider
	cp.Categories, cp.Skills = nil, nil
	f.db.providers[provider.UserID] = &cp
	return nil
}

func (f *fakeProviders) SetCategories(ctx context.Context, providerID uuid.UUID, categoryIDs []uuid.UUID) error {
	f.db.providerCategories[providerID] = append([]uuid.UUID(nil), categoryIDs...)
	return nil
}

func (f *fakeProviders) SlugExists(ctx context.Context, slug string) (bool, error) {
	for _, p := range f.db.providers {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

// --- skills ---

type fakeSkills struct{ db *fakeDB }

func (f *fakeSkills) listing(s *models.Skill) models.SkillListing {
	u := f.db.userByID(s.ProviderID)
	return models.SkillListing{
		Skill:             *s,
		ProviderUsername:  u.Username,
		ProviderCompany:   f.db.providers[s.ProviderID].CompanyName,
		ProviderFirstName: u.FirstName,
		ProviderLastName:  u.LastName,
	}
}

func (f *fakeSkills) Search(ctx context.Context, term string, s listing.Sort) ([]models.SkillListing, error) {
	term = strings.ToLower(term)
	var out []models.SkillListing
	for _, skill := range f.db.skills {
		row := f.listing(skill)
		fields := []string{row.Name, row.ProviderUsername, row.ProviderFirstName, row.ProviderLastName}
		if row.ProviderCompany != nil {
			fields = append(fields, *row.ProviderCompany)
		}
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field), term) {
				out = append(out, row)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })

	switch s.Key {
	case "name":
		sort.SliceStable(out, func(i, j int) bool { return direction(out[i].Name < out[j].Name, s.Ascending) })
	case "provider":
		sort.SliceStable(out, func(i, j int) bool {
			return direction(out[i].ProviderName() < out[j].ProviderName(), s.Ascending)
		})
	case "cost_range":
		sort.SliceStable(out, func(i, j int) bool {
			return direction(out[i].CostRangeText() < out[j].CostRangeText(), s.Ascending)
		})
	default:
		return nil, fmt.Errorf("unknown sort key %q", s.Key)
	}
	return out, nil
}

func (f *fakeSkills) Latest(ctx context.Context, limit int) ([]models.SkillListing, error) {
	var out []models.SkillListing
	for _, skill := range f.db.skills {
		out = append(out, f.listing(skill))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSkills) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Skill, error) {
	m, _ := f.ListByProviders(ctx, []uuid.UUID{providerID})
	return m[providerID], nil
}

func (f *fakeSkills) ListByProviders(ctx context.Context, providerIDs []uuid.UUID) (map[uuid.UUID][]models.Skill, error) {
	wanted := make(map[uuid.UUID]bool, len(providerIDs))
	for _, id := range providerIDs {
		wanted[id] = true
	}
	out := make(map[uuid.UUID][]models.Skill)
	for _, s := range f.db.skills {
		if wanted[s.ProviderID] {
			out[s.ProviderID] = append(out[s.ProviderID], *s)
		}
	}
	for id := range out {
		skills := out[id]
		sort.Slice(skills, func(i, j int) bool { return skills[i].Name < skills[j].Name })
	}
	return out, nil
}

func (f *fakeSkills) GetBySlug(ctx context.Context, slug string) (*models.Skill, error) {
	for _, s := range f.db.skills {
		if s.Slug == slug {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrSkillNotFound
}

func (f *fakeSkills) Create(ctx context.Context, skill *models.Skill) error {
	if exists, _ := f.SlugExists(ctx, skill.Slug); exists {
		return common.ErrAlreadyExists
	}
	skill.ID = uuid.New()
	skill.CreatedAt = f.db.tick()
	skill.UpdatedAt = skill.CreatedAt
	cp := *skill
	f.db.skills[cp.ID] = &cp
	return nil
}

func (f *fakeSkills) Update(ctx context.Context, skill *models.Skill) error {
	existing, ok := f.db.skills[skill.ID]
	if !ok {
		return repository.ErrSkillNotFound
	}
	existing.Name, existing.Description, existing.CostRange = skill.Name, skill.Description, skill.CostRange
	existing.UpdatedAt = f.db.tick()
	skill.UpdatedAt = existing.UpdatedAt
	return nil
}

func (f *fakeSkills) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := f.GetBySlug(ctx, slug)
	return err == nil, nil
}

// --- users ---

type fakeUsers struct{ db *fakeDB }

func (f *fakeUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if u, ok := f.db.users[username]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUsers) Create(ctx context.Context, user *models.User) error {
	if _, ok := f.db.users[user.Username]; ok {
		return repository.ErrUsernameExists
	}
	user.ID = uuid.New()
	user.IsActive = true
	user.CreatedAt = f.db.tick()
	f.db.users[user.Username] = user
	return nil
}

func (f *fakeUsers) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, ok := f.db.users[username]
	return ok, nil
}

// --- pictures ---

type mockPictureStore struct {
	mock.Mock
}

func (m *mockPictureStore) Save(ctx context.Context, userID uuid.UUID, mime string, r io.Reader) (string, error) {
	args := m.Called(ctx, userID, mime, r)
	return args.String(0), args.Error(1)
}

func (m *mockPictureStore) Delete(ctx context.Context, relativePath string) error {
	args := m.Called(ctx, relativePath)
	return args.Error(0)
}

// fakeStores собирает все фейки поверх одного fakeDB.
type fakeStores struct {
	db         *fakeDB
	categories *fakeCategories
	providers  *fakeProviders
	skills     *fakeSkills
	users      *fakeUsers
}

func newFakeStores() *fakeStores {
	db := newFakeDB()
	return &fakeStores{
		db:         db,
		categories: &fakeCategories{db: db},
		providers:  &fakeProviders{db: db},
		skills:     &fakeSkills{db: db},
		users:      &fakeUsers{db: db},
	}
}
