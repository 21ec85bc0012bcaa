package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/skills-directory/internal/listing"
	"github.com/ignatzorin/skills-directory/internal/models"
	"github.com/ignatzorin/skills-directory/internal/repository/common"
)

// ErrSkillNotFound возвращается, когда услуги с таким slug нет.
var ErrSkillNotFound = errors.New("skill not found")

const skillColumns = `s.id, s.provider_id, s.name, s.description, s.cost_range, s.slug, s.created_at, s.updated_at`

const skillListingQuery = `
	SELECT ` + skillColumns + `,
		u.username AS provider_username,
		p.company_name AS provider_company,
		u.first_name AS provider_first_name,
		u.last_name AS provider_last_name
	FROM skills s
	JOIN providers p ON p.user_id = s.provider_id
	JOIN users u ON u.id = p.user_id`

// providerDisplayColumn повторяет models.displayName на стороне БД.
const providerDisplayColumn = `COALESCE(NULLIF(TRIM(p.company_name), ''), NULLIF(TRIM(u.first_name || ' ' || u.last_name), ''), u.username)`

var skillSortColumns = map[string]string{
	"name":       "s.name",
	"provider":   providerDisplayColumn,
	"cost_range": "COALESCE(s.cost_range, '')",
}

// SkillRepository отвечает за таблицу skills.
type SkillRepository struct {
	db    *sqlx.DB
	retry common.RetryPolicy
}

func NewSkillRepository(db *sqlx.DB) *SkillRepository {
	return &SkillRepository{db: db, retry: common.DefaultRetryPolicy}
}

// Search ищет услуги по подстроке в названии услуги или в имени исполнителя без учёта регистра.
func (r *SkillRepository) Search(ctx context.Context, term string, sort listing.Sort) ([]models.SkillListing, error) {
	orderBy, err := listing.OrderBy(skillSortColumns, sort, "s.id")
	if err != nil {
		return nil, err
	}

	query := skillListingQuery + `
		WHERE u.is_active = TRUE AND (
			s.name ILIKE $1
			OR p.company_name ILIKE $1
			OR u.username ILIKE $1
			OR u.first_name ILIKE $1
			OR u.last_name ILIKE $1
		)` + orderBy

	var skills []models.SkillListing
	if err := r.db.SelectContext(ctx, &skills, query, containsPattern(term)); err != nil {
		return nil, fmt.Errorf("skill repository: search %w", err)
	}
	return skills, nil
}

// Latest возвращает последние добавленные услуги.
func (r *SkillRepository) Latest(ctx context.Context, limit int) ([]models.SkillListing, error) {
	query := skillListingQuery + ` WHERE u.is_active = TRUE ORDER BY s.created_at DESC, s.id LIMIT $1`

	var skills []models.SkillListing
	if err := r.db.SelectContext(ctx, &skills, query, limit); err != nil {
		return nil, fmt.Errorf("skill repository: latest %w", err)
	}
	return skills, nil
}

// ListByProvider возвращает услуги одного исполнителя.
func (r *SkillRepository) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Skill, error) {
	var skills []models.Skill
	query := `SELECT ` + skillColumns + ` FROM skills s WHERE s.provider_id = $1 ORDER BY s.name, s.id`
	if err := r.db.SelectContext(ctx, &skills, query, providerID); err != nil {
		return nil, fmt.Errorf("skill repository: list by provider %w", err)
	}
	return skills, nil
}

// ListByProviders возвращает услуги для набора исполнителей.
func (r *SkillRepository) ListByProviders(ctx context.Context, providerIDs []uuid.UUID) (map[uuid.UUID][]models.Skill, error) {
	result := make(map[uuid.UUID][]models.Skill, len(providerIDs))
	if len(providerIDs) == 0 {
		return result, nil
	}

	var skills []models.Skill
	query := `SELECT ` + skillColumns + ` FROM skills s WHERE s.provider_id = ANY($1::uuid[]) ORDER BY s.name, s.id`
	if err := r.db.SelectContext(ctx, &skills, query, pq.Array(uuidStrings(providerIDs))); err != nil {
		return nil, fmt.Errorf("skill repository: list by providers %w", err)
	}

	for _, skill := range skills {
		result[skill.ProviderID] = append(result[skill.ProviderID], skill)
	}
	return result, nil
}

// GetBySlug возвращает услугу по slug.
func (r *SkillRepository) GetBySlug(ctx context.Context, slug string) (*models.Skill, error) {
	return common.GetByField[models.Skill](ctx, r.db,
		`SELECT `+skillColumns+` FROM skills s WHERE s.slug = $1`, slug, ErrSkillNotFound)
}

// Create сохраняет новую услугу.
func (r *SkillRepository) Create(ctx context.Context, skill *models.Skill) error {
	query := `
		INSERT INTO skills (provider_id, name, description, cost_range, slug)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := common.WithRetry(ctx, r.retry, "skill repository: create", func() error {
		return r.db.QueryRowxContext(ctx, query,
			skill.ProviderID, skill.Name, skill.Description, skill.CostRange, skill.Slug,
		).Scan(&skill.ID, &skill.CreatedAt, &skill.UpdatedAt)
	})
	if err != nil {
		if _, ok := common.UniqueViolation(err); ok {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("skill repository: create %w", err)
	}
	return nil
}

// Update меняет название, описание и цену услуги. Slug не меняется.
func (r *SkillRepository) Update(ctx context.Context, skill *models.Skill) error {
	query := `
		UPDATE skills
		SET name = $1, description = $2, cost_range = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`

	err := common.WithRetry(ctx, r.retry, "skill repository: update", func() error {
		return r.db.QueryRowxContext(ctx, query,
			skill.Name, skill.Description, skill.CostRange, skill.ID,
		).Scan(&skill.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSkillNotFound
		}
		return fmt.Errorf("skill repository: update %w", err)
	}
	return nil
}

// SlugExists проверяет, занят ли slug услуги.
func (r *SkillRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	return common.Exists(ctx, r.db, "skills", "slug", slug)
}

// containsPattern экранирует спецсимволы LIKE и оборачивает строку в %...%.
func containsPattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(term) + "%"
}
