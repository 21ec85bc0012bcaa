package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/skills-directory/internal/listing"
	"github.com/ignatzorin/skills-directory/internal/models"
	"github.com/ignatzorin/skills-directory/internal/repository/common"
)

// ErrCategoryNotFound возвращается, когда категории с таким slug нет.
var ErrCategoryNotFound = errors.New("category not found")

const categoryColumns = `c.id, c.name, c.slug, c.created_at, c.updated_at`

// categorySortColumns: белый список колонок сортировки списка категорий.
var categorySortColumns = map[string]string{
	"name":           "c.name",
	"provider_count": "provider_count",
}

type CategoryRepository struct {
	db *sqlx.DB
}

func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List возвращает все категории по алфавиту.
func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.SelectContext(ctx, &categories, `SELECT `+categoryColumns+` FROM categories c ORDER BY c.name, c.slug`)
	if err != nil {
		return nil, fmt.Errorf("category repository: list %w", err)
	}
	return categories, nil
}

// ListWithCounts возвращает категории с числом исполнителей и услуг.
func (r *CategoryRepository) ListWithCounts(ctx context.Context, sort listing.Sort) ([]models.CategorySummary, error) {
	orderBy, err := listing.OrderBy(categorySortColumns, sort, "c.name")
	if err != nil {
		return nil, err
	}

	var categories []models.CategorySummary
	if err := r.db.SelectContext(ctx, &categories, categoryCountsQuery+orderBy); err != nil {
		return nil, fmt.Errorf("category repository: list with counts %w", err)
	}
	return categories, nil
}

// TopByProviders возвращает limit категорий с наибольшим числом исполнителей.
func (r *CategoryRepository) TopByProviders(ctx context.Context, limit int) ([]models.CategorySummary, error) {
	var categories []models.CategorySummary
	query := categoryCountsQuery + ` ORDER BY provider_count DESC, c.name ASC LIMIT $1`
	if err := r.db.SelectContext(ctx, &categories, query, limit); err != nil {
		return nil, fmt.Errorf("category repository: top by providers %w", err)
	}
	return categories, nil
}

const categoryCountsQuery = `
	SELECT ` + categoryColumns + `,
		COUNT(DISTINCT pc.provider_id) AS provider_count,
		COUNT(s.id) AS skill_count
	FROM categories c
	LEFT JOIN provider_categories pc ON pc.category_id = c.id
	LEFT JOIN skills s ON s.provider_id = pc.provider_id
	GROUP BY c.id`

// GetBySlug возвращает категорию по slug.
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return common.GetByField[models.Category](ctx, r.db,
		`SELECT `+categoryColumns+` FROM categories c WHERE c.slug = $1`, slug, ErrCategoryNotFound)
}

// ExistingIDs оставляет из ids только существующие категории.
func (r *CategoryRepository) ExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uuid.UUID
	if err := r.db.SelectContext(ctx, &found, `SELECT id FROM categories WHERE id = ANY($1::uuid[])`, pq.Array(uuidStrings(ids))); err != nil {
		return nil, fmt.Errorf("category repository: existing ids %w", err)
	}
	return found, nil
}

// ListByProviders возвращает категории для набора исполнителей.
func (r *CategoryRepository) ListByProviders(ctx context.Context, providerIDs []uuid.UUID) (map[uuid.UUID][]models.Category, error) {
	result := make(map[uuid.UUID][]models.Category, len(providerIDs))
	if len(providerIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		ProviderID uuid.UUID `db:"provider_id"`
		models.Category
	}
	query := `
		SELECT pc.provider_id, ` + categoryColumns + `
		FROM provider_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.provider_id = ANY($1::uuid[])
		ORDER BY c.name
	`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(uuidStrings(providerIDs))); err != nil {
		return nil, fmt.Errorf("category repository: list by providers %w", err)
	}

	for _, row := range rows {
		result[row.ProviderID] = append(result[row.ProviderID], row.Category)
	}
	return result, nil
}

// Create добавляет категорию, если slug ещё свободен. Возвращает false, если категория уже была.
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) (bool, error) {
	query := `
		INSERT INTO categories (name, slug)
		VALUES ($1, $2)
		ON CONFLICT (slug) DO NOTHING
		RETURNING id, created_at, updated_at
	`
	rows, err := r.db.QueryxContext(ctx, query, category.Name, category.Slug)
	if err != nil {
		return false, fmt.Errorf("category repository: create %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return false, rows.Err()
	}
	if err := rows.Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt); err != nil {
		return false, fmt.Errorf("category repository: create scan %w", err)
	}
	return true, nil
}

// SlugExists проверяет, занят ли slug категории.
func (r *CategoryRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	return common.Exists(ctx, r.db, "categories", "slug", slug)
}
