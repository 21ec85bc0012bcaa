package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/skills-directory/internal/listing"
	"github.com/ignatzorin/skills-directory/internal/models"
	"github.com/ignatzorin/skills-directory/internal/repository/common"
)

// ErrProviderNotFound возвращается, когда у пользователя нет профиля исполнителя.
var ErrProviderNotFound = errors.New("provider not found")

const providerColumns = `
	p.user_id, u.username, u.first_name, u.last_name,
	p.company_name, p.phone_number, p.email_address, p.picture, p.about_me, p.website, p.slug,
	p.created_at, p.updated_at`

const providerSummaryQuery = `
	SELECT p.user_id, u.username, u.first_name, u.last_name, p.company_name,
		COUNT(s.id) AS skill_count
	FROM providers p
	JOIN users u ON u.id = p.user_id
	LEFT JOIN skills s ON s.provider_id = p.user_id`

// providerSortColumns: белый список колонок сортировки исполнителей в категории.
var providerSortColumns = map[string]string{
	"name":         "u.username",
	"company_name": "COALESCE(p.company_name, '')",
	"skill_count":  "skill_count",
}

// ProviderRepository отвечает за таблицы providers и provider_categories.
type ProviderRepository struct {
	db    *sqlx.DB
	retry common.RetryPolicy
}

func NewProviderRepository(db *sqlx.DB) *ProviderRepository {
	return &ProviderRepository{db: db, retry: common.DefaultRetryPolicy}
}

// GetByUserID возвращает профиль исполнителя пользователя.
func (r *ProviderRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Provider, error) {
	return common.GetByField[models.Provider](ctx, r.db, `
		SELECT `+providerColumns+`
		FROM providers p JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1`, userID, ErrProviderNotFound)
}

// List возвращает всех исполнителей по алфавиту.
func (r *ProviderRepository) List(ctx context.Context) ([]models.ProviderSummary, error) {
	var providers []models.ProviderSummary
	query := providerSummaryQuery + ` WHERE u.is_active = TRUE GROUP BY p.user_id, u.id ORDER BY u.username`
	if err := r.db.SelectContext(ctx, &providers, query); err != nil {
		return nil, fmt.Errorf("provider repository: list %w", err)
	}
	return providers, nil
}

// ListByCategory возвращает исполнителей категории с количеством услуг.
func (r *ProviderRepository) ListByCategory(ctx context.Context, categoryID uuid.UUID, sort listing.Sort) ([]models.ProviderSummary, error) {
	orderBy, err := listing.OrderBy(providerSortColumns, sort, "u.username")
	if err != nil {
		return nil, err
	}

	query := providerSummaryQuery + `
		JOIN provider_categories pc ON pc.provider_id = p.user_id
		WHERE pc.category_id = $1 AND u.is_active = TRUE
		GROUP BY p.user_id, u.id` + orderBy

	var providers []models.ProviderSummary
	if err := r.db.SelectContext(ctx, &providers, query, categoryID); err != nil {
		return nil, fmt.Errorf("provider repository: list by category %w", err)
	}
	return providers, nil
}

// Upsert создаёт или обновляет профиль исполнителя.
func (r *ProviderRepository) Upsert(ctx context.Context, provider *models.Provider) error {
	query := `
		INSERT INTO providers (user_id, company_name, phone_number, email_address, picture, about_me, website, slug)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE
		SET company_name = EXCLUDED.company_name,
			phone_number = EXCLUDED.phone_number,
			email_address = EXCLUDED.email_address,
			picture = EXCLUDED.picture,
			about_me = EXCLUDED.about_me,
			website = EXCLUDED.website,
			updated_at = NOW()
		RETURNING slug, created_at, updated_at
	`

	err := common.WithRetry(ctx, r.retry, "provider repository: upsert", func() error {
		return r.db.QueryRowxContext(ctx, query,
			provider.UserID,
			provider.CompanyName,
			provider.PhoneNumber,
			provider.EmailAddress,
			provider.Picture,
			provider.AboutMe,
			provider.Website,
			provider.Slug,
		).Scan(&provider.Slug, &provider.CreatedAt, &provider.UpdatedAt)
	})
	if err != nil {
		if _, ok := common.UniqueViolation(err); ok {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("provider repository: upsert %w", err)
	}
	return nil
}

// SetCategories заменяет набор категорий исполнителя.
func (r *ProviderRepository) SetCategories(ctx context.Context, providerID uuid.UUID, categoryIDs []uuid.UUID) error {
	return common.WithRetry(ctx, r.retry, "provider repository: set categories", func() error {
		return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, `DELETE FROM provider_categories WHERE provider_id = $1`, providerID); err != nil {
				return fmt.Errorf("provider repository: clear categories %w", err)
			}

			inserter := common.NewBatchInserter(tx, `INSERT INTO provider_categories (provider_id, category_id)`, 2, 50)
			for _, categoryID := range categoryIDs {
				if err := inserter.Add(ctx, providerID, categoryID); err != nil {
					return err
				}
			}
			return inserter.Flush(ctx)
		})
	})
}

// SlugExists проверяет, занят ли slug исполнителя.
func (r *ProviderRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	return common.Exists(ctx, r.db, "providers", "slug", slug)
}
