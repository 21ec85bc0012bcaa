package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/skills-directory/internal/models"
	"github.com/ignatzorin/skills-directory/internal/repository/common"
)

var (
	// ErrUserNotFound возвращается, когда запись пользователя не найдена.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameExists возвращается при нарушении уникальности username.
	ErrUsernameExists = errors.New("username already exists")
	// ErrSessionNotFound возвращается, когда сессия отозвана или не существовала.
	ErrSessionNotFound = errors.New("session not found")
)

const userColumns = `id, username, email, first_name, last_name, password_hash, is_active, last_login_at, created_at, updated_at`

// UserRepository отвечает за работу с таблицами users и user_sessions.
type UserRepository struct {
	db    *sqlx.DB
	retry common.RetryPolicy
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db, retry: common.DefaultRetryPolicy}
}

// Create сохраняет нового пользователя. Конфликты блокировок повторяются
// ограниченное число раз, повторяющийся username даёт ErrUsernameExists.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, first_name, last_name, password_hash, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id, is_active, created_at, updated_at
	`

	err := common.WithRetry(ctx, r.retry, "user repository: create", func() error {
		return r.db.QueryRowxContext(
			ctx, query,
			user.Username, user.Email, user.FirstName, user.LastName, user.PasswordHash,
		).Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	})
	if err != nil {
		if _, ok := common.UniqueViolation(err); ok {
			return ErrUsernameExists
		}
		return fmt.Errorf("user repository: create %w", err)
	}

	return nil
}

// GetByUsername возвращает пользователя по имени.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return common.GetByField[models.User](ctx, r.db,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username, ErrUserNotFound)
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return common.GetByField[models.User](ctx, r.db,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id, ErrUserNotFound)
}

// UsernameExists проверяет, занят ли username.
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return common.Exists(ctx, r.db, "users", "username", username)
}

// UpdatePassword сохраняет новый хеш пароля.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	err := common.WithRetry(ctx, r.retry, "user repository: update password", func() error {
		res, err := r.db.ExecContext(ctx,
			`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, userID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("user repository: update password %w", err)
	}
	return nil
}

// UpdateLastLoginAt обновляет время последнего входа пользователя.
func (r *UserRepository) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("user repository: update last login at %w", err)
	}

	return nil
}

// CreateSession сохраняет новую сессию пользователя.
func (r *UserRepository) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO user_sessions (user_id, refresh_token, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		session.UserID,
		session.RefreshToken,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt); err != nil {
		return fmt.Errorf("user repository: create session %w", err)
	}

	return nil
}

// DeleteSession удаляет сессию по refresh токену.
// ErrSessionNotFound означает, что сессия уже была отозвана.
func (r *UserRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE refresh_token = $1`, refreshToken)
	if err != nil {
		return fmt.Errorf("user repository: delete session %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("user repository: delete session rows affected %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// DeleteAllSessionsExcept удаляет все сессии пользователя кроме указанной.
func (r *UserRepository) DeleteAllSessionsExcept(ctx context.Context, userID uuid.UUID, exceptRefreshToken string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE user_id = $1 AND refresh_token != $2`, userID, exceptRefreshToken)
	if err != nil {
		return fmt.Errorf("user repository: delete all sessions except %w", err)
	}

	return nil
}

// DeleteExpiredSessions чистит просроченные сессии, возвращает число удалённых.
func (r *UserRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("user repository: delete expired sessions %w", err)
	}
	return res.RowsAffected()
}
