package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/skills-directory/internal/logger"
	"github.com/ignatzorin/skills-directory/internal/models"
	"github.com/ignatzorin/skills-directory/internal/pkg/apperror"
	"github.com/ignatzorin/skills-directory/internal/repository"
)

// AuthRepository описывает зависимости AuthService от слоя хранилища.
type AuthRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error
	CreateSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, refreshToken string) error
	DeleteAllSessionsExcept(ctx context.Context, userID uuid.UUID, exceptRefreshToken string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// AuthService инкапсулирует регистрацию, вход и сессии пользователей.
type AuthService struct {
	repo         AuthRepository
	tokenManager *TokenManager
	hashCost     int
}

// RegisterInput содержит данные формы создания аккаунта.
type RegisterInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// LoginInput содержит данные для входа.
type LoginInput struct {
	Username string
	Password string
}

// SessionMeta описывает клиента, открывшего сессию.
type SessionMeta struct {
	UserAgent string
	IP        string
}

// AuthResult возвращает пользователя и выпущенные для него токены.
type AuthResult struct {
	User      *models.User
	TokenPair *TokenPair
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(repo AuthRepository, tokenManager *TokenManager) *AuthService {
	return &AuthService{
		repo:         repo,
		tokenManager: tokenManager,
		hashCost:     bcrypt.DefaultCost,
	}
}

// Register создаёт пользователя и сразу открывает для него сессию.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, meta SessionMeta) (*AuthResult, error) {
	exists, err := s.repo.UsernameExists(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("auth service: проверка username: %w", err)
	}
	if exists {
		return nil, apperror.ErrUsernameTaken
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("auth service: не удалось захешировать пароль: %w", err)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        strings.ToLower(in.Email),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(passHash),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		// параллельная регистрация с тем же именем
		if errors.Is(err, repository.ErrUsernameExists) {
			return nil, apperror.ErrUsernameTaken
		}
		return nil, err
	}

	pair, err := s.openSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, TokenPair: pair}, nil
}

// Login проверяет учётные данные и открывает новую сессию.
func (s *AuthService) Login(ctx context.Context, in LoginInput, meta SessionMeta) (*AuthResult, error) {
	user, err := s.repo.GetByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, apperror.ErrInactiveAccount
	}

	// Обновляем время последнего входа
	if err := s.repo.UpdateLastLoginAt(ctx, user.ID); err != nil {
		// Логируем ошибку, но не прерываем процесс логина
		logger.L().WithFields(logrus.Fields{
			"user_id": user.ID,
			"error":   err.Error(),
		}).Warn("auth service: не удалось обновить last_login_at")
	}

	pair, err := s.openSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, TokenPair: pair}, nil
}

// Logout закрывает сессию. Уже отозванная сессия не считается ошибкой.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.repo.DeleteSession(ctx, refreshToken); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return err
	}
	return nil
}

// Authenticate восстанавливает пользователя по cookie. Если access токен истёк,
// сессия продлевается по refresh токену, и новая пара возвращается вызывающему
// для записи в cookie. Без действующей сессии возвращается ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, accessToken, refreshToken string, meta SessionMeta) (*models.User, *TokenPair, error) {
	if accessToken != "" {
		if userID, _, err := s.tokenManager.ParseAccess(accessToken); err == nil {
			user, err := s.activeUser(ctx, userID)
			if err != nil {
				return nil, nil, err
			}
			return user, nil, nil
		}
	}

	if refreshToken == "" {
		return nil, nil, apperror.ErrUnauthorized
	}

	res, err := s.Refresh(ctx, refreshToken, meta)
	if err != nil {
		return nil, nil, err
	}
	return res.User, res.TokenPair, nil
}

// Refresh заменяет refresh токен на новую пару. Отозванный токен повторно не принимается.
func (s *AuthService) Refresh(ctx context.Context, oldToken string, meta SessionMeta) (*AuthResult, error) {
	userID, err := s.tokenManager.ParseRefresh(oldToken)
	if err != nil {
		return nil, apperror.ErrUnauthorized
	}

	if err := s.repo.DeleteSession(ctx, oldToken); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, err
	}

	user, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	pair, err := s.openSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, TokenPair: pair}, nil
}

// ChangePassword проверяет старый пароль, сохраняет новый и закрывает
// все сессии пользователя, кроме текущей.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentRefreshToken, oldPassword, newPassword string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return apperror.ErrWrongOldPassword
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.hashCost)
	if err != nil {
		return fmt.Errorf("auth service: не удалось захешировать пароль: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, string(passHash)); err != nil {
		return err
	}

	return s.repo.DeleteAllSessionsExcept(ctx, user.ID, currentRefreshToken)
}

// PurgeExpiredSessions удаляет просроченные сессии.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) {
	n, err := s.repo.DeleteExpiredSessions(ctx)
	if err != nil {
		logger.L().WithError(err).Warn("auth service: не удалось удалить просроченные сессии")
		return
	}
	if n > 0 {
		logger.L().WithField("count", n).Info("auth service: удалены просроченные сессии")
	}
}

func (s *AuthService) activeUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.ErrUnauthorized
	}
	return user, nil
}

func (s *AuthService) openSession(ctx context.Context, user *models.User, meta SessionMeta) (*TokenPair, error) {
	pair, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, fmt.Errorf("auth service: выпуск токенов: %w", err)
	}

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.RefreshExpiresAt,
	}
	if meta.UserAgent != "" {
		session.UserAgent = &meta.UserAgent
	}
	if meta.IP != "" {
		session.IPAddress = &meta.IP
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return pair, nil
}
