package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/skills-directory/internal/logger"
	"github.com/ignatzorin/skills-directory/internal/models"
	"github.com/ignatzorin/skills-directory/internal/pkg/apperror"
	"github.com/ignatzorin/skills-directory/internal/service"
)

// Имена cookie сессии.
const (
	AccessCookie  = "sd_access"
	RefreshCookie = "sd_refresh"
)

// ContextUserKey: ключ текущего пользователя в gin.Context.
const ContextUserKey = "currentUser"

// ContextRefreshKey: действующий refresh-токен запроса, после ротации новый.
const ContextRefreshKey = "currentRefresh"

// LoginPath: страница входа, на которую уводят анонимных пользователей.
const LoginPath = "/accounts/login/"

// Authenticator восстанавливает пользователя по cookie сессии.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken, refreshToken string, meta service.SessionMeta) (*models.User, *service.TokenPair, error)
}

// SessionMiddleware определяет текущего пользователя по cookie. Анонимные
// запросы проходят дальше без пользователя. Если сессия была продлена,
// новые токены записываются в cookie.
func SessionMiddleware(auth Authenticator, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		access, _ := c.Cookie(AccessCookie)
		refresh, _ := c.Cookie(RefreshCookie)
		if access == "" && refresh == "" {
			c.Next()
			return
		}

		user, pair, err := auth.Authenticate(c.Request.Context(), access, refresh, SessionMetaFrom(c))
		switch {
		case err == nil:
			c.Set(ContextUserKey, user)
			c.Set(ContextRefreshKey, refresh)
			if pair != nil {
				c.Set(ContextRefreshKey, pair.RefreshToken)
				SetSessionCookies(c, pair, secure)
			}
		case errors.Is(err, apperror.ErrUnauthorized):
			ClearSessionCookies(c, secure)
		default:
			// сбой хранилища не должен ронять публичные страницы
			logger.L().WithFields(logrus.Fields{
				"error": err.Error(),
				"path":  c.Request.URL.Path,
			}).Warn("session middleware: не удалось проверить сессию")
		}

		c.Next()
	}
}

// LoginRequired уводит анонимных пользователей на страницу входа с ?next=.
func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}

		target := LoginPath + "?" + url.Values{"next": {c.Request.URL.RequestURI()}}.Encode()
		c.Redirect(http.StatusFound, target)
		c.Abort()
	}
}

// CurrentUser возвращает вошедшего пользователя или nil.
func CurrentUser(c *gin.Context) *models.User {
	raw, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	user, _ := raw.(*models.User)
	return user
}

// CurrentRefreshToken возвращает refresh-токен текущей сессии. Если
// middleware продлил сессию, это уже новый токен, а не значение из cookie запроса.
func CurrentRefreshToken(c *gin.Context) string {
	if token := c.GetString(ContextRefreshKey); token != "" {
		return token
	}
	refresh, _ := c.Cookie(RefreshCookie)
	return refresh
}

// SessionMetaFrom собирает данные клиента для новой сессии.
func SessionMetaFrom(c *gin.Context) service.SessionMeta {
	return service.SessionMeta{
		UserAgent: c.Request.UserAgent(),
		IP:        c.ClientIP(),
	}
}

// SetSessionCookies записывает пару токенов в HttpOnly cookie.
func SetSessionCookies(c *gin.Context, pair *service.TokenPair, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, pair.AccessToken, maxAge(pair.AccessExpiresAt), "/", "", secure, true)
	c.SetCookie(RefreshCookie, pair.RefreshToken, maxAge(pair.RefreshExpiresAt), "/", "", secure, true)
}

// ClearSessionCookies удаляет cookie сессии.
func ClearSessionCookies(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, "", -1, "/", "", secure, true)
	c.SetCookie(RefreshCookie, "", -1, "/", "", secure, true)
}

func maxAge(expiresAt time.Time) int {
	seconds := int(time.Until(expiresAt).Seconds())
	if seconds < 1 {
		return 1
	}
	return seconds
}
