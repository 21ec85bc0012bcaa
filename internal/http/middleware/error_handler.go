package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/skills-directory/internal/dto"
	"github.com/ignatzorin/skills-directory/internal/logger"
	"github.com/ignatzorin/skills-directory/internal/pkg/apperror"
)

// ErrorPage рисует HTML страницу ошибки.
type ErrorPage func(c *gin.Context, status int, message string)

// ErrorHandler обрабатывает ошибки централизованно.
// Внутренние ошибки маскируются, асинхронные запросы получают JSON,
// остальные страницу ошибки.
func ErrorHandler(page ErrorPage) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Проверяем, не был ли уже отправлен ответ
		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := apperror.HTTPStatus(err)
		message := apperror.PublicMessage(err)

		entry := logger.L().WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"status": status,
		})
		if status >= 500 {
			entry.Error("request error")
		} else {
			entry.Debug("request error")
		}

		if IsXHR(c) || page == nil {
			c.JSON(status, dto.ErrorResponse{Error: message})
			return
		}
		page(c, status, message)
	}
}

// IsXHR сообщает, что запрос отправлен виджетом асинхронной сортировки.
func IsXHR(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("X-Requested-With"), "XMLHttpRequest")
}
