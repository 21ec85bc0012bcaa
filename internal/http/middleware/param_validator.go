package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/skills-directory/internal/pkg/apperror"
)

var errPageNotFound = apperror.New(apperror.ErrCodeNotFound, "Page not found.")

// ParamValidator проверяет параметр пути и отвечает 404, если значение
// не может существовать. Использование:
// router.GET("/Profiles/:username", ParamValidator("username", validUsername), handler.Profile)
func ParamValidator(paramName string, valid func(string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if value := c.Param(paramName); value == "" || !valid(value) {
			_ = c.Error(errPageNotFound)
			c.Abort()
			return
		}

		c.Next()
	}
}

// NotFound отдаёт 404 через ErrorHandler для неизвестных маршрутов.
func NotFound(c *gin.Context) {
	_ = c.Error(errPageNotFound)
}
