package router

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/ulule/limiter/v3"

	"github.com/ignatzorin/skills-directory/internal/config"
	"github.com/ignatzorin/skills-directory/internal/http/handlers"
	"github.com/ignatzorin/skills-directory/internal/http/middleware"
	"github.com/ignatzorin/skills-directory/internal/slugs"
	"github.com/ignatzorin/skills-directory/internal/storage"
	"github.com/ignatzorin/skills-directory/internal/validation"
	"github.com/ignatzorin/skills-directory/internal/web"
)

func validUsername(s string) bool {
	return validation.ValidateUsername(s) == nil
}

func SetupRouter(
	cfg *config.Config,
	htmlRender render.HTMLRender,
	authenticator middleware.Authenticator,
	limitStore limiter.Store,
	directoryHandler *handlers.DirectoryHandler,
	accountHandler *handlers.AccountHandler,
	profileHandler *handlers.ProfileHandler,
	healthHandler *handlers.HealthHandler,
	seedHandler *handlers.SeedHandler,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.HTMLRender = htmlRender
	r.Use(middleware.ErrorHandler(handlers.RenderError))
	r.Use(middleware.SessionMiddleware(authenticator, cfg.CookieSecure))
	r.NoRoute(middleware.NotFound)

	r.GET("/health", healthHandler.Health)
	r.StaticFS("/static", web.Static())
	r.StaticFS(storage.MediaURLPrefix, gin.Dir(cfg.MediaStoragePath, false))

	if seedHandler != nil && cfg.IsDevelopment() {
		r.POST("/dev/seed", seedHandler.Seed)
	}

	// Публичные страницы каталога
	r.GET("/", directoryHandler.MainPage)
	r.GET("/search_results", directoryHandler.SearchResults)
	r.POST("/search_results", directoryHandler.Search)
	r.GET("/Categories/", directoryHandler.Categories)
	r.GET("/Categories/:slug", middleware.ParamValidator("slug", slugs.Valid), directoryHandler.CategoryDetail)
	r.GET("/Profiles/", directoryHandler.Profiles)
	r.GET("/Profiles/:username", middleware.ParamValidator("username", validUsername), directoryHandler.Profile)

	accounts := r.Group("/accounts")
	accountRateLimit := middleware.RateLimitMiddleware(limitStore, cfg.RateLimitLimit, cfg.RateLimitPeriod)
	{
		accounts.GET("/create_account/", accountHandler.CreateAccountPage)
		accounts.POST("/create_account/", accountRateLimit, accountHandler.CreateAccount)
		accounts.GET("/login/", accountHandler.LoginPage)
		accounts.POST("/login/", accountRateLimit, accountHandler.Login)
		accounts.GET("/logout/", accountHandler.Logout)
		accounts.POST("/logout/", accountHandler.Logout)
	}

	protected := accounts.Group("/")
	protected.Use(middleware.LoginRequired())
	{
		protected.GET("/password_change/", accountHandler.PasswordChangePage)
		protected.POST("/password_change/", accountRateLimit, accountHandler.PasswordChange)
		protected.GET("/password_change/done/", accountHandler.PasswordChangeDone)

		protected.GET("/profile/", profileHandler.EditPage)
		protected.POST("/profile/", profileHandler.Save)
		protected.POST("/skills/", profileHandler.AddSkill)
		protected.POST("/skills/:slug", middleware.ParamValidator("slug", slugs.Valid), profileHandler.UpdateSkill)
	}

	return r
}
