package handlers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/skills-directory/internal/dto"
	"github.com/ignatzorin/skills-directory/internal/forms"
	"github.com/ignatzorin/skills-directory/internal/http/middleware"
	"github.com/ignatzorin/skills-directory/internal/listing"
	"github.com/ignatzorin/skills-directory/internal/models"
	"github.com/ignatzorin/skills-directory/internal/service"
)

// Directory: публичные страницы каталога.
type Directory interface {
	MainPage(ctx context.Context) (*service.MainPage, error)
	Search(ctx context.Context, term string, sort listing.Sort) ([]models.SkillListing, error)
	Categories(ctx context.Context) ([]service.CategoryWithProviders, error)
	CategoryRows(ctx context.Context, sort listing.Sort) ([]models.CategorySummary, error)
	CategoryDetail(ctx context.Context, slug string) (*service.CategoryWithProviders, error)
	CategoryProviders(ctx context.Context, slug string, sort listing.Sort) ([]models.ProviderSummary, error)
	Profiles(ctx context.Context) ([]models.ProviderSummary, error)
	Profile(ctx context.Context, username string) (*service.ProfilePage, error)
}

// DirectoryHandler обслуживает главную, поиск, категории и профили.
type DirectoryHandler struct {
	directory Directory
}

// NewDirectoryHandler создаёт хэндлер каталога.
func NewDirectoryHandler(directory Directory) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// MainPage обрабатывает GET /.
func (h *DirectoryHandler) MainPage(c *gin.Context) {
	h.renderMain(c, http.StatusOK, newSearchBox("", true))
}

// SearchResults обрабатывает GET /search_results: HTML страницу или строки
// для виджета сортировки.
func (h *DirectoryHandler) SearchResults(c *gin.Context) {
	name := c.Query("name")

	if middleware.IsXHR(c) {
		sort, ok := sortFrom(c, "name", listing.SearchSortKeys)
		if !ok {
			c.JSON(http.StatusOK, []dto.SkillRow{})
			return
		}
		skills, err := h.directory.Search(c.Request.Context(), name, sort)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSkillRows(skills))
		return
	}

	skills, err := h.directory.Search(c.Request.Context(), name, listing.Sort{Key: "name", Ascending: true})
	if err != nil {
		fail(c, err)
		return
	}

	render(c, http.StatusOK, "search_results", gin.H{
		"SearchForm": newSearchBox(name, false),
		"Name":       name,
		"Skills":     skills,
		"SortURL":    "/search_results?" + url.Values{"name": {name}}.Encode(),
	})
}

// Search обрабатывает POST /search_results и перенаправляет на страницу результатов.
func (h *DirectoryHandler) Search(c *gin.Context) {
	var form forms.SearchForm
	if errs := forms.Bind(c, &form); errs.Any() {
		box := newSearchBox(form.SearchName, true)
		box.Errors = errs.Get("search_name")
		h.renderMain(c, http.StatusBadRequest, box)
		return
	}

	c.Redirect(http.StatusFound, "/search_results?"+url.Values{"name": {form.SearchName}}.Encode())
}

// Categories обрабатывает GET /Categories/.
func (h *DirectoryHandler) Categories(c *gin.Context) {
	if middleware.IsXHR(c) {
		sort, ok := sortFrom(c, "name", listing.CategorySortKeys)
		if !ok {
			c.JSON(http.StatusOK, []dto.CategoryRow{})
			return
		}
		rows, err := h.directory.CategoryRows(c.Request.Context(), sort)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewCategoryRows(rows))
		return
	}

	categories, err := h.directory.Categories(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	render(c, http.StatusOK, "category_list", gin.H{"Categories": categories})
}

// CategoryDetail обрабатывает GET /Categories/:slug.
func (h *DirectoryHandler) CategoryDetail(c *gin.Context) {
	slug := c.Param("slug")

	if middleware.IsXHR(c) {
		sort, ok := sortFrom(c, "name", listing.CategoryProviderSortKeys)
		if !ok {
			c.JSON(http.StatusOK, []dto.CategoryProviderRow{})
			return
		}
		providers, err := h.directory.CategoryProviders(c.Request.Context(), slug, sort)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewCategoryProviderRows(providers))
		return
	}

	category, err := h.directory.CategoryDetail(c.Request.Context(), slug)
	if err != nil {
		fail(c, err)
		return
	}
	render(c, http.StatusOK, "category_detail", gin.H{"Category": category})
}

// Profiles обрабатывает GET /Profiles/.
func (h *DirectoryHandler) Profiles(c *gin.Context) {
	profiles, err := h.directory.Profiles(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	render(c, http.StatusOK, "profile_list", gin.H{"Profiles": profiles})
}

// Profile обрабатывает GET /Profiles/:username.
func (h *DirectoryHandler) Profile(c *gin.Context) {
	profile, err := h.directory.Profile(c.Request.Context(), c.Param("username"))
	if err != nil {
		fail(c, err)
		return
	}

	current := middleware.CurrentUser(c)
	render(c, http.StatusOK, "profile_page", gin.H{
		"Profile": profile,
		"IsOwner": current != nil && current.ID == profile.User.ID,
	})
}

func (h *DirectoryHandler) renderMain(c *gin.Context, status int, box SearchBox) {
	page, err := h.directory.MainPage(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	render(c, status, "main_page", gin.H{
		"SearchForm": box,
		"Categories": page.Categories,
		"Skills":     page.Skills,
	})
}
