package handlers

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/skills-directory/internal/forms"
	"github.com/ignatzorin/skills-directory/internal/http/middleware"
	"github.com/ignatzorin/skills-directory/internal/listing"
)

// SearchBox: данные формы поиска в шапке страницы.
type SearchBox struct {
	Label       string
	Placeholder string
	Value       string
	Autofocus   bool
	Errors      []string
}

func newSearchBox(value string, autofocus bool) SearchBox {
	return SearchBox{
		Label:       forms.SearchLabel,
		Placeholder: forms.SearchPlaceholder,
		Value:       value,
		Autofocus:   autofocus,
	}
}

// render дополняет данные страницы формой поиска и текущим пользователем.
func render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["SearchForm"]; !ok {
		data["SearchForm"] = newSearchBox("", true)
	}
	data["CurrentUser"] = middleware.CurrentUser(c)
	c.HTML(status, name, data)
}

// RenderError рисует страницу ошибки для middleware.ErrorHandler.
func RenderError(c *gin.Context, status int, message string) {
	render(c, status, "error", gin.H{"Status": status, "Message": message})
}

// fail передаёт ошибку в middleware.ErrorHandler.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
}

// sortFrom разбирает sorting_method и ascending запроса виджета.
func sortFrom(c *gin.Context, defaultKey string, allowed []string) (listing.Sort, bool) {
	return listing.ParseSort(c.Query("sorting_method"), c.Query("ascending"), defaultKey, allowed)
}

// safeRedirect пропускает только локальные пути, иначе возвращает "/".
func safeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return target
}
