// Package web содержит встроенные HTML шаблоны и статические файлы сайта.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/gin-gonic/gin/render"

	"github.com/ignatzorin/skills-directory/internal/storage"
)

//go:embed templates static
var content embed.FS

// layoutName: корневой шаблон, который подключает блоки title и content страницы.
const layoutName = "layout"

// Renderer реализует gin render.HTMLRender: каждая страница собирается
// из общего макета и собственного файла.
type Renderer struct {
	pages map[string]*template.Template
}

var _ render.HTMLRender = (*Renderer)(nil)

// NewRenderer разбирает все шаблоны. Ошибка в любом из них останавливает запуск.
func NewRenderer() (*Renderer, error) {
	base, err := template.New(layoutName).Funcs(funcs()).ParseFS(content, "templates/layout/*.html")
	if err != nil {
		return nil, fmt.Errorf("web: макет: %w", err)
	}

	files, err := fs.Glob(content, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("web: список страниц: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("web: %s: %w", file, err)
		}
		if _, err := t.ParseFS(content, file); err != nil {
			return nil, fmt.Errorf("web: %s: %w", file, err)
		}
		r.pages[strings.TrimSuffix(path.Base(file), ".html")] = t
	}
	return r, nil
}

// Instance возвращает рендер страницы name.
func (r *Renderer) Instance(name string, data any) render.Render {
	t, ok := r.pages[name]
	if !ok {
		panic(fmt.Sprintf("web: неизвестный шаблон %q", name))
	}
	return render.HTML{Template: t, Name: layoutName, Data: data}
}

// Pages возвращает имена доступных страниц по алфавиту.
func (r *Renderer) Pages() []string {
	names := make([]string, 0, len(r.pages))
	for name := range r.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Static отдаёт встроенные css и js.
func Static() http.FileSystem {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"mediaURL": storage.URL,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}
}
