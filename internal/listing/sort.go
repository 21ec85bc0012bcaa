// Package listing разбирает параметры сортировки таблиц и строит
// HTML-ссылки для асинхронного виджета сортировки.
package listing

import (
	"fmt"
	"html"
	"strings"
)

// Ключи сортировки, которые принимает виджет на каждой странице.
var (
	SearchSortKeys           = []string{"name", "provider", "cost_range"}
	CategorySortKeys         = []string{"name", "provider_count"}
	CategoryProviderSortKeys = []string{"name", "company_name", "skill_count"}
)

// Sort: выбранная колонка и направление.
type Sort struct {
	Key       string
	Ascending bool
}

// ParseSort разбирает sorting_method и ascending из запроса.
// Пустой method даёт defaultKey. ascending == "true" означает по возрастанию,
// иначе по убыванию. ok == false для неизвестного ключа.
func ParseSort(method, ascending, defaultKey string, allowed []string) (Sort, bool) {
	key := strings.TrimSpace(method)
	if key == "" {
		key = defaultKey
	}
	for _, a := range allowed {
		if a == key {
			return Sort{Key: key, Ascending: ascending == "true"}, true
		}
	}
	return Sort{}, false
}

// Direction возвращает ASC или DESC.
func (s Sort) Direction() string {
	if s.Ascending {
		return "ASC"
	}
	return "DESC"
}

// OrderBy строит ORDER BY по белому списку колонок.
// tiebreak добавляется в том же направлении, чтобы порядок был стабильным.
func OrderBy(columns map[string]string, s Sort, tiebreak string) (string, error) {
	column, ok := columns[s.Key]
	if !ok {
		return "", fmt.Errorf("listing: неизвестный ключ сортировки %q", s.Key)
	}
	dir := s.Direction()
	clause := " ORDER BY " + column + " " + dir
	if tiebreak != "" && tiebreak != column {
		clause += ", " + tiebreak + " " + dir
	}
	return clause, nil
}

// Anchor возвращает экранированную ссылку <a href="...">text</a>.
func Anchor(href, text string) string {
	return `<a href="` + html.EscapeString(href) + `">` + html.EscapeString(text) + `</a>`
}

// Text экранирует текстовую ячейку: виджет вставляет строки как HTML.
func Text(s string) string {
	return html.EscapeString(s)
}
