package slugs

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/ignatzorin/skills-directory/internal/models"
)

// maxSuffixAttempts ограничивает перебор числовых суффиксов.
const maxSuffixAttempts = 50

// ExistsFunc проверяет, занят ли slug.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Make превращает произвольную строку в URL-безопасный slug.
func Make(source string) string {
	s := slug.Make(source)
	// резерв под суффикс "-NN"
	if limit := models.SlugMaxLength - 8; len(s) > limit {
		s = strings.Trim(s[:limit], "-")
	}
	return s
}

// Unique подбирает свободный slug: source, source-2, source-3 ...
// Если source не даёт slug, используется fallback.
func Unique(ctx context.Context, source, fallback string, exists ExistsFunc) (string, error) {
	base := Make(source)
	if base == "" {
		base = Make(fallback)
	}
	if base == "" {
		base = "item"
	}

	candidate := base
	for i := 2; i < maxSuffixAttempts+2; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("slugs: проверка %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}

	return base + "-" + uuid.NewString()[:8], nil
}

// Valid сообщает, может ли строка быть slug из адреса страницы.
func Valid(s string) bool {
	return len(s) <= models.SlugMaxLength && slug.IsSlug(s)
}
