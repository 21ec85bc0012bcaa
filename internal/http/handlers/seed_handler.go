package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/skills-directory/internal/service"
)

const (
	defaultSeedProviders = 20
	maxSeedProviders     = 500
)

// Seeder наполняет базу демонстрационными данными.
type Seeder interface {
	SeedCategories(ctx context.Context) (int, error)
	SeedProviders(ctx context.Context, count int) ([]service.SeedAccount, error)
}

// SeedHandler обрабатывает запросы для генерации фейковых данных. Доступен только в development.
type SeedHandler struct {
	seeder Seeder
}

// NewSeedHandler создаёт новый seed handler.
func NewSeedHandler(seeder Seeder) *SeedHandler {
	return &SeedHandler{seeder: seeder}
}

// SeedRequest представляет запрос на генерацию данных.
type SeedRequest struct {
	NumProviders int `json:"num_providers" form:"num_providers"`
}

// SeedAccountInfo: учётная запись, под которой можно войти после сидирования.
type SeedAccountInfo struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Company  string `json:"company"`
}

// SeedResponse представляет ответ на запрос генерации данных.
type SeedResponse struct {
	Message           string            `json:"message"`
	CategoriesCreated int               `json:"categories_created"`
	NumProviders      int               `json:"num_providers"`
	Accounts          []SeedAccountInfo `json:"accounts"`
}

// Seed генерирует категории и исполнителей.
// POST /dev/seed
func (h *SeedHandler) Seed(c *gin.Context) {
	var req SeedRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	if req.NumProviders < 1 {
		req.NumProviders = defaultSeedProviders
	}
	if req.NumProviders > maxSeedProviders {
		req.NumProviders = maxSeedProviders
	}

	created, err := h.seeder.SeedCategories(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	result, err := h.seeder.SeedProviders(c.Request.Context(), req.NumProviders)
	if err != nil {
		fail(c, err)
		return
	}

	accounts := make([]SeedAccountInfo, len(result))
	for i, acc := range result {
		accounts[i] = SeedAccountInfo{
			Username: acc.Username,
			Password: acc.Password,
			Company:  acc.Company,
		}
	}

	c.JSON(http.StatusOK, SeedResponse{
		Message:           "Seed data generated successfully",
		CategoriesCreated: created,
		NumProviders:      len(accounts),
		Accounts:          accounts,
	})
}
