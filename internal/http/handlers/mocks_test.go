package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/skills-directory/internal/http/middleware"
	"github.com/ignatzorin/skills-directory/internal/listing"
	"github.com/ignatzorin/skills-directory/internal/models"
	"github.com/ignatzorin/skills-directory/internal/service"
	"github.com/ignatzorin/skills-directory/internal/web"
)

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) MainPage(ctx context.Context) (*service.MainPage, error) {
	args := m.Called(ctx)
	page, _ := args.Get(0).(*service.MainPage)
	return page, args.Error(1)
}

func (m *mockDirectory) Search(ctx context.Context, term string, sort listing.Sort) ([]models.SkillListing, error) {
	args := m.Called(ctx, term, sort)
	rows, _ := args.Get(0).([]models.SkillListing)
	return rows, args.Error(1)
}

func (m *mockDirectory) Categories(ctx context.Context) ([]service.CategoryWithProviders, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]service.CategoryWithProviders)
	return rows, args.Error(1)
}

func (m *mockDirectory) CategoryRows(ctx context.Context, sort listing.Sort) ([]models.CategorySummary, error) {
	args := m.Called(ctx, sort)
	rows, _ := args.Get(0).([]models.CategorySummary)
	return rows, args.Error(1)
}

func (m *mockDirectory) CategoryDetail(ctx context.Context, slug string) (*service.CategoryWithProviders, error) {
	args := m.Called(ctx, slug)
	detail, _ := args.Get(0).(*service.CategoryWithProviders)
	return detail, args.Error(1)
}

func (m *mockDirectory) CategoryProviders(ctx context.Context, slug string, sort listing.Sort) ([]models.ProviderSummary, error) {
	args := m.Called(ctx, slug, sort)
	rows, _ := args.Get(0).([]models.ProviderSummary)
	return rows, args.Error(1)
}

func (m *mockDirectory) Profiles(ctx context.Context) ([]models.ProviderSummary, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]models.ProviderSummary)
	return rows, args.Error(1)
}

func (m *mockDirectory) Profile(ctx context.Context, username string) (*service.ProfilePage, error) {
	args := m.Called(ctx, username)
	page, _ := args.Get(0).(*service.ProfilePage)
	return page, args.Error(1)
}

type mockAccounts struct {
	mock.Mock
}

func (m *mockAccounts) Register(ctx context.Context, in service.RegisterInput, meta service.SessionMeta) (*service.AuthResult, error) {
	args := m.Called(ctx, in, meta)
	res, _ := args.Get(0).(*service.AuthResult)
	return res, args.Error(1)
}

func (m *mockAccounts) Login(ctx context.Context, in service.LoginInput, meta service.SessionMeta) (*service.AuthResult, error) {
	args := m.Called(ctx, in, meta)
	res, _ := args.Get(0).(*service.AuthResult)
	return res, args.Error(1)
}

func (m *mockAccounts) Logout(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

func (m *mockAccounts) ChangePassword(ctx context.Context, userID uuid.UUID, currentRefreshToken, oldPassword, newPassword string) error {
	return m.Called(ctx, userID, currentRefreshToken, oldPassword, newPassword).Error(0)
}

type mockProfiles struct {
	mock.Mock
}

func (m *mockProfiles) EditProfile(ctx context.Context, user *models.User) (*service.ProfileEdit, error) {
	args := m.Called(ctx, user)
	edit, _ := args.Get(0).(*service.ProfileEdit)
	return edit, args.Error(1)
}

func (m *mockProfiles) SaveProfile(ctx context.Context, user *models.User, in service.ProfileInput) (*models.Provider, error) {
	args := m.Called(ctx, user, in)
	p, _ := args.Get(0).(*models.Provider)
	return p, args.Error(1)
}

func (m *mockProfiles) SetPicture(ctx context.Context, user *models.User, mime string, r io.Reader) (*models.Provider, error) {
	args := m.Called(ctx, user, mime, r)
	p, _ := args.Get(0).(*models.Provider)
	return p, args.Error(1)
}

func (m *mockProfiles) AddSkill(ctx context.Context, user *models.User, in service.SkillInput) (*models.Skill, error) {
	args := m.Called(ctx, user, in)
	s, _ := args.Get(0).(*models.Skill)
	return s, args.Error(1)
}

func (m *mockProfiles) UpdateSkill(ctx context.Context, user *models.User, slug string, in service.SkillInput) (*models.Skill, error) {
	args := m.Called(ctx, user, slug, in)
	s, _ := args.Get(0).(*models.Skill)
	return s, args.Error(1)
}

// newTestRouter собирает движок с настоящими шаблонами. user, если задан,
// считается вошедшим.
func newTestRouter(t *testing.T, user *models.User) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	renderer, err := web.NewRenderer()
	require.NoError(t, err)

	r := gin.New()
	r.HTMLRender = renderer
	r.Use(middleware.ErrorHandler(RenderError))
	r.Use(func(c *gin.Context) {
		if user != nil {
			c.Set(middleware.ContextUserKey, user)
		}
		c.Next()
	})
	return r
}

func testUser(username string) *models.User {
	return &models.User{ID: uuid.New(), Username: username, FirstName: "John", LastName: "Smith", IsActive: true}
}

func postForm(r http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(r http.Handler, path string, xhr bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if xhr {
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range w.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func strPtr(s string) *string {
	return &s
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
